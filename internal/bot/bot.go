// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go принимает обновления Telegram и маршрутизирует игровые команды.
package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/bot/middleware"
	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/config"
	"gymlegend.ru/gym-bot/internal/features/admin"
	"gymlegend.ru/gym-bot/internal/features/clans"
	"gymlegend.ru/gym-bot/internal/features/players"
	"gymlegend.ru/gym-bot/internal/features/promo"
)

// adminCommands — команды, уходящие в административный обработчик.
// Сам обработчик проверяет уровень, здесь только маршрутизация.
var adminCommands = map[string]struct{}{
	"инфа": {}, "доступ": {}, "+баланс": {}, "-баланс": {},
	"бан": {}, "пермбан": {}, "разбан": {}, "сгник": {},
	"поднятия": {}, "заработок": {}, "банки": {}, "асила": {}, "лгантеля": {},
	"акланы": {}, "аигроки": {}, "акинфо": {}, "аксменить": {}, "акудалить": {},
	"удалить": {}, "удалить+": {}, "удалить-": {},
	"сбросвсех": {}, "сбросвсех+": {}, "сбросвсех-": {},
	"заявки": {}, "одобрить": {}, "отклонить": {},
	"назначить": {}, "снять": {}, "аник": {},
	"админпанель": {}, "статистика": {}, "рассылка": {}, "связь": {},
	"создатьпромокод": {}, "удалитьпромокод": {}, "промоинфо": {}, "админ": {},
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	rateLimiter *middleware.RateLimiter

	playerService *players.Service
	playerHandler *players.Handler
	clanHandler   *clans.Handler
	promoHandler  *promo.Handler
	adminHandler  *admin.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	playerService *players.Service,
	playerHandler *players.Handler,
	clanHandler *clans.Handler,
	promoHandler *promo.Handler,
	adminHandler *admin.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		playerService: playerService,
		playerHandler: playerHandler,
		clanHandler:   clanHandler,
		promoHandler:  promoHandler,
		adminHandler:  adminHandler,
		parser:        NewCommandParser(),
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" || update.Message.From == nil {
		return
	}
	message := update.Message
	defer middleware.RecoverCommand(message.From.ID, message.Text)

	middleware.LogMessage(message)

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	tgID := message.From.ID

	player, err := b.playerService.Ensure(ctx, tgID, message.From.UserName)
	if err != nil {
		log.WithError(err).WithField("tg_id", tgID).Warn("Ensure player failed")
		return
	}

	cmd, args, ok := b.parser.Parse(message.Text)
	if !ok {
		return
	}

	// Вход по паролю принимаем только в личке
	if cmd == "логин" {
		if message.Chat.IsPrivate() {
			b.adminHandler.HandleLogin(ctx, chatID, player.ID, tgID, args)
		}
		return
	}

	if player.IsBanned(time.Now()) {
		b.replyBanned(chatID, player)
		return
	}

	b.routeCommand(ctx, chatID, player, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID int64, player *players.Player, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":    cmd,
		"args":   args,
		"player": player.ID,
	}).Debug("routing command")

	if _, ok := adminCommands[cmd]; ok {
		b.adminHandler.HandleCommand(ctx, chatID, player.ID, cmd, args)
		return
	}

	switch cmd {
	case "start", "старт", "начать":
		b.playerHandler.HandleStart(ctx, chatID, player)

	case "профиль":
		b.playerHandler.HandleProfile(ctx, chatID, player)

	case "баланс":
		b.playerHandler.HandleBalance(ctx, chatID, player)

	case "поднять", "качать":
		b.playerHandler.HandleLift(ctx, chatID, player)

	case "магазин", "гантели":
		b.playerHandler.HandleShop(ctx, chatID, player)

	case "прокачаться", "улучшить":
		b.playerHandler.HandleUpgrade(ctx, chatID, player)

	case "перевод", "перевести":
		b.playerHandler.HandleTransfer(ctx, chatID, player, args)

	case "гник":
		b.playerHandler.HandleNickname(ctx, chatID, player, args)

	case "топ":
		b.playerHandler.HandleTop(ctx, chatID, args)

	case "промо":
		b.promoHandler.HandleRedeem(ctx, chatID, player.ID, args)

	case "к", "клан":
		b.clanHandler.HandleCommand(ctx, chatID, player.ID, player.DisplayName(), args)

	case "помощь", "help":
		b.playerHandler.HandleHelp(ctx, chatID)
	}
}

// replyBanned сообщает заблокированному игроку срок и причину.
func (b *Bot) replyBanned(chatID int64, player *players.Player) {
	reason := player.BanReason
	if reason == "" {
		reason = "не указана"
	}
	if player.PermBanned {
		b.sendMessage(chatID, "⛔ Вы заблокированы навсегда\n📝 Причина: "+reason)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(
		"🚫 Вы заблокированы до %s\n📝 Причина: %s",
		common.FormatDateTime(*player.BannedUntil), reason))
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
