// Package players — handlers.go обрабатывает команды игроков:
// начать, профиль, баланс, помощь, поднять, магазин, прокачаться,
// перевод, гник, топ.
package players

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/features/clans"
)

// Handler обрабатывает команды игроков.
type Handler struct {
	service     *Service
	clanService *clans.Service // Для блока клана в профиле
	bot         *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик команд игроков.
func NewHandler(service *Service, clanService *clans.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, clanService: clanService, bot: bot}
}

// HandleStart обрабатывает команду «начать» — приветствие нового игрока.
func (h *Handler) HandleStart(ctx context.Context, chatID int64, player *Player) {
	text := fmt.Sprintf(
		"𝐆𝐘𝐌 𝐋𝐄𝐆𝐄𝐍𝐃 💪\n\n"+
			"💪 Здесь ты можешь стать легендой фитнес-индустрии, Качком и Бизнесменом!\n\n"+
			"🔢 Твой игровой ID: %d\n"+
			"💰 Стартовый баланс: %s монет\n\n"+
			"👨‍💻 Напиши команду Помощь, чтобы узнать все команды подробнее. Удачи в развитии! 🫶",
		player.ID, common.FormatNumber(player.Balance),
	)
	h.sendMessage(chatID, text)
}

// HandleProfile обрабатывает команду «профиль».
func (h *Handler) HandleProfile(ctx context.Context, chatID int64, player *Player) {
	d, _ := DumbbellByLevel(player.DumbbellLevel)

	income := d.Income
	incomeNote := fmt.Sprintf("💰 Доход за подход: %d монет\n", income)
	if player.CustomIncome > 0 {
		incomeNote = fmt.Sprintf("💰 Доход за подход: %d монет ⚡\n", player.CustomIncome)
	}

	privileges := "Игрок"
	if player.AdminLevel > 0 {
		privileges = "👨‍💻 Администратор"
	}

	clanInfo := ""
	clanBonus := ""
	if player.ClanID != nil {
		if c, err := h.clanService.GetByID(ctx, *player.ClanID); err == nil {
			clanInfo = fmt.Sprintf("🏰 Клан: [%s] %s\n", c.Tag, c.Name)
			clanBonus = fmt.Sprintf("🏰 Бонус клана: +%d монет за поднятие\n", clans.LiftBonus(c.Level))
		}
	}

	text := fmt.Sprintf(
		"📑 Профиль игрока \n\n"+
			"💻 Игровой никнейм: [id%d|%s]\n"+
			"💎 Привилегии: %s\n"+
			"%s"+
			"💰 Баланс: %s монет\n"+
			"💪 Сила: %s\n"+
			"⚖️ Гантеля: %s\n"+
			"⭐ Уровень гантели: %d\n"+
			"%s%s"+
			"👨‍💻 Поднятий гантели: %s\n"+
			"📅 Дата регистрации: %s",
		player.ID, player.DisplayName(), privileges, clanInfo,
		common.FormatNumber(player.Balance), common.FormatNumber(player.Power),
		d.Name, player.DumbbellLevel, incomeNote, clanBonus,
		common.FormatNumber(player.TotalLifts), player.CreatedAt.Format("02.01.2006"),
	)
	h.sendMessage(chatID, text)
}

// HandleBalance обрабатывает команду «баланс».
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, player *Player) {
	h.sendMessage(chatID, fmt.Sprintf("💰 Ваш баланс: %s монет", common.FormatNumber(player.Balance)))
}

// HandleLift обрабатывает команду «поднять».
func (h *Handler) HandleLift(ctx context.Context, chatID int64, player *Player) {
	res, err := h.service.Lift(ctx, player)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrLiftCooldown):
			h.sendMessage(chatID, fmt.Sprintf("⏳ Отдохните ещё %d сек. перед следующим подходом", int(res.Remaining.Seconds())+1))
		case errors.Is(err, common.ErrBanned):
			h.sendMessage(chatID, "❌ Вы заблокированы и не можете играть")
		default:
			log.WithError(err).Error("Ошибка поднятия")
			h.sendMessage(chatID, "❌ Ошибка выполнения поднятия")
		}
		return
	}

	bonus := ""
	if res.ClanBonus > 0 {
		bonus = fmt.Sprintf("\n🏰 В казну клана: +%d %s", res.ClanBonus, common.PluralizeCoins(res.ClanBonus))
	}
	text := fmt.Sprintf(
		"🏋️‍♂️ Подход выполнен!\n\n"+
			"💰 Заработано: +%d %s\n"+
			"💪 Сила: +%d (всего %s)\n"+
			"💳 Баланс: %s монет%s",
		res.Income, common.PluralizeCoins(res.Income),
		res.PowerGain, common.FormatNumber(res.NewPower),
		common.FormatNumber(res.NewBalance), bonus,
	)
	h.sendMessage(chatID, text)
}

// HandleShop обрабатывает команду «магазин» — выводит линейку гантелей.
func (h *Handler) HandleShop(ctx context.Context, chatID int64, player *Player) {
	var b strings.Builder
	b.WriteString("🏋️‍♂️ Магазин гантелей:\n\n")
	for _, d := range AllDumbbells() {
		marker := "  "
		if d.Level == player.DumbbellLevel {
			marker = "✅"
		} else if d.Level == player.DumbbellLevel+1 {
			marker = "➡️"
		}
		b.WriteString(fmt.Sprintf(
			"%s %d. %s — %s монет\n💰 Доход: %d монет | 💪 Сила: %d\n\n",
			marker, d.Level, d.Name, common.FormatNumber(d.Price), d.Income, d.Power,
		))
	}
	current, _ := DumbbellByLevel(player.DumbbellLevel)
	b.WriteString(fmt.Sprintf(
		"💰 Ваш баланс: %s монет\n🏋️‍♂️ Текущая гантеля: %s\n\n💪 Как прокачаться: напишите «прокачаться»",
		common.FormatNumber(player.Balance), current.Name,
	))
	h.sendMessage(chatID, b.String())
}

// HandleUpgrade обрабатывает команду «прокачаться» — покупка следующей гантели.
func (h *Handler) HandleUpgrade(ctx context.Context, chatID int64, player *Player) {
	next, err := h.service.BuyNextDumbbell(ctx, player)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrMaxDumbbell):
			h.sendMessage(chatID, "🏆 У вас уже максимальная гантеля!")
		case errors.Is(err, common.ErrInsufficientBalance):
			want, _ := DumbbellByLevel(player.DumbbellLevel + 1)
			h.sendMessage(chatID, fmt.Sprintf(
				"❌ Недостаточно средств!\n💰 Нужно: %s монет\n💳 У вас: %s монет",
				common.FormatNumber(want.Price), common.FormatNumber(player.Balance),
			))
		default:
			log.WithError(err).Error("Ошибка прокачки")
			h.sendMessage(chatID, "❌ Ошибка покупки гантели")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Куплена %s за %s монет!\n💰 Доход за подход: %d монет\n💪 Сила за подход: %d",
		next.Name, common.FormatNumber(next.Price), next.Income, next.Power,
	))
}

// HandleTransfer обрабатывает команды «перевод» и «перевести».
//
// Формат: перевод [айди] [сумма]
func (h *Handler) HandleTransfer(ctx context.Context, chatID int64, player *Player, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: перевод [айди] [сумма]")
		return
	}

	toID, ok := common.ParsePlayerRef(args[0])
	if !ok {
		h.sendMessage(chatID, "❌ Укажите игровой ID получателя")
		return
	}
	amount, err := common.ParseAmount(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	recipient, fee, err := h.service.Transfer(ctx, player, toID, amount)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSelfTransfer):
			h.sendMessage(chatID, "❌ Нельзя переводить монеты самому себе")
		case errors.Is(err, common.ErrTransferTooSmall):
			h.sendMessage(chatID, "❌ Минимальная сумма перевода 10 монет")
		case errors.Is(err, common.ErrInsufficientBalance):
			h.sendMessage(chatID, fmt.Sprintf(
				"❌ Недостаточно средств для перевода!\n💰 Нужно: %s монет (с комиссией)\n💳 У вас: %s монет",
				common.FormatNumber(amount+h.service.TransferFee(amount)), common.FormatNumber(player.Balance),
			))
		case errors.Is(err, common.ErrPlayerNotFound):
			h.sendMessage(chatID, "❌ Игрок не найден")
		case errors.Is(err, common.ErrBanned):
			h.sendMessage(chatID, "❌ Получатель заблокирован")
		default:
			log.WithError(err).Error("Ошибка перевода")
			h.sendMessage(chatID, "❌ Ошибка выполнения перевода")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Перевод выполнен!\n\n"+
			"👤 Получатель: [id%d|%s]\n"+
			"💰 Сумма: %s монет\n"+
			"💸 Комиссия: %s %s",
		recipient.ID, recipient.DisplayName(),
		common.FormatNumber(amount), common.FormatNumber(fee), common.PluralizeCoins(fee),
	))
}

// HandleNickname обрабатывает команду «гник [ник]».
func (h *Handler) HandleNickname(ctx context.Context, chatID int64, player *Player, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: гник [новый ник]")
		return
	}
	nickname := strings.Join(args, " ")

	if err := h.service.SetNickname(ctx, player, nickname); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidNickname):
			h.sendMessage(chatID, "❌ Ник должен быть 3-20 символов: буквы, цифры, пробел, «-», «_», без двойных пробелов")
		case errors.Is(err, common.ErrNicknameTaken):
			h.sendMessage(chatID, "❌ Этот ник уже занят")
		default:
			log.WithError(err).Error("Ошибка смены ника")
			h.sendMessage(chatID, "❌ Ошибка смены ника")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Игровой ник изменён на «%s»", strings.TrimSpace(nickname)))
}

// HandleTop обрабатывает команды «топ», «топ монет», «топ поднятий», «топ заработка».
func (h *Handler) HandleTop(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID,
			"🏆 Рейтинги:\n"+
				"🥇 Топ монет - топ по балансу\n"+
				"🥇 Топ поднятий - топ по поднятиям\n"+
				"🥇 Топ заработка - топ по заработку")
		return
	}

	kind := TopKind(strings.ToLower(args[0]))
	top, err := h.service.Top(ctx, kind)
	if err != nil {
		log.WithError(err).Error("Ошибка получения топа")
		h.sendMessage(chatID, "❌ Ошибка получения рейтинга")
		return
	}

	var b strings.Builder
	switch kind {
	case TopByLifts:
		b.WriteString("🏆 Топ по поднятиям:\n\n")
	case TopByEarned:
		b.WriteString("🏆 Топ по заработку:\n\n")
	default:
		b.WriteString("🏆 Топ по балансу:\n\n")
	}
	medals := []string{"🥇", "🥈", "🥉"}
	for i, p := range top {
		place := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			place = medals[i]
		}
		var value int64
		switch kind {
		case TopByLifts:
			value = p.TotalLifts
		case TopByEarned:
			value = p.TotalEarned
		default:
			value = p.Balance
		}
		b.WriteString(fmt.Sprintf("%s %s — %s\n", place, p.DisplayName(), common.FormatNumber(value)))
	}
	h.sendMessage(chatID, b.String())
}

// HandleHelp обрабатывает команду «помощь».
func (h *Handler) HandleHelp(ctx context.Context, chatID int64) {
	h.sendMessage(chatID,
		"🏋️‍♂️ Gym Legend - Доступные команды:\n\n"+
			"📊 Профиль и информация:\n"+
			"📒 Профиль - ваш профиль\n"+
			"📒 Баланс - текущий баланс\n\n"+
			"💪 Гантели:\n"+
			"♦️ Поднять - поднять гантелю\n"+
			"♦️ Прокачаться - улучшить гантелю\n"+
			"♦️ Магазин - магазин гантелей\n\n"+
			"🏰 Кланы:\n"+
			"🗡️ К создать [ТЭГ] [название] - создать клан (300 монет)\n"+
			"🗡️ К улучшить - улучшить уровень клана\n"+
			"🗡️ К казна - посмотреть казну клана\n"+
			"🗡️ К профиль - информация о клане\n"+
			"🗡️ К топ - топ кланов\n"+
			"🗡️ К положить [сумма] - положить деньги в казну\n"+
			"🗡️ К распределить всем [сумма] - распределить казну\n\n"+
			"💸 Перевод денег:\n"+
			"💚 Перевод [айди] [сумма] - перевести деньги\n\n"+
			"🎫 Промокоды:\n"+
			"👑 Промо [код] - активировать промокод\n\n"+
			"🏆 Рейтинги:\n"+
			"🥇 Топ монет - топ по балансу\n"+
			"🥇 Топ поднятий - топ по поднятиям\n"+
			"🥇 Топ заработка - топ по заработку\n\n"+
			"✏️ Гник [ник] - сменить игровой ник")
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
