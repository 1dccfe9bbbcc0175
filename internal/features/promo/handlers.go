package promo

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/common"
)

// Handler обрабатывает команду «промо» от игроков.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик промокодов.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleRedeem обрабатывает «промо [код]».
func (h *Handler) HandleRedeem(ctx context.Context, chatID, playerID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: промо [код]")
		return
	}

	res, err := h.service.Redeem(ctx, args[0], playerID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrPromoNotFound):
			h.sendMessage(chatID, "❌ Такого промокода не существует!")
		case errors.Is(err, common.ErrPromoExpired):
			h.sendMessage(chatID, "❌ Срок действия промокода истёк!")
		case errors.Is(err, common.ErrPromoExhausted):
			h.sendMessage(chatID, "❌ Все активации промокода уже разобраны!")
		default:
			log.WithError(err).Error("Ошибка активации промокода")
			h.sendMessage(chatID, "❌ Ошибка активации промокода")
		}
		return
	}

	var reward string
	switch res.RewardType {
	case RewardCoins:
		reward = fmt.Sprintf("💰 +%s", common.FormatCoins(res.Amount))
	case RewardMagnesia:
		reward = fmt.Sprintf("🧂 +%s магнезии", common.FormatNumber(res.Amount))
	case RewardPower:
		reward = fmt.Sprintf("💪 +%s силы", common.FormatNumber(res.Amount))
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🎁 Промокод «%s» активирован!\n\n%s", res.Code.Code, reward,
	))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
