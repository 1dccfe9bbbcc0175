// Package clans — handlers.go обрабатывает команды группы «к ...»:
// создание, казна, состав, роли, распределения и роспуск.
package clans

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/common"
)

// Handler обрабатывает клановые команды.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт новый обработчик клановых команд.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleCommand разбирает подкоманду после «к» и выполняет её.
// actorID — игровой ID, actorName — имя для приветствий и логов.
func (h *Handler) HandleCommand(ctx context.Context, chatID, actorID int64, actorName string, args []string) {
	if len(args) == 0 {
		h.handleProfile(ctx, chatID, actorID)
		return
	}

	sub := strings.ToLower(args[0])
	rest := args[1:]

	switch sub {
	case "создать":
		h.handleCreate(ctx, chatID, actorID, rest)
	case "профиль":
		h.handleProfile(ctx, chatID, actorID)
	case "казна":
		h.handleTreasury(ctx, chatID, actorID)
	case "топ":
		h.handleTop(ctx, chatID)
	case "улучшить":
		h.handleUpgrade(ctx, chatID, actorID, rest)
	case "положить":
		h.handleDeposit(ctx, chatID, actorID, rest)
	case "снять":
		h.handleWithdrawOrDemote(ctx, chatID, actorID, rest)
	case "распределить":
		h.handleDistribute(ctx, chatID, actorID, rest)
	case "вступить":
		h.handleJoin(ctx, chatID, actorID, actorName, rest)
	case "покинуть":
		h.handleLeave(ctx, chatID, actorID)
	case "кик":
		h.handleKick(ctx, chatID, actorID, rest)
	case "восстановить":
		h.handleUnban(ctx, chatID, actorID, rest)
	case "передать":
		h.handleTransfer(ctx, chatID, actorID, rest)
	case "распустить":
		h.handleDisband(ctx, chatID, actorID, rest)
	case "переименовать":
		h.handleRename(ctx, chatID, actorID, rest)
	case "назначить":
		h.handlePromote(ctx, chatID, actorID, rest)
	case "описание":
		h.handleDescription(ctx, chatID, actorID, rest)
	case "требование":
		h.handleRequirement(ctx, chatID, actorID, rest)
	case "приветствие":
		h.handleGreeting(ctx, chatID, actorID, rest)
	case "список", "состав":
		h.handleMembers(ctx, chatID, actorID)
	case "вклады":
		h.handleContributions(ctx, chatID, actorID)
	case "инфо":
		h.handleInfo(ctx, chatID, rest)
	case "поиск":
		h.handleSearch(ctx, chatID, rest)
	case "лог":
		h.handleLog(ctx, chatID, actorID)
	case "помощь":
		h.handleHelp(chatID)
	default:
		h.sendMessage(chatID, "❌ Неизвестная команда клана. Напишите «к помощь»")
	}
}

func (h *Handler) handleCreate(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: к создать [ТЭГ] [название]")
		return
	}

	clan, err := h.service.Create(ctx, actorID, args[0], strings.Join(args[1:], " "))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidClanTag):
			h.sendMessage(chatID, "❌ Тег должен состоять из 3 заглавных латинских букв, например LEG")
		case errors.Is(err, common.ErrInvalidClanName):
			h.sendMessage(chatID, "❌ Название клана должно быть от 3 до 20 символов")
		case errors.Is(err, common.ErrAlreadyInClan):
			h.sendMessage(chatID, "❌ Вы уже состоите в клане!")
		case errors.Is(err, common.ErrClanTagTaken):
			h.sendMessage(chatID, "❌ Клан с таким тегом уже существует!")
		case errors.Is(err, common.ErrClanNameTaken):
			h.sendMessage(chatID, "❌ Клан с таким названием уже существует!")
		case errors.Is(err, common.ErrInsufficientBalance):
			h.sendMessage(chatID, "❌ Недостаточно монет для создания клана!")
		default:
			log.WithError(err).Error("Ошибка создания клана")
			h.sendMessage(chatID, "❌ Ошибка создания клана")
		}
		return
	}

	b := BonusesForLevel(clan.Level)
	h.sendMessage(chatID, fmt.Sprintf(
		"🏰 Клан создан!\n\n"+
			"🏷️ [%s] %s\n"+
			"⭐ Уровень: %d\n"+
			"💰 Казна: 0 монет\n\n"+
			"🎯 Бонусы клана:\n%s\n\n"+
			"💡 Команды клана: К помощь",
		clan.Tag, clan.Name, clan.Level, b.Format(),
	))
}

func (h *Handler) handleProfile(ctx context.Context, chatID, actorID int64) {
	clan, _, err := h.service.MemberClan(ctx, actorID)
	if err != nil {
		h.replyMembershipError(chatID, err, "Ошибка получения профиля клана")
		return
	}

	req := "нет"
	if clan.MinDumbbell > 0 {
		req = fmt.Sprintf("%d+ уровень гантели", clan.MinDumbbell)
	}
	desc := clan.Description
	if desc == "" {
		desc = "Нет описания"
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🏰 ПРОФИЛЬ КЛАНА [%s]\n\n"+
			"🏷️ Название: %s\n"+
			"👑 Владелец: id%d\n"+
			"⭐ Уровень: %d\n"+
			"👥 Участников: %d\n"+
			"💰 Казна: %s монет\n"+
			"📅 Основан: %s\n"+
			"🎯 Требования: %s\n\n"+
			"📝 Описание:\n%s\n\n"+
			"💡 Команды клана: К помощь",
		clan.Tag, clan.Name, clan.OwnerID, clan.Level, clan.MemberCount,
		common.FormatNumber(clan.Treasury), clan.CreatedAt.Format("02.01.2006"), req, desc,
	))
}

func (h *Handler) handleTreasury(ctx context.Context, chatID, actorID int64) {
	clan, top, entries, err := h.service.Treasury(ctx, actorID)
	if err != nil {
		h.replyMembershipError(chatID, err, "Ошибка получения казны")
		return
	}

	var members strings.Builder
	for i, c := range top {
		members.WriteString(fmt.Sprintf("%d. %s - %s монет\n", i+1, c.Name, common.FormatNumber(c.Contribution)))
	}

	var logText strings.Builder
	for _, e := range entries {
		emoji := "📊"
		switch e.Op {
		case OpDeposit:
			emoji = "➕"
		case OpWithdraw:
			emoji = "➖"
		case OpUpgrade:
			emoji = "⬆️"
		case OpLiftBonus:
			emoji = "🏋️"
		case OpDistribute:
			emoji = "💸"
		}
		name := e.Name
		if e.PlayerID == 0 {
			name = "Система"
		}
		logText.WriteString(fmt.Sprintf("%s %s: %s монет (%s)\n",
			emoji, name, common.FormatNumber(e.Amount), e.CreatedAt.Format("02.01 15:04")))
	}

	b := BonusesForLevel(clan.Level)
	h.sendMessage(chatID, fmt.Sprintf(
		"🏦 КАЗНА КЛАНА [%s]\n\n"+
			"🏷️ Название: %s\n"+
			"⭐ Уровень: %d\n"+
			"💰 Казна: %s монет\n"+
			"👥 Участников: %d\n\n"+
			"🎯 Бонусы клана:\n"+
			"├─ 💼 +%d%% от бизнесов в казну\n"+
			"├─ 🏋️ +%d монет в казну с каждого поднятия\n\n"+
			"🏆 Топ вкладчиков:\n%s\n"+
			"📜 Последние операции:\n%s\n"+
			"💡 Положить деньги: К положить [сумма]\n"+
			"💡 Снять деньги: К снять [сумма]",
		clan.Tag, clan.Name, clan.Level, common.FormatNumber(clan.Treasury), clan.MemberCount,
		b.BusinessPercent, b.LiftCoins, members.String(), logText.String(),
	))
}

func (h *Handler) handleTop(ctx context.Context, chatID int64) {
	clans, err := h.service.Top(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения топа кланов")
		h.sendMessage(chatID, "❌ Ошибка получения топа кланов")
		return
	}
	if len(clans) == 0 {
		h.sendMessage(chatID, "🏆 Пока нет созданных кланов. Создайте первый!")
		return
	}

	var b strings.Builder
	b.WriteString("🏆 ТОП КЛАНОВ GYM LEGEND\n\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for i, c := range clans {
		medal := "🔸"
		if i < len(medals) {
			medal = medals[i]
		}
		bonus := BonusesForLevel(c.Level)
		b.WriteString(fmt.Sprintf(
			"%s %d. [%s] %s\n"+
				"   ⭐ Уровень: %d | 👥 %d %s\n"+
				"   🏦 Казна: %s монет\n"+
				"   🎯 Бонусы: +%d%% от бизнесов, +%d монет с поднятий\n\n",
			medal, i+1, c.Tag, c.Name, c.Level, c.MemberCount, common.PluralizeMembers(c.MemberCount),
			common.FormatNumber(c.Treasury), bonus.BusinessPercent, bonus.LiftCoins,
		))
	}
	b.WriteString("💡 Создать клан: К создать [ТЭГ] [название]")
	h.sendMessage(chatID, b.String())
}

func (h *Handler) handleUpgrade(ctx context.Context, chatID, actorID int64, args []string) {
	var (
		clan *Clan
		res  *UpgradeResult
		err  error
	)
	if len(args) > 0 && strings.EqualFold(args[0], "макс") {
		clan, res, err = h.service.UpgradeMax(ctx, actorID)
	} else {
		clan, res, err = h.service.UpgradeOne(ctx, actorID)
	}
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrNotClanLeader):
			h.sendMessage(chatID, "❌ Улучшать клан может только владелец!")
		case errors.Is(err, common.ErrClanMaxLevel):
			h.sendMessage(chatID, "🏆 Клан уже максимального уровня!")
		case errors.Is(err, common.ErrInsufficientTreasury):
			h.sendMessage(chatID, "❌ В казне недостаточно монет для улучшения!")
		default:
			log.WithError(err).Error("Ошибка улучшения клана")
			h.sendMessage(chatID, "❌ Ошибка улучшения клана")
		}
		return
	}

	oldB := BonusesForLevel(res.OldLevel)
	newB := BonusesForLevel(res.NewLevel)
	h.sendMessage(chatID, fmt.Sprintf(
		"⬆️ Клан [%s] улучшен!\n\n"+
			"⭐ Уровень: %d → %d\n"+
			"💰 Потрачено: %s монет\n"+
			"🏦 Остаток в казне: %s монет\n\n"+
			"🎯 Новые бонусы:\n"+
			"├─ 💼 Бизнесы: +%d%% → +%d%%\n"+
			"├─ 🏋️ Поднятия: +%d → +%d монет\n"+
			"└─ 👥 Лимит участников: %d → %d",
		clan.Tag, res.OldLevel, res.NewLevel,
		common.FormatNumber(res.Spent), common.FormatNumber(res.NewTreasury),
		oldB.BusinessPercent, newB.BusinessPercent,
		oldB.LiftCoins, newB.LiftCoins,
		oldB.MemberLimit, newB.MemberLimit,
	))
}

func (h *Handler) handleDeposit(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: к положить [сумма]")
		return
	}
	amount, err := common.ParseAmount(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом!")
		return
	}

	clan, newTreasury, err := h.service.Deposit(ctx, actorID, amount)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrInsufficientBalance):
			h.sendMessage(chatID, "❌ Недостаточно монет на счёте!")
		default:
			log.WithError(err).Error("Ошибка пополнения казны")
			h.sendMessage(chatID, "❌ Ошибка пополнения казны")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"➕ Казна пополнена!\n\n"+
			"🏰 Клан: [%s] %s\n"+
			"💰 Внесено: %s монет\n"+
			"🏦 В казне: %s монет",
		clan.Tag, clan.Name, common.FormatNumber(amount), common.FormatNumber(newTreasury),
	))
}

// handleWithdrawOrDemote различает «к снять [сумма]» (снятие из казны)
// и «к снять [id...]» в форме упоминания (снятие заместителя).
func (h *Handler) handleWithdrawOrDemote(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: к снять [сумма] или к снять [id заместителя]")
		return
	}
	if strings.HasPrefix(args[0], "[id") {
		h.handleDemote(ctx, chatID, actorID, args)
		return
	}
	amount, err := common.ParseAmount(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом!")
		return
	}

	clan, newTreasury, err := h.service.Withdraw(ctx, actorID, amount)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrNotClanOfficer):
			h.sendMessage(chatID, "❌ Снимать из казны могут владелец и заместители!")
		case errors.Is(err, common.ErrInsufficientTreasury):
			h.sendMessage(chatID, "❌ В казне клана недостаточно монет!")
		default:
			log.WithError(err).Error("Ошибка снятия из казны")
			h.sendMessage(chatID, "❌ Ошибка снятия из казны")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"➖ Снято из казны!\n\n"+
			"🏰 Клан: [%s] %s\n"+
			"💰 Снято: %s монет\n"+
			"🏦 Остаток: %s монет",
		clan.Tag, clan.Name, common.FormatNumber(amount), common.FormatNumber(newTreasury),
	))
}

func (h *Handler) handleDistribute(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: к распределить всем [сумма] или к распределить топ [сумма]")
		return
	}
	mode := strings.ToLower(args[0])
	perMember, err := common.ParseAmount(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом!")
		return
	}

	var (
		clan *Clan
		res  *DistributeResult
	)
	switch mode {
	case "всем":
		clan, res, err = h.service.DistributeEqual(ctx, actorID, perMember)
	case "топ":
		clan, res, err = h.service.DistributeTop(ctx, actorID, perMember)
	default:
		h.sendMessage(chatID, "❌ Формат: к распределить всем [сумма] или к распределить топ [сумма]")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrNotClanOfficer):
			h.sendMessage(chatID, "❌ Распределять казну могут владелец и заместители!")
		case errors.Is(err, common.ErrInsufficientTreasury):
			h.sendMessage(chatID, "❌ Недостаточно средств в казне!")
		default:
			log.WithError(err).Error("Ошибка распределения казны")
			h.sendMessage(chatID, "❌ Ошибка распределения казны")
		}
		return
	}

	var recipients strings.Builder
	shown := res.Recipients
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, rec := range shown {
		recipients.WriteString(fmt.Sprintf("%s: %s монет\n", rec.Name, common.FormatNumber(res.PerMember)))
	}
	more := ""
	if len(res.Recipients) > 5 {
		more = fmt.Sprintf("...и ещё %d участников\n", len(res.Recipients)-5)
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"💰 Казна распределена!\n\n"+
			"🏰 Клан: [%s] %s\n"+
			"👥 Получателей: %d\n"+
			"💸 Каждому: %s монет\n"+
			"💰 Всего выдано: %s монет\n"+
			"🏦 Остаток в казне: %s монет\n\n"+
			"📋 Получили:\n%s%s",
		clan.Tag, clan.Name, len(res.Recipients),
		common.FormatNumber(res.PerMember), common.FormatNumber(res.Total),
		common.FormatNumber(res.NewTreasury), recipients.String(), more,
	))
}

func (h *Handler) handleJoin(ctx context.Context, chatID, actorID int64, actorName string, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: к вступить [ТЭГ]")
		return
	}

	clan, greeting, err := h.service.Join(ctx, actorID, args[0], actorName)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrClanNotFound):
			h.sendMessage(chatID, "❌ Клан с таким тегом не найден!")
		case errors.Is(err, common.ErrAlreadyInClan):
			h.sendMessage(chatID, "❌ Вы уже состоите в клане!")
		case errors.Is(err, common.ErrBanned):
			h.sendMessage(chatID, "❌ Вы в бан-листе этого клана!")
		case errors.Is(err, common.ErrPermissionDenied):
			h.sendMessage(chatID, "❌ Ваша гантеля слабовата для этого клана!")
		case errors.Is(err, common.ErrClanFull):
			h.sendMessage(chatID, "❌ В клане нет свободных мест!")
		default:
			log.WithError(err).Error("Ошибка вступления в клан")
			h.sendMessage(chatID, "❌ Ошибка вступления в клан")
		}
		return
	}

	text := fmt.Sprintf("✅ Вы вступили в клан [%s] %s!", clan.Tag, clan.Name)
	if greeting != "" {
		text += "\n\n💬 " + greeting
	}
	h.sendMessage(chatID, text)
}

func (h *Handler) handleLeave(ctx context.Context, chatID, actorID int64) {
	clan, err := h.service.Leave(ctx, actorID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrPermissionDenied):
			h.sendMessage(chatID, "❌ Владелец не может покинуть клан. Передайте клан или распустите его")
		default:
			log.WithError(err).Error("Ошибка выхода из клана")
			h.sendMessage(chatID, "❌ Ошибка выхода из клана")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("👋 Вы покинули клан [%s] %s", clan.Tag, clan.Name))
}

func (h *Handler) handleKick(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseRef(chatID, args, "к кик [id]")
	if !ok {
		return
	}

	clan, err := h.service.Kick(ctx, actorID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Игрок не состоит в вашем клане!")
		case errors.Is(err, common.ErrNotClanOfficer):
			h.sendMessage(chatID, "❌ Кикать могут владелец и заместители!")
		case errors.Is(err, common.ErrKickPeer):
			h.sendMessage(chatID, "❌ Заместитель не может исключить другого заместителя!")
		case errors.Is(err, common.ErrPermissionDenied):
			h.sendMessage(chatID, "❌ Этого игрока исключить нельзя!")
		default:
			log.WithError(err).Error("Ошибка кика")
			h.sendMessage(chatID, "❌ Ошибка исключения игрока")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🚫 Игрок id%d исключён из клана [%s] и занесён в бан-лист", targetID, clan.Tag))
}

func (h *Handler) handleUnban(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseRef(chatID, args, "к восстановить [id]")
	if !ok {
		return
	}

	clan, err := h.service.Unban(ctx, actorID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrNotClanOfficer):
			h.sendMessage(chatID, "❌ Восстанавливать могут владелец и заместители!")
		case errors.Is(err, common.ErrPlayerNotFound):
			h.sendMessage(chatID, "❌ Игрока нет в бан-листе клана!")
		default:
			log.WithError(err).Error("Ошибка восстановления")
			h.sendMessage(chatID, "❌ Ошибка восстановления игрока")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Игрок id%d удалён из бан-листа клана [%s]", targetID, clan.Tag))
}

func (h *Handler) handleTransfer(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseRef(chatID, args, "к передать [id]")
	if !ok {
		return
	}

	clan, err := h.service.TransferOwnership(ctx, actorID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Игрок должен состоять в вашем клане!")
		case errors.Is(err, common.ErrNotClanLeader):
			h.sendMessage(chatID, "❌ Передать клан может только владелец!")
		case errors.Is(err, common.ErrSelfTransfer):
			h.sendMessage(chatID, "❌ Клан уже ваш!")
		case errors.Is(err, common.ErrInsufficientBalance):
			h.sendMessage(chatID, "❌ Недостаточно монет для передачи клана!")
		default:
			log.WithError(err).Error("Ошибка передачи клана")
			h.sendMessage(chatID, "❌ Ошибка передачи клана")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"👑 Клан [%s] передан игроку id%d!\nВы теперь заместитель.", clan.Tag, targetID,
	))
}

func (h *Handler) handleDisband(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "подтвердить":
			clan, err := h.service.DisbandConfirm(ctx, actorID)
			if err != nil {
				switch {
				case errors.Is(err, common.ErrNoConfirmation):
					h.sendMessage(chatID, "❌ Нет активного запроса на роспуск. Сначала напишите «к распустить»")
				case errors.Is(err, common.ErrNotClanLeader):
					h.sendMessage(chatID, "❌ Распустить клан может только владелец!")
				case errors.Is(err, common.ErrNotInClan):
					h.sendMessage(chatID, "❌ Вы не состоите в клане!")
				default:
					log.WithError(err).Error("Ошибка роспуска клана")
					h.sendMessage(chatID, "❌ Ошибка роспуска клана")
				}
				return
			}
			h.sendMessage(chatID, fmt.Sprintf("💥 Клан [%s] %s распущен. Казна утеряна.", clan.Tag, clan.Name))
			return
		case "отмена":
			if err := h.service.DisbandCancel(ctx, actorID); err != nil {
				log.WithError(err).Error("Ошибка отмены роспуска")
			}
			h.sendMessage(chatID, "✅ Роспуск клана отменён")
			return
		}
	}

	clan, err := h.service.DisbandRequest(ctx, actorID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrNotClanLeader):
			h.sendMessage(chatID, "❌ Распустить клан может только владелец!")
		default:
			log.WithError(err).Error("Ошибка запроса роспуска")
			h.sendMessage(chatID, "❌ Ошибка запроса роспуска")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"⚠️ Вы уверены, что хотите распустить клан [%s] %s?\n"+
			"Казна (%s монет) будет утеряна!\n\n"+
			"Подтвердите в течение 5 минут: к распустить подтвердить",
		clan.Tag, clan.Name, common.FormatNumber(clan.Treasury),
	))
}

func (h *Handler) handleRename(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: к переименовать [новое название]")
		return
	}

	clan, name, err := h.service.Rename(ctx, actorID, strings.Join(args, " "))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidClanName):
			h.sendMessage(chatID, "❌ Название клана должно быть от 3 до 20 символов")
		case errors.Is(err, common.ErrNotClanLeader):
			h.sendMessage(chatID, "❌ Переименовать клан может только владелец!")
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrClanNameTaken):
			h.sendMessage(chatID, "❌ Клан с таким названием уже существует!")
		default:
			log.WithError(err).Error("Ошибка переименования клана")
			h.sendMessage(chatID, "❌ Ошибка переименования клана")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✏️ Клан [%s] теперь называется «%s»", clan.Tag, name))
}

func (h *Handler) handlePromote(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseRef(chatID, args, "к назначить [id]")
	if !ok {
		return
	}

	clan, err := h.service.Promote(ctx, actorID, targetID)
	if err != nil {
		h.replyRoleError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("⭐ Игрок id%d назначен заместителем клана [%s]", targetID, clan.Tag))
}

func (h *Handler) handleDemote(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseRef(chatID, args, "к снять [id]")
	if !ok {
		return
	}

	clan, err := h.service.Demote(ctx, actorID, targetID)
	if err != nil {
		h.replyRoleError(chatID, err)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("👤 Игрок id%d снят с должности заместителя клана [%s]", targetID, clan.Tag))
}

func (h *Handler) replyRoleError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNotInClan):
		h.sendMessage(chatID, "❌ Игрок должен состоять в вашем клане!")
	case errors.Is(err, common.ErrNotClanLeader):
		h.sendMessage(chatID, "❌ Управлять ролями может только владелец!")
	case errors.Is(err, common.ErrPermissionDenied):
		h.sendMessage(chatID, "❌ Нельзя менять роль владельца!")
	default:
		log.WithError(err).Error("Ошибка смены роли")
		h.sendMessage(chatID, "❌ Ошибка смены роли")
	}
}

func (h *Handler) handleDescription(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: к описание [текст до 500 символов]")
		return
	}
	clan, err := h.service.SetDescription(ctx, actorID, strings.Join(args, " "))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrNotClanOfficer):
			h.sendMessage(chatID, "❌ Менять описание могут владелец и заместители!")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Описание не должно превышать 500 символов")
		default:
			log.WithError(err).Error("Ошибка смены описания")
			h.sendMessage(chatID, "❌ Ошибка смены описания")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("📝 Описание клана [%s] обновлено", clan.Tag))
}

func (h *Handler) handleRequirement(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: к требование [уровень гантели 0-20]")
		return
	}
	level, err := strconv.Atoi(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Уровень должен быть числом от 0 до 20")
		return
	}

	clan, err := h.service.SetRequirement(ctx, actorID, level)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Уровень должен быть числом от 0 до 20")
		case errors.Is(err, common.ErrNotClanLeader):
			h.sendMessage(chatID, "❌ Менять требования может только владелец!")
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		default:
			log.WithError(err).Error("Ошибка смены требования")
			h.sendMessage(chatID, "❌ Ошибка смены требования")
		}
		return
	}
	if level == 0 {
		h.sendMessage(chatID, fmt.Sprintf("🎯 Клан [%s] теперь открыт для всех", clan.Tag))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🎯 Для вступления в [%s] теперь нужна гантеля %d+ уровня", clan.Tag, level))
}

func (h *Handler) handleGreeting(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: к приветствие [текст до 200 символов, «нет» — убрать]\nПлейсхолдеры: {player}, {clan}, {tag}")
		return
	}
	clan, err := h.service.SetGreeting(ctx, actorID, strings.Join(args, " "))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrNotClanOfficer):
			h.sendMessage(chatID, "❌ Менять приветствие могут владелец и заместители!")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Приветствие не должно превышать 200 символов")
		default:
			log.WithError(err).Error("Ошибка смены приветствия")
			h.sendMessage(chatID, "❌ Ошибка смены приветствия")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("💬 Приветствие клана [%s] обновлено", clan.Tag))
}

func (h *Handler) handleMembers(ctx context.Context, chatID, actorID int64) {
	clan, members, err := h.service.Members(ctx, actorID)
	if err != nil {
		h.replyMembershipError(chatID, err, "Ошибка получения состава")
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("👥 СОСТАВ КЛАНА [%s] %s\n\n", clan.Tag, clan.Name))
	for i, m := range members {
		emoji := "👤"
		switch m.Role {
		case RoleOwner:
			emoji = "👑"
		case RoleOfficer:
			emoji = "⭐"
		}
		b.WriteString(fmt.Sprintf("%d. %s %s — вклад %s, сила %s\n",
			i+1, emoji, m.Name, common.FormatNumber(m.Contribution), common.FormatNumber(m.Power)))
	}
	b.WriteString(fmt.Sprintf("\n👥 Всего: %d %s (лимит %d)",
		len(members), common.PluralizeMembers(len(members)), BonusesForLevel(clan.Level).MemberLimit))
	h.sendMessage(chatID, b.String())
}

func (h *Handler) handleContributions(ctx context.Context, chatID, actorID int64) {
	clan, top, err := h.service.Contributions(ctx, actorID)
	if err != nil {
		h.replyMembershipError(chatID, err, "Ошибка получения вкладов")
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("💰 ВКЛАДЫ В КАЗНУ [%s]\n\n", clan.Tag))
	for i, c := range top {
		b.WriteString(fmt.Sprintf("%d. %s — %s монет\n", i+1, c.Name, common.FormatNumber(c.Contribution)))
	}
	h.sendMessage(chatID, b.String())
}

func (h *Handler) handleInfo(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: к инфо [ТЭГ]")
		return
	}
	clan, err := h.service.GetByTag(ctx, args[0])
	if err != nil {
		if errors.Is(err, common.ErrClanNotFound) {
			h.sendMessage(chatID, "❌ Клан с таким тегом не найден!")
			return
		}
		log.WithError(err).Error("Ошибка поиска клана")
		h.sendMessage(chatID, "❌ Ошибка поиска клана")
		return
	}

	req := "нет"
	if clan.MinDumbbell > 0 {
		req = fmt.Sprintf("%d+ уровень гантели", clan.MinDumbbell)
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"🔎 КЛАН [%s]\n\n"+
			"🏷️ Название: %s\n"+
			"⭐ Уровень: %d\n"+
			"👥 Участников: %d/%d\n"+
			"🎯 Требования: %s\n"+
			"📅 Основан: %s\n\n"+
			"💡 Вступить: к вступить %s",
		clan.Tag, clan.Name, clan.Level, clan.MemberCount,
		BonusesForLevel(clan.Level).MemberLimit, req,
		clan.CreatedAt.Format("02.01.2006"), clan.Tag,
	))
}

func (h *Handler) handleSearch(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: к поиск [часть названия]")
		return
	}
	found, err := h.service.Search(ctx, strings.Join(args, " "))
	if err != nil || len(found) == 0 {
		h.sendMessage(chatID, "🔎 Ничего не найдено")
		return
	}

	var b strings.Builder
	b.WriteString("🔎 Найденные кланы:\n\n")
	for _, c := range found {
		b.WriteString(fmt.Sprintf("[%s] %s — уровень %d, %d %s\n",
			c.Tag, c.Name, c.Level, c.MemberCount, common.PluralizeMembers(c.MemberCount)))
	}
	h.sendMessage(chatID, b.String())
}

func (h *Handler) handleLog(ctx context.Context, chatID, actorID int64) {
	clan, entries, err := h.service.Log(ctx, actorID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotInClan):
			h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		case errors.Is(err, common.ErrNotClanOfficer):
			h.sendMessage(chatID, "❌ Лог доступен владельцу и заместителям!")
		default:
			log.WithError(err).Error("Ошибка получения лога клана")
			h.sendMessage(chatID, "❌ Ошибка получения лога клана")
		}
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📜 ЛОГ КЛАНА [%s]\n\n", clan.Tag))
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("• %s: %s (%s)\n", e.Name, e.Details, common.FormatDateTime(e.CreatedAt)))
	}
	if len(entries) == 0 {
		b.WriteString("Пока пусто")
	}
	h.sendMessage(chatID, b.String())
}

func (h *Handler) handleHelp(chatID int64) {
	h.sendMessage(chatID,
		"🏰 Команды кланов:\n\n"+
			"🗂️ Основные:\n"+
			"к — профиль клана\n"+
			"к казна — казна и лог операций\n"+
			"к топ — топ кланов\n"+
			"к состав — список участников\n"+
			"к вклады — вклады в казну\n"+
			"к инфо [ТЭГ] — информация о клане\n"+
			"к поиск [название] — поиск клана\n\n"+
			"🏰 Создание и роспуск:\n"+
			"к создать [ТЭГ] [название] — создать клан (300 монет)\n"+
			"к распустить — распустить клан (с подтверждением)\n"+
			"к передать [id] — передать клан (500 монет)\n"+
			"к переименовать [название] — переименовать клан\n\n"+
			"👑 Управление составом:\n"+
			"к вступить [ТЭГ] — вступить в клан\n"+
			"к покинуть — покинуть клан\n"+
			"к кик [id] — исключить участника\n"+
			"к восстановить [id] — убрать из бан-листа\n"+
			"к назначить [id] — назначить заместителя\n"+
			"к снять [id] — снять заместителя\n\n"+
			"💲 Казна:\n"+
			"к положить [сумма] — пополнить казну\n"+
			"к снять [сумма] — снять из казны\n"+
			"к распределить всем [сумма] — выдать каждому\n"+
			"к распределить топ [сумма] — выдать топ-3 вкладчикам\n"+
			"к улучшить [макс] — повысить уровень клана\n\n"+
			"🤴 Владельцу:\n"+
			"к описание [текст] — описание клана\n"+
			"к требование [уровень] — требование по гантеле\n"+
			"к приветствие [текст] — приветствие новичкам\n"+
			"к лог — лог действий клана")
}

func (h *Handler) replyMembershipError(chatID int64, err error, fallback string) {
	if errors.Is(err, common.ErrNotInClan) {
		h.sendMessage(chatID, "❌ Вы не состоите в клане!")
		return
	}
	log.WithError(err).Error(fallback)
	h.sendMessage(chatID, "❌ "+fallback)
}

func (h *Handler) parseRef(chatID int64, args []string, format string) (int64, bool) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❌ Формат: "+format)
		return 0, false
	}
	id, ok := common.ParsePlayerRef(args[0])
	if !ok {
		h.sendMessage(chatID, "❌ Укажите игровой ID игрока")
		return 0, false
	}
	return id, true
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
