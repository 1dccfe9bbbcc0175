package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/features/clans"
	"gymlegend.ru/gym-bot/internal/features/players"
	"gymlegend.ru/gym-bot/internal/features/promo"
)

// Handler обрабатывает административные команды.
type Handler struct {
	service      *Service
	promoService *promo.Service
	clansService *clans.Service
	bot          *tgbotapi.BotAPI
}

// NewHandler создаёт новый административный обработчик.
func NewHandler(service *Service, promoService *promo.Service, clansService *clans.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, promoService: promoService, clansService: clansService, bot: bot}
}

// HandleCommand выполняет административную команду cmd с аргументами args.
func (h *Handler) HandleCommand(ctx context.Context, chatID, actorID int64, cmd string, args []string) {
	switch cmd {
	case "инфа":
		h.handleInfo(ctx, chatID, actorID, args)
	case "доступ":
		h.handleInfoAccess(ctx, chatID, actorID, args)
	case "+баланс":
		h.handleBalance(ctx, chatID, actorID, args, true)
	case "-баланс":
		h.handleBalance(ctx, chatID, actorID, args, false)
	case "бан":
		h.handleBan(ctx, chatID, actorID, args)
	case "пермбан":
		h.handlePermBan(ctx, chatID, actorID, args)
	case "разбан":
		h.handleUnban(ctx, chatID, actorID, args)
	case "сгник":
		h.handleSetNickname(ctx, chatID, actorID, args)
	case "поднятия":
		h.handleSetLifts(ctx, chatID, actorID, args)
	case "заработок":
		h.handleSetIncome(ctx, chatID, actorID, args)
	case "банки":
		h.handleAddMagnesia(ctx, chatID, actorID, args)
	case "асила":
		h.handleSetPower(ctx, chatID, actorID, args)
	case "лгантеля":
		h.handleSetDumbbell(ctx, chatID, actorID, args)
	case "акланы":
		h.handleAllClans(ctx, chatID, actorID)
	case "аигроки":
		h.handleRecentPlayers(ctx, chatID, actorID)
	case "акинфо":
		h.handleClanInfo(ctx, chatID, actorID, args)
	case "аксменить":
		h.handleRenameClan(ctx, chatID, actorID, args)
	case "акудалить":
		h.handleDeleteClan(ctx, chatID, actorID, args)
	case "удалить":
		h.handleDeletePlayer(ctx, chatID, actorID, args)
	case "удалить+":
		h.handleDeletePlayerConfirm(ctx, chatID, actorID)
	case "удалить-":
		h.handleDeletePlayerCancel(ctx, chatID, actorID)
	case "сбросвсех":
		h.handleResetAll(ctx, chatID, actorID)
	case "сбросвсех+":
		h.handleResetAllConfirm(ctx, chatID, actorID)
	case "сбросвсех-":
		h.handleResetAllCancel(ctx, chatID, actorID)
	case "заявки":
		h.handleRequests(ctx, chatID, actorID)
	case "одобрить":
		h.handleApprove(ctx, chatID, actorID, args)
	case "отклонить":
		h.handleReject(ctx, chatID, actorID, args)
	case "назначить":
		h.handlePromote(ctx, chatID, actorID, args)
	case "снять":
		h.handleDemote(ctx, chatID, actorID, args)
	case "аник":
		h.handleAdminNick(ctx, chatID, actorID, args)
	case "админпанель", "админ_панель":
		h.handlePanel(ctx, chatID, actorID)
	case "статистика":
		h.handleStats(ctx, chatID, actorID)
	case "рассылка":
		h.handleBroadcast(ctx, chatID, actorID, args)
	case "связь":
		h.handleContact(ctx, chatID, actorID, args)
	case "создатьпромокод":
		h.handleCreatePromo(ctx, chatID, actorID, args)
	case "удалитьпромокод":
		h.handleDeletePromo(ctx, chatID, actorID, args)
	case "промоинфо":
		h.handlePromoInfo(ctx, chatID, actorID, args)
	case "админ":
		h.handleHelp(ctx, chatID, actorID)
	}
}

// replyGateError превращает ошибки шлюза в стандартные ответы.
// Возвращает true, если ошибка обработана.
func (h *Handler) replyGateError(chatID int64, err error) bool {
	switch {
	case errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(chatID, "❌ У вас нет прав администратора!")
	case errors.Is(err, common.ErrPermissionDenied):
		h.sendMessage(chatID, "❌ Недостаточно прав для этой команды!")
	case errors.Is(err, common.ErrPlayerNotFound):
		h.sendMessage(chatID, "❌ Игрок с таким айди не найден!")
	case errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(chatID, "❌ Неверное значение!")
	default:
		return false
	}
	return true
}

func (h *Handler) replyError(chatID int64, err error, fallback string) {
	if h.replyGateError(chatID, err) {
		return
	}
	log.WithError(err).Error(fallback)
	h.sendMessage(chatID, "❌ "+fallback)
}

// parseTarget разбирает ссылку на игрока из первого аргумента.
func (h *Handler) parseTarget(chatID int64, args []string, format string) (int64, bool) {
	if len(args) == 0 {
		h.sendMessage(chatID, "📝 Использование: "+format)
		return 0, false
	}
	id, ok := common.ParsePlayerRef(args[0])
	if !ok {
		h.sendMessage(chatID, "❌ Айди игрока должно быть числом!")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleInfo(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "инфа [айди]")
	if !ok {
		return
	}

	card, err := h.service.Info(ctx, actorID, targetID)
	if err != nil {
		if errors.Is(err, common.ErrNotAdmin) {
			h.sendMessage(chatID,
				"❌ У вас нет доступа к этой команде!\n\n"+
					"💡 Для получения доступа обратитесь к администратору:\n"+
					"👮 Администратор может выдать доступ командой:\n"+
					"доступ инфо [айди_игрока] [срок_в_днях]")
			return
		}
		h.replyError(chatID, err, "Ошибка получения информации")
		return
	}

	banned := "✅ Нет"
	if card.PermBanned {
		banned = "⛔ Навсегда"
	} else if card.BannedUntil != nil && card.BannedUntil.After(time.Now()) {
		banned = "🚫 До " + common.FormatDateTime(*card.BannedUntil)
	}

	d, _ := players.DumbbellByLevel(card.DumbbellLevel)
	income := fmt.Sprintf("%d монет", d.Income)
	if card.CustomIncome > 0 {
		income = fmt.Sprintf("%d монет ⚡", card.CustomIncome)
	}

	name := card.Nickname
	if name == "" {
		name = card.Username
	}

	text := fmt.Sprintf(
		"📊 ПОЛНАЯ ИНФОРМАЦИЯ ОБ ИГРОКЕ 📊\n"+
			"𝐆𝐘𝐌 𝐋𝐄𝐆𝐄𝐍𝐃\n\n"+
			"💻 Основная информация:\n"+
			"🔸 Никнейм: [id%d|%s]\n"+
			"🔸 Уровень админа: %s\n"+
			"🔸 Забанен: %s\n"+
			"🔸 Дата регистрации: %s\n\n"+
			"💰 Экономика:\n"+
			"🎗️ Баланс: %s монет\n"+
			"🎗️ Магнезия: %s банок\n"+
			"🎗️ Всего заработано: %s монет\n\n"+
			"💪 Прогресс:\n"+
			"⚖️ Сила: %s\n"+
			"⚖️ Гантеля: %s (Уровень: %d)\n"+
			"⚖️ Поднятий: %s\n"+
			"⚖️ Доход за подход: %s\n",
		card.ID, name,
		adminStatusLabel(card.AdminLevel), banned, common.FormatDateTime(card.CreatedAt),
		common.FormatNumber(card.Balance), common.FormatNumber(card.Magnesia),
		common.FormatNumber(card.TotalEarned),
		common.FormatNumber(card.Power), d.Name, card.DumbbellLevel,
		common.FormatNumber(card.TotalLifts), income,
	)

	if card.ClanTag != "" {
		text += fmt.Sprintf("\n🏰 Клан:\n🛡️ Тег: [%s]\n🛡️ Роль: %s\n", card.ClanTag, card.ClanRole)
	}
	h.sendMessage(chatID, text)
}

func adminStatusLabel(level int) string {
	if level == LevelNone {
		return "❌ Нет"
	}
	return LevelLabel(level)
}

func (h *Handler) handleInfoAccess(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 || strings.ToLower(args[0]) != "инфо" {
		h.sendMessage(chatID, "📝 Использование: доступ инфо [айди] [дни] или доступ инфо список")
		return
	}
	args = args[1:]

	if len(args) > 0 && strings.ToLower(args[0]) == "список" {
		list, err := h.service.ListInfoAccess(ctx, actorID)
		if err != nil {
			h.replyError(chatID, err, "Ошибка получения списка доступов")
			return
		}
		if len(list) == 0 {
			h.sendMessage(chatID, "📋 Действующих доступов к «инфа» нет")
			return
		}
		var b strings.Builder
		b.WriteString("📋 ДОСТУПЫ К КОМАНДЕ ИНФА\n\n")
		for i, a := range list {
			b.WriteString(fmt.Sprintf("%d. id%d — до %s (выдал id%d)\n",
				i+1, a.PlayerID, common.FormatDateTime(a.ExpiresAt), a.GrantedBy))
		}
		h.sendMessage(chatID, b.String())
		return
	}

	if len(args) < 2 {
		h.sendMessage(chatID, "📝 Использование: доступ инфо [айди] [дни] (0 — отозвать)")
		return
	}
	targetID, ok := common.ParsePlayerRef(args[0])
	if !ok {
		h.sendMessage(chatID, "❌ Айди игрока должно быть числом!")
		return
	}
	days, err := strconv.Atoi(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Срок должен быть числом дней!")
		return
	}

	if err := h.service.GrantInfoAccess(ctx, actorID, targetID, days); err != nil {
		if errors.Is(err, common.ErrAccessNotFound) {
			h.sendMessage(chatID, "❌ У игрока нет действующего доступа!")
			return
		}
		h.replyError(chatID, err, "Ошибка выдачи доступа")
		return
	}
	if days == 0 {
		h.sendMessage(chatID, fmt.Sprintf("🚫 Доступ к «инфа» для id%d отозван", targetID))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Игроку id%d выдан доступ к «инфа» на %d %s",
		targetID, days, common.PluralizeDays(days)))
}

func (h *Handler) handleBalance(ctx context.Context, chatID, actorID int64, args []string, add bool) {
	targetID, ok := h.parseTarget(chatID, args, "+баланс [айди] [сумма]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите сумму!")
		return
	}
	amount, err := common.ParseAmount(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом!")
		return
	}

	if add {
		err = h.service.AddBalance(ctx, actorID, targetID, amount)
	} else {
		err = h.service.SubBalance(ctx, actorID, targetID, amount)
	}
	if err != nil {
		h.replyError(chatID, err, "Ошибка изменения баланса")
		return
	}

	sign := "+"
	if !add {
		sign = "-"
	}
	h.sendMessage(chatID, fmt.Sprintf("💰 Баланс игрока id%d изменён: %s%s",
		targetID, sign, common.FormatCoins(amount)))
}

func (h *Handler) handleBan(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "бан [айди] [дни] [причина]")
	if !ok {
		return
	}
	if len(args) < 3 {
		h.sendMessage(chatID, "❌ Укажите срок в днях и причину!")
		return
	}
	days, err := strconv.Atoi(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Срок должен быть числом дней!")
		return
	}
	reason := strings.Join(args[2:], " ")

	if err := h.service.Ban(ctx, actorID, targetID, days, reason); err != nil {
		h.replyError(chatID, err, "Ошибка бана")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"🚫 Игрок id%d заблокирован на %d %s\n📝 Причина: %s",
		targetID, days, common.PluralizeDays(days), reason))
}

func (h *Handler) handlePermBan(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "пермбан [айди] [причина]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите причину!")
		return
	}
	reason := strings.Join(args[1:], " ")

	if err := h.service.PermBan(ctx, actorID, targetID, reason); err != nil {
		h.replyError(chatID, err, "Ошибка пермбана")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("⛔ Игрок id%d заблокирован навсегда\n📝 Причина: %s", targetID, reason))
}

func (h *Handler) handleUnban(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "разбан [айди]")
	if !ok {
		return
	}
	if err := h.service.Unban(ctx, actorID, targetID); err != nil {
		h.replyError(chatID, err, "Ошибка разбана")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Игрок id%d разблокирован", targetID))
}

func (h *Handler) handleSetNickname(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "сгник [айди] [новый_ник]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите новый ник!")
		return
	}
	nickname := strings.Join(args[1:], " ")

	if err := h.service.SetNickname(ctx, actorID, targetID, nickname); err != nil {
		if errors.Is(err, common.ErrInvalidNickname) {
			h.sendMessage(chatID, "❌ Ник должен быть от 1 до 20 символов!")
			return
		}
		h.replyError(chatID, err, "Ошибка смены ника")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("📝 Ник игрока id%d изменён на «%s»", targetID, nickname))
}

func (h *Handler) handleSetLifts(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "поднятия [айди] [количество]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите количество поднятий!")
		return
	}
	lifts, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || lifts < 0 {
		h.sendMessage(chatID, "❌ Количество должно быть неотрицательным числом!")
		return
	}

	if err := h.service.SetLifts(ctx, actorID, targetID, lifts); err != nil {
		h.replyError(chatID, err, "Ошибка установки поднятий")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🏋️ Поднятия игрока id%d установлены: %s", targetID, common.FormatNumber(lifts)))
}

func (h *Handler) handleSetIncome(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "заработок [айди] [сумма|сброс]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите сумму или «сброс»!")
		return
	}

	var income int64
	if strings.ToLower(args[1]) != "сброс" {
		var err error
		income, err = strconv.ParseInt(args[1], 10, 64)
		if err != nil || income <= 0 {
			h.sendMessage(chatID, "❌ Сумма должна быть положительным числом!")
			return
		}
	}

	if err := h.service.SetCustomIncome(ctx, actorID, targetID, income); err != nil {
		h.replyError(chatID, err, "Ошибка установки дохода")
		return
	}
	if income == 0 {
		h.sendMessage(chatID, fmt.Sprintf("⚡ Кастомный доход игрока id%d сброшен", targetID))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("⚡ Доход игрока id%d установлен: %s монет за подход",
		targetID, common.FormatNumber(income)))
}

func (h *Handler) handleAddMagnesia(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "банки [айди] [количество]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите количество магнезии!")
		return
	}
	amount, err := common.ParseAmount(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Количество должно быть положительным числом!")
		return
	}

	if err := h.service.AddMagnesia(ctx, actorID, targetID, amount); err != nil {
		h.replyError(chatID, err, "Ошибка начисления магнезии")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🧂 Игроку id%d начислено %s банок магнезии", targetID, common.FormatNumber(amount)))
}

func (h *Handler) handleSetPower(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "асила [айди] [сумма]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите значение силы!")
		return
	}
	power, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || power < 0 {
		h.sendMessage(chatID, "❌ Сила должна быть неотрицательным числом!")
		return
	}

	if err := h.service.SetPower(ctx, actorID, targetID, power); err != nil {
		h.replyError(chatID, err, "Ошибка установки силы")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("💪 Сила игрока id%d установлена: %s", targetID, common.FormatNumber(power)))
}

func (h *Handler) handleSetDumbbell(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "лгантеля [айди] [уровень]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите уровень гантели!")
		return
	}
	level, err := strconv.Atoi(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Уровень должен быть числом от 1 до 20!")
		return
	}

	if err := h.service.SetDumbbell(ctx, actorID, targetID, level); err != nil {
		if errors.Is(err, common.ErrInvalidAmount) {
			h.sendMessage(chatID, "❌ Уровень должен быть числом от 1 до 20!")
			return
		}
		h.replyError(chatID, err, "Ошибка установки гантели")
		return
	}
	d, _ := players.DumbbellByLevel(level)
	h.sendMessage(chatID, fmt.Sprintf("🏋️ Игроку id%d установлена гантеля: %s (уровень %d)", targetID, d.Name, level))
}

func (h *Handler) handleAllClans(ctx context.Context, chatID, actorID int64) {
	list, err := h.service.AllClans(ctx, actorID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка получения списка кланов")
		return
	}
	if len(list) == 0 {
		h.sendMessage(chatID, "🏰 Кланов пока нет")
		return
	}

	var b strings.Builder
	b.WriteString("🏰 ВСЕ КЛАНЫ\n\n")
	for i, c := range list {
		b.WriteString(fmt.Sprintf("%d. [%s] %s — ур. %d, 👥 %d, 🏦 %s монет (владелец id%d)\n",
			i+1, c.Tag, c.Name, c.Level, c.MemberCount, common.FormatNumber(c.Treasury), c.OwnerID))
	}
	h.sendMessage(chatID, b.String())
}

func (h *Handler) handleRecentPlayers(ctx context.Context, chatID, actorID int64) {
	list, err := h.service.RecentPlayers(ctx, actorID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка получения списка игроков")
		return
	}

	var b strings.Builder
	b.WriteString("👥 ПОСЛЕДНИЕ ИГРОКИ\n\n")
	for i, p := range list {
		name := p.Nickname
		if name == "" {
			name = p.Username
		}
		b.WriteString(fmt.Sprintf("%d. id%d %s — 💰 %s, 🏋️ %s поднятий (%s)\n",
			i+1, p.ID, name, common.FormatNumber(p.Balance), common.FormatNumber(p.TotalLifts),
			p.CreatedAt.Format("02.01 15:04")))
	}
	h.sendMessage(chatID, b.String())
}

func (h *Handler) handleClanInfo(ctx context.Context, chatID, actorID int64, args []string) {
	if _, err := h.service.requireLevel(ctx, actorID, LevelModerator); err != nil {
		h.replyError(chatID, err, "Ошибка доступа")
		return
	}
	if len(args) == 0 {
		h.sendMessage(chatID, "📝 Использование: акинфо [ТЭГ]")
		return
	}

	clan, err := h.clansService.GetByTag(ctx, args[0])
	if err != nil {
		if errors.Is(err, common.ErrClanNotFound) {
			h.sendMessage(chatID, "❌ Клан с таким тегом не найден!")
			return
		}
		h.replyError(chatID, err, "Ошибка получения клана")
		return
	}

	b := clans.BonusesForLevel(clan.Level)
	h.sendMessage(chatID, fmt.Sprintf(
		"🏰 КЛАН [%s] (админ-сводка)\n\n"+
			"🏷️ Название: %s\n"+
			"👑 Владелец: id%d\n"+
			"⭐ Уровень: %d\n"+
			"👥 Участников: %d/%d\n"+
			"🏦 Казна: %s монет\n"+
			"🎯 Требование: гантеля %d+\n"+
			"📅 Основан: %s\n\n"+
			"🎯 Бонусы:\n%s",
		clan.Tag, clan.Name, clan.OwnerID, clan.Level,
		clan.MemberCount, b.MemberLimit, common.FormatNumber(clan.Treasury),
		clan.MinDumbbell, clan.CreatedAt.Format("02.01.2006"), b.Format(),
	))
}

func (h *Handler) handleRenameClan(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "📝 Использование: аксменить [ТЭГ] [новое_название]")
		return
	}
	tag := args[0]
	name := strings.Join(args[1:], " ")

	if err := h.service.RenameClan(ctx, actorID, tag, name); err != nil {
		switch {
		case errors.Is(err, common.ErrClanNotFound):
			h.sendMessage(chatID, "❌ Клан с таким тегом не найден!")
		case errors.Is(err, common.ErrClanNameTaken):
			h.sendMessage(chatID, "❌ Клан с таким названием уже существует!")
		case errors.Is(err, common.ErrInvalidClanName):
			h.sendMessage(chatID, "❌ Название должно быть от 3 до 20 символов!")
		default:
			h.replyError(chatID, err, "Ошибка переименования клана")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✏️ Клан [%s] переименован в «%s»", strings.ToUpper(tag), name))
}

func (h *Handler) handleDeleteClan(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "📝 Использование: акудалить [ТЭГ]")
		return
	}
	tag := strings.ToUpper(args[0])
	reason := strings.Join(args[1:], " ")

	req, needConfirm, err := h.service.DeleteClan(ctx, actorID, tag, reason)
	if err != nil {
		if errors.Is(err, common.ErrClanNotFound) {
			h.sendMessage(chatID, "❌ Клан с таким тегом не найден!")
			return
		}
		h.replyError(chatID, err, "Ошибка удаления клана")
		return
	}
	switch {
	case req != nil:
		h.sendMessage(chatID, fmt.Sprintf(
			"📨 Заявка #%d на удаление клана [%s] создана и ждёт одобрения старшего администратора", req.ID, tag))
	case needConfirm:
		h.sendMessage(chatID, fmt.Sprintf(
			"⚠️ Повторите команду «акудалить %s» в течение 5 минут для подтверждения удаления", tag))
	default:
		h.sendMessage(chatID, fmt.Sprintf("💥 Клан [%s] удалён", tag))
	}
}

func (h *Handler) handleDeletePlayer(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "удалить [айди] [причина]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ При удалении нужно указать причину!")
		return
	}
	reason := strings.Join(args[1:], " ")

	req, err := h.service.DeletePlayerStart(ctx, actorID, targetID, reason)
	if err != nil {
		h.replyError(chatID, err, "Ошибка удаления игрока")
		return
	}
	if req != nil {
		h.sendMessage(chatID, fmt.Sprintf(
			"📨 Заявка #%d на удаление игрока id%d создана и ждёт одобрения старшего администратора",
			req.ID, targetID))
		return
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"⚠️ Вы собираетесь удалить профиль игрока id%d!\n"+
			"📝 Причина: %s\n\n"+
			"Подтвердите в течение 5 минут: /удалить+\n"+
			"Отменить: /удалить-", targetID, reason))
}

func (h *Handler) handleDeletePlayerConfirm(ctx context.Context, chatID, actorID int64) {
	targetID, err := h.service.DeletePlayerConfirm(ctx, actorID)
	if err != nil {
		if errors.Is(err, common.ErrNoConfirmation) {
			h.sendMessage(chatID, "❌ Нет ожидающего удаления. Сначала напишите «удалить [айди] [причина]»")
			return
		}
		h.replyError(chatID, err, "Ошибка удаления игрока")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🗑️ Профиль игрока id%d удалён", targetID))
}

func (h *Handler) handleDeletePlayerCancel(ctx context.Context, chatID, actorID int64) {
	if err := h.service.DeletePlayerCancel(ctx, actorID); err != nil {
		log.WithError(err).Error("Ошибка отмены удаления")
	}
	h.sendMessage(chatID, "✅ Удаление отменено")
}

func (h *Handler) handleResetAll(ctx context.Context, chatID, actorID int64) {
	req, err := h.service.ResetAllStart(ctx, actorID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка запроса сброса")
		return
	}
	if req != nil {
		h.sendMessage(chatID, fmt.Sprintf(
			"📨 Заявка #%d на полный сброс создана. Одобрить её может только создатель", req.ID))
		return
	}
	h.sendMessage(chatID,
		"⚠️ ВНИМАНИЕ! Будет сброшен прогресс ВСЕХ игроков и удалены ВСЕ кланы!\n\n"+
			"Подтвердите в течение 5 минут: /сбросвсех+\n"+
			"Отменить: /сбросвсех-")
}

func (h *Handler) handleResetAllConfirm(ctx context.Context, chatID, actorID int64) {
	if err := h.service.ResetAllConfirm(ctx, actorID); err != nil {
		if errors.Is(err, common.ErrNoConfirmation) {
			h.sendMessage(chatID, "❌ Нет ожидающего сброса. Сначала напишите «сбросвсех»")
			return
		}
		h.replyError(chatID, err, "Ошибка сброса")
		return
	}
	h.sendMessage(chatID, "💥 Прогресс всех игроков сброшен, кланы удалены")
}

func (h *Handler) handleResetAllCancel(ctx context.Context, chatID, actorID int64) {
	if err := h.service.ResetAllCancel(ctx, actorID); err != nil {
		log.WithError(err).Error("Ошибка отмены сброса")
	}
	h.sendMessage(chatID, "✅ Сброс отменён")
}

func (h *Handler) handleRequests(ctx context.Context, chatID, actorID int64) {
	list, err := h.service.PendingRequests(ctx, actorID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка получения заявок")
		return
	}
	if len(list) == 0 {
		h.sendMessage(chatID, "📋 Необработанных заявок нет")
		return
	}

	var b strings.Builder
	b.WriteString("📋 ЗАЯВКИ МОДЕРАТОРОВ\n\n")
	for _, req := range list {
		target := fmt.Sprintf("игрок id%d", req.TargetID)
		switch req.Type {
		case RequestDeleteClan:
			target = "клан [" + req.TargetTag + "]"
		case RequestResetAll:
			target = "полный сброс"
		}
		b.WriteString(fmt.Sprintf("#%d · %s · %s\n   от id%d, %s\n   📝 %s\n\n",
			req.ID, requestTypeLabel(req.Type), target, req.RequesterID,
			common.FormatDateTime(req.CreatedAt), req.Reason))
	}
	b.WriteString("💡 одобрить [номер] / отклонить [номер] [причина]")
	h.sendMessage(chatID, b.String())
}

func requestTypeLabel(reqType string) string {
	switch reqType {
	case RequestDeletePlayer:
		return "🗑️ удаление игрока"
	case RequestDeleteClan:
		return "💥 удаление клана"
	case RequestResetAll:
		return "♻️ полный сброс"
	}
	return reqType
}

func (h *Handler) parseRequestID(chatID int64, args []string, format string) (int64, bool) {
	if len(args) == 0 {
		h.sendMessage(chatID, "📝 Использование: "+format)
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		h.sendMessage(chatID, "❌ Номер заявки должен быть числом!")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleApprove(ctx context.Context, chatID, actorID int64, args []string) {
	requestID, ok := h.parseRequestID(chatID, args, "одобрить [номер]")
	if !ok {
		return
	}

	req, err := h.service.Approve(ctx, actorID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRequestNotFound):
			h.sendMessage(chatID, "❌ Заявка с таким номером не найдена!")
		case errors.Is(err, common.ErrAlreadyProcessed):
			h.sendMessage(chatID, "❌ Заявка уже обработана!")
		default:
			h.replyError(chatID, err, "Ошибка одобрения заявки")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Заявка #%d одобрена, действие выполнено (%s)",
		req.ID, requestTypeLabel(req.Type)))
}

func (h *Handler) handleReject(ctx context.Context, chatID, actorID int64, args []string) {
	requestID, ok := h.parseRequestID(chatID, args, "отклонить [номер] [причина]")
	if !ok {
		return
	}
	reason := strings.Join(args[1:], " ")

	req, err := h.service.Reject(ctx, actorID, requestID, reason)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRequestNotFound):
			h.sendMessage(chatID, "❌ Заявка с таким номером не найдена!")
		case errors.Is(err, common.ErrAlreadyProcessed):
			h.sendMessage(chatID, "❌ Заявка уже обработана!")
		default:
			h.replyError(chatID, err, "Ошибка отклонения заявки")
		}
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("🚫 Заявка #%d отклонена", req.ID))
}

func (h *Handler) handlePromote(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "назначить [айди] [уровень 1-3]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите уровень: 1 — создатель, 2 — старший, 3 — модератор")
		return
	}
	level, err := strconv.Atoi(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Уровень должен быть числом от 1 до 3!")
		return
	}

	if err := h.service.PromoteAdmin(ctx, actorID, targetID, level); err != nil {
		if errors.Is(err, common.ErrInvalidAmount) {
			h.sendMessage(chatID, "❌ Уровень должен быть числом от 1 до 3!")
			return
		}
		h.replyError(chatID, err, "Ошибка назначения")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Игрок id%d назначен: %s", targetID, LevelLabel(level)))
}

func (h *Handler) handleDemote(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "снять [айди]")
	if !ok {
		return
	}
	if err := h.service.DemoteAdmin(ctx, actorID, targetID); err != nil {
		if errors.Is(err, common.ErrNotAdmin) {
			h.sendMessage(chatID, "❌ Игрок не является администратором!")
			return
		}
		h.replyError(chatID, err, "Ошибка снятия")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Игрок id%d снят с должности", targetID))
}

func (h *Handler) handleAdminNick(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "📝 Использование: аник [админ_ник]")
		return
	}
	nick := strings.Join(args, " ")

	if err := h.service.SetAdminNick(ctx, actorID, nick); err != nil {
		if errors.Is(err, common.ErrInvalidNickname) {
			h.sendMessage(chatID, "❌ Админ-ник не может быть длиннее 15 символов!")
			return
		}
		h.replyError(chatID, err, "Ошибка установки админ-ника")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Ваш админ-ник установлен: %s 👑", nick))
}

func (h *Handler) handlePanel(ctx context.Context, chatID, actorID int64) {
	card, level, stats, err := h.service.Panel(ctx, actorID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка админпанели")
		return
	}

	nick := card.Nickname
	if nick == "" {
		nick = card.Username
	}
	adminNick := "Не установлен"
	if card.AdminNick != "" {
		adminNick = card.AdminNick
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🏛️ АДМИНИСТРАТИВНАЯ ПАНЕЛЬ\n\n"+
			"👤 Ваш ник: [id%d|%s]\n"+
			"💎 Должность: %s\n"+
			"👑 Админ-ник: %s\n\n"+
			"📊 Ваша статистика:\n"+
			"🚫 Банов выдано: %d\n"+
			"⛔ Пермбанов выдано: %d\n"+
			"🗑️ Удалений профилей: %d\n"+
			"🏋️‍♂️ Гантелей установлено: %d\n"+
			"📝 Ников изменено: %d\n\n"+
			"📝 Доступные команды:\n"+
			"• админ - список всех админ команд\n"+
			"• аник [ник] - установить админ-ник\n"+
			"• заявки - очередь заявок модераторов\n"+
			"• статистика - статистика бота\n\n"+
			"💡 Напишите «админ» для полного списка команд",
		card.ID, nick, LevelLabel(level), adminNick,
		stats.Bans, stats.PermBans, stats.Deletions, stats.DumbbellSets, stats.NicknameChanges,
	))
}

func (h *Handler) handleStats(ctx context.Context, chatID, actorID int64) {
	stats, err := h.service.Stats(ctx, actorID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка получения статистики")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"📊 СТАТИСТИКА БОТА 📊\n"+
			"𝐆𝐘𝐌 𝐋𝐄𝐆𝐄𝐍𝐃\n\n"+
			"💻 Игроки 💻\n"+
			"🎖️ Всего игроков: %d\n"+
			"🎖️ Забанено: %d\n"+
			"🎖️ Администраторов: %d\n"+
			"🎖️ Активных: %d\n"+
			"🎖️ Общий баланс: %s монет\n"+
			"🎖️ Всего поднятий: %s\n\n"+
			"🏰 Кланы 🏰\n"+
			"🛡️ Всего кланов: %d\n\n"+
			"🎫 Промокоды 🎫\n"+
			"🧾 Создано промокодов: %d",
		stats.Players, stats.Banned, stats.Admins, stats.Players-stats.Banned,
		common.FormatNumber(stats.TotalBalance), common.FormatNumber(stats.TotalLifts),
		stats.Clans, stats.PromoCodes,
	))
}

func (h *Handler) handleBroadcast(ctx context.Context, chatID, actorID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "📝 Использование: рассылка [сообщение]")
		return
	}
	text := strings.Join(args, " ")

	recipients, err := h.service.BeginBroadcast(ctx, actorID)
	if err != nil {
		if errors.Is(err, common.ErrBroadcastLimit) {
			h.sendMessage(chatID, "❌ Лимит рассылок исчерпан. Попробуйте завтра")
			return
		}
		h.replyError(chatID, err, "Ошибка рассылки")
		return
	}

	sent, failed := 0, 0
	for _, tgID := range recipients {
		msg := tgbotapi.NewMessage(tgID, "📢 "+text)
		if _, err := h.bot.Send(msg); err != nil {
			failed++
			continue
		}
		sent++
	}
	h.service.FinishBroadcast(ctx, actorID, sent, failed)

	h.sendMessage(chatID, fmt.Sprintf(
		"📢 Рассылка завершена!\n✅ Доставлено: %d\n❌ Ошибок: %d", sent, failed))
}

func (h *Handler) handleContact(ctx context.Context, chatID, actorID int64, args []string) {
	targetID, ok := h.parseTarget(chatID, args, "связь [айди] [сообщение]")
	if !ok {
		return
	}
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Укажите сообщение!")
		return
	}
	text := strings.Join(args[1:], " ")

	card, err := h.service.Info(ctx, actorID, targetID)
	if err != nil {
		h.replyError(chatID, err, "Ошибка отправки сообщения")
		return
	}

	msg := tgbotapi.NewMessage(card.TgID, "👮 Сообщение от администрации:\n\n"+text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка доставки сообщения игроку")
		h.sendMessage(chatID, "❌ Не удалось доставить сообщение игроку")
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("📨 Сообщение отправлено игроку id%d", targetID))
}

func (h *Handler) handleCreatePromo(ctx context.Context, chatID, actorID int64, args []string) {
	level, err := h.service.requireLevel(ctx, actorID, LevelModerator)
	if err != nil {
		h.replyError(chatID, err, "Ошибка доступа")
		return
	}
	if len(args) < 4 {
		h.sendMessage(chatID,
			"❌ Недостаточно параметров!\n"+
				"📝 Использование: создатьпромокод [код] [использования] [тип] [сумма] [дни]\n\n"+
				"Типы наград: монеты, магнезия, сила\n"+
				"Пример: создатьпромокод NEWYEAR2026 100 монеты 5000")
		return
	}

	uses, err := strconv.Atoi(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Количество использований должно быть числом!")
		return
	}
	amount, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Сумма награды должна быть числом!")
		return
	}
	var ttl time.Duration
	if len(args) > 4 {
		days, err := strconv.Atoi(args[4])
		if err != nil || days <= 0 {
			h.sendMessage(chatID, "❌ Срок действия должен быть положительным числом дней!")
			return
		}
		ttl = time.Duration(days) * 24 * time.Hour
	}

	// Потолки сумм действуют только для модераторов.
	code, err := h.promoService.Create(ctx, args[0], args[2], amount, uses, ttl, actorID, level == LevelModerator)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrPromoExists):
			h.sendMessage(chatID, "❌ Промокод с таким кодом уже существует!")
		case errors.Is(err, common.ErrPromoLimit):
			h.sendMessage(chatID, "❌ Награда превышает допустимый лимит!")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Неверный тип награды!\n✅ Допустимые типы: монеты, магнезия, сила")
		case errors.Is(err, common.ErrPromoNotFound):
			h.sendMessage(chatID, "❌ Код должен состоять из 3-20 латинских букв и цифр!")
		default:
			h.replyError(chatID, err, "Ошибка создания промокода")
		}
		return
	}

	expires := "⏳ Срок действия: Не ограничен"
	if code.ExpiresAt != nil {
		expires = "⏳ Срок действия: до " + code.ExpiresAt.Format("02.01.2006")
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"🎫 Промокод создан!\n\n"+
			"🔑 Код: %s\n"+
			"🎯 Использований: %d\n"+
			"💰 Награда: %s %s\n"+
			"%s\n\n"+
			"📢 Игроки могут активировать промокод командой:\n"+
			"промо %s",
		code.Code, code.TotalUses, common.FormatNumber(code.Amount),
		promo.RewardLabel(code.RewardType), expires, code.Code,
	))
}

func (h *Handler) handleDeletePromo(ctx context.Context, chatID, actorID int64, args []string) {
	if _, err := h.service.requireLevel(ctx, actorID, LevelSenior); err != nil {
		h.replyError(chatID, err, "Ошибка доступа")
		return
	}
	if len(args) == 0 {
		h.sendMessage(chatID, "📝 Использование: удалитьпромокод [код]")
		return
	}

	code, err := h.promoService.Get(ctx, args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Промокод не найден!")
		return
	}
	if err := h.promoService.Delete(ctx, args[0]); err != nil {
		h.replyError(chatID, err, "Ошибка удаления промокода")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🗑️ Промокод удалён!\n\n🔑 Код: %s\n🔄 Использовано: %d/%d",
		code.Code, code.TotalUses-code.UsesLeft, code.TotalUses))
}

func (h *Handler) handlePromoInfo(ctx context.Context, chatID, actorID int64, args []string) {
	if _, err := h.service.requireLevel(ctx, actorID, LevelModerator); err != nil {
		h.replyError(chatID, err, "Ошибка доступа")
		return
	}
	if len(args) == 0 {
		h.sendMessage(chatID, "📝 Использование: промоинфо [код]")
		return
	}

	code, err := h.promoService.Get(ctx, args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Промокод не найден!")
		return
	}

	expires := "не ограничен"
	if code.ExpiresAt != nil {
		expires = "до " + code.ExpiresAt.Format("02.01.2006")
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"🎫 ПРОМОКОД %s\n\n"+
			"💰 Награда: %s %s\n"+
			"🔄 Использовано: %d/%d\n"+
			"⏳ Срок: %s\n"+
			"👮 Создал: id%d\n"+
			"📅 Создан: %s",
		code.Code, common.FormatNumber(code.Amount), promo.RewardLabel(code.RewardType),
		code.TotalUses-code.UsesLeft, code.TotalUses, expires, code.CreatedBy,
		common.FormatDateTime(code.CreatedAt),
	))
}

// HandleLogin обрабатывает «/логин [пароль]» в личных сообщениях.
func (h *Handler) HandleLogin(ctx context.Context, chatID, actorID, tgID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "📝 Использование: /логин [пароль]")
		return
	}

	if err := h.service.Login(ctx, actorID, tgID, args[0]); err != nil {
		switch {
		case errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(chatID, "❌ Слишком много попыток. Подождите 1 час")
		case errors.Is(err, common.ErrWrongPassword):
			h.sendMessage(chatID, "❌ Неверный пароль")
		default:
			h.replyError(chatID, err, "Ошибка входа")
		}
		return
	}
	h.sendMessage(chatID, "✅ Вход выполнен. Вам выдан уровень создателя 👑")
}

func (h *Handler) handleHelp(ctx context.Context, chatID, actorID int64) {
	if _, err := h.service.requireLevel(ctx, actorID, LevelModerator); err != nil {
		h.replyError(chatID, err, "Ошибка доступа")
		return
	}

	h.sendMessage(chatID,
		"🏛️ Административные команды🏛️\n"+
			" 𝐆𝐘𝐌 𝐋𝐄𝐆𝐄𝐍𝐃\n\n"+
			"📑 Основные команды 📑\n"+
			"📌 Админпанель - показать админ панель\n"+
			"📌 Аник [ник] - установить админ-ник\n"+
			"📌 Лгантеля [айди] [уровень] - установить уровень гантели\n"+
			"📌 -баланс [айди] [сумма] - убрать сумму с баланса игрока\n"+
			"📌 +баланс [айди] [сумма] - добавить сумму на баланс игрока\n"+
			"📌 Бан [айди] [дни] [причина] - заблокировать игрока\n"+
			"📌 Пермбан [айди] [причина] - перманентный бан\n"+
			"📌 Разбан [айди] - разблокировать игрока\n"+
			"📌 Удалить [айди] [причина] - удалить профиль игрока\n"+
			"📌 Удалить+ - подтвердить удаление\n"+
			"📌 Удалить- - отменить удаление\n"+
			"📌 Сгник [айди] [новый_ник] - сменить ник игроку\n"+
			"📌 Поднятия [айди] [количество] - установить поднятия\n"+
			"📌 Заработок [айди] [сумма|сброс] - установить кастомный доход\n"+
			"📌 Банки [айди] [количество] - выдать магнезию\n"+
			"📌 Асила [айди] [сумма] - установить силу\n"+
			"📌 Инфа [айди] - полная информация об игроке\n\n"+
			"🎫 Промокоды 🎫\n"+
			"📒 Создатьпромокод [код] [использования] [тип] [сумма] [дни] - создать\n"+
			"📒 Удалитьпромокод [код] - удалить\n"+
			"📒 Промоинфо [код] - информация о промокоде\n\n"+
			"🏰 Кланы 🏰\n"+
			"💠 Аксменить [ТЭГ] [новое_название] - сменить название клана\n"+
			"💠 Акудалить [ТЭГ] - удалить клан (с подтверждением)\n"+
			"💠 Акинфо [ТЭГ] - информация о клане\n"+
			"💠 Акланы - список всех кланов\n\n"+
			"👥 Игроки 👥\n"+
			"💠 Аигроки - последние игроки\n\n"+
			"📨 Очередь заявок 📨\n"+
			"💠 Заявки - необработанные заявки модераторов\n"+
			"💠 Одобрить [номер] - одобрить заявку\n"+
			"💠 Отклонить [номер] [причина] - отклонить заявку\n\n"+
			"🌟 Старшие уровни 🌟\n"+
			"💠 Назначить [айди] [уровень] - назначить админа (1-3)\n"+
			"💠 Снять [айди] - снять с должности\n"+
			"💠 Статистика - статистика бота\n"+
			"💠 Сбросвсех - полный сброс (с подтверждением)\n\n"+
			"📢 Рассылка 📢\n"+
			"💠 Рассылка [сообщение] - всем игрокам (модераторам: 5 в сутки)\n\n"+
			"🆕 Система ИНФА 🆕\n"+
			"💠 Доступ инфо [айди] [дни] - выдать доступ к «инфа»\n"+
			"💠 Доступ инфо список - список доступов\n\n"+
			"⚠️ Внимание:\n"+
			"❗ При удалении нужно указать причину!\n"+
			"❗ Все действия логируются❗")
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
