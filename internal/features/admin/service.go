// Package admin — service.go содержит шлюз уровней, очередь заявок,
// двухшаговые подтверждения и вход по паролю.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/config"
	"gymlegend.ru/gym-bot/internal/features/confirm"
)

// Store — административное хранилище. Боевой вариант — *Repository.
type Store interface {
	PlayerCard(ctx context.Context, playerID int64) (*PlayerCard, error)
	RecentPlayers(ctx context.Context, limit int) ([]*PlayerCard, error)
	AllClans(ctx context.Context) ([]*ClanCard, error)
	AllPlayerTgIDs(ctx context.Context) ([]int64, error)

	AddBalance(ctx context.Context, playerID, amount int64) error
	SubBalance(ctx context.Context, playerID, amount int64) error
	Ban(ctx context.Context, playerID int64, until time.Time, reason string) error
	PermBan(ctx context.Context, playerID int64, reason string) error
	Unban(ctx context.Context, playerID int64) error
	SetNickname(ctx context.Context, playerID int64, nickname string) error
	SetLifts(ctx context.Context, playerID, lifts int64) error
	SetCustomIncome(ctx context.Context, playerID, income int64) error
	AddMagnesia(ctx context.Context, playerID, amount int64) error
	SetPower(ctx context.Context, playerID, power int64) error
	SetDumbbell(ctx context.Context, playerID int64, level int) error
	SetAdminLevel(ctx context.Context, playerID int64, level int) error
	SetAdminNick(ctx context.Context, playerID int64, nick string) error

	DeletePlayer(ctx context.Context, playerID int64) error
	DeleteClanByTag(ctx context.Context, tag string) error
	RenameClanByTag(ctx context.Context, tag, name string) error
	ResetAll(ctx context.Context) error

	AppendLog(ctx context.Context, adminID int64, action string, targetID int64, details string) error
	PanelStats(ctx context.Context, adminID int64) (*PanelStats, error)

	CreateRequest(ctx context.Context, requesterID int64, reqType string, targetID int64, targetTag, reason string) (*Request, error)
	GetRequest(ctx context.Context, requestID int64) (*Request, error)
	PendingRequests(ctx context.Context) ([]*Request, error)
	ResolveRequest(ctx context.Context, requestID, processedBy int64, status string) (*Request, error)

	GrantInfoAccess(ctx context.Context, playerID, grantedBy int64, until time.Time) error
	RevokeInfoAccess(ctx context.Context, playerID int64) error
	InfoAccess(ctx context.Context, playerID int64) (*InfoAccess, error)
	ListInfoAccess(ctx context.Context) ([]*InfoAccess, error)

	CountBroadcasts(ctx context.Context, adminID int64) (int, error)
	RecordBroadcast(ctx context.Context, adminID int64) error

	RecordLoginAttempt(ctx context.Context, tgID int64, success bool) error
	FailedLoginAttempts(ctx context.Context, tgID int64) (int, error)

	Stats(ctx context.Context) (*Stats, error)
}

// ConfirmStore — хранилище отложенных подтверждений (пакет confirm).
type ConfirmStore interface {
	Save(ctx context.Context, actorID int64, action, payload string) error
	Take(ctx context.Context, actorID int64, action string) (string, bool, error)
	Drop(ctx context.Context, actorID int64, action string) error
}

// Service управляет административными операциями.
type Service struct {
	store    Store
	confirms ConfirmStore
	cfg      *config.Config
}

// NewService создаёт новый административный сервис.
func NewService(store Store, confirms ConfirmStore, cfg *config.Config) *Service {
	return &Service{store: store, confirms: confirms, cfg: cfg}
}

// Level возвращает действующий уровень игрока.
// Игроки из ADMIN_IDS всегда считаются создателями.
func (s *Service) Level(ctx context.Context, actorID int64) (int, error) {
	card, err := s.store.PlayerCard(ctx, actorID)
	if err != nil {
		return LevelNone, err
	}
	return s.effectiveLevel(card), nil
}

func (s *Service) effectiveLevel(card *PlayerCard) int {
	for _, id := range s.cfg.AdminIDs {
		if card.TgID == id {
			return LevelCreator
		}
	}
	return card.AdminLevel
}

// requireLevel пропускает действие, если уровень актора не слабее max.
// Возвращает действующий уровень.
func (s *Service) requireLevel(ctx context.Context, actorID int64, max int) (int, error) {
	level, err := s.Level(ctx, actorID)
	if err != nil {
		return LevelNone, err
	}
	if level == LevelNone {
		return LevelNone, common.ErrNotAdmin
	}
	if level > max {
		return level, common.ErrPermissionDenied
	}
	return level, nil
}

func (s *Service) audit(ctx context.Context, adminID int64, action string, targetID int64, details string) {
	if err := s.store.AppendLog(ctx, adminID, action, targetID, details); err != nil {
		log.WithError(err).WithField("action", action).Error("Ошибка записи аудита")
	}
}

// --- Информация ---

// Info возвращает карточку игрока. Доступна администраторам
// и игрокам с действующим доступом «инфа».
func (s *Service) Info(ctx context.Context, actorID, targetID int64) (*PlayerCard, error) {
	level, err := s.Level(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if level == LevelNone {
		access, err := s.store.InfoAccess(ctx, actorID)
		if err != nil || !access.Active(time.Now()) {
			return nil, common.ErrNotAdmin
		}
	}
	return s.store.PlayerCard(ctx, targetID)
}

// GrantInfoAccess выдаёт доступ к «инфа» на days дней. Ноль дней отзывает,
// повторная выдача продлевает от текущего момента.
func (s *Service) GrantInfoAccess(ctx context.Context, actorID, targetID int64, days int) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if days < 0 || days > 365 {
		return common.ErrInvalidAmount
	}
	if days == 0 {
		if err := s.store.RevokeInfoAccess(ctx, targetID); err != nil {
			return err
		}
		s.audit(ctx, actorID, "revoke_info_access", targetID, "доступ к инфе отозван")
		return nil
	}
	until := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	if err := s.store.GrantInfoAccess(ctx, targetID, actorID, until); err != nil {
		return err
	}
	s.audit(ctx, actorID, "grant_info_access", targetID, fmt.Sprintf("доступ к инфе на %d дн.", days))
	return nil
}

// ListInfoAccess возвращает действующие доступы к «инфа».
func (s *Service) ListInfoAccess(ctx context.Context, actorID int64) ([]*InfoAccess, error) {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return nil, err
	}
	return s.store.ListInfoAccess(ctx)
}

// RecentPlayers возвращает последних игроков (аигроки).
func (s *Service) RecentPlayers(ctx context.Context, actorID int64) ([]*PlayerCard, error) {
	if _, err := s.requireLevel(ctx, actorID, LevelModerator); err != nil {
		return nil, err
	}
	return s.store.RecentPlayers(ctx, 20)
}

// AllClans возвращает все кланы (акланы).
func (s *Service) AllClans(ctx context.Context, actorID int64) ([]*ClanCard, error) {
	if _, err := s.requireLevel(ctx, actorID, LevelModerator); err != nil {
		return nil, err
	}
	return s.store.AllClans(ctx)
}

// Stats возвращает сводную статистику бота.
func (s *Service) Stats(ctx context.Context, actorID int64) (*Stats, error) {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return nil, err
	}
	return s.store.Stats(ctx)
}

// Panel возвращает карточку и счётчики для админпанели.
func (s *Service) Panel(ctx context.Context, actorID int64) (*PlayerCard, int, *PanelStats, error) {
	card, err := s.store.PlayerCard(ctx, actorID)
	if err != nil {
		return nil, 0, nil, err
	}
	level := s.effectiveLevel(card)
	if level == LevelNone {
		return nil, 0, nil, common.ErrNotAdmin
	}
	stats, err := s.store.PanelStats(ctx, actorID)
	if err != nil {
		return nil, 0, nil, err
	}
	return card, level, stats, nil
}

// --- Мутации игроков ---

// AddBalance начисляет монеты (потолок 2 147 483 647 монет).
func (s *Service) AddBalance(ctx context.Context, actorID, targetID, amount int64) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.store.AddBalance(ctx, targetID, amount); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionBalance, targetID, fmt.Sprintf("+%d монет", amount))
	return nil
}

// SubBalance списывает монеты (не ниже нуля).
func (s *Service) SubBalance(ctx context.Context, actorID, targetID, amount int64) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.store.SubBalance(ctx, targetID, amount); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionBalance, targetID, fmt.Sprintf("-%d монет", amount))
	return nil
}

// Ban банит игрока на days дней.
func (s *Service) Ban(ctx context.Context, actorID, targetID int64, days int, reason string) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if days <= 0 || days > 365 {
		return common.ErrInvalidAmount
	}
	until := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	if err := s.store.Ban(ctx, targetID, until, reason); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionBan, targetID, fmt.Sprintf("бан на %d дн.: %s", days, reason))
	return nil
}

// PermBan банит игрока навсегда.
func (s *Service) PermBan(ctx context.Context, actorID, targetID int64, reason string) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if err := s.store.PermBan(ctx, targetID, reason); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionPermBan, targetID, "пермбан: "+reason)
	return nil
}

// Unban снимает любой бан.
func (s *Service) Unban(ctx context.Context, actorID, targetID int64) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if err := s.store.Unban(ctx, targetID); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionUnban, targetID, "разбан")
	return nil
}

// SetNickname принудительно меняет ник (сгник).
func (s *Service) SetNickname(ctx context.Context, actorID, targetID int64, nickname string) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	nickname = strings.TrimSpace(nickname)
	if n := len([]rune(nickname)); n < 1 || n > 20 {
		return common.ErrInvalidNickname
	}
	if err := s.store.SetNickname(ctx, targetID, nickname); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionSetNickname, targetID, "ник: "+nickname)
	return nil
}

// SetLifts устанавливает счётчик поднятий.
func (s *Service) SetLifts(ctx context.Context, actorID, targetID, lifts int64) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if lifts < 0 {
		return common.ErrInvalidAmount
	}
	if err := s.store.SetLifts(ctx, targetID, lifts); err != nil {
		return err
	}
	s.audit(ctx, actorID, "set_lifts", targetID, fmt.Sprintf("поднятий: %d", lifts))
	return nil
}

// SetCustomIncome задаёт персональный доход. «сброс» передаётся нулём.
func (s *Service) SetCustomIncome(ctx context.Context, actorID, targetID, income int64) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if income < 0 {
		return common.ErrInvalidAmount
	}
	if err := s.store.SetCustomIncome(ctx, targetID, income); err != nil {
		return err
	}
	s.audit(ctx, actorID, "set_income", targetID, fmt.Sprintf("доход: %d", income))
	return nil
}

// AddMagnesia начисляет магнезию (банки).
func (s *Service) AddMagnesia(ctx context.Context, actorID, targetID, amount int64) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.store.AddMagnesia(ctx, targetID, amount); err != nil {
		return err
	}
	s.audit(ctx, actorID, "add_magnesia", targetID, fmt.Sprintf("+%d магнезии", amount))
	return nil
}

// SetPower устанавливает силу (асила).
func (s *Service) SetPower(ctx context.Context, actorID, targetID, power int64) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if power < 0 {
		return common.ErrInvalidAmount
	}
	if err := s.store.SetPower(ctx, targetID, power); err != nil {
		return err
	}
	s.audit(ctx, actorID, "set_power", targetID, fmt.Sprintf("сила: %d", power))
	return nil
}

// SetDumbbell устанавливает уровень гантели 1..20 (лгантеля).
func (s *Service) SetDumbbell(ctx context.Context, actorID, targetID int64, level int) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	if level < 1 || level > 20 {
		return common.ErrInvalidAmount
	}
	if err := s.store.SetDumbbell(ctx, targetID, level); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionSetDumbbell, targetID, fmt.Sprintf("гантеля: %d", level))
	return nil
}

// RenameClan переименовывает клан по тегу (аксменить).
func (s *Service) RenameClan(ctx context.Context, actorID int64, tag, name string) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if n := len([]rune(name)); n < 3 || n > 20 {
		return common.ErrInvalidClanName
	}
	if err := s.store.RenameClanByTag(ctx, tag, name); err != nil {
		return err
	}
	s.audit(ctx, actorID, "rename_clan", 0, fmt.Sprintf("[%s] → %s", strings.ToUpper(tag), name))
	return nil
}

// --- Назначения ---

// PromoteAdmin назначает администратора уровня level.
// Нельзя выдать уровень сильнее собственного и менять равных или сильнейших.
func (s *Service) PromoteAdmin(ctx context.Context, actorID, targetID int64, level int) error {
	actorLevel, err := s.requireLevel(ctx, actorID, LevelSenior)
	if err != nil {
		return err
	}
	if level < LevelCreator || level > LevelModerator {
		return common.ErrInvalidAmount
	}
	if level < actorLevel {
		return common.ErrPermissionDenied
	}
	target, err := s.store.PlayerCard(ctx, targetID)
	if err != nil {
		return err
	}
	if target.AdminLevel != LevelNone && s.effectiveLevel(target) <= actorLevel {
		return common.ErrPermissionDenied
	}
	if err := s.store.SetAdminLevel(ctx, targetID, level); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionPromote, targetID, "назначен: "+LevelLabel(level))
	return nil
}

// DemoteAdmin снимает администратора. Равных и сильнейших снимать нельзя.
func (s *Service) DemoteAdmin(ctx context.Context, actorID, targetID int64) error {
	actorLevel, err := s.requireLevel(ctx, actorID, LevelSenior)
	if err != nil {
		return err
	}
	target, err := s.store.PlayerCard(ctx, targetID)
	if err != nil {
		return err
	}
	if target.AdminLevel == LevelNone {
		return common.ErrNotAdmin
	}
	if s.effectiveLevel(target) <= actorLevel {
		return common.ErrPermissionDenied
	}
	if err := s.store.SetAdminLevel(ctx, targetID, LevelNone); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionDemote, targetID, "снят с должности")
	return nil
}

// SetAdminNick устанавливает админ-ник (до 15 символов).
func (s *Service) SetAdminNick(ctx context.Context, actorID int64, nick string) error {
	if _, err := s.requireLevel(ctx, actorID, LevelModerator); err != nil {
		return err
	}
	nick = strings.TrimSpace(nick)
	if n := len([]rune(nick)); n < 1 || n > 15 {
		return common.ErrInvalidNickname
	}
	return s.store.SetAdminNick(ctx, actorID, nick)
}

// --- Разрушительные действия ---

// DeletePlayerStart начинает удаление игрока. Модератор создаёт заявку,
// старшие уровни получают двухшаговое подтверждение («/удалить+»).
func (s *Service) DeletePlayerStart(ctx context.Context, actorID, targetID int64, reason string) (*Request, error) {
	level, err := s.requireLevel(ctx, actorID, LevelModerator)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.PlayerCard(ctx, targetID); err != nil {
		return nil, err
	}

	if level == LevelModerator {
		req, err := s.store.CreateRequest(ctx, actorID, RequestDeletePlayer, targetID, "", reason)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"request": req.ID, "target": targetID}).Info("Заявка на удаление игрока")
		return req, nil
	}

	if err := s.confirms.Save(ctx, actorID, confirm.ActionDeletePlayer, strconv.FormatInt(targetID, 10)); err != nil {
		return nil, err
	}
	return nil, nil
}

// DeletePlayerConfirm выполняет отложенное удаление игрока.
func (s *Service) DeletePlayerConfirm(ctx context.Context, actorID int64) (int64, error) {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return 0, err
	}
	payload, ok, err := s.confirms.Take(ctx, actorID, confirm.ActionDeletePlayer)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, common.ErrNoConfirmation
	}
	targetID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, common.ErrNoConfirmation
	}
	if err := s.store.DeletePlayer(ctx, targetID); err != nil {
		return 0, err
	}
	s.audit(ctx, actorID, ActionDeletePlayer, targetID, "профиль удалён")
	return targetID, nil
}

// DeletePlayerCancel отменяет отложенное удаление.
func (s *Service) DeletePlayerCancel(ctx context.Context, actorID int64) error {
	return s.confirms.Drop(ctx, actorID, confirm.ActionDeletePlayer)
}

// DeleteClan удаляет клан по тегу. Модератор создаёт заявку; старшие уровни
// подтверждают повтором той же команды с тем же тегом.
// Возвращает (заявка, требуется повтор, ошибка).
func (s *Service) DeleteClan(ctx context.Context, actorID int64, tag, reason string) (*Request, bool, error) {
	level, err := s.requireLevel(ctx, actorID, LevelModerator)
	if err != nil {
		return nil, false, err
	}
	tag = strings.ToUpper(strings.TrimSpace(tag))

	if level == LevelModerator {
		req, err := s.store.CreateRequest(ctx, actorID, RequestDeleteClan, 0, tag, reason)
		if err != nil {
			return nil, false, err
		}
		return req, false, nil
	}

	payload, ok, err := s.confirms.Take(ctx, actorID, confirm.ActionDeleteClan)
	if err != nil {
		return nil, false, err
	}
	if ok && payload == tag {
		if err := s.store.DeleteClanByTag(ctx, tag); err != nil {
			return nil, false, err
		}
		s.audit(ctx, actorID, ActionDeleteClan, 0, "клан удалён: "+tag)
		return nil, false, nil
	}
	if err := s.confirms.Save(ctx, actorID, confirm.ActionDeleteClan, tag); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}

// ResetAllStart начинает полный сброс. Модератор создаёт заявку,
// старшие уровни получают подтверждение («/сбросвсех+»).
func (s *Service) ResetAllStart(ctx context.Context, actorID int64) (*Request, error) {
	level, err := s.requireLevel(ctx, actorID, LevelModerator)
	if err != nil {
		return nil, err
	}
	if level == LevelModerator {
		return s.store.CreateRequest(ctx, actorID, RequestResetAll, 0, "", "полный сброс прогресса")
	}
	if err := s.confirms.Save(ctx, actorID, confirm.ActionResetAll, "all"); err != nil {
		return nil, err
	}
	return nil, nil
}

// ResetAllConfirm выполняет полный сброс.
func (s *Service) ResetAllConfirm(ctx context.Context, actorID int64) error {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return err
	}
	_, ok, err := s.confirms.Take(ctx, actorID, confirm.ActionResetAll)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrNoConfirmation
	}
	if err := s.store.ResetAll(ctx); err != nil {
		return err
	}
	s.audit(ctx, actorID, ActionResetAll, 0, "полный сброс прогресса")
	log.WithField("admin", actorID).Warn("Выполнен полный сброс прогресса")
	return nil
}

// ResetAllCancel отменяет отложенный сброс.
func (s *Service) ResetAllCancel(ctx context.Context, actorID int64) error {
	return s.confirms.Drop(ctx, actorID, confirm.ActionResetAll)
}

// --- Очередь заявок ---

// PendingRequests возвращает очередь необработанных заявок.
func (s *Service) PendingRequests(ctx context.Context, actorID int64) ([]*Request, error) {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return nil, err
	}
	return s.store.PendingRequests(ctx)
}

// Approve одобряет заявку и выполняет действие в момент одобрения.
// Заявки reset_all может одобрить только создатель.
func (s *Service) Approve(ctx context.Context, actorID, requestID int64) (*Request, error) {
	level, err := s.requireLevel(ctx, actorID, LevelSenior)
	if err != nil {
		return nil, err
	}
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, common.ErrAlreadyProcessed
	}
	if req.Type == RequestResetAll && level != LevelCreator {
		return nil, common.ErrPermissionDenied
	}

	// Сначала выполняем действие: если оно упадёт, заявка остаётся
	// в очереди и её можно одобрить повторно.
	switch req.Type {
	case RequestDeletePlayer:
		err = s.store.DeletePlayer(ctx, req.TargetID)
	case RequestDeleteClan:
		err = s.store.DeleteClanByTag(ctx, req.TargetTag)
	case RequestResetAll:
		err = s.store.ResetAll(ctx)
	default:
		err = fmt.Errorf("неизвестный тип заявки: %s", req.Type)
	}
	if err != nil {
		return nil, err
	}

	req, err = s.store.ResolveRequest(ctx, requestID, actorID, StatusApproved)
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case RequestDeletePlayer:
		s.audit(ctx, actorID, ActionDeletePlayer, req.TargetID, fmt.Sprintf("по заявке #%d", req.ID))
	case RequestDeleteClan:
		s.audit(ctx, actorID, ActionDeleteClan, 0, fmt.Sprintf("клан %s по заявке #%d", req.TargetTag, req.ID))
	case RequestResetAll:
		s.audit(ctx, actorID, ActionResetAll, 0, fmt.Sprintf("по заявке #%d", req.ID))
	}

	log.WithFields(log.Fields{"request": req.ID, "type": req.Type, "by": actorID}).Info("Заявка одобрена")
	return req, nil
}

// Reject отклоняет заявку.
func (s *Service) Reject(ctx context.Context, actorID, requestID int64, reason string) (*Request, error) {
	if _, err := s.requireLevel(ctx, actorID, LevelSenior); err != nil {
		return nil, err
	}
	req, err := s.store.ResolveRequest(ctx, requestID, actorID, StatusRejected)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actorID, "reject_request", req.RequesterID, fmt.Sprintf("заявка #%d отклонена: %s", req.ID, reason))
	return req, nil
}

// --- Рассылки ---

// BeginBroadcast проверяет лимит и возвращает получателей.
// Модераторы ограничены BroadcastDailyLimit рассылками за скользящие сутки.
func (s *Service) BeginBroadcast(ctx context.Context, actorID int64) ([]int64, error) {
	level, err := s.requireLevel(ctx, actorID, LevelModerator)
	if err != nil {
		return nil, err
	}
	if level == LevelModerator {
		n, err := s.store.CountBroadcasts(ctx, actorID)
		if err != nil {
			return nil, err
		}
		if n >= s.cfg.BroadcastDailyLimit {
			return nil, common.ErrBroadcastLimit
		}
	}
	return s.store.AllPlayerTgIDs(ctx)
}

// FinishBroadcast фиксирует рассылку и пишет аудит.
func (s *Service) FinishBroadcast(ctx context.Context, actorID int64, sent, failed int) {
	if err := s.store.RecordBroadcast(ctx, actorID); err != nil {
		log.WithError(err).Error("Ошибка записи рассылки")
	}
	s.audit(ctx, actorID, ActionBroadcast, 0, fmt.Sprintf("доставлено %d, ошибок %d", sent, failed))
}

// --- Вход по паролю ---

// Login проверяет пароль администратора. Три неудачные попытки за час
// блокируют вход. Успех даёт уровень создателя.
func (s *Service) Login(ctx context.Context, actorID, tgID int64, password string) error {
	attempts, err := s.store.FailedLoginAttempts(ctx, tgID)
	if err != nil {
		return err
	}
	if attempts >= 3 {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)
	if err := s.store.RecordLoginAttempt(ctx, tgID, match); err != nil {
		log.WithError(err).Error("Ошибка записи попытки входа")
	}
	if !match {
		return common.ErrWrongPassword
	}

	if err := s.store.SetAdminLevel(ctx, actorID, LevelCreator); err != nil {
		return err
	}
	s.audit(ctx, actorID, "login", actorID, "вход по паролю")
	log.WithField("player", actorID).Info("Вход администратора по паролю")
	return nil
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
