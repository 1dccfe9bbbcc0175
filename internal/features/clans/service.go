// Package clans — service.go содержит бизнес-логику кланов:
// валидация, шлюз прав, жизненный цикл, казна и распределения.
package clans

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/config"
	"gymlegend.ru/gym-bot/internal/features/confirm"
)

// Store — хранилище кланов. Боевой вариант — *Repository поверх PostgreSQL.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Clan, error)
	GetByTag(ctx context.Context, tag string) (*Clan, error)
	SearchByName(ctx context.Context, q string, limit int) ([]*Clan, error)
	Top(ctx context.Context, limit int) ([]*Clan, error)
	Create(ctx context.Context, ownerID int64, tag, name string, fee int64) (*Clan, error)
	Join(ctx context.Context, clanID, playerID int64) error
	Leave(ctx context.Context, clanID, playerID int64) error
	Kick(ctx context.Context, clanID, actorID, targetID int64) error
	Unban(ctx context.Context, clanID, actorID, targetID int64) error
	TransferOwnership(ctx context.Context, clanID, oldOwnerID, newOwnerID, fee int64) error
	Disband(ctx context.Context, clanID int64) error
	Rename(ctx context.Context, clanID, actorID int64, name string) error
	SetDescription(ctx context.Context, clanID, actorID int64, text string) error
	SetGreeting(ctx context.Context, clanID, actorID int64, text string) error
	SetRequirement(ctx context.Context, clanID, actorID int64, minDumbbell int) error
	SetRole(ctx context.Context, clanID, actorID, targetID int64, role string) error
	Deposit(ctx context.Context, clanID, playerID, amount int64) (int64, error)
	Withdraw(ctx context.Context, clanID, playerID, amount int64) (int64, error)
	DistributeEqual(ctx context.Context, clanID, actorID, perMember int64) (*DistributeResult, error)
	DistributeTop(ctx context.Context, clanID, actorID, perMember int64, topN int) (*DistributeResult, error)
	Upgrade(ctx context.Context, clanID int64, baseCost int64, maxLevels, levelCap int) (*UpgradeResult, error)
	Members(ctx context.Context, clanID int64) ([]*Member, error)
	Contributors(ctx context.Context, clanID int64, limit int) ([]*Contributor, error)
	TreasuryLog(ctx context.Context, clanID int64, limit int) ([]*TreasuryEntry, error)
	ActionLog(ctx context.Context, clanID int64, limit int) ([]*LogEntry, error)
	MemberRole(ctx context.Context, playerID int64) (*int64, string, error)
}

// ConfirmStore — хранилище отложенных подтверждений (пакет confirm).
type ConfirmStore interface {
	Save(ctx context.Context, actorID int64, action, payload string) error
	Take(ctx context.Context, actorID int64, action string) (string, bool, error)
	Drop(ctx context.Context, actorID int64, action string) error
}

// Service управляет кланами.
type Service struct {
	store    Store
	confirms ConfirmStore
	cfg      *config.Config
}

// NewService создаёт новый сервис кланов.
func NewService(store Store, confirms ConfirmStore, cfg *config.Config) *Service {
	return &Service{store: store, confirms: confirms, cfg: cfg}
}

// tagRe — тег клана: ровно три заглавные латинские буквы.
var tagRe = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateTag нормализует и проверяет тег клана.
func ValidateTag(tag string) (string, error) {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if !tagRe.MatchString(tag) {
		return "", common.ErrInvalidClanTag
	}
	return tag, nil
}

// ValidateName проверяет название клана (3..20 символов).
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := len([]rune(name))
	if n < 3 || n > 20 {
		return "", common.ErrInvalidClanName
	}
	return name, nil
}

// canModerate — шлюз прав для кика и понижения.
// Владелец может всё, заместитель — только участников, два заместителя
// не могут действовать друг против друга.
func canModerate(actorRole, targetRole string) error {
	if RoleRank(actorRole) < 1 {
		return common.ErrNotClanOfficer
	}
	if targetRole == RoleOwner {
		return common.ErrPermissionDenied
	}
	if actorRole == RoleOfficer && targetRole == RoleOfficer {
		return common.ErrKickPeer
	}
	return nil
}

// membership возвращает клан и роль игрока, либо ErrNotInClan.
func (s *Service) membership(ctx context.Context, playerID int64) (*Clan, string, error) {
	clanID, role, err := s.store.MemberRole(ctx, playerID)
	if err != nil {
		return nil, "", err
	}
	if clanID == nil {
		return nil, "", common.ErrNotInClan
	}
	clan, err := s.store.GetByID(ctx, *clanID)
	if err != nil {
		return nil, "", err
	}
	return clan, role, nil
}

// GetByID возвращает клан по ID.
func (s *Service) GetByID(ctx context.Context, id int64) (*Clan, error) {
	return s.store.GetByID(ctx, id)
}

// GetByTag возвращает клан по тегу.
func (s *Service) GetByTag(ctx context.Context, tag string) (*Clan, error) {
	return s.store.GetByTag(ctx, tag)
}

// Search ищет кланы по подстроке названия.
func (s *Service) Search(ctx context.Context, q string) ([]*Clan, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, common.ErrClanNotFound
	}
	return s.store.SearchByName(ctx, q, 10)
}

// Top возвращает топ-10 кланов.
func (s *Service) Top(ctx context.Context) ([]*Clan, error) {
	return s.store.Top(ctx, 10)
}

// MemberClan возвращает клан и роль игрока.
func (s *Service) MemberClan(ctx context.Context, playerID int64) (*Clan, string, error) {
	return s.membership(ctx, playerID)
}

// Create создаёт клан за взнос из конфига.
func (s *Service) Create(ctx context.Context, ownerID int64, rawTag, rawName string) (*Clan, error) {
	tag, err := ValidateTag(rawTag)
	if err != nil {
		return nil, err
	}
	name, err := ValidateName(rawName)
	if err != nil {
		return nil, err
	}

	clan, err := s.store.Create(ctx, ownerID, tag, name, s.cfg.ClanCreateCost)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"clan": clan.ID, "tag": tag, "owner": ownerID}).Info("Клан создан")
	return clan, nil
}

// Join вступает в клан по тегу. Возвращает клан и отрисованное приветствие.
func (s *Service) Join(ctx context.Context, playerID int64, tag, playerName string) (*Clan, string, error) {
	clan, err := s.store.GetByTag(ctx, tag)
	if err != nil {
		return nil, "", err
	}
	if err := s.store.Join(ctx, clan.ID, playerID); err != nil {
		return nil, "", err
	}
	return clan, RenderGreeting(clan, playerName), nil
}

// RenderGreeting подставляет {player}, {clan} и {tag} в приветствие клана.
func RenderGreeting(clan *Clan, playerName string) string {
	if clan.Greeting == "" {
		return ""
	}
	r := strings.NewReplacer("{player}", playerName, "{clan}", clan.Name, "{tag}", clan.Tag)
	return r.Replace(clan.Greeting)
}

// Leave выходит из клана. Владельцу нельзя: сначала передать или распустить.
func (s *Service) Leave(ctx context.Context, playerID int64) (*Clan, error) {
	clan, role, err := s.membership(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if role == RoleOwner {
		return nil, common.ErrPermissionDenied
	}
	return clan, s.store.Leave(ctx, clan.ID, playerID)
}

// Kick исключает участника с занесением в бан-лист клана.
func (s *Service) Kick(ctx context.Context, actorID, targetID int64) (*Clan, error) {
	if actorID == targetID {
		return nil, common.ErrPermissionDenied
	}
	clan, actorRole, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	targetClanID, targetRole, err := s.store.MemberRole(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if targetClanID == nil || *targetClanID != clan.ID {
		return nil, common.ErrNotInClan
	}
	if err := canModerate(actorRole, targetRole); err != nil {
		return nil, err
	}
	return clan, s.store.Kick(ctx, clan.ID, actorID, targetID)
}

// Unban убирает игрока из бан-листа клана.
func (s *Service) Unban(ctx context.Context, actorID, targetID int64) (*Clan, error) {
	clan, actorRole, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if RoleRank(actorRole) < 1 {
		return nil, common.ErrNotClanOfficer
	}
	return clan, s.store.Unban(ctx, clan.ID, actorID, targetID)
}

// TransferOwnership передаёт клан участнику за взнос из конфига.
func (s *Service) TransferOwnership(ctx context.Context, actorID, targetID int64) (*Clan, error) {
	if actorID == targetID {
		return nil, common.ErrSelfTransfer
	}
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if role != RoleOwner {
		return nil, common.ErrNotClanLeader
	}
	targetClanID, _, err := s.store.MemberRole(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if targetClanID == nil || *targetClanID != clan.ID {
		return nil, common.ErrNotInClan
	}
	if err := s.store.TransferOwnership(ctx, clan.ID, actorID, targetID, s.cfg.ClanTransferCost); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"clan": clan.ID, "from": actorID, "to": targetID}).Info("Клан передан")
	return clan, nil
}

// DisbandRequest начинает роспуск клана: запоминает подтверждение.
func (s *Service) DisbandRequest(ctx context.Context, actorID int64) (*Clan, error) {
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if role != RoleOwner {
		return nil, common.ErrNotClanLeader
	}
	if err := s.confirms.Save(ctx, actorID, confirm.ActionDisbandClan, strconv.FormatInt(clan.ID, 10)); err != nil {
		return nil, err
	}
	return clan, nil
}

// DisbandConfirm выполняет роспуск, если подтверждение ещё действует.
func (s *Service) DisbandConfirm(ctx context.Context, actorID int64) (*Clan, error) {
	payload, ok, err := s.confirms.Take(ctx, actorID, confirm.ActionDisbandClan)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrNoConfirmation
	}
	clanID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return nil, common.ErrNoConfirmation
	}

	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if clan.ID != clanID || role != RoleOwner {
		return nil, common.ErrNotClanLeader
	}

	if err := s.store.Disband(ctx, clan.ID); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"clan": clan.ID, "owner": actorID}).Info("Клан распущен")
	return clan, nil
}

// DisbandCancel отменяет начатый роспуск.
func (s *Service) DisbandCancel(ctx context.Context, actorID int64) error {
	return s.confirms.Drop(ctx, actorID, confirm.ActionDisbandClan)
}

// Rename переименовывает клан (только владелец).
func (s *Service) Rename(ctx context.Context, actorID int64, rawName string) (*Clan, string, error) {
	name, err := ValidateName(rawName)
	if err != nil {
		return nil, "", err
	}
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, "", err
	}
	if role != RoleOwner {
		return nil, "", common.ErrNotClanLeader
	}
	return clan, name, s.store.Rename(ctx, clan.ID, actorID, name)
}

// SetDescription сохраняет описание (владелец или заместитель, до 500 символов).
func (s *Service) SetDescription(ctx context.Context, actorID int64, text string) (*Clan, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) > 500 {
		return nil, common.ErrInvalidAmount
	}
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if RoleRank(role) < 1 {
		return nil, common.ErrNotClanOfficer
	}
	return clan, s.store.SetDescription(ctx, clan.ID, actorID, text)
}

// SetGreeting сохраняет приветствие (до 200 символов, «нет»/«off» очищает).
func (s *Service) SetGreeting(ctx context.Context, actorID int64, text string) (*Clan, error) {
	text = strings.TrimSpace(text)
	switch strings.ToLower(text) {
	case "нет", "off":
		text = ""
	}
	if len([]rune(text)) > 200 {
		return nil, common.ErrInvalidAmount
	}
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if RoleRank(role) < 1 {
		return nil, common.ErrNotClanOfficer
	}
	return clan, s.store.SetGreeting(ctx, clan.ID, actorID, text)
}

// SetRequirement задаёт минимальный уровень гантели для вступления (владелец).
func (s *Service) SetRequirement(ctx context.Context, actorID int64, minDumbbell int) (*Clan, error) {
	if minDumbbell < 0 || minDumbbell > 20 {
		return nil, common.ErrInvalidAmount
	}
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if role != RoleOwner {
		return nil, common.ErrNotClanLeader
	}
	return clan, s.store.SetRequirement(ctx, clan.ID, actorID, minDumbbell)
}

// Promote назначает участника заместителем (только владелец).
func (s *Service) Promote(ctx context.Context, actorID, targetID int64) (*Clan, error) {
	return s.setRole(ctx, actorID, targetID, RoleOfficer)
}

// Demote снимает заместителя до участника (только владелец).
func (s *Service) Demote(ctx context.Context, actorID, targetID int64) (*Clan, error) {
	return s.setRole(ctx, actorID, targetID, RoleMember)
}

func (s *Service) setRole(ctx context.Context, actorID, targetID int64, role string) (*Clan, error) {
	clan, actorRole, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actorRole != RoleOwner {
		return nil, common.ErrNotClanLeader
	}
	targetClanID, targetRole, err := s.store.MemberRole(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if targetClanID == nil || *targetClanID != clan.ID {
		return nil, common.ErrNotInClan
	}
	if targetRole == RoleOwner {
		return nil, common.ErrPermissionDenied
	}
	return clan, s.store.SetRole(ctx, clan.ID, actorID, targetID, role)
}

// Deposit кладёт монеты в казну.
func (s *Service) Deposit(ctx context.Context, actorID, amount int64) (*Clan, int64, error) {
	if amount <= 0 {
		return nil, 0, common.ErrInvalidAmount
	}
	clan, _, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	newTreasury, err := s.store.Deposit(ctx, clan.ID, actorID, amount)
	return clan, newTreasury, err
}

// Withdraw снимает монеты из казны (владелец или заместитель).
func (s *Service) Withdraw(ctx context.Context, actorID, amount int64) (*Clan, int64, error) {
	if amount <= 0 {
		return nil, 0, common.ErrInvalidAmount
	}
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	if RoleRank(role) < 1 {
		return nil, 0, common.ErrNotClanOfficer
	}
	newTreasury, err := s.store.Withdraw(ctx, clan.ID, actorID, amount)
	return clan, newTreasury, err
}

// DistributeEqual раздаёт perMember монет каждому участнику.
func (s *Service) DistributeEqual(ctx context.Context, actorID, perMember int64) (*Clan, *DistributeResult, error) {
	clan, err := s.distributeGate(ctx, actorID, perMember)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.store.DistributeEqual(ctx, clan.ID, actorID, perMember)
	return clan, res, err
}

// DistributeTop раздаёт perMember монет трём участникам с наибольшим вкладом.
func (s *Service) DistributeTop(ctx context.Context, actorID, perMember int64) (*Clan, *DistributeResult, error) {
	clan, err := s.distributeGate(ctx, actorID, perMember)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.store.DistributeTop(ctx, clan.ID, actorID, perMember, 3)
	return clan, res, err
}

func (s *Service) distributeGate(ctx context.Context, actorID, perMember int64) (*Clan, error) {
	if perMember <= 0 {
		return nil, common.ErrInvalidAmount
	}
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if RoleRank(role) < 1 {
		return nil, common.ErrNotClanOfficer
	}
	return clan, nil
}

// UpgradeOne повышает клан на один уровень за счёт казны (владелец).
func (s *Service) UpgradeOne(ctx context.Context, actorID int64) (*Clan, *UpgradeResult, error) {
	return s.upgrade(ctx, actorID, 1)
}

// UpgradeMax повышает клан на столько уровней, на сколько хватит казны (владелец).
func (s *Service) UpgradeMax(ctx context.Context, actorID int64) (*Clan, *UpgradeResult, error) {
	return s.upgrade(ctx, actorID, s.cfg.ClanMaxLevel)
}

func (s *Service) upgrade(ctx context.Context, actorID int64, maxLevels int) (*Clan, *UpgradeResult, error) {
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if role != RoleOwner {
		return nil, nil, common.ErrNotClanLeader
	}
	res, err := s.store.Upgrade(ctx, clan.ID, s.cfg.ClanUpgradeBaseCost, maxLevels, s.cfg.ClanMaxLevel)
	return clan, res, err
}

// Members возвращает состав клана игрока.
func (s *Service) Members(ctx context.Context, actorID int64) (*Clan, []*Member, error) {
	clan, _, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.store.Members(ctx, clan.ID)
	return clan, members, err
}

// Contributions возвращает вклады участников.
func (s *Service) Contributions(ctx context.Context, actorID int64) (*Clan, []*Contributor, error) {
	clan, _, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	top, err := s.store.Contributors(ctx, clan.ID, 50)
	return clan, top, err
}

// Treasury возвращает казну, топ вкладчиков и последние операции.
func (s *Service) Treasury(ctx context.Context, actorID int64) (*Clan, []*Contributor, []*TreasuryEntry, error) {
	clan, _, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, nil, nil, err
	}
	top, err := s.store.Contributors(ctx, clan.ID, 5)
	if err != nil {
		return nil, nil, nil, err
	}
	entries, err := s.store.TreasuryLog(ctx, clan.ID, 10)
	return clan, top, entries, err
}

// Log возвращает лог действий клана (владелец или заместитель).
func (s *Service) Log(ctx context.Context, actorID int64) (*Clan, []*LogEntry, error) {
	clan, role, err := s.membership(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if RoleRank(role) < 1 {
		return nil, nil, common.ErrNotClanOfficer
	}
	entries, err := s.store.ActionLog(ctx, clan.ID, 20)
	return clan, entries, err
}
