// Package players — service.go содержит бизнес-логику игроков.
// Регистрация, поднятия, магазин гантелей, переводы, ники, топы.
package players

import (
	"context"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/config"
)

// Store — хранилище игроков. Боевой вариант — *Repository поверх PostgreSQL.
type Store interface {
	Ensure(ctx context.Context, tgID int64, username string) (*Player, error)
	GetByID(ctx context.Context, id int64) (*Player, error)
	GetByTgID(ctx context.Context, tgID int64) (*Player, error)
	NicknameTaken(ctx context.Context, nickname string, exceptID int64) (bool, error)
	SetNickname(ctx context.Context, id int64, nickname string) error
	Transfer(ctx context.Context, fromID, toID, amount, fee int64) error
	Lift(ctx context.Context, playerID int64, income, powerGain int64, cooldown time.Duration) (*LiftResult, error)
	BuyDumbbell(ctx context.Context, playerID int64, newLevel int, price int64) error
	Top(ctx context.Context, kind TopKind, limit int) ([]*Player, error)
}

// Service управляет игроками.
type Service struct {
	store Store
	cfg   *config.Config
}

// NewService создаёт новый сервис игроков.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// nicknameRe — допустимые символы игрового ника.
var nicknameRe = regexp.MustCompile(`^[0-9A-Za-zА-Яа-яЁё _-]+$`)

// Ensure регистрирует игрока при первом обращении.
func (s *Service) Ensure(ctx context.Context, tgID int64, username string) (*Player, error) {
	return s.store.Ensure(ctx, tgID, username)
}

// GetByID возвращает игрока по игровому ID.
func (s *Service) GetByID(ctx context.Context, id int64) (*Player, error) {
	return s.store.GetByID(ctx, id)
}

// GetByTgID возвращает игрока по Telegram ID.
func (s *Service) GetByTgID(ctx context.Context, tgID int64) (*Player, error) {
	return s.store.GetByTgID(ctx, tgID)
}

// Lift выполняет поднятие гантели. Доход берётся из линейки гантелей,
// кастомный доход (команда «заработок») имеет приоритет.
func (s *Service) Lift(ctx context.Context, player *Player) (*LiftResult, error) {
	if player.IsBanned(time.Now()) {
		return nil, common.ErrBanned
	}

	d, ok := DumbbellByLevel(player.DumbbellLevel)
	if !ok {
		d, _ = DumbbellByLevel(1)
	}
	income := d.Income
	if player.CustomIncome > 0 {
		income = player.CustomIncome
	}

	res, err := s.store.Lift(ctx, player.ID, income, d.Power, s.cfg.LiftCooldown)
	if err != nil {
		return res, err
	}

	log.WithFields(log.Fields{
		"player": player.ID,
		"income": res.Income,
		"bonus":  res.ClanBonus,
	}).Debug("Поднятие выполнено")
	return res, nil
}

// BuyNextDumbbell покупает следующую гантелю из линейки.
func (s *Service) BuyNextDumbbell(ctx context.Context, player *Player) (Dumbbell, error) {
	if player.DumbbellLevel >= MaxDumbbellLevel {
		return Dumbbell{}, common.ErrMaxDumbbell
	}
	next, _ := DumbbellByLevel(player.DumbbellLevel + 1)
	if err := s.store.BuyDumbbell(ctx, player.ID, next.Level, next.Price); err != nil {
		return Dumbbell{}, err
	}
	return next, nil
}

// TransferFee возвращает комиссию перевода: процент из конфига, минимум 1 монета.
func (s *Service) TransferFee(amount int64) int64 {
	fee := amount * s.cfg.TransferFeePercent / 100
	if fee < 1 {
		fee = 1
	}
	return fee
}

// Transfer переводит монеты между игроками.
// Проверки: не себе, минимум 10 монет, получатель существует и не забанен.
func (s *Service) Transfer(ctx context.Context, from *Player, toID, amount int64) (*Player, int64, error) {
	if from.ID == toID {
		return nil, 0, common.ErrSelfTransfer
	}
	if amount <= 0 {
		return nil, 0, common.ErrInvalidAmount
	}
	if amount < s.cfg.TransferMin {
		return nil, 0, common.ErrTransferTooSmall
	}

	recipient, err := s.store.GetByID(ctx, toID)
	if err != nil {
		return nil, 0, err
	}
	if recipient.IsBanned(time.Now()) {
		return nil, 0, common.ErrBanned
	}

	fee := s.TransferFee(amount)
	if err := s.store.Transfer(ctx, from.ID, toID, amount, fee); err != nil {
		return nil, 0, err
	}

	log.WithFields(log.Fields{
		"from":   from.ID,
		"to":     toID,
		"amount": amount,
		"fee":    fee,
	}).Info("Перевод выполнен")
	return recipient, fee, nil
}

// SetNickname валидирует и сохраняет игровой ник.
// Правила: 3..20 символов, буквы/цифры/пробел/дефис/подчёркивание,
// без двойных пробелов и пробелов по краям.
func (s *Service) SetNickname(ctx context.Context, player *Player, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	runes := []rune(nickname)
	if len(runes) < 3 || len(runes) > 20 {
		return common.ErrInvalidNickname
	}
	if !nicknameRe.MatchString(nickname) || strings.Contains(nickname, "  ") {
		return common.ErrInvalidNickname
	}

	taken, err := s.store.NicknameTaken(ctx, nickname, player.ID)
	if err != nil {
		return err
	}
	if taken {
		return common.ErrNicknameTaken
	}
	return s.store.SetNickname(ctx, player.ID, nickname)
}

// Top возвращает таблицу лидеров. Неизвестный вид трактуется как топ по монетам.
func (s *Service) Top(ctx context.Context, kind TopKind) ([]*Player, error) {
	switch kind {
	case TopByBalance, TopByLifts, TopByEarned:
	default:
		kind = TopByBalance
	}
	return s.store.Top(ctx, kind, 10)
}
