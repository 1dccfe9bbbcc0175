package promo

import (
	"context"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"gymlegend.ru/gym-bot/internal/common"
	"gymlegend.ru/gym-bot/internal/config"
)

// Store — хранилище промокодов. Боевой вариант — *Repository.
type Store interface {
	Create(ctx context.Context, code, rewardType string, amount int64, uses int, expiresAt *time.Time, createdBy int64) (*Code, error)
	GetByCode(ctx context.Context, code string) (*Code, error)
	Delete(ctx context.Context, code string) error
	List(ctx context.Context, limit int) ([]*Code, error)
	Redeem(ctx context.Context, code string, playerID int64) (*RedeemResult, error)
}

// Service управляет промокодами.
type Service struct {
	store Store
	cfg   *config.Config
}

// NewService создаёт новый сервис промокодов.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// codeRe — код: 3..20 символов, латиница и цифры.
var codeRe = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

// NormalizeCode приводит код к верхнему регистру и проверяет формат.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codeRe.MatchString(code) {
		return "", common.ErrPromoNotFound
	}
	return code, nil
}

// ParseReward разбирает русское название награды в тип.
// Допустимы только монеты, магнезия и сила.
func ParseReward(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "монеты", "монета", "монет":
		return RewardCoins, nil
	case "магнезия", "магнезии":
		return RewardMagnesia, nil
	case "сила", "силы":
		return RewardPower, nil
	}
	return "", common.ErrInvalidAmount
}

// maxAmount возвращает потолок награды для типа.
func (s *Service) maxAmount(rewardType string) int64 {
	switch rewardType {
	case RewardMagnesia:
		return s.cfg.PromoMaxMagnesia
	case RewardPower:
		return s.cfg.PromoMaxPower
	default:
		return s.cfg.PromoMaxCoins
	}
}

// Create создаёт промокод. При capped сумма ограничена потолком для
// типа награды (модераторы), старшие ранги создают без потолка.
// Количество использований — от 1 до 10000 для всех.
func (s *Service) Create(ctx context.Context, rawCode, rawReward string, amount int64, uses int, ttl time.Duration, createdBy int64, capped bool) (*Code, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	rewardType, err := ParseReward(rawReward)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, common.ErrPromoLimit
	}
	if capped && amount > s.maxAmount(rewardType) {
		return nil, common.ErrPromoLimit
	}
	if uses < 1 || uses > 10000 {
		return nil, common.ErrPromoLimit
	}

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	c, err := s.store.Create(ctx, code, rewardType, amount, uses, expiresAt, createdBy)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"code": code, "reward": rewardType, "amount": amount, "uses": uses}).Info("Промокод создан")
	return c, nil
}

// Delete удаляет промокод.
func (s *Service) Delete(ctx context.Context, rawCode string) error {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, code)
}

// Get возвращает промокод для админской сводки.
func (s *Service) Get(ctx context.Context, rawCode string) (*Code, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	return s.store.GetByCode(ctx, code)
}

// List возвращает последние 20 промокодов.
func (s *Service) List(ctx context.Context) ([]*Code, error) {
	return s.store.List(ctx, 20)
}

// Redeem активирует промокод для игрока.
func (s *Service) Redeem(ctx context.Context, rawCode string, playerID int64) (*RedeemResult, error) {
	code, err := NormalizeCode(rawCode)
	if err != nil {
		return nil, err
	}
	res, err := s.store.Redeem(ctx, code, playerID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"code": code, "player": playerID, "amount": res.Amount}).Info("Промокод активирован")
	return res, nil
}
