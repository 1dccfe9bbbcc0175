// Package promo реализует промокоды: создание, активацию и учёт использований.
package promo

import "time"

// Награды промокода. Других типов не бывает.
const (
	RewardCoins    = "coins"
	RewardMagnesia = "magnesia"
	RewardPower    = "power"
)

// Code — промокод.
type Code struct {
	ID         int64
	Code       string // Хранится в верхнем регистре
	RewardType string
	Amount     int64
	UsesLeft   int
	TotalUses  int
	ExpiresAt  *time.Time // nil — бессрочный
	CreatedBy  int64
	CreatedAt  time.Time
}

// Expired сообщает, истёк ли срок действия кода.
func (c *Code) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// RewardLabel возвращает русское название награды для сообщений.
func RewardLabel(rewardType string) string {
	switch rewardType {
	case RewardCoins:
		return "монеты"
	case RewardMagnesia:
		return "магнезия"
	case RewardPower:
		return "сила"
	}
	return rewardType
}

// RedeemResult — итог активации промокода.
type RedeemResult struct {
	Code       *Code
	RewardType string
	Amount     int64
}
