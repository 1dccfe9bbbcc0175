// Package clans — bonuses.go содержит единственную авторитетную формулу
// клановых бонусов. Все места вывода и начисления пользуются только ею.
package clans

import "fmt"

// Bonuses — бонусы клана на заданном уровне.
type Bonuses struct {
	BusinessPercent int64 // Надбавка к доходам с бизнесов, %
	LiftCoins       int64 // Монеты в казну за каждое поднятие участника
	MemberLimit     int   // Лимит участников
}

// BonusesForLevel возвращает бонусы клана уровня level.
// Уровень ниже 1 трактуется как 1.
func BonusesForLevel(level int) Bonuses {
	if level < 1 {
		level = 1
	}
	return Bonuses{
		BusinessPercent: int64(5 + (level - 1)),
		LiftCoins:       int64(1 + (level - 1)),
		MemberLimit:     20 + 5*(level-1),
	}
}

// LiftBonus возвращает бонус казне за одно поднятие участника клана уровня level.
func LiftBonus(level int) int64 {
	return BonusesForLevel(level).LiftCoins
}

// UpgradeCost возвращает стоимость повышения клана с уровня level на level+1.
func UpgradeCost(baseCost int64, level int) int64 {
	return baseCost * int64(level)
}

// Format возвращает блок бонусов для профиля клана.
func (b Bonuses) Format() string {
	return fmt.Sprintf(
		"├─ 💼 +%d%% к доходам с бизнесов\n├─ 🏋️ +%d монет за поднятие\n└─ 👥 Лимит участников: %d",
		b.BusinessPercent, b.LiftCoins, b.MemberLimit,
	)
}
