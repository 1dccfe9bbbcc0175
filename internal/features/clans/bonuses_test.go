package clans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBonusesForLevel(t *testing.T) {
	tests := []struct {
		level           int
		businessPercent int64
		liftCoins       int64
		memberLimit     int
	}{
		{1, 5, 1, 20},
		{2, 6, 2, 25},
		{5, 9, 5, 40},
		{10, 14, 10, 65},
	}

	for _, tt := range tests {
		b := BonusesForLevel(tt.level)
		assert.Equal(t, tt.businessPercent, b.BusinessPercent, "бизнес-бонус уровня %d", tt.level)
		assert.Equal(t, tt.liftCoins, b.LiftCoins, "бонус поднятий уровня %d", tt.level)
		assert.Equal(t, tt.memberLimit, b.MemberLimit, "лимит участников уровня %d", tt.level)
	}
}

func TestUpgradeCost(t *testing.T) {
	assert.Equal(t, int64(500), UpgradeCost(500, 1))
	assert.Equal(t, int64(1000), UpgradeCost(500, 2))
	assert.Equal(t, int64(4500), UpgradeCost(500, 9))
}

func TestLiftBonusMatchesLevel(t *testing.T) {
	for level := 1; level <= 10; level++ {
		assert.Equal(t, BonusesForLevel(level).LiftCoins, LiftBonus(level))
	}
}

func TestValidateTag(t *testing.T) {
	tag, err := ValidateTag("leg")
	assert.NoError(t, err)
	assert.Equal(t, "LEG", tag)

	for _, bad := range []string{"LE", "LEGA", "ЛЕГ", "L1G", ""} {
		_, err := ValidateTag(bad)
		assert.Error(t, err, "тег %q должен быть отвергнут", bad)
	}
}

func TestValidateName(t *testing.T) {
	name, err := ValidateName("  Легенда  ")
	assert.NoError(t, err)
	assert.Equal(t, "Легенда", name)

	_, err = ValidateName("ab")
	assert.Error(t, err)
	_, err = ValidateName("очень длинное название клана сверх лимита")
	assert.Error(t, err)
}

func TestCanModerate(t *testing.T) {
	assert.NoError(t, canModerate(RoleOwner, RoleMember))
	assert.NoError(t, canModerate(RoleOwner, RoleOfficer))
	assert.NoError(t, canModerate(RoleOfficer, RoleMember))
	assert.Error(t, canModerate(RoleOfficer, RoleOfficer))
	assert.Error(t, canModerate(RoleMember, RoleMember))
	assert.Error(t, canModerate(RoleOfficer, RoleOwner))
}

func TestRenderGreeting(t *testing.T) {
	clan := &Clan{Tag: "LEG", Name: "Легенда", Greeting: "Привет, {player}! Добро пожаловать в {clan} [{tag}]"}
	assert.Equal(t, "Привет, Ваня! Добро пожаловать в Легенда [LEG]", RenderGreeting(clan, "Ваня"))

	clan.Greeting = ""
	assert.Equal(t, "", RenderGreeting(clan, "Ваня"))
}
