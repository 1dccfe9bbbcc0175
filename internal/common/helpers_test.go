package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCoins(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "монет"},
		{1, "монета"},
		{2, "монеты"},
		{4, "монеты"},
		{5, "монет"},
		{11, "монет"},
		{12, "монет"},
		{14, "монет"},
		{21, "монета"},
		{22, "монеты"},
		{100, "монет"},
		{101, "монета"},
		{111, "монет"},
		{-3, "монеты"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PluralizeCoins(c.n), "n=%d", c.n)
	}
}

func TestPluralizeDays(t *testing.T) {
	assert.Equal(t, "день", PluralizeDays(1))
	assert.Equal(t, "дня", PluralizeDays(3))
	assert.Equal(t, "дней", PluralizeDays(7))
	assert.Equal(t, "дней", PluralizeDays(11))
	assert.Equal(t, "день", PluralizeDays(21))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1 000", FormatNumber(1000))
	assert.Equal(t, "2 350", FormatNumber(2350))
	assert.Equal(t, "1 234 567", FormatNumber(1234567))
	assert.Equal(t, "-15 000", FormatNumber(-15000))
}

func TestFormatCoins(t *testing.T) {
	assert.Equal(t, "1 монета", FormatCoins(1))
	assert.Equal(t, "1 500 монет", FormatCoins(1500))
}

func TestFormatCoinsDelta(t *testing.T) {
	assert.Equal(t, "+100 монет", FormatCoinsDelta(100))
	assert.Equal(t, "-50 монет", FormatCoinsDelta(-50))
	assert.Equal(t, "+1 монета", FormatCoinsDelta(1))
}
