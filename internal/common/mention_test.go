package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlayerRef(t *testing.T) {
	cases := []struct {
		arg  string
		want int64
		ok   bool
	}{
		{"123", 123, true},
		{" 42 ", 42, true},
		{"[id7|Качок]", 7, true},
		{"[id123|]", 123, true},
		{"[id0|Ник]", 0, false},
		{"0", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"[idX|Ник]", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParsePlayerRef(c.arg)
		assert.Equal(t, c.ok, ok, "arg=%q", c.arg)
		if c.ok {
			assert.Equal(t, c.want, got, "arg=%q", c.arg)
		}
	}
}

func TestParseAmount(t *testing.T) {
	n, err := ParseAmount("500")
	assert.NoError(t, err)
	assert.Equal(t, int64(500), n)

	_, err = ParseAmount("0")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseAmount("-10")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseAmount("много")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
