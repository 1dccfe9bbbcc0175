package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		name string
		text string
		cmd  string
		args []string
		ok   bool
	}{
		{"простая команда", "поднять", "поднять", nil, true},
		{"регистр не важен", "ПрОфИлЬ", "профиль", nil, true},
		{"слэш не обязателен", "/профиль", "профиль", nil, true},
		{"восклицательный знак", "!баланс", "баланс", nil, true},
		{"упоминание бота", "/профиль@gym_legend_bot", "профиль", nil, true},
		{"аргументы", "перевод 15 100", "перевод", []string{"15", "100"}, true},
		{"клановая команда", "к создать LEG Легенда", "к", []string{"создать", "LEG", "Легенда"}, true},
		{"лишние пробелы", "  топ   монет  ", "топ", []string{"монет"}, true},
		{"пустой текст", "   ", "", nil, false},
		{"одинокий слэш", "/", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := p.Parse(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.args, args)
		})
	}
}
