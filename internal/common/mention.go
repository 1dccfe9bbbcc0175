// Package common — mention.go разбирает ссылки на игроков в аргументах команд.
// Игрока можно указать либо числовым игровым ID, либо упоминанием
// вида [id123|Ник], которое клиенты вставляют при ответе на сообщение.
package common

import (
	"regexp"
	"strconv"
	"strings"
)

// mentionRe описывает упоминание вида [id123|Ник].
var mentionRe = regexp.MustCompile(`^\[id(\d+)\|[^\]]*\]$`)

// ParsePlayerRef извлекает игровой ID из аргумента команды.
// Поддерживаются два формата: голое число ("123") и упоминание ("[id123|Ник]").
// Возвращает false, если аргумент не является ссылкой на игрока.
func ParsePlayerRef(arg string) (int64, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, false
	}

	if m := mentionRe.FindStringSubmatch(arg); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseAmount разбирает сумму монет из аргумента команды.
// Возвращает ErrInvalidAmount для нечисловых, нулевых и отрицательных значений.
func ParseAmount(arg string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	return n, nil
}
