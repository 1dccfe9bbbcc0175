package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverCommand гасит панику в обработчике команды, чтобы одно
// кривое сообщение не роняло весь polling-цикл.
// Использование: defer middleware.RecoverCommand(tgID, command).
func RecoverCommand(tgID int64, command string) {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"tg_id":     tgID,
			"command":   command,
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике команды — восстановлено")
	}
}
