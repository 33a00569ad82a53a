package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/metrics"
)

// RecoverFromPanic гасит панику обработчика апдейта. Вызывать через defer.
func RecoverFromPanic(requestID string) {
	if r := recover(); r != nil {
		metrics.BotPanics.Inc()
		log.WithFields(log.Fields{
			"component":  "panic_recovery",
			"request_id": requestID,
			"panic":      fmt.Sprintf("%v", r),
			"stack":      string(debug.Stack()),
		}).Error("ПАНИКА в обработчике — восстановлено")
	}
}
