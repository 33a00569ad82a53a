// Package metrics: счётчики Prometheus для экономики и бота.
// Отдаются на /metrics HTTP-сервером (internal/server).
// Счётчики денег и эффектов увеличиваются только после коммита единицы работы.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pressf"

// Лейблы
const (
	LabelItem     = "item"
	LabelSource   = "source"
	LabelReason   = "reason"
	LabelCurrency = "currency"
	LabelKind     = "kind"
	LabelType     = "type"
	LabelOutcome  = "outcome"
	LabelCommand  = "command"
)

// Экономика
var (
	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_total",
		Help:      "Завершённые покупки по предметам и источнику",
	}, []string{LabelItem, LabelSource})

	PurchaseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchase_failures_total",
		Help:      "Отклонённые покупки по причине",
	}, []string{LabelReason})

	CurrencySpent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "currency_spent_total",
		Help:      "Списано валюты (xp, rep)",
	}, []string{LabelCurrency})

	CurrencyEarned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "currency_earned_total",
		Help:      "Начислено валюты (xp, rep)",
	}, []string{LabelCurrency})

	EffectsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "effects_applied_total",
		Help:      "Применённые эффекты по виду",
	}, []string{LabelKind})
)

// Подарки, стрики, бустеры, турниры
var (
	GiftsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gifts_sent_total",
		Help:      "Отправленные подарки по типу",
	}, []string{LabelType})

	GiftsClaimed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gifts_claimed_total",
		Help:      "Полученные подарки по типу",
	}, []string{LabelType})

	StreakCheckins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "streak_checkins_total",
		Help:      "Чек-ины по исходу перехода",
	}, []string{LabelOutcome})

	BoostsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "boosts_expired_total",
		Help:      "Удалённые истёкшие бустеры",
	})

	TournamentRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tournament_registrations_total",
		Help:      "Регистрации на турниры",
	}, []string{LabelItem})
)

// Бот и хранилище
var (
	BotCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_commands_total",
		Help:      "Обработанные команды бота",
	}, []string{LabelCommand})

	BotPanics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_panics_total",
		Help:      "Паники в обработчиках апдейтов",
	})

	BotRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_rate_limited_total",
		Help:      "Сообщения, отброшенные rate limiter",
	})

	TxConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tx_conflict_retries_total",
		Help:      "Повторы единиц работы после конфликта блокировок",
	})
)

// Валюты для лейбла currency
const (
	CurrencyXP  = "xp"
	CurrencyRep = "rep"
)

// RecordSpend учитывает списание обеих валют.
func RecordSpend(xp, rep int64) {
	if xp > 0 {
		CurrencySpent.WithLabelValues(CurrencyXP).Add(float64(xp))
	}
	if rep > 0 {
		CurrencySpent.WithLabelValues(CurrencyRep).Add(float64(rep))
	}
}

// RecordEarn учитывает начисление обеих валют.
func RecordEarn(xp, rep int64) {
	if xp > 0 {
		CurrencyEarned.WithLabelValues(CurrencyXP).Add(float64(xp))
	}
	if rep > 0 {
		CurrencyEarned.WithLabelValues(CurrencyRep).Add(float64(rep))
	}
}
