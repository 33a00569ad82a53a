// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: уборка истёкших бустеров
// и объявление распродажи часа в логах.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/features/catalog"
)

// BoostSweeper удаляет истёкшие бустеры.
type BoostSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// FlashSale сообщает предмет распродажи текущего часа.
type FlashSale interface {
	FlashSale() (catalog.Item, bool)
}

// Schedule: расписания задач в формате cron (5 полей).
type Schedule struct {
	SweepBoosts string
	FlashSale   string
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	schedule Schedule
	sweeper  BoostSweeper
	sale     FlashSale
}

// NewScheduler создаёт планировщик в часовом поясе loc.
func NewScheduler(loc *time.Location, schedule Schedule, sweeper BoostSweeper, sale FlashSale) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		sweeper:  sweeper,
		sale:     sale,
	}
}

// Start регистрирует задачи и запускает планировщик.
// Кривое выражение cron: ошибка конфигурации, планировщик не стартует.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule.SweepBoosts, func() { s.SweepBoosts(ctx) }); err != nil {
		return fmt.Errorf("расписание уборки бустеров %q: %w", s.schedule.SweepBoosts, err)
	}
	if _, err := s.cron.AddFunc(s.schedule.FlashSale, s.AnnounceFlashSale); err != nil {
		return fmt.Errorf("расписание распродажи %q: %w", s.schedule.FlashSale, err)
	}

	s.cron.Start()
	log.WithField("jobs", len(s.cron.Entries())).Info("Планировщик задач запущен")
	return nil
}

// SweepBoosts: одна итерация уборки бустеров.
func (s *Scheduler) SweepBoosts(ctx context.Context) {
	log.Debug("[CRON] Уборка истёкших бустеров")
	if _, err := s.sweeper.Sweep(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка уборки бустеров")
	}
}

// AnnounceFlashSale пишет в лог предмет распродажи наступившего часа.
func (s *Scheduler) AnnounceFlashSale() {
	item, ok := s.sale.FlashSale()
	if !ok {
		log.Warn("[CRON] Каталог пуст, распродажи нет")
		return
	}
	log.WithFields(log.Fields{
		"item_id": item.ID,
		"title":   item.Title,
	}).Info("[CRON] Распродажа часа")
}

// Stop останавливает планировщик и ждёт выполняющиеся задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
