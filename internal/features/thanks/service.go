package thanks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/metrics"
)

// Счётчики живут в памяти процесса; сутки с запасом на смену часового пояса.
const (
	counterTTL         = 48 * time.Hour
	defaultCounterSize = 10_000
)

// Service начисляет репутацию за благодарности.
type Service struct {
	store      ledger.Store
	dailyLimit int
	reward     int64
	cacheSize  int
	loc        *time.Location
	now        func() time.Time

	mu    sync.Mutex
	given *expirable.LRU[string, int]      // "from:день" -> сколько раздал
	pairs *expirable.LRU[string, struct{}] // "from:to:день"
}

// NewService создаёт сервис благодарностей. cacheSize ограничивает число
// ключей в каждом счётчике; 0 означает значение по умолчанию.
func NewService(store ledger.Store, dailyLimit int, reward int64, cacheSize int, loc *time.Location, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if cacheSize <= 0 {
		cacheSize = defaultCounterSize
	}
	return &Service{
		store:      store,
		dailyLimit: dailyLimit,
		reward:     reward,
		cacheSize:  cacheSize,
		loc:        loc,
		now:        now,
		given:      expirable.NewLRU[string, int](cacheSize, nil, counterTTL),
		pairs:      expirable.NewLRU[string, struct{}](cacheSize, nil, counterTTL),
	}
}

// Thank начисляет получателю награду в репутации и возвращает его счёт.
// Один участник может поблагодарить не больше dailyLimit раз в день
// и не больше одного раза одного и того же человека.
func (s *Service) Thank(ctx context.Context, fromID, toID int64) (*ledger.Account, error) {
	if fromID == toID {
		return nil, common.ErrThanksSelf
	}

	day := common.CivilDate(s.now(), s.loc).Format(time.DateOnly)
	giverKey := fmt.Sprintf("%d:%s", fromID, day)
	pairKey := fmt.Sprintf("%d:%d:%s", fromID, toID, day)

	if err := s.reserve(giverKey, pairKey, day); err != nil {
		return nil, err
	}

	var acc *ledger.Account
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.LockAccount(ctx, toID); err != nil {
			return err
		}
		if err := tx.Credit(ctx, toID, ledger.FieldReputation, s.reward); err != nil {
			return err
		}
		var err error
		acc, err = tx.GetAccount(ctx, toID)
		return err
	})
	if err != nil {
		s.release(giverKey, pairKey)
		return nil, err
	}

	metrics.RecordEarn(0, s.reward)
	log.WithFields(log.Fields{
		"from_id": fromID,
		"to_id":   toID,
		"reward":  s.reward,
	}).Info("Благодарность засчитана")
	return acc, nil
}

func (s *Service) reserve(giverKey, pairKey, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, _ := s.given.Get(giverKey)
	if count >= s.dailyLimit {
		return common.ErrThanksDailyLimit
	}
	if s.pairs.Contains(pairKey) {
		return common.ErrThanksAlreadyGiven
	}
	// Ключи текущего дня не вытесняются.
	if wouldEvictToday(s.given, s.cacheSize, giverKey, day) || wouldEvictToday(s.pairs, s.cacheSize, pairKey, day) {
		log.WithField("cache_size", s.cacheSize).Warn("Счётчики благодарностей заполнены, увеличьте THANKS_CACHE_SIZE")
		return common.ErrThanksDailyLimit
	}
	s.given.Add(giverKey, count+1)
	s.pairs.Add(pairKey, struct{}{})
	return nil
}

func (s *Service) release(giverKey, pairKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count, ok := s.given.Get(giverKey); ok && count > 0 {
		s.given.Add(giverKey, count-1)
	}
	s.pairs.Remove(pairKey)
}

// wouldEvictToday сообщает, что добавление key вытеснит ключ текущего дня.
// Ключи прошлых дней больше не читаются, поэтому в порядке LRU они всегда
// старше сегодняшних: если самый старый ключ сегодняшний, то и все остальные тоже.
func wouldEvictToday[V any](c *expirable.LRU[string, V], size int, key, day string) bool {
	if c.Len() < size || c.Contains(key) {
		return false
	}
	oldest, _, ok := c.GetOldest()
	return ok && strings.HasSuffix(oldest, ":"+day)
}
