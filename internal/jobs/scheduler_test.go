package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taslogit/pressfbot/internal/features/boosts"
	"github.com/taslogit/pressfbot/internal/features/catalog"
	"github.com/taslogit/pressfbot/internal/ledger"
)

type countingSweeper struct {
	calls int
	err   error
}

func (s *countingSweeper) Sweep(context.Context) (int64, error) {
	s.calls++
	return 0, s.err
}

type fixedSale struct {
	item catalog.Item
	ok   bool
}

func (f fixedSale) FlashSale() (catalog.Item, bool) { return f.item, f.ok }

func TestScheduler_RejectsBadCron(t *testing.T) {
	s := NewScheduler(time.UTC, Schedule{SweepBoosts: "every minute", FlashSale: "0 * * * *"}, &countingSweeper{}, fixedSale{})
	assert.Error(t, s.Start(context.Background()))

	s = NewScheduler(time.UTC, Schedule{SweepBoosts: "*/15 * * * *", FlashSale: "61 * * * *"}, &countingSweeper{}, fixedSale{})
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(nil, Schedule{SweepBoosts: "*/15 * * * *", FlashSale: "0 * * * *"}, &countingSweeper{}, fixedSale{})
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}

func TestScheduler_SweepBoosts(t *testing.T) {
	sw := &countingSweeper{err: errors.New("db down")}
	s := NewScheduler(time.UTC, Schedule{}, sw, fixedSale{})

	// ошибка только логируется
	s.SweepBoosts(context.Background())
	assert.Equal(t, 1, sw.calls)

	s.AnnounceFlashSale()
	s.sale = fixedSale{item: catalog.Item{ID: "frame", Title: "Рамка"}, ok: true}
	s.AnnounceFlashSale()
}

func TestScheduler_SweepsRealBoosts(t *testing.T) {
	st := ledger.NewMemoryStore()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, st.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.CreateAccount(ctx, &ledger.Account{ID: 1}); err != nil {
			return err
		}
		return tx.UpsertBoost(ctx, &ledger.Boost{AccountID: 1, BoostType: "xp", Multiplier: 2, ExpiresAt: now.Add(-time.Second)})
	}))

	svc := boosts.NewService(st, func() time.Time { return now })
	s := NewScheduler(time.UTC, Schedule{}, svc, fixedSale{})
	s.SweepBoosts(ctx)

	require.NoError(t, st.WithinTx(ctx, func(tx ledger.Tx) error {
		list, err := tx.ListBoosts(ctx, 1)
		assert.Empty(t, list)
		return err
	}))
}
