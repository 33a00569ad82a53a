package lottery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/catalog"
	"github.com/taslogit/pressfbot/internal/features/effects"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/testutil"
)

// fixedRand всегда выпадает на v (или на последний вариант, если v вне диапазона).
type fixedRand struct{ v int64 }

func (r fixedRand) Int64N(n int64) int64 { return min(r.v, n-1) }

var (
	frame  = catalog.Item{ID: "frame", Title: "Рамка", Category: "c", Lifecycle: catalog.Permanent, CostXP: 300, Effect: effects.PermanentUnlock{ItemID: "frame"}}
	crown  = catalog.Item{ID: "crown", Title: "Корона", Category: "c", Lifecycle: catalog.Permanent, CostRep: 100, Effect: effects.TitleOverwrite{Title: "Король"}}
	shield = catalog.Item{ID: "shield", Title: "Щит", Category: "c", Lifecycle: catalog.Consumable, CostXP: 20, Effect: effects.SkipCredit{Count: 1}}
	badge  = catalog.Item{ID: "badge", Title: "Значок", Category: "c", Lifecycle: catalog.Permanent, CostXP: 50, CostRep: 5, Effect: effects.PermanentUnlock{ItemID: "badge"}}
)

func TestPick(t *testing.T) {
	pool := []catalog.Item{shield, frame}

	for roll, want := range map[int64]string{0: "shield", 1: "shield", 2: "frame"} {
		got, err := Pick(pool, fixedRand{roll})
		require.NoError(t, err)
		assert.Equal(t, want, got.ID, "roll %d", roll)
	}

	_, err := Pick(nil, fixedRand{})
	assert.ErrorIs(t, err, common.ErrNothingToWin)
}

func TestEligible(t *testing.T) {
	owned := map[string]bool{"frame": true}
	pool := Eligible([]catalog.Item{frame, crown, shield, badge}, func(id string) bool { return owned[id] })

	ids := make([]string, 0, len(pool))
	for _, it := range pool {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"shield", "badge"}, ids)
}

func newService(t *testing.T, items []catalog.Item, r Rand) (*Service, *ledger.MemoryStore) {
	t.Helper()
	cat, err := catalog.New(items, nil, nil)
	require.NoError(t, err)
	st := ledger.NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return NewService(st, cat, 150, r, func() time.Time { return now }), st
}

func seed(t *testing.T, st *ledger.MemoryStore, xp int64, owned ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.CreateAccount(ctx, &ledger.Account{ID: 1, SpendableXP: xp}); err != nil {
			return err
		}
		for _, id := range owned {
			if err := tx.AddOwnedPermanent(ctx, 1, id); err != nil {
				return err
			}
		}
		return nil
	}))
}

func snapshot(t *testing.T, st *ledger.MemoryStore) (*ledger.Account, []*ledger.PurchaseRecord) {
	t.Helper()
	var (
		acc  *ledger.Account
		recs []*ledger.PurchaseRecord
	)
	ctx := context.Background()
	require.NoError(t, st.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		if acc, err = tx.GetAccount(ctx, 1); err != nil {
			return err
		}
		recs, err = tx.ListPurchases(ctx, 1, 100)
		return err
	}))
	return acc, recs
}

func TestOpen_ChargesFixedCost(t *testing.T) {
	svc, st := newService(t, []catalog.Item{frame, shield}, fixedRand{0})
	seed(t, st, 400)

	r, err := svc.Open(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "frame", r.Item.ID)
	assert.Equal(t, int64(150), r.ChargedXP)
	assert.Equal(t, int64(250), r.RemainingXP)
	assert.Equal(t, ledger.SourceMysteryBox, r.Source)
	assert.False(t, r.Quote.Discounted())

	acc, recs := snapshot(t, st)
	assert.True(t, acc.Owns("frame"))
	require.Len(t, recs, 1)
	assert.Equal(t, int64(150), recs[0].ChargedXP)
	assert.Equal(t, int64(0), recs[0].ChargedRep)
	assert.Equal(t, ledger.SourceMysteryBox, recs[0].Source)
}

func TestOpen_NeverRepeatsOwnedPermanent(t *testing.T) {
	svc, st := newService(t, []catalog.Item{frame, crown, shield, badge}, nil)
	seed(t, st, 150*40, "frame")

	for i := 0; i < 40; i++ {
		r, err := svc.Open(context.Background(), 1)
		require.NoError(t, err)
		assert.NotEqual(t, "frame", r.Item.ID)
		assert.NotEqual(t, "crown", r.Item.ID)
	}

	_, recs := snapshot(t, st)
	badges := 0
	for _, rec := range recs {
		if rec.ItemID == "badge" {
			badges++
		}
	}
	assert.LessOrEqual(t, badges, 1)
}

func TestOpen_NothingToWin(t *testing.T) {
	svc, st := newService(t, []catalog.Item{frame, crown}, nil)
	seed(t, st, 1000, "frame")

	_, err := svc.Open(context.Background(), 1)
	require.ErrorIs(t, err, common.ErrNothingToWin)

	acc, recs := snapshot(t, st)
	assert.Equal(t, int64(1000), acc.SpendableXP)
	assert.Empty(t, recs)
}

func TestOpen_InsufficientFunds(t *testing.T) {
	svc, st := newService(t, []catalog.Item{shield}, nil)
	seed(t, st, 149)

	_, err := svc.Open(context.Background(), 1)
	require.ErrorIs(t, err, common.ErrInsufficientFunds)

	acc, recs := snapshot(t, st)
	assert.Equal(t, int64(149), acc.SpendableXP)
	assert.Empty(t, recs)
}

func TestOpen_UnknownAccount(t *testing.T) {
	svc, _ := newService(t, []catalog.Item{shield}, nil)
	_, err := svc.Open(context.Background(), 1)
	assert.ErrorIs(t, err, common.ErrAccountNotFound)
}

func TestHandleBox(t *testing.T) {
	svc, st := newService(t, []catalog.Item{frame, shield}, fixedRand{0})
	seed(t, st, 200)
	sender := &testutil.Sender{}
	h := NewHandler(svc, sender, time.UTC)
	ctx := context.Background()

	h.HandleBox(ctx, 5, 1)
	assert.Equal(t, "📦 Мистери-бокс (−150 XP)\nВыпало: Рамка\n🔓 Предмет открыт навсегда\nОстаток: 50 XP", sender.Last())

	h.HandleBox(ctx, 5, 1)
	assert.Equal(t, "❌ Недостаточно средств: нужно 150 XP, есть 50 XP", sender.Last())

	h.HandleBox(ctx, 5, 2)
	assert.Contains(t, sender.Last(), "/join")
}
