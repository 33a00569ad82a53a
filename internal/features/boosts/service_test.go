package boosts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/testutil"
)

func TestBoosts(t *testing.T) {
	st := ledger.NewMemoryStore()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(st, func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, st.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.CreateAccount(ctx, &ledger.Account{ID: 1}); err != nil {
			return err
		}
		if err := tx.UpsertBoost(ctx, &ledger.Boost{AccountID: 1, BoostType: "xp", Multiplier: 2, ExpiresAt: now.Add(time.Hour)}); err != nil {
			return err
		}
		return tx.UpsertBoost(ctx, &ledger.Boost{AccountID: 1, BoostType: "rep", Multiplier: 3, ExpiresAt: now.Add(-time.Minute)})
	}))

	mult, err := svc.Multiplier(ctx, 1, "xp")
	require.NoError(t, err)
	assert.Equal(t, 2.0, mult)

	// истёк, но ещё лежит в таблице
	mult, err = svc.Multiplier(ctx, 1, "rep")
	require.NoError(t, err)
	assert.Equal(t, 1.0, mult)

	mult, err = svc.Multiplier(ctx, 1, "luck")
	require.NoError(t, err)
	assert.Equal(t, 1.0, mult)

	active, err := svc.Active(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "xp", active[0].BoostType)

	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// ровно в момент истечения бустер ещё действует
	now = now.Add(time.Hour)
	mult, err = svc.Multiplier(ctx, 1, "xp")
	require.NoError(t, err)
	assert.Equal(t, 2.0, mult)
}

func TestHandleBoosts(t *testing.T) {
	st := ledger.NewMemoryStore()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(st, func() time.Time { return now })
	sender := &testutil.Sender{}
	h := NewHandler(svc, sender, time.UTC)
	ctx := context.Background()

	require.NoError(t, st.WithinTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.CreateAccount(ctx, &ledger.Account{ID: 1})
		return err
	}))

	h.HandleBoosts(ctx, 3, 1)
	assert.Equal(t, "🚀 Активных бустеров нет. Купить: /shop", sender.Last())

	require.NoError(t, st.WithinTx(ctx, func(tx ledger.Tx) error {
		return tx.UpsertBoost(ctx, &ledger.Boost{AccountID: 1, BoostType: "xp", Multiplier: 1.5, ExpiresAt: now.Add(2 * time.Hour)})
	}))

	h.HandleBoosts(ctx, 3, 1)
	assert.Equal(t, "🚀 Активные бустеры:\n• xp ×1.5 до 01.04.2026 14:00", sender.Last())
}
