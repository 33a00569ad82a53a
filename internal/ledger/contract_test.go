package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taslogit/pressfbot/internal/common"
)

var errBoom = errors.New("boom")

// runStoreContract проверяет поведение, общее для всех реализаций Store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	seed := func(t *testing.T, s Store, id int64, rep, xp int64) {
		t.Helper()
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			created, err := tx.CreateAccount(ctx, &Account{ID: id, Reputation: rep, SpendableXP: xp, Experience: xp})
			if err != nil {
				return err
			}
			assert.True(t, created)
			return tx.CreateStreak(ctx, id)
		}))
	}

	t.Run("CreateAccount is idempotent", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 10, 20)
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			created, err := tx.CreateAccount(ctx, &Account{ID: 1, Reputation: 999})
			assert.False(t, created)
			return err
		}))
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			acc, err := tx.GetAccount(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(10), acc.Reputation)
			return nil
		}))
	})

	t.Run("unknown account", func(t *testing.T) {
		s := newStore(t)
		err := s.WithinTx(ctx, func(tx Tx) error {
			_, err := tx.LockAccount(ctx, 404)
			return err
		})
		assert.ErrorIs(t, err, common.ErrAccountNotFound)
	})

	t.Run("ConditionalDebit never goes negative", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 40, 200)
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			ok, err := tx.ConditionalDebit(ctx, 1, FieldReputation, 50)
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = tx.ConditionalDebit(ctx, 1, FieldSpendableXP, 200)
			require.NoError(t, err)
			assert.True(t, ok)

			acc, err := tx.GetAccount(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(40), acc.Reputation)
			assert.Equal(t, int64(0), acc.SpendableXP)
			return nil
		}))
	})

	t.Run("rollback on error discards every mutation", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 100, 100)
		err := s.WithinTx(ctx, func(tx Tx) error {
			if _, err := tx.ConditionalDebit(ctx, 1, FieldSpendableXP, 60); err != nil {
				return err
			}
			if err := tx.AddOwnedPermanent(ctx, 1, "frame_gold"); err != nil {
				return err
			}
			if err := tx.AppendPurchase(ctx, &PurchaseRecord{ID: uuid.New(), AccountID: 1, ItemID: "frame_gold", ChargedXP: 60, Source: SourceStore, CreatedAt: now}); err != nil {
				return err
			}
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			acc, err := tx.GetAccount(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(100), acc.SpendableXP)
			assert.Empty(t, acc.OwnedPermanents)

			n, err := tx.CountPurchases(ctx, 1)
			require.NoError(t, err)
			assert.Zero(t, n)
			return nil
		}))
	})

	t.Run("owned permanents are a set", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 0, 0)
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			require.NoError(t, tx.AddOwnedPermanent(ctx, 1, "badge"))
			require.NoError(t, tx.AddOwnedPermanent(ctx, 1, "badge"))
			owned, err := tx.IsOwned(ctx, 1, "badge")
			require.NoError(t, err)
			assert.True(t, owned)

			acc, err := tx.GetAccount(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, []string{"badge"}, acc.OwnedPermanents)
			return nil
		}))
	})

	t.Run("boosts upsert and sweep", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 0, 0)
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			require.NoError(t, tx.UpsertBoost(ctx, &Boost{AccountID: 1, BoostType: "xp", Multiplier: 1.5, ExpiresAt: now.Add(time.Hour)}))
			require.NoError(t, tx.UpsertBoost(ctx, &Boost{AccountID: 1, BoostType: "xp", Multiplier: 2, ExpiresAt: now.Add(2 * time.Hour)}))
			require.NoError(t, tx.UpsertBoost(ctx, &Boost{AccountID: 1, BoostType: "rep", Multiplier: 2, ExpiresAt: now.Add(-time.Minute)}))

			b, err := tx.GetBoost(ctx, 1, "xp")
			require.NoError(t, err)
			require.NotNil(t, b)
			assert.Equal(t, 2.0, b.Multiplier)
			assert.True(t, b.ExpiresAt.Equal(now.Add(2*time.Hour)))

			n, err := tx.DeleteExpiredBoosts(ctx, now)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			all, err := tx.ListBoosts(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, all, 1)

			missing, err := tx.GetBoost(ctx, 1, "rep")
			require.NoError(t, err)
			assert.Nil(t, missing)
			return nil
		}))
	})

	t.Run("gift claim flag flips once", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 0, 0)
		seed(t, s, 2, 0, 0)
		id := uuid.New()
		effect, _ := json.Marshal(map[string]any{"kind": "skip_credit", "count": 1})

		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			return tx.CreateGift(ctx, &Gift{ID: id, SenderID: 1, RecipientID: 2, GiftType: "shield", Effect: effect, Cost: 50, CreatedAt: now})
		}))
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			pending, err := tx.ListPendingGifts(ctx, 2)
			require.NoError(t, err)
			require.Len(t, pending, 1)
			assert.JSONEq(t, string(effect), string(pending[0].Effect))

			g, err := tx.LockGift(ctx, id)
			require.NoError(t, err)
			assert.False(t, g.IsClaimed)

			ok, err := tx.MarkGiftClaimed(ctx, id, now)
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = tx.MarkGiftClaimed(ctx, id, now)
			require.NoError(t, err)
			assert.False(t, ok)
			return nil
		}))

		err := s.WithinTx(ctx, func(tx Tx) error {
			_, err := tx.LockGift(ctx, uuid.New())
			return err
		})
		assert.ErrorIs(t, err, common.ErrGiftNotFound)
	})

	t.Run("streak save and skips", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 0, 0)
		day := time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			st, err := tx.LockStreak(ctx, 1)
			require.NoError(t, err)
			assert.Nil(t, st.LastStreakDate)

			st.CurrentStreak, st.LongestStreak, st.LastStreakDate = 3, 5, &day
			require.NoError(t, tx.SaveStreak(ctx, st))
			return tx.AddFreeSkips(ctx, 1, 2)
		}))
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			st, err := tx.GetStreak(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 3, st.CurrentStreak)
			assert.Equal(t, 5, st.LongestStreak)
			assert.Equal(t, 2, st.FreeSkipCount)
			require.NotNil(t, st.LastStreakDate)
			assert.True(t, st.LastStreakDate.Equal(day))
			return nil
		}))
	})

	t.Run("username lookup ignores case", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 0, 0)
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			require.NoError(t, tx.UpdateProfile(ctx, 1, "Alice", "Алиса"))
			acc, err := tx.FindAccountByUsername(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, int64(1), acc.ID)
			assert.Equal(t, "@Alice", acc.Name())

			_, err = tx.FindAccountByUsername(ctx, "bob")
			assert.ErrorIs(t, err, common.ErrAccountNotFound)
			return nil
		}))
	})

	t.Run("achievements accumulate", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 0, 0)
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			require.NoError(t, tx.AddAchievements(ctx, 1, 1))
			require.NoError(t, tx.AddAchievements(ctx, 1, 2))
			assert.ErrorIs(t, tx.AddAchievements(ctx, 1, -1), common.ErrInvalidAmount)
			assert.ErrorIs(t, tx.AddAchievements(ctx, 404, 1), common.ErrAccountNotFound)
			return nil
		}))
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			acc, err := tx.GetAccount(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 3, acc.AchievementCount)
			return nil
		}))
	})

	t.Run("concurrent debits never overdraw", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, 1, 0, 100)

		var wg sync.WaitGroup
		var succeeded atomic.Int32
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.WithinTx(ctx, func(tx Tx) error {
					if _, err := tx.LockAccount(ctx, 1); err != nil {
						return err
					}
					ok, err := tx.ConditionalDebit(ctx, 1, FieldSpendableXP, 30)
					if err != nil {
						return err
					}
					if !ok {
						return common.ErrInsufficientFunds
					}
					return nil
				})
				if err == nil {
					succeeded.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(3), succeeded.Load())
		require.NoError(t, s.WithinTx(ctx, func(tx Tx) error {
			acc, err := tx.GetAccount(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(10), acc.SpendableXP)
			return nil
		}))
	})
}
