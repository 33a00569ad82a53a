package thanks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/testutil"
)

func TestIsThankYou(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"спасибо", true},
		{"Спасибо!", true},
		{"  СПС :)", true},
		{"спасибо большое!!", true},
		{"благодарю 🙏", true},
		{"thanks", true},
		{"спасибо, но нет", false},
		{"", false},
		{"привет", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsThankYou(tt.text))
		})
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T, limit int) (*Service, *ledger.MemoryStore, *clock) {
	t.Helper()
	return newSizedService(t, limit, 0)
}

func newSizedService(t *testing.T, limit, cacheSize int) (*Service, *ledger.MemoryStore, *clock) {
	t.Helper()
	st := ledger.NewMemoryStore()
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3, 4} {
		require.NoError(t, st.WithinTx(ctx, func(tx ledger.Tx) error {
			_, err := tx.CreateAccount(ctx, &ledger.Account{ID: id, Username: "u", Reputation: 10})
			return err
		}))
	}
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(st, limit, 1, cacheSize, time.UTC, c.now), st, c
}

func TestThank_CreditsReputation(t *testing.T) {
	svc, _, _ := newService(t, 5)

	acc, err := svc.Thank(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(11), acc.Reputation)
}

func TestThank_Limits(t *testing.T) {
	svc, _, c := newService(t, 2)
	ctx := context.Background()

	_, err := svc.Thank(ctx, 1, 1)
	assert.ErrorIs(t, err, common.ErrThanksSelf)

	_, err = svc.Thank(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.Thank(ctx, 1, 2)
	assert.ErrorIs(t, err, common.ErrThanksAlreadyGiven)

	_, err = svc.Thank(ctx, 1, 3)
	require.NoError(t, err)
	_, err = svc.Thank(ctx, 1, 4)
	assert.ErrorIs(t, err, common.ErrThanksDailyLimit)

	// на следующий день лимиты сбрасываются
	c.t = c.t.Add(24 * time.Hour)
	acc, err := svc.Thank(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(12), acc.Reputation)
}

func TestThank_FullCacheRefusesInsteadOfEvicting(t *testing.T) {
	svc, _, c := newSizedService(t, 5, 2)
	ctx := context.Background()

	_, err := svc.Thank(ctx, 1, 2)
	require.NoError(t, err)
	_, err = svc.Thank(ctx, 1, 3)
	require.NoError(t, err)

	// третья пара вытеснила бы "1:2" и позволила бы поблагодарить 2 повторно
	_, err = svc.Thank(ctx, 1, 4)
	assert.ErrorIs(t, err, common.ErrThanksDailyLimit)
	_, err = svc.Thank(ctx, 1, 2)
	assert.ErrorIs(t, err, common.ErrThanksAlreadyGiven)

	// вчерашние ключи вытесняются свободно
	c.t = c.t.Add(24 * time.Hour)
	acc, err := svc.Thank(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(11), acc.Reputation)
}

func TestThank_UnknownRecipientDoesNotSpendLimit(t *testing.T) {
	svc, _, _ := newService(t, 1)
	ctx := context.Background()

	_, err := svc.Thank(ctx, 1, 99)
	assert.ErrorIs(t, err, common.ErrAccountNotFound)

	_, err = svc.Thank(ctx, 1, 2)
	assert.NoError(t, err)
}

func TestHandleThankYou(t *testing.T) {
	svc, _, _ := newService(t, 1)
	sender := &testutil.Sender{}
	h := NewHandler(svc, sender)
	ctx := context.Background()

	h.HandleThankYou(ctx, 100, 1, 1)
	assert.Empty(t, sender.Messages())

	h.HandleThankYou(ctx, 100, 1, 2)
	assert.Contains(t, sender.Last(), "🙏")
	assert.Contains(t, sender.Last(), "теперь 11 очков репутации")

	h.HandleThankYou(ctx, 100, 1, 3)
	assert.Contains(t, sender.Last(), "благодарности закончились")
}
