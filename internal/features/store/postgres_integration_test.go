package store

import (
	"testing"
	"time"

	"github.com/taslogit/pressfbot/internal/features/pricing"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/testutil"
)

// Та же гонка, но на настоящих блокировках строк в PostgreSQL.
func TestPurchase_ConcurrentOnlyOneWins_Postgres(t *testing.T) {
	pool := testutil.StartPostgres(t)
	testutil.TruncateLedger(t, pool)

	st := ledger.NewPostgresStore(pool, 3*time.Second)
	f := newFixtureOn(t, st, func(e *pricing.Engine) time.Time { return hourWithout(t, e, "big") })
	assertOnlyOnePurchaseWins(t, f)
}
