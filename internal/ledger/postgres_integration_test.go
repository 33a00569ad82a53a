package ledger

import (
	"testing"
	"time"

	"github.com/taslogit/pressfbot/internal/testutil"
)

func TestPostgresStore_Contract(t *testing.T) {
	pool := testutil.StartPostgres(t)

	runStoreContract(t, func(t *testing.T) Store {
		testutil.TruncateLedger(t, pool)
		return NewPostgresStore(pool, 3*time.Second)
	})
}
