package effects

import (
	"fmt"
	"time"

	"github.com/taslogit/pressfbot/internal/common"
)

// Describe: описание результата эффекта для ответа в чат.
func Describe(r *Result, loc *time.Location) string {
	if r == nil {
		return ""
	}
	switch r.Kind {
	case KindPermanentUnlock:
		return "🔓 Предмет открыт навсегда"
	case KindTimedBoost:
		verb := "включён"
		if r.Extended {
			verb = "продлён"
		}
		return fmt.Sprintf("🚀 Бустер %s ×%.2g %s до %s", r.Boost.BoostType, r.Boost.Multiplier, verb,
			common.FormatDateTime(r.Boost.ExpiresAt, loc))
	case KindSkipCredit:
		return fmt.Sprintf("🛡 +%d %s стрика", r.SkipsAdded, common.PluralizeSkips(r.SkipsAdded))
	case KindTitleOverwrite:
		return fmt.Sprintf("👑 Новый титул: %s", r.Title)
	}
	return ""
}
