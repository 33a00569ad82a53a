package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/db/postgres"
)

// ---- Покупки ----

func (t *pgTx) AppendPurchase(ctx context.Context, rec *PurchaseRecord) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO purchases (id, account_id, item_id, charged_xp, charged_rep, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.AccountID, rec.ItemID, rec.ChargedXP, rec.ChargedRep, string(rec.Source), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи покупки: %w", err)
	}
	return nil
}

func (t *pgTx) CountPurchases(ctx context.Context, accountID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE account_id = $1`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта покупок: %w", err)
	}
	return n, nil
}

func (t *pgTx) IsOwned(ctx context.Context, accountID int64, itemID string) (bool, error) {
	var owned bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM owned_permanents WHERE account_id = $1 AND item_id = $2)`,
		accountID, itemID,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки владения: %w", err)
	}
	return owned, nil
}

func (t *pgTx) ListPurchases(ctx context.Context, accountID int64, limit int) ([]*PurchaseRecord, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, account_id, item_id, charged_xp, charged_rep, source, created_at
		FROM purchases
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения покупок: %w", err)
	}
	defer rows.Close()

	var out []*PurchaseRecord
	for rows.Next() {
		var p PurchaseRecord
		var source string
		if err := rows.Scan(&p.ID, &p.AccountID, &p.ItemID, &p.ChargedXP, &p.ChargedRep, &source, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения покупки: %w", err)
		}
		p.Source = Source(source)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// ---- Бустеры ----

func (t *pgTx) GetBoost(ctx context.Context, accountID int64, boostType string) (*Boost, error) {
	var b Boost
	err := t.tx.QueryRow(ctx, `
		SELECT account_id, boost_type, multiplier, expires_at
		FROM active_boosts
		WHERE account_id = $1 AND boost_type = $2
	`, accountID, boostType).Scan(&b.AccountID, &b.BoostType, &b.Multiplier, &b.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения бустера: %w", err)
	}
	return &b, nil
}

func (t *pgTx) UpsertBoost(ctx context.Context, b *Boost) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO active_boosts (account_id, boost_type, multiplier, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, boost_type)
		DO UPDATE SET multiplier = EXCLUDED.multiplier, expires_at = EXCLUDED.expires_at
	`, b.AccountID, b.BoostType, b.Multiplier, b.ExpiresAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения бустера: %w", err)
	}
	return nil
}

func (t *pgTx) ListBoosts(ctx context.Context, accountID int64) ([]*Boost, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT account_id, boost_type, multiplier, expires_at
		FROM active_boosts
		WHERE account_id = $1
		ORDER BY boost_type
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения бустеров: %w", err)
	}
	defer rows.Close()

	var out []*Boost
	for rows.Next() {
		var b Boost
		if err := rows.Scan(&b.AccountID, &b.BoostType, &b.Multiplier, &b.ExpiresAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения бустера: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (t *pgTx) DeleteExpiredBoosts(ctx context.Context, now time.Time) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM active_boosts WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления истёкших бустеров: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---- Подарки ----

const giftColumns = `id, sender_id, recipient_id, gift_type, effect, cost, is_claimed, claimed_at, created_at`

func scanGift(row pgx.Row) (*Gift, error) {
	var g Gift
	var effect []byte
	if err := row.Scan(&g.ID, &g.SenderID, &g.RecipientID, &g.GiftType, &effect, &g.Cost,
		&g.IsClaimed, &g.ClaimedAt, &g.CreatedAt); err != nil {
		return nil, err
	}
	g.Effect = effect
	return &g, nil
}

func (t *pgTx) CreateGift(ctx context.Context, g *Gift) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO gifts (id, sender_id, recipient_id, gift_type, effect, cost, is_claimed, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, FALSE, $7)
	`, g.ID, g.SenderID, g.RecipientID, g.GiftType, string(g.Effect), g.Cost, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания подарка: %w", err)
	}
	return nil
}

func (t *pgTx) LockGift(ctx context.Context, giftID uuid.UUID) (*Gift, error) {
	g, err := scanGift(t.tx.QueryRow(ctx, `SELECT `+giftColumns+` FROM gifts WHERE id = $1 FOR UPDATE`, giftID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("подарок %s: %w", giftID, common.ErrGiftNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения подарка: %w", err)
	}
	return g, nil
}

func (t *pgTx) MarkGiftClaimed(ctx context.Context, giftID uuid.UUID, at time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE gifts SET is_claimed = TRUE, claimed_at = $2
		WHERE id = $1 AND NOT is_claimed
	`, giftID, at)
	if err != nil {
		return false, fmt.Errorf("ошибка отметки подарка: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) ListPendingGifts(ctx context.Context, recipientID int64) ([]*Gift, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+giftColumns+`
		FROM gifts
		WHERE recipient_id = $1 AND NOT is_claimed
		ORDER BY created_at
	`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения подарков: %w", err)
	}
	defer rows.Close()

	var out []*Gift
	for rows.Next() {
		g, err := scanGift(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения подарка: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ---- Стрики ----

const streakColumns = `account_id, current_streak, longest_streak, last_streak_date, free_skip_count, updated_at`

func scanStreak(row pgx.Row, accountID int64) (*StreakState, error) {
	var s StreakState
	err := row.Scan(&s.AccountID, &s.CurrentStreak, &s.LongestStreak, &s.LastStreakDate, &s.FreeSkipCount, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("стрик %d: %w", accountID, common.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения стрика: %w", err)
	}
	return &s, nil
}

func (t *pgTx) CreateStreak(ctx context.Context, accountID int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO streaks (account_id) VALUES ($1)
		ON CONFLICT (account_id) DO NOTHING
	`, accountID)
	if err != nil {
		return fmt.Errorf("ошибка создания стрика: %w", err)
	}
	return nil
}

func (t *pgTx) LockStreak(ctx context.Context, accountID int64) (*StreakState, error) {
	return scanStreak(t.tx.QueryRow(ctx,
		`SELECT `+streakColumns+` FROM streaks WHERE account_id = $1 FOR UPDATE`, accountID), accountID)
}

func (t *pgTx) GetStreak(ctx context.Context, accountID int64) (*StreakState, error) {
	return scanStreak(t.tx.QueryRow(ctx,
		`SELECT `+streakColumns+` FROM streaks WHERE account_id = $1`, accountID), accountID)
}

func (t *pgTx) SaveStreak(ctx context.Context, s *StreakState) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE streaks
		SET current_streak = $2, longest_streak = $3, last_streak_date = $4,
		    free_skip_count = $5, updated_at = NOW()
		WHERE account_id = $1
	`, s.AccountID, s.CurrentStreak, s.LongestStreak, s.LastStreakDate, s.FreeSkipCount)
	if err != nil {
		return fmt.Errorf("ошибка сохранения стрика: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("стрик %d: %w", s.AccountID, common.ErrAccountNotFound)
	}
	return nil
}

func (t *pgTx) AddFreeSkips(ctx context.Context, accountID int64, n int) error {
	if n < 0 {
		return common.ErrInvalidAmount
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE streaks SET free_skip_count = free_skip_count + $2, updated_at = NOW()
		WHERE account_id = $1
	`, accountID, n)
	if err != nil {
		return fmt.Errorf("ошибка начисления пропусков: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("стрик %d: %w", accountID, common.ErrAccountNotFound)
	}
	return nil
}

// ---- Турниры ----

func (t *pgTx) IsRegistered(ctx context.Context, tournamentID string, accountID int64) (bool, error) {
	var ok bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM tournament_registrations WHERE tournament_id = $1 AND account_id = $2)
	`, tournamentID, accountID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки регистрации: %w", err)
	}
	return ok, nil
}

func (t *pgTx) CreateRegistration(ctx context.Context, r *Registration) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO tournament_registrations (tournament_id, account_id, fee_paid, created_at)
		VALUES ($1, $2, $3, $4)
	`, r.TournamentID, r.AccountID, r.FeePaid, r.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return common.ErrAlreadyRegistered
		}
		return fmt.Errorf("ошибка регистрации на турнир: %w", err)
	}
	return nil
}
