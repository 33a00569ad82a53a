package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/db/postgres"
)

// PostgresStore: леджер поверх PostgreSQL.
// Каждая единица работы: одна транзакция READ COMMITTED с ограниченным lock_timeout.
type PostgresStore struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPostgresStore создаёт леджер поверх пула соединений.
func NewPostgresStore(pool *pgxpool.Pool, lockTimeout time.Duration) *PostgresStore {
	return &PostgresStore{pool: pool, lockTimeout: lockTimeout}
}

// WithinTx открывает транзакцию, выполняет fn и фиксирует результат.
// Любая ошибка откатывает всё, что сделал fn.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return postgres.ClassifyError(fmt.Errorf("ошибка начала транзакции: %w", err))
	}
	defer postgres.SafeRollback(ctx, tx)

	if err := postgres.SetLockTimeout(ctx, tx, s.lockTimeout); err != nil {
		return fmt.Errorf("ошибка установки lock_timeout: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		return postgres.ClassifyError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return postgres.ClassifyError(fmt.Errorf("ошибка фиксации транзакции: %w", err))
	}
	return nil
}

// Ping проверяет соединение с базой.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// pgTx реализует Tx поверх pgx.Tx.
type pgTx struct {
	tx pgx.Tx
}

const accountColumns = `account_id, username, display_name, reputation, experience, spendable_xp,
	title, achievement_count, created_at, updated_at`

// column переводит поле в имя колонки. В SQL попадают только значения из белого списка.
func column(f Field) (string, error) {
	if !f.Valid() {
		return "", fmt.Errorf("неизвестное поле %q", f)
	}
	return string(f), nil
}

func (t *pgTx) scanAccount(ctx context.Context, row pgx.Row, accountID int64) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.DisplayName, &a.Reputation, &a.Experience, &a.SpendableXP,
		&a.Title, &a.AchievementCount, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("аккаунт %d: %w", accountID, common.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аккаунта: %w", err)
	}

	rows, err := t.tx.Query(ctx,
		`SELECT item_id FROM owned_permanents WHERE account_id = $1 ORDER BY created_at, item_id`, a.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения купленных предметов: %w", err)
	}
	a.OwnedPermanents, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения купленных предметов: %w", err)
	}
	return &a, nil
}

func (t *pgTx) CreateAccount(ctx context.Context, acc *Account) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO accounts (account_id, username, display_name, reputation, experience, spendable_xp, title)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id) DO NOTHING
	`, acc.ID, acc.Username, acc.DisplayName, acc.Reputation, acc.Experience, acc.SpendableXP, acc.Title)
	if err != nil {
		if postgres.IsCheckViolation(err) {
			return false, common.ErrInvalidAmount
		}
		return false, fmt.Errorf("ошибка создания аккаунта: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) LockAccount(ctx context.Context, accountID int64) (*Account, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1 FOR UPDATE`, accountID)
	return t.scanAccount(ctx, row, accountID)
}

func (t *pgTx) GetAccount(ctx context.Context, accountID int64) (*Account, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`, accountID)
	return t.scanAccount(ctx, row, accountID)
}

// ConditionalDebit: одна инструкция UPDATE с условием в WHERE.
// Если строка не обновилась, значит средств не хватило.
func (t *pgTx) ConditionalDebit(ctx context.Context, accountID int64, field Field, amount int64) (bool, error) {
	col, err := column(field)
	if err != nil {
		return false, err
	}
	if amount < 0 {
		return false, common.ErrInvalidAmount
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s - $2, updated_at = NOW()
		WHERE account_id = $1 AND %[1]s >= $2
	`, col)
	tag, err := t.tx.Exec(ctx, query, accountID, amount)
	if err != nil {
		return false, fmt.Errorf("ошибка списания %s: %w", col, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) Credit(ctx context.Context, accountID int64, field Field, amount int64) error {
	col, err := column(field)
	if err != nil {
		return err
	}
	if amount < 0 {
		return common.ErrInvalidAmount
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s + $2, updated_at = NOW()
		WHERE account_id = $1
	`, col)
	tag, err := t.tx.Exec(ctx, query, accountID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления %s: %w", col, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("аккаунт %d: %w", accountID, common.ErrAccountNotFound)
	}
	return nil
}

func (t *pgTx) AddOwnedPermanent(ctx context.Context, accountID int64, itemID string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO owned_permanents (account_id, item_id)
		VALUES ($1, $2)
		ON CONFLICT (account_id, item_id) DO NOTHING
	`, accountID, itemID)
	if err != nil {
		return fmt.Errorf("ошибка выдачи предмета %s: %w", itemID, err)
	}
	return nil
}

func (t *pgTx) FindAccountByUsername(ctx context.Context, username string) (*Account, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`SELECT account_id FROM accounts WHERE username <> '' AND LOWER(username) = LOWER($1) LIMIT 1`,
		username,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("@%s: %w", username, common.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска по username: %w", err)
	}
	return t.GetAccount(ctx, id)
}

func (t *pgTx) UpdateProfile(ctx context.Context, accountID int64, username, displayName string) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE accounts SET username = $2, display_name = $3, updated_at = NOW()
		WHERE account_id = $1
	`, accountID, username, displayName)
	if err != nil {
		return fmt.Errorf("ошибка обновления профиля: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("аккаунт %d: %w", accountID, common.ErrAccountNotFound)
	}
	return nil
}

func (t *pgTx) AddAchievements(ctx context.Context, accountID int64, n int) error {
	if n < 0 {
		return common.ErrInvalidAmount
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE accounts SET achievement_count = achievement_count + $2, updated_at = NOW() WHERE account_id = $1`,
		accountID, n)
	if err != nil {
		return fmt.Errorf("ошибка начисления ачивки: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("аккаунт %d: %w", accountID, common.ErrAccountNotFound)
	}
	return nil
}

func (t *pgTx) SetTitle(ctx context.Context, accountID int64, title string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE accounts SET title = $2, updated_at = NOW() WHERE account_id = $1`, accountID, title)
	if err != nil {
		return fmt.Errorf("ошибка смены титула: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("аккаунт %d: %w", accountID, common.ErrAccountNotFound)
	}
	return nil
}
