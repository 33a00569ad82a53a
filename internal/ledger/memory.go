package ledger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taslogit/pressfbot/internal/common"
)

// MemoryStore: леджер в памяти для тестов и LEDGER_BACKEND=memory.
//
// Единицы работы выполняются строго по очереди под одним мьютексом,
// поэтому LockAccount/LockGift здесь ничего не блокируют дополнительно.
// Перед каждой единицей снимается копия состояния, при ошибке она возвращается.
// WithinTx не реентерабелен: вложенный вызов из fn повиснет.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type boostKey struct {
	accountID int64
	boostType string
}

type registrationKey struct {
	tournamentID string
	accountID    int64
}

type memState struct {
	accounts      map[int64]*Account
	purchases     []*PurchaseRecord
	boosts        map[boostKey]*Boost
	gifts         map[uuid.UUID]*Gift
	streaks       map[int64]*StreakState
	registrations map[registrationKey]*Registration
}

// NewMemoryStore создаёт пустой леджер в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{
		accounts:      make(map[int64]*Account),
		boosts:        make(map[boostKey]*Boost),
		gifts:         make(map[uuid.UUID]*Gift),
		streaks:       make(map[int64]*StreakState),
		registrations: make(map[registrationKey]*Registration),
	}}
}

// WithinTx выполняет fn над снимком состояния; при ошибке снимок откатывается.
func (m *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.state.clone()
	if err := fn(&memTx{s: working}); err != nil {
		return err
	}
	m.state = working
	return nil
}

// Ping всегда успешен.
func (m *MemoryStore) Ping(context.Context) error { return nil }

func (s *memState) clone() *memState {
	out := &memState{
		accounts:      make(map[int64]*Account, len(s.accounts)),
		purchases:     slices.Clone(s.purchases),
		boosts:        make(map[boostKey]*Boost, len(s.boosts)),
		gifts:         make(map[uuid.UUID]*Gift, len(s.gifts)),
		streaks:       make(map[int64]*StreakState, len(s.streaks)),
		registrations: maps.Clone(s.registrations),
	}
	for id, a := range s.accounts {
		out.accounts[id] = copyAccount(a)
	}
	for k, b := range s.boosts {
		cp := *b
		out.boosts[k] = &cp
	}
	for id, g := range s.gifts {
		out.gifts[id] = copyGift(g)
	}
	for id, st := range s.streaks {
		out.streaks[id] = copyStreak(st)
	}
	return out
}

func copyAccount(a *Account) *Account {
	cp := *a
	cp.OwnedPermanents = slices.Clone(a.OwnedPermanents)
	return &cp
}

func copyGift(g *Gift) *Gift {
	cp := *g
	cp.Effect = slices.Clone(g.Effect)
	if g.ClaimedAt != nil {
		at := *g.ClaimedAt
		cp.ClaimedAt = &at
	}
	return &cp
}

func copyStreak(s *StreakState) *StreakState {
	cp := *s
	if s.LastStreakDate != nil {
		d := *s.LastStreakDate
		cp.LastStreakDate = &d
	}
	return &cp
}

// memTx: операции над рабочей копией состояния.
type memTx struct {
	s *memState
}

func (t *memTx) account(accountID int64) (*Account, error) {
	a, ok := t.s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("аккаунт %d: %w", accountID, common.ErrAccountNotFound)
	}
	return a, nil
}

func (t *memTx) CreateAccount(_ context.Context, acc *Account) (bool, error) {
	if _, ok := t.s.accounts[acc.ID]; ok {
		return false, nil
	}
	if acc.Reputation < 0 || acc.Experience < 0 || acc.SpendableXP < 0 {
		return false, common.ErrInvalidAmount
	}
	t.s.accounts[acc.ID] = copyAccount(acc)
	return true, nil
}

func (t *memTx) LockAccount(ctx context.Context, accountID int64) (*Account, error) {
	return t.GetAccount(ctx, accountID)
}

func (t *memTx) GetAccount(_ context.Context, accountID int64) (*Account, error) {
	a, err := t.account(accountID)
	if err != nil {
		return nil, err
	}
	return copyAccount(a), nil
}

func (t *memTx) ConditionalDebit(_ context.Context, accountID int64, field Field, amount int64) (bool, error) {
	if !field.Valid() {
		return false, fmt.Errorf("неизвестное поле %q", field)
	}
	if amount < 0 {
		return false, common.ErrInvalidAmount
	}
	a, err := t.account(accountID)
	if err != nil {
		return false, err
	}
	p := fieldPtr(a, field)
	if *p < amount {
		return false, nil
	}
	*p -= amount
	return true, nil
}

func (t *memTx) Credit(_ context.Context, accountID int64, field Field, amount int64) error {
	if !field.Valid() {
		return fmt.Errorf("неизвестное поле %q", field)
	}
	if amount < 0 {
		return common.ErrInvalidAmount
	}
	a, err := t.account(accountID)
	if err != nil {
		return err
	}
	*fieldPtr(a, field) += amount
	return nil
}

func fieldPtr(a *Account, f Field) *int64 {
	switch f {
	case FieldReputation:
		return &a.Reputation
	case FieldExperience:
		return &a.Experience
	default:
		return &a.SpendableXP
	}
}

func (t *memTx) AddOwnedPermanent(_ context.Context, accountID int64, itemID string) error {
	a, err := t.account(accountID)
	if err != nil {
		return err
	}
	if !a.Owns(itemID) {
		a.OwnedPermanents = append(a.OwnedPermanents, itemID)
	}
	return nil
}

func (t *memTx) FindAccountByUsername(_ context.Context, username string) (*Account, error) {
	username = strings.TrimPrefix(username, "@")
	for _, a := range t.s.accounts {
		if username != "" && strings.EqualFold(a.Username, username) {
			return copyAccount(a), nil
		}
	}
	return nil, fmt.Errorf("@%s: %w", username, common.ErrAccountNotFound)
}

func (t *memTx) UpdateProfile(_ context.Context, accountID int64, username, displayName string) error {
	a, err := t.account(accountID)
	if err != nil {
		return err
	}
	a.Username = username
	a.DisplayName = displayName
	return nil
}

func (t *memTx) SetTitle(_ context.Context, accountID int64, title string) error {
	a, err := t.account(accountID)
	if err != nil {
		return err
	}
	a.Title = title
	return nil
}

func (t *memTx) AddAchievements(_ context.Context, accountID int64, n int) error {
	if n < 0 {
		return common.ErrInvalidAmount
	}
	a, err := t.account(accountID)
	if err != nil {
		return err
	}
	a.AchievementCount += n
	return nil
}

func (t *memTx) AppendPurchase(_ context.Context, rec *PurchaseRecord) error {
	if _, err := t.account(rec.AccountID); err != nil {
		return err
	}
	cp := *rec
	t.s.purchases = append(t.s.purchases, &cp)
	return nil
}

func (t *memTx) CountPurchases(_ context.Context, accountID int64) (int, error) {
	n := 0
	for _, p := range t.s.purchases {
		if p.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) IsOwned(_ context.Context, accountID int64, itemID string) (bool, error) {
	a, ok := t.s.accounts[accountID]
	if !ok {
		return false, nil
	}
	return a.Owns(itemID), nil
}

func (t *memTx) ListPurchases(_ context.Context, accountID int64, limit int) ([]*PurchaseRecord, error) {
	var out []*PurchaseRecord
	for i := len(t.s.purchases) - 1; i >= 0 && len(out) < limit; i-- {
		if p := t.s.purchases[i]; p.AccountID == accountID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *memTx) GetBoost(_ context.Context, accountID int64, boostType string) (*Boost, error) {
	b, ok := t.s.boosts[boostKey{accountID, boostType}]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (t *memTx) UpsertBoost(_ context.Context, b *Boost) error {
	if _, err := t.account(b.AccountID); err != nil {
		return err
	}
	cp := *b
	t.s.boosts[boostKey{b.AccountID, b.BoostType}] = &cp
	return nil
}

func (t *memTx) ListBoosts(_ context.Context, accountID int64) ([]*Boost, error) {
	var out []*Boost
	for k, b := range t.s.boosts {
		if k.accountID == accountID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BoostType < out[j].BoostType })
	return out, nil
}

func (t *memTx) DeleteExpiredBoosts(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, b := range t.s.boosts {
		if b.ExpiresAt.Before(now) {
			delete(t.s.boosts, k)
			n++
		}
	}
	return n, nil
}

func (t *memTx) CreateGift(_ context.Context, g *Gift) error {
	if _, ok := t.s.gifts[g.ID]; ok {
		return fmt.Errorf("подарок %s уже существует", g.ID)
	}
	t.s.gifts[g.ID] = copyGift(g)
	return nil
}

func (t *memTx) LockGift(_ context.Context, giftID uuid.UUID) (*Gift, error) {
	g, ok := t.s.gifts[giftID]
	if !ok {
		return nil, fmt.Errorf("подарок %s: %w", giftID, common.ErrGiftNotFound)
	}
	return copyGift(g), nil
}

func (t *memTx) MarkGiftClaimed(_ context.Context, giftID uuid.UUID, at time.Time) (bool, error) {
	g, ok := t.s.gifts[giftID]
	if !ok {
		return false, fmt.Errorf("подарок %s: %w", giftID, common.ErrGiftNotFound)
	}
	if g.IsClaimed {
		return false, nil
	}
	g.IsClaimed = true
	g.ClaimedAt = &at
	return true, nil
}

func (t *memTx) ListPendingGifts(_ context.Context, recipientID int64) ([]*Gift, error) {
	var out []*Gift
	for _, g := range t.s.gifts {
		if g.RecipientID == recipientID && !g.IsClaimed {
			out = append(out, copyGift(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) CreateStreak(_ context.Context, accountID int64) error {
	if _, err := t.account(accountID); err != nil {
		return err
	}
	if _, ok := t.s.streaks[accountID]; !ok {
		t.s.streaks[accountID] = &StreakState{AccountID: accountID}
	}
	return nil
}

func (t *memTx) LockStreak(ctx context.Context, accountID int64) (*StreakState, error) {
	return t.GetStreak(ctx, accountID)
}

func (t *memTx) GetStreak(_ context.Context, accountID int64) (*StreakState, error) {
	st, ok := t.s.streaks[accountID]
	if !ok {
		return nil, fmt.Errorf("стрик %d: %w", accountID, common.ErrAccountNotFound)
	}
	return copyStreak(st), nil
}

func (t *memTx) SaveStreak(_ context.Context, s *StreakState) error {
	if _, ok := t.s.streaks[s.AccountID]; !ok {
		return fmt.Errorf("стрик %d: %w", s.AccountID, common.ErrAccountNotFound)
	}
	if s.FreeSkipCount < 0 || s.LongestStreak < s.CurrentStreak {
		return fmt.Errorf("некорректное состояние стрика %d", s.AccountID)
	}
	t.s.streaks[s.AccountID] = copyStreak(s)
	return nil
}

func (t *memTx) AddFreeSkips(_ context.Context, accountID int64, n int) error {
	if n < 0 {
		return common.ErrInvalidAmount
	}
	st, ok := t.s.streaks[accountID]
	if !ok {
		return fmt.Errorf("стрик %d: %w", accountID, common.ErrAccountNotFound)
	}
	st.FreeSkipCount += n
	return nil
}

func (t *memTx) IsRegistered(_ context.Context, tournamentID string, accountID int64) (bool, error) {
	_, ok := t.s.registrations[registrationKey{tournamentID, accountID}]
	return ok, nil
}

func (t *memTx) CreateRegistration(_ context.Context, r *Registration) error {
	k := registrationKey{r.TournamentID, r.AccountID}
	if _, ok := t.s.registrations[k]; ok {
		return common.ErrAlreadyRegistered
	}
	cp := *r
	t.s.registrations[k] = &cp
	return nil
}
