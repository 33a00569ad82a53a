package bot

import (
	"context"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taslogit/pressfbot/internal/bot/middleware"
	"github.com/taslogit/pressfbot/internal/features/accounts"
	"github.com/taslogit/pressfbot/internal/features/boosts"
	"github.com/taslogit/pressfbot/internal/features/catalog"
	"github.com/taslogit/pressfbot/internal/features/gifts"
	"github.com/taslogit/pressfbot/internal/features/lottery"
	"github.com/taslogit/pressfbot/internal/features/pricing"
	"github.com/taslogit/pressfbot/internal/features/store"
	"github.com/taslogit/pressfbot/internal/features/streak"
	"github.com/taslogit/pressfbot/internal/features/thanks"
	"github.com/taslogit/pressfbot/internal/features/tournaments"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/testutil"
)

var testNow = time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    *ledger.MemoryStore
	accounts *accounts.Service
	sender   *testutil.Sender
	router   *Router
}

func newFixture(t *testing.T, features Features) *fixture {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)

	now := func() time.Time { return testNow }
	st := ledger.NewMemoryStore()
	sender := &testutil.Sender{}

	acc := accounts.NewService(st, 50, 500, now)
	shop := store.NewService(st, cat, pricing.NewEngine(cat), now)
	handlers := Handlers{
		Accounts:    accounts.NewHandler(acc, sender),
		Store:       store.NewHandler(shop, sender, 10, time.UTC),
		Lottery:     lottery.NewHandler(lottery.NewService(st, cat, 150, nil, now), sender, time.UTC),
		Gifts:       gifts.NewHandler(gifts.NewService(st, cat, 10, now), acc, sender, time.UTC),
		Streak:      streak.NewHandler(streak.NewService(st, 10, time.UTC, now), sender),
		Boosts:      boosts.NewHandler(boosts.NewService(st, now), sender, time.UTC),
		Tournaments: tournaments.NewHandler(tournaments.NewService(st, cat, now), sender),
		Thanks:      thanks.NewHandler(thanks.NewService(st, 3, 1, 0, time.UTC, now), sender),
	}
	return &fixture{
		store:    st,
		accounts: acc,
		sender:   sender,
		router:   NewRouter(acc, handlers, features, sender),
	}
}

var allFeatures = Features{Gifts: true, MysteryBox: true, Streaks: true, Tournaments: true, Thanks: true}

func req(userID int64, username, cmd string, args ...string) Request {
	return Request{
		RequestID: "test",
		ChatID:    -100,
		From:      accounts.Identity{UserID: userID, Username: username, FirstName: username},
		Command:   cmd,
		Args:      args,
	}
}

func TestRouter_Commands(t *testing.T) {
	f := newFixture(t, allFeatures)
	ctx := context.Background()

	f.router.Route(ctx, req(1, "neo", "help"))
	assert.Contains(t, f.sender.Last(), "/buy <id>")

	f.router.Route(ctx, req(1, "neo", "join"))
	assert.Contains(t, f.sender.Last(), "Добро пожаловать, @neo")

	// счёт заводится на любой команде
	f.router.Route(ctx, req(2, "trinity", "balance"))
	assert.Contains(t, f.sender.Last(), "💰 @trinity")
	assert.Contains(t, f.sender.Last(), "50 очков репутации")

	f.router.Route(ctx, req(2, "trinity", "join"))
	assert.Contains(t, f.sender.Last(), "уже с нами")

	f.router.Route(ctx, req(1, "neo", "shop"))
	assert.Contains(t, f.sender.Last(), "frame_gold")

	f.router.Route(ctx, req(1, "neo", "checkin"))
	assert.Contains(t, f.sender.Last(), "🔥 Огонек: 1 день")

	f.router.Route(ctx, req(1, "neo", "streak"))
	assert.Contains(t, f.sender.Last(), "🔥 Твой огонек")
	assert.Contains(t, f.sender.Last(), "Текущая серия: 1 день")

	f.router.Route(ctx, req(1, "neo", "gift", "@trinity", "nope"))
	assert.Contains(t, f.sender.Last(), "Нет такого подарка")

	f.router.Route(ctx, req(1, "neo", "boosts"))
	assert.Contains(t, f.sender.Last(), "бустер")

	f.router.Route(ctx, req(1, "neo", "tournaments"))
	assert.Contains(t, f.sender.Last(), "🏆")

	f.router.Route(ctx, req(1, "neo", "history"))
	assert.Contains(t, f.sender.Last(), "📋")

	f.router.Route(ctx, req(1, "neo", "box"))
	assert.Contains(t, f.sender.Last(), "📦")

	sent := len(f.sender.Messages())
	f.router.Route(ctx, req(1, "neo", "weather"))
	assert.Len(t, f.sender.Messages(), sent, "на чужие команды не отвечаем")
}

func TestRouter_DisabledFeatures(t *testing.T) {
	f := newFixture(t, Features{})
	ctx := context.Background()

	for _, cmd := range []string{"box", "gift", "gifts", "claim", "checkin", "streak", "tournaments", "register"} {
		f.router.Route(ctx, req(1, "neo", cmd))
		assert.Equal(t, "⏸ Функция временно отключена", f.sender.Last(), cmd)
	}

	// магазин от флагов не зависит
	f.router.Route(ctx, req(1, "neo", "shop"))
	assert.Contains(t, f.sender.Last(), "Магазин")
}

func update(chatID int64, chatType string, from *telego.User, text string) telego.Update {
	return telego.Update{Message: &telego.Message{
		Chat: telego.Chat{ID: chatID, Type: chatType},
		From: from,
		Text: text,
	}}
}

func TestBot_HandleUpdate(t *testing.T) {
	f := newFixture(t, allFeatures)
	b := New(nil, f.router, Options{AllowedChatIDs: []int64{-100}})
	ctx := context.Background()
	neo := &telego.User{ID: 1, Username: "neo", FirstName: "Neo"}

	b.handleUpdate(ctx, update(-100, telego.ChatTypeSupergroup, neo, "/balance@pressfbot"))
	assert.Contains(t, f.sender.Last(), "💰 @neo")

	sent := len(f.sender.Messages())
	b.handleUpdate(ctx, update(-200, telego.ChatTypeSupergroup, neo, "/balance"))
	b.handleUpdate(ctx, update(-100, telego.ChatTypeSupergroup, neo, "просто текст"))
	b.handleUpdate(ctx, update(-100, telego.ChatTypeSupergroup, nil, "/balance"))
	b.handleUpdate(ctx, telego.Update{})
	assert.Len(t, f.sender.Messages(), sent)

	b.handleUpdate(ctx, update(1, telego.ChatTypePrivate, neo, "!shop"))
	assert.Contains(t, f.sender.Last(), "Магазин")
	assert.Equal(t, int64(1), f.sender.Messages()[len(f.sender.Messages())-1].ChatID)
}

func TestBot_NewMembers(t *testing.T) {
	f := newFixture(t, allFeatures)
	b := New(nil, f.router, Options{})
	ctx := context.Background()

	b.handleUpdate(ctx, telego.Update{Message: &telego.Message{
		Chat: telego.Chat{ID: -100, Type: telego.ChatTypeSupergroup},
		From: &telego.User{ID: 1, FirstName: "Admin"},
		NewChatMembers: []telego.User{
			{ID: 5, Username: "morpheus", FirstName: "Морфеус"},
			{ID: 6, Username: "helper_bot", IsBot: true},
		},
	}})

	acc, err := f.accounts.Profile(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(50), acc.Reputation)

	_, err = f.accounts.Profile(ctx, 6)
	assert.Error(t, err)
	assert.Empty(t, f.sender.Messages())
}

func TestBot_RateLimit(t *testing.T) {
	f := newFixture(t, allFeatures)
	rl := middleware.NewRateLimiter(2, time.Hour)
	defer rl.Close()
	b := New(nil, f.router, Options{RateLimiter: rl})
	ctx := context.Background()
	neo := &telego.User{ID: 1, Username: "neo"}

	for i := 0; i < 5; i++ {
		b.handleUpdate(ctx, update(-100, telego.ChatTypeGroup, neo, "/help"))
	}
	assert.Len(t, f.sender.Messages(), 2)
}

func TestBot_Thanks(t *testing.T) {
	f := newFixture(t, allFeatures)
	b := New(nil, f.router, Options{})
	ctx := context.Background()
	neo := &telego.User{ID: 1, Username: "neo"}
	trinity := &telego.User{ID: 2, Username: "trinity"}

	f.router.Route(ctx, req(2, "trinity", "join"))

	thank := func(from, to *telego.User, text string) {
		upd := update(-100, telego.ChatTypeSupergroup, from, text)
		upd.Message.ReplyToMessage = &telego.Message{From: to, Text: "держи ссылку"}
		b.handleUpdate(ctx, upd)
	}

	thank(neo, trinity, "Спасибо!")
	assert.Contains(t, f.sender.Last(), "🙏 @trinity")
	acc, err := f.accounts.Profile(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(51), acc.Reputation)

	sent := len(f.sender.Messages())
	// себе, боту, не благодарность, не ответ
	thank(neo, neo, "спасибо")
	thank(neo, &telego.User{ID: 9, IsBot: true}, "спс")
	thank(neo, trinity, "спасибо, но ссылка битая")
	b.handleUpdate(ctx, update(-100, telego.ChatTypeSupergroup, neo, "спасибо"))
	assert.Len(t, f.sender.Messages(), sent)

	thank(neo, trinity, "спасибо")
	assert.Contains(t, f.sender.Last(), "уже благодарили")
}

func TestRouter_ThanksDisabled(t *testing.T) {
	f := newFixture(t, Features{})
	ctx := context.Background()

	f.router.Route(ctx, req(2, "trinity", "join"))
	f.router.Thanks(ctx, "test", -100, accounts.Identity{UserID: 1, Username: "neo"}, 2)

	acc, err := f.accounts.Profile(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(50), acc.Reputation)
}

func TestBot_RecoversFromPanic(t *testing.T) {
	b := New(nil, nil, Options{})
	assert.NotPanics(t, func() {
		// router == nil: обращение к нему паникует внутри обработчика
		b.handleUpdate(context.Background(), update(1, telego.ChatTypePrivate, &telego.User{ID: 1}, "/help"))
	})
}

func TestCommandParser(t *testing.T) {
	p := NewCommandParser()
	tests := []struct {
		text string
		cmd  string
		args []string
		ok   bool
	}{
		{"/buy frame_gold", "buy", []string{"frame_gold"}, true},
		{"  !GIFT @neo coffee ", "gift", []string{"@neo", "coffee"}, true},
		{"/shop@pressfbot", "shop", []string{}, true},
		{"/", "", nil, false},
		{"/@bot", "", nil, false},
		{"привет", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		cmd, args, ok := p.ParseCommand(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.cmd, cmd, tt.text)
		if tt.ok {
			assert.Equal(t, tt.args, args, tt.text)
		}
	}
}
