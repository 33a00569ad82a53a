// Package bot реализует транспорт Telegram: long polling, фильтры, лимиты и маршрутизация команд.
package bot

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/bot/filters"
	"github.com/taslogit/pressfbot/internal/bot/middleware"
	"github.com/taslogit/pressfbot/internal/features/accounts"
	"github.com/taslogit/pressfbot/internal/features/thanks"
)

// NewAPI создаёт клиента Telegram Bot API и проверяет токен.
func NewAPI(ctx context.Context, token string, debug bool) (*telego.Bot, error) {
	opts := []telego.BotOption{telego.WithLogger(log.WithField("component", "telego"))}
	if debug {
		opts = append(opts, telego.WithDefaultDebugLogger())
	}
	api, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := api.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)
	return api, nil
}

// Client отправляет сообщения через Telegram. Реализует common.Sender.
type Client struct {
	api *telego.Bot
}

// NewClient оборачивает API.
func NewClient(api *telego.Bot) *Client {
	return &Client{api: api}
}

// SendText отправляет текст в чат.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	return err
}

// Options: параметры рантайма бота.
type Options struct {
	MaxInflight    int
	UpdateTimeout  int // секунды long polling
	AllowedChatIDs []int64
	RateLimiter    *middleware.RateLimiter
}

// Bot читает апдейты и раздаёт их роутеру.
type Bot struct {
	api         *telego.Bot
	router      *Router
	parser      *CommandParser
	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter
	timeout     int

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт бота. api может быть nil в тестах, если не вызывать Start.
func New(api *telego.Bot, router *Router, opts Options) *Bot {
	maxInFlight := opts.MaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}
	return &Bot{
		api:         api,
		router:      router,
		parser:      NewCommandParser(),
		chatFilter:  filters.NewChatFilter(opts.AllowedChatIDs),
		rateLimiter: opts.RateLimiter,
		timeout:     opts.UpdateTimeout,
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start запускает long polling и блокирует до отмены ctx.
// После выхода все начатые обработчики уже завершены.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{Timeout: b.timeout})
	if err != nil {
		return fmt.Errorf("ошибка запуска long polling: %w", err)
	}

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.timeout,
	}).Info("Бот запущен и ожидает сообщения...")

	for update := range updates {
		// лимит параллелизма
		b.inflight <- struct{}{}
		go func(upd telego.Update) {
			defer func() { <-b.inflight }()
			b.handleUpdate(ctx, upd)
		}(update)
	}

	// ждём обработчики: занимаем все слоты
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
	log.Info("Канал updates закрыт, бот остановлен")
	return nil
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	requestID := uuid.NewString()
	defer middleware.RecoverFromPanic(requestID)

	message := update.Message
	if message == nil {
		return
	}

	if len(message.NewChatMembers) > 0 {
		if b.chatFilter.CheckAccess(message) {
			b.router.NewMembers(ctx, identities(message.NewChatMembers))
		}
		return
	}
	if message.Text == "" {
		return
	}

	middleware.LogMessage(requestID, message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		b.handleThanks(ctx, requestID, message)
		return
	}

	if b.rateLimiter != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithFields(log.Fields{
			"request_id": requestID,
			"user_id":    message.From.ID,
		}).Debug("rate limited")
		return
	}

	b.router.Route(ctx, Request{
		RequestID: requestID,
		ChatID:    message.Chat.ID,
		From:      identity(*message.From),
		Command:   cmd,
		Args:      args,
	})
}

// handleThanks засчитывает «спасибо», отправленное ответом на чужое сообщение.
func (b *Bot) handleThanks(ctx context.Context, requestID string, message *telego.Message) {
	reply := message.ReplyToMessage
	if reply == nil || reply.From == nil || reply.From.IsBot || !thanks.IsThankYou(message.Text) {
		return
	}
	if b.rateLimiter != nil && !b.rateLimiter.Allow(message.From.ID) {
		return
	}
	b.router.Thanks(ctx, requestID, message.Chat.ID, identity(*message.From), reply.From.ID)
}

func identity(u telego.User) accounts.Identity {
	return accounts.Identity{
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func identities(users []telego.User) []accounts.Identity {
	out := make([]accounts.Identity, 0, len(users))
	for _, u := range users {
		if u.IsBot {
			continue
		}
		out = append(out, identity(u))
	}
	return out
}
