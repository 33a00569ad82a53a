package bot

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/accounts"
	"github.com/taslogit/pressfbot/internal/features/boosts"
	"github.com/taslogit/pressfbot/internal/features/gifts"
	"github.com/taslogit/pressfbot/internal/features/lottery"
	"github.com/taslogit/pressfbot/internal/features/store"
	"github.com/taslogit/pressfbot/internal/features/streak"
	"github.com/taslogit/pressfbot/internal/features/thanks"
	"github.com/taslogit/pressfbot/internal/features/tournaments"
	"github.com/taslogit/pressfbot/internal/metrics"
)

const helpText = `🤖 Команды:
/join — завести счёт
/balance — баланс и предметы
/shop — магазин
/buy <id> — купить предмет
/box — мистери-бокс
/history [N] — последние покупки
/gift @username <тип> — подарить
/gifts — ваши подарки
/claim [id] — забрать подарок
/checkin — отметиться за день
/streak — огонёк
/boosts — активные бустеры
/tournaments — турниры
/register <id> — записаться на турнир

Ответьте «спасибо» на сообщение, чтобы дать автору репутацию.`

// Request: разобранная команда пользователя.
type Request struct {
	RequestID string
	ChatID    int64
	From      accounts.Identity
	Command   string
	Args      []string
}

// Handlers: обработчики фич.
type Handlers struct {
	Accounts    *accounts.Handler
	Store       *store.Handler
	Lottery     *lottery.Handler
	Gifts       *gifts.Handler
	Streak      *streak.Handler
	Boosts      *boosts.Handler
	Tournaments *tournaments.Handler
	Thanks      *thanks.Handler
}

// Features: какие фичи включены.
type Features struct {
	Gifts       bool
	MysteryBox  bool
	Streaks     bool
	Tournaments bool
	Thanks      bool
}

// Router отправляет команду нужному обработчику.
type Router struct {
	accounts *accounts.Service
	handlers Handlers
	features Features
	sender   common.Sender
}

// NewRouter создаёт маршрутизатор.
func NewRouter(accountService *accounts.Service, handlers Handlers, features Features, sender common.Sender) *Router {
	return &Router{accounts: accountService, handlers: handlers, features: features, sender: sender}
}

// NewMembers заводит счета вступившим участникам.
func (r *Router) NewMembers(ctx context.Context, users []accounts.Identity) {
	r.handlers.Accounts.HandleNewMembers(ctx, users)
}

// Thanks засчитывает благодарность автору сообщения toID.
// Если фича выключена, «спасибо» остаётся просто текстом.
func (r *Router) Thanks(ctx context.Context, requestID string, chatID int64, from accounts.Identity, toID int64) {
	if !r.features.Thanks || r.handlers.Thanks == nil {
		return
	}
	log.WithFields(log.Fields{
		"request_id": requestID,
		"from_id":    from.UserID,
		"to_id":      toID,
	}).Debug("thanks")
	if _, _, err := r.accounts.Ensure(ctx, from); err != nil {
		log.WithError(err).WithField("request_id", requestID).Warn("Ensure failed")
	}
	r.handlers.Thanks.HandleThankYou(ctx, chatID, from.UserID, toID)
}

// Route обрабатывает одну команду. Неизвестные команды молча игнорируются:
// в группе их может обрабатывать другой бот.
func (r *Router) Route(ctx context.Context, req Request) {
	logger := log.WithFields(log.Fields{
		"request_id": req.RequestID,
		"cmd":        req.Command,
		"args":       req.Args,
		"user_id":    req.From.UserID,
	})

	if !r.known(req.Command) {
		logger.Debug("Неизвестная команда")
		return
	}
	metrics.BotCommands.WithLabelValues(req.Command).Inc()
	logger.Debug("routing command")

	if !r.enabled(req.Command) {
		common.ReplyError(ctx, r.sender, req.ChatID, common.ErrFeatureDisabled, "Функция отключена")
		return
	}

	// /join сам сообщает, заведён ли счёт только что
	if req.Command != "join" && req.Command != "start" && req.Command != "help" {
		if _, _, err := r.accounts.Ensure(ctx, req.From); err != nil {
			logger.WithError(err).Warn("Ensure failed")
		}
	}

	chatID, userID, h := req.ChatID, req.From.UserID, r.handlers
	switch req.Command {
	case "start", "help":
		common.Reply(ctx, r.sender, chatID, helpText)
	case "join":
		h.Accounts.HandleJoin(ctx, chatID, req.From)
	case "balance":
		h.Accounts.HandleBalance(ctx, chatID, userID)
	case "shop":
		h.Store.HandleShop(ctx, chatID, userID)
	case "buy":
		h.Store.HandleBuy(ctx, chatID, userID, req.Args)
	case "history":
		h.Store.HandleHistory(ctx, chatID, userID, req.Args)
	case "box":
		h.Lottery.HandleBox(ctx, chatID, userID)
	case "gift":
		h.Gifts.HandleGift(ctx, chatID, userID, req.Args)
	case "gifts":
		h.Gifts.HandleGifts(ctx, chatID, userID)
	case "claim":
		h.Gifts.HandleClaim(ctx, chatID, userID, req.Args)
	case "checkin":
		h.Streak.HandleCheckIn(ctx, chatID, userID)
	case "streak":
		h.Streak.HandleStatus(ctx, chatID, userID)
	case "boosts":
		h.Boosts.HandleBoosts(ctx, chatID, userID)
	case "tournaments":
		h.Tournaments.HandleList(ctx, chatID)
	case "register":
		h.Tournaments.HandleRegister(ctx, chatID, userID, req.Args)
	}
}

func (r *Router) known(cmd string) bool {
	switch cmd {
	case "start", "help", "join", "balance", "shop", "buy", "history", "box",
		"gift", "gifts", "claim", "checkin", "streak", "boosts", "tournaments", "register":
		return true
	}
	return false
}

func (r *Router) enabled(cmd string) bool {
	switch cmd {
	case "gift", "gifts", "claim":
		return r.features.Gifts
	case "box":
		return r.features.MysteryBox
	case "checkin", "streak":
		return r.features.Streaks
	case "tournaments", "register":
		return r.features.Tournaments
	}
	return true
}
