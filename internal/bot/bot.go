package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"brainwave/internal/domain"
	"brainwave/internal/ratelimiter"
	"brainwave/internal/session"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	updateProcessingTimeout  = 3 * time.Minute
	telegramMessageMaxLength = 4096
)

type telegramAPI interface {
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
	DeleteMessage(ctx context.Context, params *tgbot.DeleteMessageParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
}

type messageSender interface {
	Send(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
}

type digestRunner interface {
	Run(ctx context.Context, req domain.Request) (domain.Summary, error)
}

type historyReader interface {
	GetUserSummaries(ctx context.Context, userID int64, limit int) ([]domain.Summary, error)
}

// Options holds the collaborators and settings of the bot.
type Options struct {
	Digest        digestRunner
	History       historyReader
	Sessions      *session.Store
	DefaultAPIKey string
	HistoryLimit  int
	AllowedUsers  []int64
}

type Bot struct {
	api            *tgbot.Bot
	telegram       telegramAPI
	sender         messageSender
	rateLimiter    *ratelimiter.RateLimiter
	digest         digestRunner
	history        historyReader
	sessions       *session.Store
	defaultAPIKey  string
	historyLimit   int
	allowedUsers   []int64
	returnKeyboard [][]models.InlineKeyboardButton
	menuKeyboard   [][]models.InlineKeyboardButton
	now            func() time.Time
	log            *slog.Logger
}

func New(token string, opts Options, log *slog.Logger) (*Bot, error) {
	b := newBot(nil, nil, opts, log)

	api, err := tgbot.New(strings.TrimSpace(token), tgbot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	b.api = api
	b.telegram = api
	b.rateLimiter = ratelimiter.New(api, log)
	b.sender = b.rateLimiter

	return b, nil
}

func newBot(telegram telegramAPI, sender messageSender, opts Options, log *slog.Logger) *Bot {
	return &Bot{
		telegram:       telegram,
		sender:         sender,
		digest:         opts.Digest,
		history:        opts.History,
		sessions:       opts.Sessions,
		defaultAPIKey:  strings.TrimSpace(opts.DefaultAPIKey),
		historyLimit:   opts.HistoryLimit,
		allowedUsers:   opts.AllowedUsers,
		returnKeyboard: getReturnKeyboard(),
		menuKeyboard:   getMenuKeyboard(),
		now:            time.Now,
		log:            log,
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.api.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := update.Message
		if message.From == nil {
			return
		}

		userID := message.From.ID
		if !b.userAllowed(userID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", message.Chat.ID,
				"username", message.From.Username,
				"chatType", message.Chat.Type)

			return
		}

		if err := b.handleMessage(updateCtx, message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", message.Chat.ID,
				"userID", userID,
				"chatType", message.Chat.Type,
				"messageID", message.ID)
		}

	case update.CallbackQuery != nil:
		callback := update.CallbackQuery

		if !b.userAllowed(callback.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", callback.From.ID,
				"chatID", callbackChatID(callback),
				"username", callback.From.Username,
				"data", callback.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, callback); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", callbackChatID(callback),
				"userID", callback.From.ID,
				"data", callback.Data)
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

// apiKeyFor returns the user's session credential or the operator default.
func (b *Bot) apiKeyFor(userID int64) string {
	if b.sessions != nil {
		if apiKey, ok := b.sessions.Get(userID, b.now()); ok {
			return apiKey
		}
	}

	return b.defaultAPIKey
}

func callbackChatID(callback *models.CallbackQuery) int64 {
	switch {
	case callback.Message.Message != nil:
		return callback.Message.Message.Chat.ID
	case callback.Message.InaccessibleMessage != nil:
		return callback.Message.InaccessibleMessage.Chat.ID
	default:
		return callback.From.ID
	}
}
