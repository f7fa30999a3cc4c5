package bot

import (
	"context"
	"errors"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *models.CallbackQuery) error {
	chatID := callbackChatID(callback)
	userID := callback.From.ID

	switch callback.Data {
	case callbackMenu:
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return b.handleMenuCommand(ctx, chatID)
		})
	case callbackMenuHistory:
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return b.handleHistoryCommand(ctx, chatID, userID)
		})
	case callbackMenuHelp:
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return b.sendMessageWithKeyboard(ctx, chatID, helpText, b.returnKeyboard)
		})
	case callbackMenuForget:
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return b.handleForgetCommand(ctx, chatID, userID)
		})
	default:
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return fmt.Errorf("unknown callback data: %q", callback.Data)
		})
	}
}

func (b *Bot) withEmptyCallbackAnswer(
	ctx context.Context,
	callback *models.CallbackQuery,
	fn func() error,
) error {
	var errs []error

	if err := fn(); err != nil {
		errs = append(errs, err)
	}

	if _, err := b.telegram.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
	}); err != nil {
		errs = append(errs, fmt.Errorf("answer callback query: %w", err))
	}

	return errors.Join(errs...)
}
