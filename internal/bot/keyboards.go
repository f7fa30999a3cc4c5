package bot

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	callbackMenu        = "menu"
	callbackMenuHistory = "menu_history"
	callbackMenuHelp    = "menu_help"
	callbackMenuForget  = "menu_forget"
)

func (b *Bot) sendMessageWithKeyboard(
	ctx context.Context,
	chatID int64,
	text string,
	keyboard [][]models.InlineKeyboardButton,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   normalizedText,

		// See https://core.telegram.org/bots/api#markdownv2-style.
		ParseMode: models.ParseModeMarkdown,

		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: tgbot.True()},
	}
	if len(keyboard) > 0 {
		params.ReplyMarkup = &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
	}

	_, err := b.sender.Send(ctx, params)
	return err
}

func getReturnKeyboard() [][]models.InlineKeyboardButton {
	return [][]models.InlineKeyboardButton{
		{{Text: "⬅️ Return to menu", CallbackData: callbackMenu}},
	}
}

func getMenuKeyboard() [][]models.InlineKeyboardButton {
	return [][]models.InlineKeyboardButton{
		{
			{Text: "🕘 History", CallbackData: callbackMenuHistory},
			{Text: "❔ Help", CallbackData: callbackMenuHelp},
		},
		{
			{Text: "🗑 Forget API key", CallbackData: callbackMenuForget},
		},
	}
}
