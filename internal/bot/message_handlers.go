package bot

import (
	"context"
	"strings"

	"github.com/go-telegram/bot/models"
)

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID

	// Photos, stickers and other non-text messages carry no URL.
	if strings.TrimSpace(message.Text) == "" {
		b.log.DebugContext(ctx, "Message without text is skipped",
			"chatID", chatID,
			"userID", userID,
			"messageID", message.ID)

		return nil
	}

	command, args := parseCommand(message.Text)

	switch command {
	case "/start":
		return b.sendMessageWithKeyboard(ctx, chatID, welcomeText, b.menuKeyboard)
	case "/menu":
		return b.handleMenuCommand(ctx, chatID)
	case "/help":
		return b.sendMessageWithKeyboard(ctx, chatID, helpText, b.returnKeyboard)
	case "/key":
		return b.handleKeyCommand(ctx, args, message)
	case "/forget":
		return b.handleForgetCommand(ctx, chatID, userID)
	case "/history":
		return b.handleHistoryCommand(ctx, chatID, userID)
	case "/summarize":
		return b.handleSummarize(ctx, args, chatID, userID)
	case "":
		return b.handleSummarize(ctx, message.Text, chatID, userID)
	default:
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ Unknown command\\.", b.menuKeyboard)
	}
}

// parseCommand splits "/cmd@BotName args" into "/cmd" and "args". Text that is
// not a command yields an empty command.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}

	command, args, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")

	return strings.ToLower(command), strings.TrimSpace(args)
}
