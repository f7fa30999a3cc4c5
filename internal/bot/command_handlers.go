package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brainwave/internal/content"
	"brainwave/internal/digest"
	"brainwave/internal/domain"
	"brainwave/internal/markdown"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	historyPreviewRunes = 200
	historyTimeLayout   = "2006-01-02 15:04 UTC"
)

const welcomeText = `🤖 *Welcome to Brainwave\!*

Send me a link and I will summarize it for you:

– Web articles are summarized from their text
– YouTube videos are summarized from their captions

Save your API key with /key first, or ask the bot owner for access\.
See /help for all commands\.`

const helpText = `*❔ Help*

/key \<API key\> – save your API key for this session \(the message is deleted\)
/forget – remove the saved API key
/summarize \<URL\> – summarize a web page or a YouTube video
/history – show your latest summaries
/menu – show the menu

You can also just send a link\.`

const menuText = `*📋 Menu*`

func (b *Bot) handleMenuCommand(ctx context.Context, chatID int64) error {
	return b.sendMessageWithKeyboard(ctx, chatID, menuText, b.menuKeyboard)
}

func (b *Bot) handleKeyCommand(ctx context.Context, args string, message *models.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID

	var errs []error

	// The credential must not stay in the chat history.
	if _, err := b.telegram.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: message.ID,
	}); err != nil {
		errs = append(errs, fmt.Errorf("delete message: %w", err))
	}

	apiKey := strings.TrimSpace(args)
	if apiKey == "" {
		if err := b.sendMessageWithKeyboard(
			ctx,
			chatID,
			"✖️ Usage: /key \\<API key\\>",
			b.returnKeyboard,
		); err != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", err))
		}

		return errors.Join(errs...)
	}

	b.sessions.Set(userID, apiKey, b.now())

	b.log.InfoContext(ctx, "API key is saved",
		"userID", userID,
		"chatID", chatID)

	if err := b.sendMessageWithKeyboard(
		ctx,
		chatID,
		"🔑 API key is saved\\. Now send me a link\\.",
		b.returnKeyboard,
	); err != nil {
		errs = append(errs, fmt.Errorf("send message with keyboard: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) handleForgetCommand(ctx context.Context, chatID int64, userID int64) error {
	text := "✖️ There is no saved API key\\."
	if b.sessions.Delete(userID) {
		text = "🗑 API key is removed\\."
	}

	return b.sendMessageWithKeyboard(ctx, chatID, text, b.returnKeyboard)
}

func (b *Bot) handleSummarize(ctx context.Context, text string, chatID int64, userID int64) error {
	rawURL, err := content.FindURL(text)
	if err != nil {
		return fmt.Errorf("find URL: %w", err)
	}
	if rawURL == "" {
		rawURL = strings.TrimSpace(text)
	}

	req := domain.Request{
		UserID: userID,
		ChatID: chatID,
		APIKey: b.apiKeyFor(userID),
		URL:    rawURL,
	}

	var summary domain.Summary

	runErr := b.withSpinner(ctx, chatID, func() error {
		var err error
		summary, err = b.digest.Run(ctx, req)

		return err
	})

	if runErr != nil {
		if digest.IsValidationError(runErr) {
			return b.sendMessageWithKeyboard(
				ctx,
				chatID,
				"✖️ "+markdown.EscapeV2(runErr.Error()),
				b.returnKeyboard,
			)
		}

		errs := []error{fmt.Errorf("run digest: %w", runErr)}

		if err = b.sendMessageWithKeyboard(
			ctx,
			chatID,
			"❌ *Exception:* "+markdown.EscapeV2(runErr.Error()),
			b.returnKeyboard,
		); err != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", err))
		}

		return errors.Join(errs...)
	}

	return b.sendSummary(ctx, chatID, summary)
}

func (b *Bot) sendSummary(ctx context.Context, chatID int64, summary domain.Summary) error {
	header := "✅ *Summary*\n\n"
	continueHeader := "✅ *Summary* \\(continue\\)\n\n"

	chunks := markdown.Chunks(summary.Text, telegramMessageMaxLength-len(continueHeader))
	for i, chunk := range chunks {
		text := header + markdown.EscapeV2(chunk)
		if i > 0 {
			text = continueHeader + markdown.EscapeV2(chunk)
		}

		var keyboard [][]models.InlineKeyboardButton
		if i == len(chunks)-1 {
			keyboard = b.returnKeyboard
		}

		if err := b.sendMessageWithKeyboard(ctx, chatID, text, keyboard); err != nil {
			return fmt.Errorf("send message with keyboard: %w", err)
		}
	}

	return nil
}

func (b *Bot) handleHistoryCommand(ctx context.Context, chatID int64, userID int64) error {
	summaries, err := b.history.GetUserSummaries(ctx, userID, b.historyLimit)
	if err != nil {
		errs := []error{fmt.Errorf("get user summaries: %w", err)}

		if sendErr := b.sendMessageWithKeyboard(ctx, chatID, "❌ Failed\\.", b.returnKeyboard); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(summaries) == 0 {
		return b.sendMessageWithKeyboard(ctx, chatID, "🕘 History is empty\\.", b.returnKeyboard)
	}

	messages := formatHistoryMessages(summaries)
	for i, text := range messages {
		var keyboard [][]models.InlineKeyboardButton
		if i == len(messages)-1 {
			keyboard = b.returnKeyboard
		}

		if err = b.sendMessageWithKeyboard(ctx, chatID, text, keyboard); err != nil {
			return fmt.Errorf("send message with keyboard: %w", err)
		}
	}

	return nil
}

func formatHistoryMessages(summaries []domain.Summary) []string {
	header := "🕘 *Latest summaries:*\n\n"
	continueHeader := "🕘 *Latest summaries* \\(continue\\):\n\n"

	var (
		messages []string
		current  strings.Builder
	)

	current.WriteString(header)
	itemsInCurrent := 0

	for i, summary := range summaries {
		item := formatHistoryItem(i+1, summary)

		if itemsInCurrent > 0 && current.Len()+len(item) > telegramMessageMaxLength {
			messages = append(messages, strings.TrimRight(current.String(), "\n"))

			current.Reset()
			current.WriteString(continueHeader)
			itemsInCurrent = 0
		}

		current.WriteString(item)
		itemsInCurrent++
	}

	return append(messages, strings.TrimRight(current.String(), "\n"))
}

func formatHistoryItem(n int, summary domain.Summary) string {
	return fmt.Sprintf("%d\\. [%s](%s) \\(%s, %s\\)\n%s\n\n",
		n,
		markdown.EscapeV2(summary.URL),
		markdown.EscapeLinkURL(summary.URL),
		summary.Source.String(),
		markdown.EscapeV2(summary.CreatedAt.UTC().Format(historyTimeLayout)),
		markdown.EscapeV2(preview(summary.Text, historyPreviewRunes)),
	)
}

func preview(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}

	return strings.TrimSpace(string(runes[:maxRunes])) + "..."
}

