package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"immitrack/internal/models"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts HTML messages to the configured chats.
type TelegramNotifier struct {
	bot     botSender
	chatIDs []int64
}

func NewTelegramNotifier(botToken string, chatIDs []int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log.Printf("[tg] authorized as @%s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs}, nil
}

func (t *TelegramNotifier) send(text string) error {
	var firstErr error
	for _, chatID := range t.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			log.Printf("[tg][send][err] chatID=%d: %v", chatID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (t *TelegramNotifier) TaskCompleted(_ context.Context, task models.Task) error {
	return t.send(formatTaskLine("✅ Tâche terminée", task))
}

func (t *TelegramNotifier) Digest(_ context.Context, d Digest) error {
	if d.Empty() {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Progression : <b>%d%%</b> (%d/%d)\n", d.Stats.Progress, d.Stats.Completed, d.Stats.Total)
	for _, it := range d.Late {
		fmt.Fprintf(&b, "⏰ <b>%s</b> en retard de %d j\n", html.EscapeString(it.Task.Title), -it.DaysRemaining)
	}
	for _, it := range d.Upcoming {
		fmt.Fprintf(&b, "• <b>%s</b> dans %d j (<code>%s</code>)\n",
			html.EscapeString(it.Task.Title), it.DaysRemaining, deadlineLabel(it.Task))
	}
	return t.send(b.String())
}

func formatTaskLine(prefix string, task models.Task) string {
	return prefix + "\n" +
		"• <b>" + html.EscapeString(task.Title) + "</b>\n" +
		"• Échéance : <code>" + deadlineLabel(task) + "</code>\n" +
		"• Coût : <code>" + models.FormatCost(task.Cost) + "</code>"
}
