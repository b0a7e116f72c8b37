// Package notify pushes reply opportunities and daily summaries to the
// user over Telegram. An unconfigured notifier is a silent no-op so
// callers never branch on whether notifications are enabled.
package notify

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xgrowth/internal/replyguy"
	"xgrowth/internal/targets"
)

// sender is the slice of the bot API the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// #region notifier

// Telegram sends notifications to a single chat.
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram connects the bot. An empty token returns a disabled
// notifier and no error.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		log.Printf("[NOTIFY] telegram not configured, notifications disabled")
		return &Telegram{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Enabled reports whether the notifier will actually send.
func (t *Telegram) Enabled() bool {
	return t != nil && t.bot != nil
}

func (t *Telegram) send(text string) error {
	if !t.Enabled() {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// #endregion notifier

// #region messages

// ReplyOpportunity notifies about one fresh reply opportunity.
func (t *Telegram) ReplyOpportunity(user string, op replyguy.Opportunity) error {
	var b strings.Builder
	b.WriteString("🔔 New Reply Opportunity\n\n")
	fmt.Fprintf(&b, "From: @%s\n", op.Post.AuthorID)
	fmt.Fprintf(&b, "Post: %s\n\n", clip(op.Post.Text, 200))
	b.WriteString("💡 Reply Suggestions:\n\n")

	suggestions := op.Suggestions
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	for i, s := range suggestions {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, strings.ToUpper(s.Angle), s.Content)
		fmt.Fprintf(&b, "   Why: %s\n\n", clip(s.Rationale, 100))
	}
	return t.send(b.String())
}

// DailySummary reports progress against the day's targets.
func (t *Telegram) DailySummary(user string, prog *targets.Progress) error {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Daily Summary - %s\n\n", prog.Date)
	b.WriteString("Targets:\n")
	fmt.Fprintf(&b, "  • Posts: %d\n", prog.Targets.Posts)
	fmt.Fprintf(&b, "  • Replies: %d\n", prog.Targets.Replies)
	fmt.Fprintf(&b, "  • Likes: %d\n\n", prog.Targets.Likes)
	b.WriteString("Completed:\n")
	fmt.Fprintf(&b, "  • Posts: %d\n", prog.Completed.Posts)
	fmt.Fprintf(&b, "  • Replies: %d\n", prog.Completed.Replies)
	fmt.Fprintf(&b, "  • Likes: %d\n", prog.Completed.Likes)
	return t.send(b.String())
}

// PostingReminder nags about approved posts whose slot has passed.
func (t *Telegram) PostingReminder(user string, due int) error {
	if due == 0 {
		return nil
	}
	return t.send(fmt.Sprintf("⏰ You have %d approved post(s) ready to publish.", due))
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion messages
