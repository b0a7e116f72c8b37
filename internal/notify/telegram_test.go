package notify

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xgrowth/internal/ai"
	"xgrowth/internal/replyguy"
	"xgrowth/internal/targets"
	"xgrowth/internal/xapi"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func TestDisabledNotifierIsNoOp(t *testing.T) {
	n, err := NewTelegram("", 0)
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	if n.Enabled() {
		t.Fatal("expected disabled notifier")
	}
	if err := n.ReplyOpportunity("alice", replyguy.Opportunity{}); err != nil {
		t.Fatalf("disabled notifier must not error: %v", err)
	}
}

func TestReplyOpportunityMessage(t *testing.T) {
	sender := &fakeSender{}
	n := &Telegram{bot: sender, chatID: 1}

	op := replyguy.Opportunity{
		PostID: "p1",
		Post:   xapi.Post{AuthorID: "bob", Text: "hot take on saas pricing"},
		Suggestions: []ai.ReplySuggestion{
			{Content: "building on this", Angle: "extend", Rationale: "adds value"},
			{Content: "how so?", Angle: "question", Rationale: "clarifies"},
		},
	}
	if err := n.ReplyOpportunity("alice", op); err != nil {
		t.Fatalf("ReplyOpportunity: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	for _, want := range []string{"From: @bob", "hot take on saas pricing", "[EXTEND]", "[QUESTION]", "adds value"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestReplyOpportunityCapsSuggestions(t *testing.T) {
	sender := &fakeSender{}
	n := &Telegram{bot: sender, chatID: 1}

	op := replyguy.Opportunity{Suggestions: []ai.ReplySuggestion{
		{Angle: "extend"}, {Angle: "question"}, {Angle: "challenge"}, {Angle: "reflection"},
	}}
	if err := n.ReplyOpportunity("alice", op); err != nil {
		t.Fatalf("ReplyOpportunity: %v", err)
	}
	if strings.Contains(sender.sent[0], "4.") {
		t.Fatalf("expected at most 3 suggestions:\n%s", sender.sent[0])
	}
}

func TestDailySummaryMessage(t *testing.T) {
	sender := &fakeSender{}
	n := &Telegram{bot: sender, chatID: 1}

	prog := &targets.Progress{
		Date:      "2026-08-24",
		Targets:   targets.Activity{Posts: 2, Replies: 5, Likes: 20},
		Completed: targets.Activity{Posts: 1, Replies: 3},
	}
	if err := n.DailySummary("alice", prog); err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	msg := sender.sent[0]
	for _, want := range []string{"2026-08-24", "Targets:", "• Posts: 2", "Completed:", "• Replies: 3"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestPostingReminderSkipsZero(t *testing.T) {
	sender := &fakeSender{}
	n := &Telegram{bot: sender, chatID: 1}

	if err := n.PostingReminder("alice", 0); err != nil {
		t.Fatalf("PostingReminder: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("zero due posts must not notify")
	}
	if err := n.PostingReminder("alice", 2); err != nil {
		t.Fatalf("PostingReminder: %v", err)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0], "2 approved post(s)") {
		t.Fatalf("unexpected reminder: %v", sender.sent)
	}
}
