package notify

import (
	"context"
	"testing"
	"time"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/buurtplein/buurtchat/internal/models"
)

func TestNextCronDuration_ValidExpression(t *testing.T) {
	// "0 9 * * *" = daily at 09:00. Duration should be positive and < 24h.
	d := nextCronDuration("0 9 * * *")
	if d <= 0 {
		t.Fatalf("expected positive duration, got %v", d)
	}
	if d > 24*time.Hour {
		t.Fatalf("expected duration < 24h, got %v", d)
	}
}

func TestNextCronDuration_InvalidExpression(t *testing.T) {
	if d := nextCronDuration("not a cron expr"); d != 0 {
		t.Fatalf("expected 0 for invalid expression, got %v", d)
	}
}

func TestNextCronDuration_EveryMinute(t *testing.T) {
	d := nextCronDuration("* * * * *")
	if d <= 0 || d > 61*time.Second {
		t.Fatalf("expected 0 < d <= 61s, got %v", d)
	}
}

func summary(name string, unread int) chat.Summary {
	return chat.Summary{Conversation: models.Conversation{ID: name, ParticipantName: name, UnreadCount: unread}}
}

func TestBuildDigest_NothingUnread(t *testing.T) {
	if d := BuildDigest([]chat.Summary{summary("a", 0), summary("b", 0)}); d != nil {
		t.Errorf("BuildDigest = %+v, want nil", d)
	}
	if d := BuildDigest(nil); d != nil {
		t.Errorf("BuildDigest(nil) = %+v, want nil", d)
	}
}

func TestBuildDigest_Notification(t *testing.T) {
	d := BuildDigest([]chat.Summary{summary("Bakkerij", 2), summary("Jansen", 0), summary("Sophie", 1)})
	if d == nil {
		t.Fatal("BuildDigest = nil")
	}
	if d.Unread != 3 {
		t.Errorf("Unread = %d, want 3", d.Unread)
	}
	note := d.Notification()
	want := "3 ongelezen berichten in 2 gesprekken: Bakkerij (2), Sophie (1)"
	if note.Content != want {
		t.Errorf("Content = %q, want %q", note.Content, want)
	}
	if note.From != "Buurtchat" {
		t.Errorf("From = %q, want %q", note.From, "Buurtchat")
	}
}

func TestDigest_SingularForms(t *testing.T) {
	note := BuildDigest([]chat.Summary{summary("Sophie", 1)}).Notification()
	want := "1 ongelezen bericht in 1 gesprek: Sophie (1)"
	if note.Content != want {
		t.Errorf("Content = %q, want %q", note.Content, want)
	}
}

func TestNewDigestScheduler_Validation(t *testing.T) {
	inbox := chat.NewInbox("me")
	n := NewNotifier(NotifierOpts{})
	if _, err := NewDigestScheduler(DigestSchedulerOpts{Notifier: n, Cron: "0 9 * * *"}); err == nil {
		t.Error("expected error without inbox")
	}
	if _, err := NewDigestScheduler(DigestSchedulerOpts{Inbox: inbox, Cron: "0 9 * * *"}); err == nil {
		t.Error("expected error without notifier")
	}
	if _, err := NewDigestScheduler(DigestSchedulerOpts{Inbox: inbox, Notifier: n, Cron: "every day"}); err == nil {
		t.Error("expected error for bad cron")
	}
}

func TestDigestScheduler_Fire(t *testing.T) {
	inbox := chat.NewInbox("me")
	inbox.CreateConversation(models.Conversation{ID: "conv-1", ParticipantID: "sophie", ParticipantName: "Sophie"})
	runner := newCaptureRunner()
	s, err := NewDigestScheduler(DigestSchedulerOpts{
		Inbox:    inbox,
		Notifier: NewNotifier(NotifierOpts{Command: "{{.Content}}", Runner: runner.run}),
		Cron:     "0 9 * * *",
	})
	if err != nil {
		t.Fatalf("NewDigestScheduler: %v", err)
	}

	if s.Fire(context.Background()) {
		t.Error("Fire = true with nothing unread")
	}

	inbox.Record("conv-1", models.Message{ID: "m1", SenderID: "sophie", Content: "hoi"})
	if !s.Fire(context.Background()) {
		t.Fatal("Fire = false with an unread message")
	}
	got := runner.all()
	if len(got) != 1 || got[0] != "1 ongelezen bericht in 1 gesprek: Sophie (1)" {
		t.Errorf("commands = %q", got)
	}
}

func TestDigestScheduler_RunStopsOnCancel(t *testing.T) {
	s, err := NewDigestScheduler(DigestSchedulerOpts{
		Inbox:    chat.NewInbox("me"),
		Notifier: NewNotifier(NotifierOpts{}),
		Cron:     "0 9 * * *",
	})
	if err != nil {
		t.Fatalf("NewDigestScheduler: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
