package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		return 0
	}
	return d
}

// Digest summarises the conversations with unread messages.
type Digest struct {
	Unread        int
	Conversations []chat.Summary // only those with unread messages, index order
}

// BuildDigest collects the unread conversations. It returns nil when there
// is nothing unread.
func BuildDigest(convs []chat.Summary) *Digest {
	d := &Digest{}
	for _, c := range convs {
		if c.UnreadCount > 0 {
			d.Unread += c.UnreadCount
			d.Conversations = append(d.Conversations, c)
		}
	}
	if d.Unread == 0 {
		return nil
	}
	return d
}

// Notification formats the digest for the notify command.
func (d *Digest) Notification() Notification {
	parts := make([]string, len(d.Conversations))
	for i, c := range d.Conversations {
		parts[i] = fmt.Sprintf("%s (%d)", c.ParticipantName, c.UnreadCount)
	}
	content := fmt.Sprintf("%s in %s: %s",
		plural(d.Unread, "ongelezen bericht", "ongelezen berichten"),
		plural(len(d.Conversations), "gesprek", "gesprekken"),
		strings.Join(parts, ", "))
	return Notification{
		From:    "Buurtchat",
		Content: content,
		Unread:  d.Unread,
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// DigestScheduler sends the unread digest on a cron schedule.
type DigestScheduler struct {
	inbox    *chat.Inbox
	notifier *Notifier
	cron     string
}

// DigestSchedulerOpts holds parameters for creating a DigestScheduler.
type DigestSchedulerOpts struct {
	Inbox    *chat.Inbox
	Notifier *Notifier
	Cron     string
}

// NewDigestScheduler creates a DigestScheduler.
func NewDigestScheduler(opts DigestSchedulerOpts) (*DigestScheduler, error) {
	if opts.Inbox == nil {
		return nil, fmt.Errorf("notify: digest: inbox is required")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("notify: digest: notifier is required")
	}
	if _, err := cronParser.Parse(opts.Cron); err != nil {
		return nil, fmt.Errorf("notify: digest: cron %q: %w", opts.Cron, err)
	}
	return &DigestScheduler{inbox: opts.Inbox, notifier: opts.Notifier, cron: opts.Cron}, nil
}

// Run fires the digest on every cron tick until ctx is cancelled.
func (s *DigestScheduler) Run(ctx context.Context) {
	d := nextCronDuration(s.cron)
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.Fire(ctx)
			if d := nextCronDuration(s.cron); d > 0 {
				timer.Reset(d)
			}
		}
	}
}

// Fire sends one digest now. It reports whether there was anything to send.
func (s *DigestScheduler) Fire(ctx context.Context) bool {
	d := BuildDigest(s.inbox.Conversations())
	if d == nil {
		return false
	}
	log.Printf("notify: digest: %d unread in %d conversations", d.Unread, len(d.Conversations))
	s.notifier.Notify(ctx, d.Notification())
	return true
}
