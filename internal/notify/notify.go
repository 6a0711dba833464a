// Package notify alerts the user about incoming messages through a shell
// command or chat-platform sinks, and sends a cron-scheduled digest of unread
// conversations.
package notify

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// Notification is what a notify command template can refer to.
type Notification struct {
	From         string
	Content      string
	Conversation string
	Unread       int
}

// Runner executes a rendered notify command.
type Runner func(ctx context.Context, command string) error

// ShellRunner runs command with sh -c.
func ShellRunner(ctx context.Context, command string) error {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Sink delivers a notification somewhere other than the local shell.
type Sink interface {
	Name() string
	Send(ctx context.Context, note Notification) error
}

// Notifier renders a command template per notification and runs it, then
// hands the notification to each sink.
type Notifier struct {
	command string
	run     Runner
	sinks   []Sink
}

// NotifierOpts holds parameters for creating a Notifier.
type NotifierOpts struct {
	// Command is a shell command template, e.g.
	// "notify-send 'Buurtchat' '{{.From}}: {{.Content}}'". Placeholders are
	// substituted shell-quoted for use inside single quotes.
	Command string
	Runner  Runner // defaults to ShellRunner
	Sinks   []Sink
}

// NewNotifier creates a Notifier. With no Command and no Sinks the Notifier
// does nothing.
func NewNotifier(opts NotifierOpts) *Notifier {
	run := opts.Runner
	if run == nil {
		run = ShellRunner
	}
	var sinks []Sink
	for _, s := range opts.Sinks {
		if s != nil {
			sinks = append(sinks, s)
		}
	}
	return &Notifier{command: opts.Command, run: run, sinks: sinks}
}

// Enabled reports whether a command or any sink is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && (n.command != "" || len(n.sinks) > 0)
}

// Notify runs the command for note and sends it to every sink. Best-effort:
// errors are logged, not returned, and one failing sink does not stop the
// others.
func (n *Notifier) Notify(ctx context.Context, note Notification) {
	if !n.Enabled() {
		return
	}
	if n.command != "" {
		if err := n.run(ctx, render(n.command, note)); err != nil {
			log.Printf("notify: command failed: %v", err)
		}
	}
	for _, s := range n.sinks {
		if err := s.Send(ctx, note); err != nil {
			log.Printf("notify: %s: %v", s.Name(), err)
		}
	}
}

// text is the plain-text form of note used by chat-platform sinks.
func text(note Notification) string {
	if note.From == "" {
		return note.Content
	}
	return fmt.Sprintf("%s: %s", note.From, note.Content)
}

// render replaces placeholders in the command template with note's values.
func render(command string, note Notification) string {
	r := strings.NewReplacer(
		"{{.From}}", quote(note.From),
		"{{.Content}}", quote(note.Content),
		"{{.Conversation}}", quote(note.Conversation),
		"{{.Unread}}", fmt.Sprint(note.Unread),
	)
	return r.Replace(command)
}

// quote escapes s for a single-quoted shell string.
func quote(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}
