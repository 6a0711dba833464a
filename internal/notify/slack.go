package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
)

// maxSlackRetries is the max number of retries for rate-limited posts.
const maxSlackRetries = 3

// slackPoster is the part of the Slack API the sink uses.
type slackPoster interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

var _ Sink = (*SlackSink)(nil)

// SlackSink posts notifications to a Slack channel.
type SlackSink struct {
	client    slackPoster
	channelID string
}

// SlackOpts holds parameters for creating a SlackSink.
type SlackOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string
	Client    slackPoster // optional; built from BotToken when nil
}

// NewSlackSink creates a SlackSink.
func NewSlackSink(opts SlackOpts) (*SlackSink, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: slack: channel id is required")
	}
	client := opts.Client
	if client == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("notify: slack: bot token is required")
		}
		client = slackapi.New(opts.BotToken)
	}
	return &SlackSink{client: client, channelID: opts.ChannelID}, nil
}

// Name implements Sink.
func (s *SlackSink) Name() string { return "slack" }

// Send implements Sink.
func (s *SlackSink) Send(ctx context.Context, note Notification) error {
	msg := text(note)
	err := retryOnRateLimit(ctx, func() error {
		_, _, postErr := s.client.PostMessage(s.channelID, slackapi.MsgOptionText(msg, false))
		return postErr
	})
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

// retryOnRateLimit calls fn and retries after Slack's RetryAfter (or an
// exponential backoff) while Slack reports a rate limit.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) || attempt == maxSlackRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
