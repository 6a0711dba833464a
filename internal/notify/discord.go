package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// discordMaxContent is Discord's message length limit in characters.
const discordMaxContent = 2000

// discordSender is the part of discordgo.Session the sink uses.
type discordSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ Sink = (*DiscordSink)(nil)

// DiscordSink posts notifications to a Discord channel over the REST API.
// It never opens a gateway connection.
type DiscordSink struct {
	sess      discordSender
	channelID string
}

// DiscordOpts holds parameters for creating a DiscordSink.
type DiscordOpts struct {
	BotToken  string
	ChannelID string
	Session   discordSender // optional; built from BotToken when nil
}

// NewDiscordSink creates a DiscordSink.
func NewDiscordSink(opts DiscordOpts) (*DiscordSink, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: discord: channel id is required")
	}
	sess := opts.Session
	if sess == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("notify: discord: bot token is required")
		}
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("notify: discord: create session: %w", err)
		}
		sess = dg
	}
	return &DiscordSink{sess: sess, channelID: opts.ChannelID}, nil
}

// Name implements Sink.
func (d *DiscordSink) Name() string { return "discord" }

// Send implements Sink.
func (d *DiscordSink) Send(ctx context.Context, note Notification) error {
	content := []rune(text(note))
	if len(content) > discordMaxContent {
		content = append(content[:discordMaxContent-1], '…')
	}
	if _, err := d.sess.ChannelMessageSend(d.channelID, string(content), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
