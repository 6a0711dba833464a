package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buurtplein/buurtchat/internal/api"
	"github.com/buurtplein/buurtchat/internal/config"
	"github.com/buurtplein/buurtchat/internal/db"
	"github.com/buurtplein/buurtchat/internal/notify"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat API server",
		Long:  "Serves the JSON API and event stream, runs message notifications and the unread digest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config, 8080)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(cmd, configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	svc, err := newService(ctx, cfg, gormDB)
	if err != nil {
		return err
	}
	defer svc.Close()
	fmt.Fprintf(out, "Loaded %d conversations for %s\n", svc.Inbox().Len(), cfg.Self.Name)

	sinks, err := notifySinks(cfg.Notify)
	if err != nil {
		return err
	}
	notifier := notify.NewNotifier(notify.NotifierOpts{Command: cfg.Notify.Command, Sinks: sinks})
	if notifier.Enabled() {
		go notify.NewWatcher(svc.Inbox(), notifier).Run(ctx)
	}
	if cfg.Notify.Digest.Enabled {
		digest, err := notify.NewDigestScheduler(notify.DigestSchedulerOpts{
			Inbox:    svc.Inbox(),
			Notifier: notifier,
			Cron:     cfg.Notify.Digest.Cron,
		})
		if err != nil {
			return err
		}
		go digest.Run(ctx)
		fmt.Fprintf(out, "Unread digest scheduled (%s)\n", cfg.Notify.Digest.Cron)
	}

	if port <= 0 {
		port = cfg.Server.Port
	}
	return api.Start(ctx, api.StartOpts{
		Service:     svc,
		Port:        port,
		SessionIdle: time.Duration(cfg.Server.SessionIdleMinutes) * time.Minute,
		Out:         out,
	})
}

// notifySinks builds the chat-platform sinks that have a bot token configured.
func notifySinks(cfg config.NotifyConfig) ([]notify.Sink, error) {
	var sinks []notify.Sink
	if cfg.Slack.BotToken != "" {
		s, err := notify.NewSlackSink(notify.SlackOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.Discord.BotToken != "" {
		d, err := notify.NewDiscordSink(notify.DiscordOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, d)
	}
	return sinks, nil
}
