package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/buurtplein/buurtchat/internal/models"
	"github.com/spf13/cobra"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "message",
		Aliases: []string{"msg"},
		Short:   "Messaging commands",
	}

	cmd.AddCommand(newMessageSendCmd())
	cmd.AddCommand(newMessageListCmd())
	cmd.AddCommand(newMessageReadCmd())
	return cmd
}

func newMessageSendCmd() *cobra.Command {
	var (
		configPath string
		text       string
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "send <conversation-id>",
		Short: "Send a message",
		Long: `Sends a message in a conversation. The counterpart replies after the
configured delay; with --wait the command stays until the reply arrives,
otherwise the pending reply is dropped when the command exits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := openService(cmd, configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			msg, pending, err := svc.Send(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Sent message %s (#%d)\n", msg.ID, msg.Sequence)

			if !wait || pending == nil {
				return nil
			}
			fmt.Fprintf(out, "Waiting %s for a reply...\n", svc.Replies().Delay())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			select {
			case <-pending.Done():
			case <-ctx.Done():
				pending.Cancel()
				return nil
			}
			if sum, ok := svc.Inbox().Conversation(args[0]); ok && sum.LastMessage != nil && sum.LastMessage.SenderID != msg.SenderID {
				fmt.Fprintf(out, "%s: %s\n", sum.LastMessage.SenderName, sum.LastMessage.Content)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&text, "text", "t", "", "message text (required)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the counterpart's reply")
	cmd.MarkFlagRequired("text")
	return cmd
}

func newMessageListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <conversation-id>",
		Short: "List the messages in a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := openService(cmd, configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			printMessages(cmd, svc.Inbox().Messages(args[0]))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

// messageColumnsWidth approximates the columns left of MESSAGE.
const messageColumnsWidth = 60

func printMessages(cmd *cobra.Command, msgs []models.Message) {
	out := cmd.OutOrStdout()
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No messages")
		return
	}

	width := columnWidth(out, messageColumnsWidth)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFROM\tSENT\tREAD\tMESSAGE")
	for _, m := range msgs {
		from := m.SenderName
		if from == "" {
			from = m.SenderID
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			m.Sequence, from, m.CreatedAt.Format("2006-01-02 15:04"), yesNo(m.Read), truncate(m.Content, width))
	}
	w.Flush()
}

func newMessageReadCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "read <conversation-id>",
		Short: "Mark a conversation as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := openService(cmd, configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read (%d unread left)\n",
				args[0], chat.TotalUnread(svc.Inbox().Conversations()))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
