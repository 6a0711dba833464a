package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/buurtplein/buurtchat/internal/models"
	"github.com/spf13/cobra"
)

func newConversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversation",
		Aliases: []string{"conv"},
		Short:   "Conversation commands",
	}

	cmd.AddCommand(newConversationListCmd())
	cmd.AddCommand(newConversationNewCmd())
	return cmd
}

func newConversationListCmd() *cobra.Command {
	var (
		configPath string
		search     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations",
		Long:  "Lists conversations newest first with their unread counts. --search filters on participant name.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := openService(cmd, configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			all := svc.Inbox().Conversations()
			printConversations(cmd, chat.VisibleConversations(all, search), chat.TotalUnread(all))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show participants whose name contains this text")
	return cmd
}

// conversationColumnsWidth approximates the columns left of LAST MESSAGE:
// a uuid, a participant name and the short flag columns.
const conversationColumnsWidth = 100

func printConversations(cmd *cobra.Command, convs []chat.Summary, totalUnread int) {
	out := cmd.OutOrStdout()
	if len(convs) == 0 {
		fmt.Fprintln(out, "No conversations found")
		return
	}

	width := columnWidth(out, conversationColumnsWidth)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPARTICIPANT\tKIND\tONLINE\tUNREAD\tLAST MESSAGE")
	for _, c := range convs {
		last := "-"
		if c.LastMessage != nil {
			last = truncate(c.LastMessage.Content, width)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.ParticipantName, c.ParticipantKind, yesNo(c.Online), c.UnreadCount, last)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d unread\n", totalUnread)
}

func newConversationNewCmd() *cobra.Command {
	var (
		configPath    string
		participantID string
		name          string
		avatar        string
		kind          string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a conversation",
		Long:  "Starts an empty conversation with a neighbour (--kind personal) or a local business (--kind business).",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != models.KindPersonal && kind != models.KindBusiness {
				return fmt.Errorf("invalid --kind %q (personal, business)", kind)
			}
			_, svc, err := openService(cmd, configPath)
			if err != nil {
				return err
			}
			defer svc.Close()

			sum, err := svc.StartConversation(cmd.Context(), chat.Participant{
				ID:     participantID,
				Name:   name,
				Avatar: avatar,
				Kind:   kind,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started conversation %s with %s\n", sum.ID, sum.ParticipantName)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&participantID, "participant-id", "", "counterpart user or business ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "counterpart display name (required)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "counterpart avatar URL")
	cmd.Flags().StringVar(&kind, "kind", models.KindPersonal, "counterpart kind (personal, business)")
	cmd.MarkFlagRequired("participant-id")
	cmd.MarkFlagRequired("name")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens s to at most n runes, on one line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
