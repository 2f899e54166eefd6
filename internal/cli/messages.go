package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/damoang/angple-realtime/internal/chat"
	"github.com/spf13/cobra"
)

var historyPages int

func init() {
	historyCmd.Flags().IntVarP(&historyPages, "pages", "p", 0, "older pages to load after the latest one")
	rootCmd.AddCommand(historyCmd, sendCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [user]",
	Short: "Print a conversation, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		counterpart := resolveUser(s, args[0])
		conv, err := s.OpenConversation(cmd.Context(), counterpart.ID)
		if err != nil {
			return err
		}
		for i := 0; i < historyPages && conv.View().HasMore(); i++ {
			if err := conv.LoadOlder(cmd.Context()); err != nil {
				return err
			}
		}

		view := conv.View()
		printEntries(cmd.OutOrStdout(), view.Entries(), s.Me().ID, counterpart.Username)
		if view.HasMore() {
			fmt.Fprintln(cmd.OutOrStdout(), "-- older messages available (--pages)")
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [user] [message...]",
	Short: "Send a private message",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		counterpart := resolveUser(s, args[0])
		conv, err := s.OpenConversation(cmd.Context(), counterpart.ID)
		if err != nil {
			return err
		}
		entry, err := conv.Send(cmd.Context(), strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %s at %s\n", entry.Message.ID, entry.Message.Timestamp.Local().Format(time.Kitchen))
		return nil
	},
}

func printEntries(out io.Writer, entries []chat.Entry, selfID, counterpart string) {
	for _, e := range entries {
		who := counterpart
		if e.Message.SenderID == selfID {
			who = "me"
		}
		mark := ""
		switch e.State {
		case chat.StatePending:
			mark = " (sending)"
		case chat.StateFailed:
			mark = " (failed)"
		}
		fmt.Fprintf(out, "[%s] %s: %s%s\n", e.Message.Timestamp.Local().Format("01-02 15:04"), who, e.Message.Body, mark)
	}
}
