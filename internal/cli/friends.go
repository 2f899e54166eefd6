package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/damoang/angple-realtime/internal/session"
	"github.com/damoang/angple-realtime/internal/social"
	"github.com/spf13/cobra"
)

var assumeYes bool

func init() {
	removeFriendCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	friendsCmd.AddCommand(addFriendCmd, cancelFriendCmd, acceptFriendCmd, removeFriendCmd)
	rootCmd.AddCommand(friendsCmd)
}

var friendsCmd = &cobra.Command{
	Use:   "friends",
	Short: "List friends and pending requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		g := s.Graph()
		fmt.Fprintln(out, "friends:")
		for _, f := range g.Friends() {
			fmt.Fprintf(out, "  %s\n", f.Username)
		}
		fmt.Fprintln(out, "requests sent:")
		for _, r := range g.Sent() {
			fmt.Fprintf(out, "  %s (%s)\n", r.FriendUsername, r.Status)
		}
		fmt.Fprintln(out, "requests received:")
		for _, p := range g.Pending() {
			fmt.Fprintf(out, "  %s\n", p.Username)
		}
		return nil
	},
}

// transition runs one friend graph operation against the named user and prints the new status
func transition(run func(ctx context.Context, s *session.Session, g *social.Graph, name string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := run(cmd.Context(), s, s.Graph(), args[0]); err != nil {
			return err
		}
		u := resolveUser(s, args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], s.Graph().Status(u.ID))
		return nil
	}
}

var addFriendCmd = &cobra.Command{
	Use:   "add [username]",
	Short: "Send a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: transition(func(ctx context.Context, s *session.Session, g *social.Graph, name string) error {
		return g.SendRequest(ctx, resolveUser(s, name))
	}),
}

var cancelFriendCmd = &cobra.Command{
	Use:   "cancel [username]",
	Short: "Withdraw a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: transition(func(ctx context.Context, s *session.Session, g *social.Graph, name string) error {
		return g.CancelRequest(ctx, resolveUser(s, name))
	}),
}

var acceptFriendCmd = &cobra.Command{
	Use:   "accept [username]",
	Short: "Accept a friend request",
	Args:  cobra.ExactArgs(1),
	RunE: transition(func(ctx context.Context, s *session.Session, g *social.Graph, name string) error {
		return g.AcceptRequest(ctx, resolveUser(s, name))
	}),
}

var removeFriendCmd = &cobra.Command{
	Use:   "remove [username]",
	Short: "Remove a friend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm := promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
		return transition(func(ctx context.Context, s *session.Session, g *social.Graph, name string) error {
			return g.RemoveFriend(ctx, resolveUser(s, name), confirm)
		})(cmd, args)
	},
}

// promptConfirmer asks on the terminal unless --yes was given
func promptConfirmer(in io.Reader, out io.Writer) social.Confirmer {
	return social.ConfirmFunc(func(_ context.Context, prompt string) bool {
		if assumeYes {
			return true
		}
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	})
}
