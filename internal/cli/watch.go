package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damoang/angple-realtime/internal/channel"
	"github.com/damoang/angple-realtime/internal/notify"
	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay connected and print notifications as they arrive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		s.Toaster().OnShow(func(toast notify.Toast) {
			stamp := toast.CreatedAt.Format(time.Kitchen)
			if toast.Kind == notify.KindError {
				fmt.Fprintf(out, "%s  ! %s\n", stamp, toast.Body)
				return
			}
			fmt.Fprintf(out, "%s  %s: %s\n", stamp, toast.Title, toast.Body)
		})
		s.Channel().On(channel.EventDisconnect, func(*ws.Envelope) {
			fmt.Fprintln(out, "-- connection lost, reconnecting")
		})
		s.Channel().On(channel.EventReconnect, func(*ws.Envelope) {
			fmt.Fprintln(out, "-- reconnected")
		})
		s.Channel().On(ws.EventFriendsChanged, func(*ws.Envelope) {
			fmt.Fprintln(out, "-- friends changed")
		})

		fmt.Fprintf(out, "watching as %s, ctrl-c to quit\n", s.Me().Username)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-s.Channel().Done():
			return fmt.Errorf("event channel closed")
		}
		return nil
	},
}
