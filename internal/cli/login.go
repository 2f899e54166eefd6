package cli

import (
	"fmt"

	"github.com/damoang/angple-realtime/internal/api"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Get a session token from the dev server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := api.New(api.Options{
			BaseURL: cfg.Client.APIURL,
			Timeout: cfg.Client.RequestTimeout,
			Logger:  log,
		})
		resp, err := client.Login(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# logged in as %s (%s)\n", resp.User.Username, resp.User.ID)
		fmt.Fprintf(out, "export ANGPLE_TOKEN=%s\n", resp.Token)
		return nil
	},
}
