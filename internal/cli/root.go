package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/damoang/angple-realtime/internal/config"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	apiURL     string
	wsURL      string
	token      string
	verbose    bool
}

var (
	opts options
	cfg  *config.Config
	log  zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "angple-chat",
	Short: "Terminal client for angple realtime chat",
	Long: `angple-chat connects to the angple social backend: private messages,
live notifications, friend requests, likes and comments.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()

		level := zerolog.WarnLevel
		if opts.verbose {
			level = zerolog.DebugLevel
		}
		log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Logger()

		path := opts.configPath
		if path == "" {
			path = defaultConfigPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if opts.apiURL != "" {
			loaded.Client.APIURL = opts.apiURL
		}
		if opts.wsURL != "" {
			loaded.Client.WSURL = opts.wsURL
		}
		if opts.token != "" {
			loaded.Client.Token = opts.token
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file path (default is configs/config.$APP_ENV.yaml)")
	flags.StringVar(&opts.apiURL, "api", "", "REST base URL (overrides config)")
	flags.StringVar(&opts.wsURL, "ws", "", "websocket URL (overrides config)")
	flags.StringVar(&opts.token, "token", "", "session token (default $ANGPLE_TOKEN)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
}

func defaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

// openSession authenticates and connects with the resolved client settings
func openSession(ctx context.Context) (*session.Session, error) {
	if cfg.Client.Token == "" {
		return nil, fmt.Errorf("no session token: run `angple-chat login <username>` and set ANGPLE_TOKEN")
	}
	return session.Open(ctx, session.Config{
		APIURL:           cfg.Client.APIURL,
		WSURL:            cfg.Client.WSURL,
		Token:            cfg.Client.Token,
		RequestTimeout:   cfg.Client.RequestTimeout,
		PageSize:         cfg.Client.PageSize,
		ReconnectInitial: cfg.Client.ReconnectInitial,
		ReconnectMax:     cfg.Client.ReconnectMax,
		ToastLifetime:    cfg.Client.ToastLifetime,
		Logger:           log,
	})
}

// resolveUser maps a username onto a known counterpart; unknown names are
// passed through as usernames and ids are accepted as-is
func resolveUser(s *session.Session, name string) domain.User {
	if u, ok := s.Graph().Lookup(name); ok {
		return u
	}
	if u, ok := s.Graph().Friend(name); ok {
		return u
	}
	return domain.User{ID: name, Username: name}
}
