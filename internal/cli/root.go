package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/scopa-go/internal/factory"
)

var (
	cfg        *Config
	logger     *slog.Logger
	configPath string
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()
	configPath = ""

	rootCmd := &cobra.Command{
		Use:   "scopa",
		Short: "Terminal client for a Scopa server",
		Long: `scopa plays two-player Scopa against a remote Scopa server.

Start a match with "scopa play", share the game id it prints, and your
opponent joins with "scopa play <game-id>". Cards are played by typing
their hand index. When the match ends "scopa results" shows the score.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := LoadConfig(configPath, cmd)
			if err != nil {
				return err
			}
			cfg = loaded
			logger = NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default ~/.scopa/config.yaml)")
	flags.String("server", cfg.ServerURL, "Server URL (env: SCOPA_SERVER)")
	flags.String("storage", cfg.Storage, "Client storage: file, memory, redis (env: SCOPA_STORAGE)")
	flags.String("storage-path", cfg.StoragePath, "State file of the file storage (default ~/.scopa/state.json)")
	flags.String("redis-url", cfg.RedisURL, "Redis URL for the redis storage (env: SCOPA_REDIS_URL)")
	flags.String("profile", cfg.Profile, "Profile namespacing the redis keys (env: SCOPA_PROFILE)")
	flags.Duration("request-timeout", cfg.RequestTimeout, "Timeout of each server request")
	flags.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flags.String("log-format", cfg.LogFormat, "Log format: text, json")
	flags.StringP("output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newJoinCmd())
	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newIdentityCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// newApp wires the application for the loaded configuration
func newApp() (*factory.App, error) {
	fc := cfg.FactoryConfig()
	fc.Logger = logger
	return factory.New(fc)
}

func closeApp(app *factory.App) {
	if err := app.Close(); err != nil {
		logger.Warn("failed to close storage", slog.String("error", err.Error()))
	}
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
