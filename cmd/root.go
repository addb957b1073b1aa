package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/assetcli/internal/config"
	"github.com/Mohsinsiddi/assetcli/internal/logging"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/assetcli/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir  string
	cfg     *config.Config
	logger  = zap.NewNop()
	verbose bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "assetcli",
	Short: "Terminal front-end for the physical asset tokenization contract",
	Long: `assetcli drives the asset tokenization contract deployed on Sepolia.

  Vendors mint and price tokens, traders buy and redeem them, and the
  warehouse activates, certifies and burns them. Run "assetcli dapp" for
  the interactive screen or use invoke/token/events from scripts.

The config directory defaults to ~/.assetcli and can be moved with
--config or $ASSETCLI_CONFIG_DIR.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		picker = nil
		logger, err = logging.New(logging.Options{
			Path:    cfg.LogPath(),
			Level:   cfg.LogLevel,
			Verbose: verbose,
		})
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		logger.Debug("command started", zap.String("command", cmd.CommandPath()), zap.Strings("args", args))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if msg := describeError(err); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $"+config.EnvDir+" or ~/.assetcli)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	// Register all sub-commands.
	rootCmd.AddCommand(
		dappCmd,
		actionsCmd,
		invokeCmd,
		tokenCmd,
		eventsCmd,
		networkCmd,
		walletCmd,
		configCmd,
	)
}
