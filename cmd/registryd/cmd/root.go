package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cobra"
)

const (
	flagHome      = "home"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagHeight    = "height"
	flagVersion   = "version"

	Bech32PrefixAccAddr = "modelreg"
	Bech32PrefixAccPub  = "modelregpub"
)

// DefaultNodeHome is the default daemon home directory.
var DefaultNodeHome = os.ExpandEnv("$HOME/.modelreg")

type runContextKey struct{}

// runContext is what PersistentPreRunE resolves for every command.
type runContext struct {
	home   string
	config *Config
	logger log.Logger
}

func getRunContext(cmd *cobra.Command) (*runContext, error) {
	rc, ok := cmd.Context().Value(runContextKey{}).(*runContext)
	if !ok {
		return nil, errors.New("command context not initialized")
	}
	return rc, nil
}

// NewRootCmd creates a new root command for registryd. It is called once in the
// main function.
func NewRootCmd() *cobra.Command {
	initSDKConfig()

	rootCmd := &cobra.Command{
		Use:   "registryd",
		Short: "Verifiable model registry daemon",
		Long: `registryd serves a read-only, verifiable registry of versioned models.
Every answer is read from one committed snapshot and carries the proofs a client
needs to check it against a trusted header.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			home, _ := cmd.Flags().GetString(flagHome)
			if abs, err := filepath.Abs(home); err == nil {
				home = abs
			}

			cfg, err := LoadConfig(home)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(flagLogLevel) {
				cfg.Log.Level, _ = cmd.Flags().GetString(flagLogLevel)
			}
			if cmd.Flags().Changed(flagLogFormat) {
				cfg.Log.Format, _ = cmd.Flags().GetString(flagLogFormat)
			}

			logger, err := NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, runContextKey{}, &runContext{
				home:   home,
				config: cfg,
				logger: logger,
			}))
			return nil
		},
	}

	rootCmd.PersistentFlags().String(flagHome, DefaultNodeHome, "directory for config and data")
	rootCmd.PersistentFlags().String(flagLogLevel, "info", "log level (trace|debug|info|warn|error|fatal|panic|disabled)")
	rootCmd.PersistentFlags().String(flagLogFormat, LogFormatPlain, "log format (plain|json)")

	rootCmd.AddCommand(
		InitCmd(),
		ImportGenesisCmd(),
		ExportGenesisCmd(),
		StartCmd(),
		QueryCmd(),
		VerifyCmd(),
		KeysCmd(),
	)

	return rootCmd
}

var sdkConfigOnce sync.Once

func initSDKConfig() {
	sdkConfigOnce.Do(func() {
		sdk.GetConfig().SetBech32PrefixForAccount(Bech32PrefixAccAddr, Bech32PrefixAccPub)
	})
}
