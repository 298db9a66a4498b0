package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cosmos/cosmos-sdk/client/input"
	"github.com/cosmos/go-bip39"
	"github.com/spf13/cobra"

	"github.com/paw-chain/modelreg/x/registry/keyregistry"
)

const (
	flagChainID   = "chain-id"
	flagOverwrite = "overwrite"
	flagRecover   = "recover"
	flagKeyLimit  = "key-limit"
)

// InitCmd returns a command that writes the default configuration and the mnemonic
// seeding the version and validator keys.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and key material",
		Long: `Initialize the registry home directory: config/app.toml and the BIP39
mnemonic from which version keys and the header signing key are derived.

Example:
  registryd init --chain-id modelreg-1 --home ~/.modelreg
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := getRunContext(cmd)
			if err != nil {
				return err
			}

			overwrite, _ := cmd.Flags().GetBool(flagOverwrite)
			if !overwrite && fileExists(configPath(rc.home)) {
				return fmt.Errorf("config file already exists: %v", configPath(rc.home))
			}

			cfg := rc.config
			if chainID, _ := cmd.Flags().GetString(flagChainID); chainID != "" {
				cfg.ChainID = chainID
			}
			if cmd.Flags().Changed(flagKeyLimit) {
				cfg.Keys.Limit, _ = cmd.Flags().GetUint32(flagKeyLimit)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var mnemonic string
			if recoverKey, _ := cmd.Flags().GetBool(flagRecover); recoverKey {
				buf := bufio.NewReader(cmd.InOrStdin())
				mnemonic, err = input.GetString("Enter your bip39 mnemonic", buf)
				if err != nil {
					return fmt.Errorf("failed to read mnemonic: %w", err)
				}
				mnemonic = strings.Join(strings.Fields(mnemonic), " ")
				if !bip39.IsMnemonicValid(mnemonic) {
					return errors.New("invalid mnemonic: checksum failed")
				}
			} else {
				mnemonic, err = keyregistry.NewMnemonic()
				if err != nil {
					return err
				}
			}

			if err := os.MkdirAll(filepath.Join(rc.home, dataDir), 0o755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			if err := WriteConfig(rc.home, cfg); err != nil {
				return err
			}
			if err := os.WriteFile(mnemonicPath(rc.home), []byte(mnemonic+"\n"), 0o600); err != nil {
				return fmt.Errorf("failed to write mnemonic: %w", err)
			}

			rc.logger.Info("initialized registry home", "home", rc.home, "chain_id", cfg.ChainID, "key_limit", cfg.Keys.Limit)
			fmt.Fprintf(cmd.OutOrStdout(), "chain-id: %s\nconfig: %s\n", cfg.ChainID, configPath(rc.home))
			return nil
		},
	}

	cmd.Flags().String(flagChainID, "", "chain ID stamped into certified headers")
	cmd.Flags().Bool(flagOverwrite, false, "overwrite an existing configuration")
	cmd.Flags().Bool(flagRecover, false, "read the mnemonic from stdin instead of generating one")
	cmd.Flags().Uint32(flagKeyLimit, DefaultConfig().Keys.Limit, "number of versions with a derived key")

	return cmd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
