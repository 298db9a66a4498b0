package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// KeysCmd returns the key inspection subcommands.
func KeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Inspect derived version and validator keys",
	}

	cmd.AddCommand(showKeyCmd(), showValidatorCmd())
	return cmd
}

func showKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [version]",
		Short: "Show the public key and registry address of a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := getRunContext(cmd)
			if err != nil {
				return err
			}
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}

			n, err := openNode(cmd.Context(), rc.config, rc.home, rc.logger)
			if err != nil {
				return err
			}
			defer n.Close()

			addr, err := n.keeper.Deriver().Derive(cmd.Context(), uint32(version))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "- version: %d\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  address: %s\n", addr.String())
			fmt.Fprintf(cmd.OutOrStdout(), "  hex: %X\n", addr.Bytes())
			return nil
		},
	}
}

func showValidatorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validator",
		Short: "Show the key that signs certified headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := getRunContext(cmd)
			if err != nil {
				return err
			}
			n, err := openNode(cmd.Context(), rc.config, rc.home, rc.logger)
			if err != nil {
				return err
			}
			defer n.Close()

			for _, pk := range n.certifier.Validators() {
				fmt.Fprintf(cmd.OutOrStdout(), "- address: %X\n", pk.Address().Bytes())
				fmt.Fprintf(cmd.OutOrStdout(), "  pubkey: %X\n", pk.Bytes())
				fmt.Fprintf(cmd.OutOrStdout(), "  type: %s\n", pk.Type())
			}
			return nil
		},
	}
}
