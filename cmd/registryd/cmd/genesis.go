package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/paw-chain/modelreg/x/registry/types"
)

const flagGenesisTime = "genesis-time"

// ImportGenesisCmd commits a genesis file as the next registry version.
func ImportGenesisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-genesis [file]",
		Short: "Commit a registry genesis file as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := getRunContext(cmd)
			if err != nil {
				return err
			}

			bz, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read genesis: %w", err)
			}
			var gs types.GenesisState
			if err := types.ModuleCdc.UnmarshalJSON(bz, &gs); err != nil {
				return fmt.Errorf("failed to decode genesis: %w", err)
			}

			blockTime := time.Now().UTC()
			if raw, _ := cmd.Flags().GetString(flagGenesisTime); raw != "" {
				if blockTime, err = time.Parse(time.RFC3339, raw); err != nil {
					return fmt.Errorf("invalid %s: %w", flagGenesisTime, err)
				}
			}

			n, err := openNode(cmd.Context(), rc.config, rc.home, rc.logger)
			if err != nil {
				return err
			}
			defer n.Close()

			height, err := n.keeper.InitGenesis(cmd.Context(), gs, blockTime)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "height: %d\napp_hash: %X\nmodels: %d\n",
				height, n.cms.LastCommitID().Hash, len(gs.Models))
			return nil
		},
	}

	cmd.Flags().String(flagGenesisTime, "", "RFC3339 time stamped into the commit (default now)")
	return cmd
}

// ExportGenesisCmd writes the registry at a height as a genesis file.
func ExportGenesisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-genesis",
		Short: "Export the registry at a height as genesis JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := getRunContext(cmd)
			if err != nil {
				return err
			}
			height, _ := cmd.Flags().GetInt64(flagHeight)

			n, err := openNode(cmd.Context(), rc.config, rc.home, rc.logger)
			if err != nil {
				return err
			}
			defer n.Close()

			snap, err := n.keeper.Snapshot(height)
			if err != nil {
				return err
			}
			gs, err := n.keeper.ExportGenesis(cmd.Context(), snap)
			if err != nil {
				return err
			}

			bz, err := types.ModuleCdc.MarshalJSONIndent(gs, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}

	cmd.Flags().Int64(flagHeight, 0, "height to export (0 for latest)")
	return cmd
}
