package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paw-chain/modelreg/x/registry/keeper"
	"github.com/paw-chain/modelreg/x/registry/types"
)

// QueryCmd returns the local query subcommands. They read the store directly and
// print the same responses the API serves.
func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Query the local registry store",
	}

	cmd.AddCommand(
		queryCmd("model-info", "Verifiable envelope for a model version", true,
			func(c *cobra.Command, qs types.QueryServer, version uint32, height int64) (interface{}, error) {
				return qs.ModelInfo(c.Context(), &types.QueryModelInfoRequest{Version: version, Height: height})
			}),
		queryCmd("model", "Raw model for a version", true,
			func(c *cobra.Command, qs types.QueryServer, version uint32, height int64) (interface{}, error) {
				return qs.Model(c.Context(), &types.QueryModelRequest{Version: version, Height: height})
			}),
		queryCmd("latest", "Latest model version, -1 when empty", false,
			func(c *cobra.Command, qs types.QueryServer, _ uint32, height int64) (interface{}, error) {
				return qs.LatestModel(c.Context(), &types.QueryLatestModelRequest{Height: height})
			}),
		queryCmd("scores", "Trainer score ledger", false,
			func(c *cobra.Command, qs types.QueryServer, _ uint32, height int64) (interface{}, error) {
				return qs.TrainerScores(c.Context(), &types.QueryTrainerScoresRequest{Height: height})
			}),
	)

	return cmd
}

type queryFunc func(cmd *cobra.Command, qs types.QueryServer, version uint32, height int64) (interface{}, error)

func queryCmd(use, short string, versioned bool, run queryFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := getRunContext(cmd)
			if err != nil {
				return err
			}
			height, _ := cmd.Flags().GetInt64(flagHeight)
			var version uint32
			if versioned {
				version, _ = cmd.Flags().GetUint32(flagVersion)
			}

			n, err := openNode(cmd.Context(), rc.config, rc.home, rc.logger)
			if err != nil {
				return err
			}
			defer n.Close()

			resp, err := run(cmd, keeper.NewQueryServerImpl(n.keeper), version, height)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().Int64(flagHeight, 0, "committed height to read (0 for latest)")
	if versioned {
		cmd.Flags().Uint32(flagVersion, 0, "model version")
		_ = cmd.MarkFlagRequired(flagVersion)
	}
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	bz, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(bz))
	return nil
}
