package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/paw-chain/modelreg/x/registry/types"
)

const flagTrustedHash = "trusted-hash"

// VerifyCmd checks a model info envelope, as served by the API, end to end.
func VerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [envelope.json|-]",
		Short: "Verify a model info envelope against a trusted header",
		Long: `Verify checks the header, its signatures, the inclusion or exclusion proof
of the model and the proof of its history. Without --trusted-hash the header the
local store certifies at the envelope height is trusted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := getRunContext(cmd)
			if err != nil {
				return err
			}
			version, _ := cmd.Flags().GetUint32(flagVersion)

			var bz []byte
			if args[0] == "-" {
				bz, err = io.ReadAll(cmd.InOrStdin())
			} else {
				bz, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read envelope: %w", err)
			}
			var info types.ModelInfo
			if err := json.Unmarshal(bz, &info); err != nil {
				return fmt.Errorf("failed to decode envelope: %w", err)
			}

			n, err := openNode(cmd.Context(), rc.config, rc.home, rc.logger)
			if err != nil {
				return err
			}
			defer n.Close()

			var trusted []byte
			if raw, _ := cmd.Flags().GetString(flagTrustedHash); raw != "" {
				if trusted, err = hex.DecodeString(raw); err != nil {
					return fmt.Errorf("invalid %s: %w", flagTrustedHash, err)
				}
			} else {
				header, err := n.certifier.Header(info.BlockProof.Header.Height)
				if err != nil {
					return err
				}
				trusted = header.Hash()
			}

			addr, err := n.keeper.Deriver().Derive(cmd.Context(), version)
			if err != nil {
				return err
			}

			model, err := types.VerifyModelInfo(&info, trusted, n.certifier.Validators(), addr)
			if err != nil {
				return err
			}
			if model == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "verified: no model for version %d at height %d\n", version, info.BlockProof.Header.Height)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "verified: version %d at height %d\n", model.Version, info.BlockProof.Header.Height)
			return printJSON(cmd, model)
		},
	}

	cmd.Flags().Uint32(flagVersion, 0, "model version the envelope answers")
	cmd.Flags().String(flagTrustedHash, "", "hex hash of the trusted header")
	_ = cmd.MarkFlagRequired(flagVersion)
	return cmd
}
