package cli

import (
	"scoria/internal/tx"

	"github.com/spf13/cobra"
)

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, key, err := tx.GenerateSigner()
			if err != nil {
				return WrapExitError(ExitCommandError, "generate key", err)
			}
			out := struct {
				Address    string `json:"address"`
				PrivateKey string `json:"private_key"`
			}{signer.Address().Hex(), key}
			return newFormatter(cmd, opts).Print(out, "address", out.Address, "key", out.PrivateKey)
		},
	}
}
