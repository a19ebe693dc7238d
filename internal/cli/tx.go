package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewInstantiateCommand creates the instantiate command.
func NewInstantiateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "instantiate",
		Short: "Instantiate the registry with the signing key as owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(true)
			if err != nil {
				return err
			}
			result, err := c.Instantiate(cmd.Context())
			if err != nil {
				return requestError("instantiate", err)
			}
			return newFormatter(cmd, opts).Print(result,
				attributePairs([]string{"tx_id", result.TxID, "sender", result.Sender}, result.Attributes)...)
		},
	}
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <address> <score>",
		Short: "Set the score of an address (owner only)",
		Long: `Set the score of an address. Only the owner may update scores; the
score is a signed 32-bit integer.

Example:
  scoriactl update 0x70997970C51812dc3A010C7d01b50e0d17dc79C8 -- -5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid score %q", args[1]), err)
			}
			c, err := opts.client(true)
			if err != nil {
				return err
			}
			result, err := c.UpdateScore(cmd.Context(), args[0], int32(score))
			if err != nil {
				return requestError("update", err)
			}
			return newFormatter(cmd, opts).Print(result,
				attributePairs([]string{"tx_id", result.TxID, "sender", result.Sender}, result.Attributes)...)
		},
	}
}
