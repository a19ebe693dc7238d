package cli

import (
	"errors"
	"strconv"

	"scoria/internal/client"

	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <address>",
		Short: "Print the score of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(false)
			if err != nil {
				return err
			}
			score, err := c.GetScore(cmd.Context(), args[0])
			if err != nil {
				return requestError("query", err)
			}
			out := struct {
				Address string `json:"address"`
				Score   int32  `json:"score"`
			}{args[0], score}
			return newFormatter(cmd, opts).Print(out, "address", args[0], "score", strconv.FormatInt(int64(score), 10))
		},
	}
}

// NewContractCommand creates the contract command.
func NewContractCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "contract",
		Short: "Print contract name, version and owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(false)
			if err != nil {
				return err
			}
			info, err := c.Contract(cmd.Context())
			if err != nil {
				return requestError("contract", err)
			}
			return newFormatter(cmd, opts).Print(info,
				"contract", info.Contract, "version", info.Version, "owner", info.Owner)
		},
	}
}

// requestError keeps node refusals at ExitFailure and reports transport
// problems as command errors.
func requestError(op string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return WrapExitError(ExitFailure, op, err)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return WrapExitError(ExitCommandError, op, err)
}
