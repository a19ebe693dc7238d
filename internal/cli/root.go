// Package cli implements scoriactl, the command line client for a scoria
// node.
package cli

import (
	"fmt"
	"os"
	"time"

	"scoria/internal/client"
	"scoria/internal/config"
	"scoria/internal/tx"

	"github.com/spf13/cobra"
)

const (
	EnvURL        = "SCORIA_URL"
	EnvPrivateKey = "SCORIA_PRIVATE_KEY"
	defaultURL    = "http://localhost:8080"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	URL     string
	Format  string // "json" | "text"
	ChainID int64
	Timeout time.Duration
	EnvFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for scoriactl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scoriactl",
		Short: "Client for a scoria score registry node",
		Long: `Client for a scoria score registry node.

Transactions are signed with the key in SCORIA_PRIVATE_KEY. The node URL
comes from --url or SCORIA_URL. A .env file is loaded first when present.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.EnvFile != "" {
				if err := config.LoadEnv(opts.EnvFile); err != nil {
					return WrapExitError(ExitCommandError, "load env file", err)
				}
			}
			if !cmd.Flags().Changed("url") {
				if url := os.Getenv(EnvURL); url != "" {
					opts.URL = url
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.URL, "url", defaultURL, "node base URL (env "+EnvURL+")")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().Int64Var(&opts.ChainID, "chain-id", 1337, "chain id used in the signing domain")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "request timeout")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before running")

	cmd.AddCommand(NewInstantiateCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewContractCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewKeygenCommand(opts))

	return cmd
}

// client builds a node client. Signing commands pass requireKey so a
// missing key fails before any request is made.
func (o *RootOptions) client(requireKey bool) (*client.Client, error) {
	if !requireKey {
		return client.New(o.URL, o.Timeout, nil, o.ChainID), nil
	}
	key := os.Getenv(EnvPrivateKey)
	if key == "" {
		return nil, NewExitError(ExitCommandError, EnvPrivateKey+" is not set")
	}
	signer, err := tx.NewSigner(key)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid "+EnvPrivateKey, err)
	}
	return client.New(o.URL, o.Timeout, signer, o.ChainID), nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
