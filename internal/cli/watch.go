package cli

import (
	"context"
	"errors"
	"time"

	"scoria/internal/events"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Path           string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream applied transactions from the node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "path", "/events", "event stream path")
	cmd.Flags().DurationVar(&opts.ReconnectDelay, "reconnect", 2*time.Second, "delay between reconnect attempts")
	cmd.Flags().DurationVar(&opts.PingInterval, "ping", 15*time.Second, "keepalive ping interval")

	return cmd
}

func watch(cmd *cobra.Command, opts *WatchOptions) error {
	c, err := opts.client(false)
	if err != nil {
		return err
	}
	url, err := c.EventsURL(opts.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "events url", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := newFormatter(cmd, opts.RootOptions)
	sub := events.NewClient(url, opts.ReconnectDelay, opts.PingInterval, zap.NewNop())
	var printErr error
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	err = sub.Run(runCtx, func(ev events.Event) {
		if err := out.Print(ev, attributePairs([]string{"tx_id", ev.TxID, "sender", ev.Sender}, ev.Attributes)...); err != nil {
			printErr = err
			cancel()
		}
	})
	if printErr != nil {
		return printErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
