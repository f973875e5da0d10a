package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Avinash9608/Furniture-sub003/pkg/pending"
	"github.com/Avinash9608/Furniture-sub003/pkg/server"
)

// NewPendingCommand creates the pending command group.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect or replay writes queued while the store was unreachable",
	}
	cmd.AddCommand(newPendingListCommand(rootOpts))
	cmd.AddCommand(newPendingReplayCommand(rootOpts))
	return cmd
}

func newPendingListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			path := cfg.PendingLogPath()
			records, err := pending.ReadPending(path)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "pending log: %s\n", path)
			printPending(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

func printPending(w io.Writer, records []pending.Record) {
	if len(records) == 0 {
		color.New(color.FgGreen).Fprintln(w, "No pending writes")
		return
	}
	header := color.New(color.Bold)
	header.Fprintf(w, "%-6s %-8s %-16s %-38s %s\n", "LSN", "VERB", "COLLECTION", "DOCUMENT", "QUEUED")
	for _, rec := range records {
		if rec.Operation == nil {
			continue
		}
		fmt.Fprintf(w, "%-6d %-8s %-16s %-38s %s\n",
			rec.LSN, rec.Operation.Verb(), rec.Operation.Collection(), rec.Operation.ID(),
			rec.Timestamp.Local().Format(time.DateTime))
	}
	color.New(color.FgYellow).Fprintf(w, "%d pending writes\n", len(records))
}

func newPendingReplayCommand(rootOpts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply queued writes to the store now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			srv, err := server.New(cfg)
			if errors.Is(err, pending.ErrLocked) {
				return fmt.Errorf("%w; a server is running, use POST %s/pending/replay on it instead", err, cfg.APIPrefix)
			}
			if err != nil {
				return err
			}
			defer srv.Shutdown()

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			result, err := srv.ReplayPending(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "applied %d, rejected %d, remaining %d\n", result.Applied, result.Rejected, result.Remaining)
			if err != nil {
				color.New(color.FgRed).Fprintf(out, "replay stopped: %v\n", err)
				return err
			}
			color.New(color.FgGreen).Fprintln(out, "replay complete")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "give up after this long")
	return cmd
}
