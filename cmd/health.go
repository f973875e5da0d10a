package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Avinash9608/Furniture-sub003/pkg/pending"
	"github.com/Avinash9608/Furniture-sub003/pkg/store"
)

// NewHealthCommand creates the health command. It only reads the pending log,
// so it can run next to a serving process.
func NewHealthCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Connect to the store once and report its state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			opener, dialer, err := store.Open(store.Backend{
				Kind:     cfg.Store.Backend,
				DSN:      cfg.Store.DSN,
				DataDir:  cfg.Store.DataDir,
				MaxConns: cfg.Store.MaxConns,
			})
			if err != nil {
				return err
			}
			handle := store.NewHandle(opener, dialer, store.WithConnectTimeout(cfg.Store.ConnectTimeout))
			defer handle.Close()

			records, err := pending.ReadPending(cfg.PendingLogPath())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.ConnectTimeout)
			defer cancel()
			connectErr := handle.Connect(ctx)

			printStatus(cmd.OutOrStdout(), cfg.Store.Backend, handle.Status(), len(records))
			return connectErr
		},
	}
}

func printStatus(w io.Writer, backend string, st store.Status, pendingWrites int) {
	stateColor := color.New(color.FgRed, color.Bold)
	switch st.State {
	case store.Connected:
		stateColor = color.New(color.FgGreen, color.Bold)
	case store.Degraded, store.Connecting:
		stateColor = color.New(color.FgYellow, color.Bold)
	}

	fmt.Fprintf(w, "backend:    %s\n", backend)
	fmt.Fprint(w, "state:      ")
	stateColor.Fprintln(w, st.State)
	fmt.Fprintf(w, "generation: %d\n", st.Generation)
	if st.LastError != "" {
		fmt.Fprintf(w, "last error: %s (%s)\n", st.LastError, st.LastError.Describe())
	}
	fmt.Fprintf(w, "pending:    %d\n", pendingWrites)
}
