package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Avinash9608/Furniture-sub003/pkg/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Backend    string
	DataDir    string
	PolicyFile string
}

// load reads the config file and environment, then applies flags that were set.
func (o *RootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return config.Config{}, err
	}
	if o.Backend != "" {
		cfg.Store.Backend = o.Backend
	}
	if o.DataDir != "" {
		cfg.Store.DataDir = o.DataDir
	}
	if o.PolicyFile != "" {
		cfg.PolicyFile = o.PolicyFile
	}
	return cfg, cfg.Validate()
}

// NewRootCommand creates the root command for the furniture store service.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "furniture",
		Short: "Furniture store data service",
		Long: `Furniture store data service.

Serves the catalogue, order, payment and contact collections over HTTP and
keeps answering reads from cached or built-in data while the database is
unreachable. Writes that cannot reach the database are queued in a pending
log and replayed once it is back.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "store backend (postgres|sqlite|memory)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "directory for sqlite data, cache snapshot and pending log")
	cmd.PersistentFlags().StringVar(&opts.PolicyFile, "policy", "", "path to fallback policy YAML")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewPendingCommand(opts))
	cmd.AddCommand(NewHealthCommand(opts))

	return cmd
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
