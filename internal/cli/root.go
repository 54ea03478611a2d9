// Package cli implements the hianime command-line interface
package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alvarorichard/hianime/internal/util"
	"github.com/alvarorichard/hianime/internal/version"
	"github.com/alvarorichard/hianime/pkg/hianime"
)

// app carries what every command needs once flags are parsed
type app struct {
	cfg    hianime.Config
	client *hianime.Client
}

type rootOptions struct {
	debug   bool
	baseURL string
	timeout time.Duration
	workers int
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	root := &cobra.Command{
		Use:           "hianime",
		Short:         "Browse HiAnime and resolve its streams from the terminal",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := hianime.LoadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("debug") {
				cfg.Debug = opts.debug
			}
			if flags.Changed("base-url") {
				cfg.BaseURL = opts.baseURL
			}
			if flags.Changed("timeout") {
				cfg.Timeout = opts.timeout
			}
			if flags.Changed("workers") {
				cfg.SegmentWorkers = opts.workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			util.SetDebugMode(cfg.Debug)
			util.InitLoggerTo(cmd.ErrOrStderr())

			a.cfg = cfg
			a.client = hianime.NewClientWithConfig(cfg)
			return nil
		},
	}
	root.SetVersionTemplate(version.String() + "\n")

	pf := root.PersistentFlags()
	pf.BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	pf.StringVar(&opts.baseURL, "base-url", "", "Override the site origin")
	pf.DurationVar(&opts.timeout, "timeout", 0, "HTTP timeout")
	pf.IntVar(&opts.workers, "workers", 0, "Concurrent segment downloads")

	root.AddCommand(
		newHomeCmd(a),
		newSearchCmd(a),
		newLoadCmd(a),
		newLinksCmd(a),
		newDownloadCmd(a),
		newPickCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and exits on error
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		if util.Logger == nil {
			util.InitLogger()
		}
		util.Error("hianime failed", "error", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			version.ShowVersion(cmd.OutOrStdout())
		},
	}
}
