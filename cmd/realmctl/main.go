// Package main provides realmctl, a command line view of the session statistics.
package main

import (
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/realmstats/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Results are written to out as JSON.
func newRootCmd(out io.Writer) *cobra.Command {
	var (
		cfg     *config.Config
		pretty  bool
		debug   bool
		dataDir string
	)

	root := &cobra.Command{
		Use:           "realmctl",
		Short:         "Inspect game session statistics",
		Version:       Version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true})

			if dataDir != "" {
				if err := os.Setenv(config.EnvDataDir, dataDir); err != nil {
					return err
				}
			}
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().BoolVar(&pretty, "pretty", true, "Indent JSON output")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.realmstats)")

	emit := func(cmd *cobra.Command, v interface{}) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		if pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	}
	conf := func() *config.Config { return cfg }

	root.AddCommand(
		summaryCmd(conf, emit),
		playersCmd(conf, emit),
		hallOfFameCmd(conf, emit),
		characterCmd(conf, emit),
		reassignCmd(conf, emit),
	)
	return root
}
