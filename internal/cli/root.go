// Package cli implements the unitplayer command line.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/llehouerou/unitplayer/internal/config"
	"github.com/llehouerou/unitplayer/internal/errmsg"
	"github.com/llehouerou/unitplayer/internal/logger"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string
	verbose   bool

	cfg    *config.Config
	logCfg config.LogConfig
	log    *slog.Logger
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the unitplayer command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "unitplayer",
		Short: "Stream audio files through a mixing engine",
		Long: `unitplayer plays audio files through a file player endpoint bound to a
mixing engine. Sources are decoded ahead of playback on a loader goroutine
and resampled to the engine rate; positions are remembered between runs.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (merged over the default locations)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newPlayCommand(a),
		newInfoCommand(a),
		newRenderCommand(a),
		newResumeCommand(a),
		newConfigCommand(a),
	)
	return root
}

// setup loads the configuration and installs the default logger. Flags
// override the [log] section.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return errmsg.Wrap(errmsg.OpConfigLoad, a.cfgFile, err)
	}
	a.cfg = cfg

	lc := cfg.GetLogConfig()
	if a.logLevel != "" {
		lc.Level = a.logLevel
	}
	if a.logFormat != "" {
		lc.Format = a.logFormat
	}
	if a.verbose {
		lc.Level = "debug"
	}
	a.logCfg = lc
	a.logTo(cmd.ErrOrStderr())
	return nil
}

// logTo points the default logger at w.
func (a *app) logTo(w io.Writer) {
	a.log = logger.New(w, a.logCfg.Level, a.logCfg.Format)
	slog.SetDefault(a.log)
}
