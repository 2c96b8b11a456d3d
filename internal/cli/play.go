package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/unitplayer/internal/engine"
	"github.com/llehouerou/unitplayer/internal/errmsg"
	"github.com/llehouerou/unitplayer/internal/logger"
	"github.com/llehouerou/unitplayer/internal/mpris"
	"github.com/llehouerou/unitplayer/internal/notify"
	"github.com/llehouerou/unitplayer/internal/playback"
	"github.com/llehouerou/unitplayer/internal/state"
	"github.com/llehouerou/unitplayer/internal/stderr"
)

const (
	appName          = "unitplayer"
	progressInterval = time.Second
)

type playOptions struct {
	start    time.Duration
	volume   float64
	pan      float64
	noResume bool
	quiet    bool
	mpris    bool
	notify   bool
	capture  bool
}

func newPlayCommand(a *app) *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play an audio file",
		Long: `Play an audio file or file:// URL on the default output device.

The position and mix are saved when playback stops or is interrupted, and
restored the next time the same source is played.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			f := cmd.Flags()
			return a.play(ctx, cmd.OutOrStdout(), args[0], opts,
				f.Changed("start"), f.Changed("volume"), f.Changed("pan"))
		},
	}

	cmd.Flags().DurationVarP(&opts.start, "start", "s", 0, "start position (overrides the saved one)")
	cmd.Flags().Float64Var(&opts.volume, "volume", 1, "volume between 0 and 1")
	cmd.Flags().Float64Var(&opts.pan, "pan", 0, "pan between -1 (left) and 1 (right)")
	cmd.Flags().BoolVar(&opts.noResume, "no-resume", false, "ignore the saved position")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print progress")
	cmd.Flags().BoolVar(&opts.mpris, "mpris", false, "expose the player on D-Bus as an MPRIS media player")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "post desktop notifications")
	cmd.Flags().BoolVar(&opts.capture, "capture-stderr", true, "log audio backend messages instead of printing them raw")
	return cmd
}

func (a *app) play(ctx context.Context, w io.Writer, url string, opts playOptions, hasStart, hasVolume, hasPan bool) error {
	if opts.capture {
		// Lines arriving before the logger moves off fd 2 are dropped.
		var backend atomic.Pointer[slog.Logger]
		capture, err := stderr.Start(func(line string) {
			if l := backend.Load(); l != nil {
				l.Warn("audio backend", "message", line)
			}
		})
		if err != nil {
			a.log.Debug("stderr capture unavailable", "error", err)
		} else {
			a.logTo(capture.Original())
			backend.Store(logger.WithComponent("backend"))
			defer func() {
				capture.Close()
				a.logTo(os.Stderr)
			}()
		}
	}

	ctrl, err := a.newEngine(engine.NewSpeakerOutput(), 0)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	p, err := a.newPlayer(ctrl)
	if err != nil {
		return err
	}
	defer p.Close()

	m, err := a.openStore()
	if err != nil {
		return err
	}
	var store state.Interface
	if m != nil {
		defer m.Close()
		store = m
	}

	resume := *a.cfg.GetStateConfig().Resume && !opts.noResume
	svc := playback.New(p, store,
		playback.WithResume(resume),
		playback.WithLogger(logger.WithComponent("playback")))
	defer svc.Close()
	sub := svc.Subscribe()

	if opts.mpris {
		adapter, err := mpris.New(appName, svc)
		if err != nil {
			a.log.Warn("mpris unavailable", "error", err)
		} else {
			defer adapter.Close()
		}
	}
	if opts.notify {
		n, err := notify.New(appName)
		if err != nil {
			a.log.Warn("notifications unavailable", "error", err)
		} else {
			defer notify.Announce(n, svc, logger.WithComponent("notify")).Close()
		}
	}

	if err := svc.Load(url); err != nil {
		return err
	}
	if hasVolume {
		svc.SetVolume(opts.volume)
	}
	if hasPan {
		svc.SetPan(opts.pan)
	}
	if hasStart {
		if err := svc.SeekTo(opts.start); err != nil {
			return errmsg.Wrap(errmsg.OpPlaybackSeek, url, err)
		}
	}

	src := svc.Source()
	fmt.Fprintf(w, "%s\n%s, %s\n", url, src.Description, formatDuration(src.Duration))
	if src.Resumed > 0 && !hasStart {
		fmt.Fprintf(w, "Resuming at %s\n", formatDuration(src.Resumed))
	}

	if err := svc.Play(); err != nil {
		return err
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if !opts.quiet {
				fmt.Fprintln(w)
			}
			return nil
		case <-sub.Completed:
			if !opts.quiet {
				fmt.Fprintf(w, "\r%s / %s\n", formatDuration(src.Duration), formatDuration(src.Duration))
			}
			return nil
		case e := <-sub.Error:
			if !opts.quiet {
				fmt.Fprintln(w)
			}
			return errmsg.Wrap(e.Operation, e.URL, e.Err)
		case <-ticker.C:
			if !opts.quiet {
				fmt.Fprintf(w, "\r%s / %s", formatDuration(svc.Position()), formatDuration(src.Duration))
			}
		}
	}
}
