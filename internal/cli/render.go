package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/spf13/cobra"

	"github.com/llehouerou/unitplayer/internal/engine"
	"github.com/llehouerou/unitplayer/internal/errmsg"
)

type renderOptions struct {
	start    time.Duration
	duration time.Duration
	rate     int
	volume   float64
	pan      float64
}

func newRenderCommand(a *app) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <file> <out.wav>",
		Short: "Render a source through the engine into a WAV file",
		Long: `Render plays a source through a file player endpoint on an offline
engine and writes the mix as 16-bit stereo WAV. Volume, pan and resampling
apply exactly as they do during playback.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			return a.render(cmd.OutOrStdout(), args[0], args[1], opts, f.Changed("volume"), f.Changed("pan"))
		},
	}

	cmd.Flags().DurationVarP(&opts.start, "start", "s", 0, "start position")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "length to render (default: to the end)")
	cmd.Flags().IntVar(&opts.rate, "rate", 0, "output sample rate (default: engine sample_rate)")
	cmd.Flags().Float64Var(&opts.volume, "volume", 1, "volume between 0 and 1")
	cmd.Flags().Float64Var(&opts.pan, "pan", 0, "pan between -1 (left) and 1 (right)")
	return cmd
}

func (a *app) render(w io.Writer, url, outPath string, opts renderOptions, hasVolume, hasPan bool) error {
	out := engine.NewOfflineOutput()
	ctrl, err := a.newEngine(out, opts.rate)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	p, err := a.newPlayer(ctrl)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.SetURL(url); err != nil {
		return errmsg.Wrap(errmsg.OpSourceLoad, url, err)
	}
	if hasVolume {
		p.SetVolume(opts.volume)
	}
	if hasPan {
		p.SetPan(opts.pan)
	}
	p.SetCurrentTime(opts.start)

	length := opts.duration
	if length <= 0 {
		length = p.Duration() - p.CurrentTime()
	}
	if err := p.SetPlaying(true); err != nil {
		return errmsg.Wrap(errmsg.OpPlaybackStart, url, err)
	}

	format := beep.Format{SampleRate: ctrl.SampleRate(), NumChannels: 2, Precision: 2}
	f, err := os.Create(outPath)
	if err != nil {
		return errmsg.Wrap(errmsg.OpRender, outPath, err)
	}
	if err := wav.Encode(f, beep.Take(format.SampleRate.N(length), out.Streamer()), format); err != nil {
		f.Close()
		return errmsg.Wrap(errmsg.OpRender, outPath, err)
	}
	if err := f.Close(); err != nil {
		return errmsg.Wrap(errmsg.OpRender, outPath, err)
	}

	a.log.Info("rendered",
		"source", url,
		"output", outPath,
		"duration", out.Rendered(),
		"rate", int(format.SampleRate))

	if fi, err := os.Stat(outPath); err == nil {
		fmt.Fprintf(w, "Rendered %s (%s) to %s\n",
			formatDuration(out.Rendered()), humanize.Bytes(uint64(fi.Size())), outPath) //nolint:gosec // file sizes are non-negative
	}
	return nil
}
