// Command tonegen writes sine-tone WAV files for manual playback and render
// checks.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/unitplayer/internal/logger"
	"github.com/llehouerou/unitplayer/internal/testutil"
)

func main() {
	out := flag.String("o", "tone.wav", "output file")
	rate := flag.Int("rate", 44100, "sample rate in Hz")
	freq := flag.Float64("freq", 440, "tone frequency in Hz")
	amp := flag.Float64("amp", 0.5, "amplitude between 0 and 1")
	length := flag.Duration("d", 5*time.Second, "length")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logger.Setup(*level, "text")

	sr := beep.SampleRate(*rate)
	frames := sr.N(*length)

	log.Info("writing tone", "file", *out, "freq", *freq, "rate", *rate, "length", *length, "frames", frames)
	if err := testutil.EncodeWAV(*out, sr, frames, testutil.Sine(sr, *freq, *amp)); err != nil {
		log.Error("write failed", "file", *out, "error", err)
		os.Exit(1)
	}
	log.Info("done", "file", *out)
}
