// Package testutil provides audio fixtures for tests.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// Generator returns the stereo frame at index i.
type Generator func(i int) [2]float64

// Constant generates the same value on both channels.
func Constant(v float64) Generator {
	return func(int) [2]float64 { return [2]float64{v, v} }
}

// Ramp generates a sawtooth that repeats every period frames, so a frame
// index can be recovered from its value.
func Ramp(period int) Generator {
	return func(i int) [2]float64 {
		v := float64(i%period) / float64(period)
		return [2]float64{v, -v}
	}
}

// Sine generates a tone at freq Hz and the given amplitude.
func Sine(rate beep.SampleRate, freq, amp float64) Generator {
	return func(i int) [2]float64 {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
		return [2]float64{v, v}
	}
}

// Streamer returns a finite streamer of frames produced by gen.
func Streamer(frames int, gen Generator) beep.Streamer {
	i := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if i >= frames {
			return 0, false
		}
		n := min(len(samples), frames-i)
		for j := range n {
			samples[j] = gen(i + j)
		}
		i += n
		return n, true
	})
}

// WriteWAV encodes frames of gen as 16-bit stereo WAV into a file named
// name under the test's temp dir and returns its path.
func WriteWAV(tb testing.TB, name string, rate beep.SampleRate, frames int, gen Generator) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := EncodeWAV(path, rate, frames, gen); err != nil {
		tb.Fatalf("write wav: %v", err)
	}
	return path
}

// EncodeWAV encodes frames of gen as 16-bit stereo WAV at path.
func EncodeWAV(path string, rate beep.SampleRate, frames int, gen Generator) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, Streamer(frames, gen), format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
