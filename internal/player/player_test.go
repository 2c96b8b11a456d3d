package player

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/unitplayer/internal/decode"
	"github.com/llehouerou/unitplayer/internal/engine"
	"github.com/llehouerou/unitplayer/internal/logger"
	"github.com/llehouerou/unitplayer/internal/testutil"
)

const (
	testRate  beep.SampleRate = 8000
	tolerance                 = 1e-3
	waitLimit                 = 2 * time.Second
)

func newTestEngine(t *testing.T, cfg engine.Config) (*engine.Controller, *engine.OfflineOutput) {
	t.Helper()
	if cfg.SampleRate == 0 {
		cfg.SampleRate = testRate
	}
	out := engine.NewOfflineOutput()
	ctrl, err := engine.New(cfg, out, engine.WithLogger(logger.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })
	return ctrl, out
}

func newTestPlayer(t *testing.T, ctrl *engine.Controller) *FilePlayer {
	t.Helper()
	p, err := New(ctrl,
		WithLogger(logger.Discard()),
		WithReadAhead(100*time.Millisecond),
		WithBlockFrames(256),
		WithRefillInterval(time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// setup returns an offline endpoint bound to a generated WAV source.
func setup(t *testing.T, frames int, gen testutil.Generator) (*FilePlayer, *engine.OfflineOutput) {
	t.Helper()
	ctrl, out := newTestEngine(t, engine.Config{})
	p := newTestPlayer(t, ctrl)
	path := testutil.WriteWAV(t, "source.wav", testRate, frames, gen)
	require.NoError(t, p.SetURL(path))
	return p, out
}

func render(out *engine.OfflineOutput, frames int) [][2]float64 {
	buf := make([][2]float64, frames)
	out.Render(buf)
	return buf
}

func renderChunks(out *engine.OfflineOutput, total, chunk int) {
	buf := make([][2]float64, chunk)
	for total > 0 {
		n := min(chunk, total)
		out.Render(buf[:n])
		total -= n
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitLimit):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestNew_NilController(t *testing.T) {
	p, err := New(nil)

	assert.Nil(t, p)
	require.ErrorIs(t, err, ErrNilController)
}

func TestNew_ClosedController(t *testing.T) {
	ctrl, _ := newTestEngine(t, engine.Config{})
	require.NoError(t, ctrl.Close())

	p, err := New(ctrl)

	assert.Nil(t, p)
	require.ErrorIs(t, err, engine.ErrClosed)
}

func TestNew_ChannelLimit(t *testing.T) {
	ctrl, _ := newTestEngine(t, engine.Config{MaxChannels: 1})
	first := newTestPlayer(t, ctrl)
	require.NotNil(t, first)

	p, err := New(ctrl)

	assert.Nil(t, p)
	require.ErrorIs(t, err, engine.ErrTooManyChannels)

	require.NoError(t, first.Close())
	again, err := New(ctrl)
	require.NoError(t, err, "closing an endpoint frees its channel")
	require.NoError(t, again.Close())
}

func TestNew_Defaults(t *testing.T) {
	ctrl, _ := newTestEngine(t, engine.Config{})
	p := newTestPlayer(t, ctrl)

	assert.Empty(t, p.URL())
	assert.False(t, p.Playing())
	assert.Zero(t, p.CurrentTime())
	assert.Zero(t, p.Duration())
	assert.True(t, p.AudioDescription().IsZero())
	assert.InDelta(t, 1.0, p.Volume(), 0)
	assert.InDelta(t, 0.0, p.Pan(), 0)
	assert.Equal(t, Stopped, p.State())
	assert.Equal(t, 1, ctrl.Channels())
}

func TestSetURL_Binds(t *testing.T) {
	p, _ := setup(t, 4000, testutil.Constant(0.5))

	assert.Equal(t, 500*time.Millisecond, p.Duration())
	assert.Equal(t, decode.Description{
		Format:        decode.FormatWAV,
		SampleRate:    8000,
		Channels:      2,
		BitsPerSample: 16,
		Frames:        4000,
	}, p.AudioDescription())
	assert.False(t, p.Playing())
	assert.Zero(t, p.CurrentTime())
	assert.Equal(t, Stopped, p.State())
}

func TestSetURL_FileURL(t *testing.T) {
	ctrl, _ := newTestEngine(t, engine.Config{})
	p := newTestPlayer(t, ctrl)
	path := testutil.WriteWAV(t, "tone.wav", testRate, 800, testutil.Constant(0.1))

	require.NoError(t, p.SetURL("file://"+path))

	assert.Equal(t, "file://"+path, p.URL())
	assert.Equal(t, 100*time.Millisecond, p.Duration())
}

func TestSetURL_Failures(t *testing.T) {
	ctrl, _ := newTestEngine(t, engine.Config{})
	p := newTestPlayer(t, ctrl)

	err := p.SetURL("/does/not/exist.wav")
	require.Error(t, err)
	assert.Empty(t, p.URL())
	assert.Zero(t, p.Duration())

	err = p.SetURL("https://example.com/a.mp3")
	require.ErrorIs(t, err, ErrUnsupportedURL)

	require.ErrorIs(t, p.SetPlaying(true), ErrNoSource)
}

func TestSetURL_FailureUnbindsPrevious(t *testing.T) {
	p, _ := setup(t, 4000, testutil.Constant(0.5))

	require.Error(t, p.SetURL("/does/not/exist.wav"))

	assert.Empty(t, p.URL())
	assert.Zero(t, p.Duration())
	assert.True(t, p.AudioDescription().IsZero())
}

func TestSetURL_EmptyUnbinds(t *testing.T) {
	p, out := setup(t, 4000, testutil.Constant(0.5))
	require.NoError(t, p.SetPlaying(true))
	render(out, 100)

	require.NoError(t, p.SetURL(""))

	assert.False(t, p.Playing())
	assert.Empty(t, p.URL())
	assert.Zero(t, p.CurrentTime())
	for _, s := range render(out, 100) {
		assert.Equal(t, [2]float64{}, s)
	}
}

func TestSetPlaying_NoSource(t *testing.T) {
	ctrl, _ := newTestEngine(t, engine.Config{})
	p := newTestPlayer(t, ctrl)

	require.ErrorIs(t, p.SetPlaying(true), ErrNoSource)
	require.NoError(t, p.SetPlaying(false))
	assert.False(t, p.Playing())
}

func TestRender_StoppedIsSilent(t *testing.T) {
	p, out := setup(t, 4000, testutil.Constant(0.5))

	buf := render(out, 400)

	for _, s := range buf {
		assert.Equal(t, [2]float64{}, s)
	}
	assert.Zero(t, p.CurrentTime())
}

func TestRender_Plays(t *testing.T) {
	p, out := setup(t, 4000, testutil.Constant(0.5))
	require.NoError(t, p.SetPlaying(true))

	buf := render(out, 800)

	for i, s := range buf {
		require.InDelta(t, 0.5, s[0], tolerance, "frame %d left", i)
		require.InDelta(t, 0.5, s[1], tolerance, "frame %d right", i)
	}
	assert.Equal(t, 100*time.Millisecond, p.CurrentTime())
	assert.Equal(t, Playing, p.State())
}

func TestCompletion_FiresOnce(t *testing.T) {
	p, out := setup(t, 4000, testutil.Constant(0.5))

	var calls atomic.Int32
	var playingInCallback atomic.Bool
	done := make(chan struct{}, 4)
	p.OnCompletion(func() {
		calls.Add(1)
		playingInCallback.Store(p.Playing())
		done <- struct{}{}
	})
	require.NoError(t, p.SetPlaying(true))

	renderChunks(out, 6000, 500)
	waitSignal(t, done, "completion")

	assert.False(t, p.Playing())
	assert.False(t, playingInCallback.Load(), "playing is false when the callback runs")
	assert.Zero(t, p.CurrentTime(), "position rewinds after completion")
	assert.Equal(t, Stopped, p.State())

	renderChunks(out, 4000, 500)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompletion_TailIsSilent(t *testing.T) {
	p, out := setup(t, 300, testutil.Constant(0.5))
	require.NoError(t, p.SetPlaying(true))

	buf := render(out, 500)

	assert.InDelta(t, 0.5, buf[299][0], tolerance)
	for i := 300; i < 500; i++ {
		require.Equal(t, [2]float64{}, buf[i], "frame %d", i)
	}
}

func TestCompletion_PlayAgainRestarts(t *testing.T) {
	p, out := setup(t, 1000, testutil.Ramp(1000))
	done := make(chan struct{}, 4)
	p.OnCompletion(func() { done <- struct{}{} })
	require.NoError(t, p.SetPlaying(true))

	renderChunks(out, 1200, 400)
	waitSignal(t, done, "completion")
	require.NoError(t, p.SetPlaying(true))

	buf := render(out, 1)
	assert.InDelta(t, 0.0, buf[0][0], tolerance, "restarts from the beginning")
}

func TestStop_NoCompletion(t *testing.T) {
	p, out := setup(t, 4000, testutil.Constant(0.5))
	done := make(chan struct{}, 1)
	p.OnCompletion(func() { done <- struct{}{} })
	require.NoError(t, p.SetPlaying(true))
	render(out, 1000)

	require.NoError(t, p.SetPlaying(false))
	renderChunks(out, 8000, 1000)

	select {
	case <-done:
		t.Fatal("completion fired after a manual stop")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 125*time.Millisecond, p.CurrentTime(), "stop keeps the position")
	assert.Equal(t, Paused, p.State())
}

func TestStop_ResumeContinues(t *testing.T) {
	p, out := setup(t, 8000, testutil.Ramp(8000))
	require.NoError(t, p.SetPlaying(true))
	render(out, 1000)
	require.NoError(t, p.SetPlaying(false))
	render(out, 500)

	require.NoError(t, p.SetPlaying(true))
	buf := render(out, 1)

	assert.InDelta(t, 0.125, buf[0][0], tolerance)
}

func TestSeek_ReflectedImmediately(t *testing.T) {
	p, _ := setup(t, 8000, testutil.Ramp(8000))

	p.SetCurrentTime(500 * time.Millisecond)

	assert.Equal(t, 500*time.Millisecond, p.CurrentTime())
	assert.Equal(t, Paused, p.State())
}

func TestSeek_PlaysFromTarget(t *testing.T) {
	p, out := setup(t, 8000, testutil.Ramp(8000))
	require.NoError(t, p.SetPlaying(true))
	render(out, 200)

	p.SetCurrentTime(500 * time.Millisecond)
	buf := render(out, 8)

	assert.InDelta(t, 0.5, buf[0][0], tolerance)
	assert.Equal(t, 501*time.Millisecond, p.CurrentTime())
}

func TestSeek_LatestWins(t *testing.T) {
	p, out := setup(t, 8000, testutil.Ramp(8000))
	require.NoError(t, p.SetPlaying(true))

	for _, ms := range []int{100, 200, 300, 750} {
		p.SetCurrentTime(time.Duration(ms) * time.Millisecond)
	}
	buf := render(out, 1)

	assert.InDelta(t, 0.75, buf[0][0], tolerance)
}

func TestSeek_Clamped(t *testing.T) {
	p, _ := setup(t, 4000, testutil.Constant(0.5))

	p.SetCurrentTime(-time.Second)
	assert.Zero(t, p.CurrentTime())

	p.SetCurrentTime(10 * time.Second)
	assert.Equal(t, p.Duration(), p.CurrentTime())
}

func TestSeek_ToEndCompletes(t *testing.T) {
	p, out := setup(t, 4000, testutil.Constant(0.5))
	done := make(chan struct{}, 1)
	p.OnCompletion(func() { done <- struct{}{} })

	p.SetCurrentTime(p.Duration())
	require.NoError(t, p.SetPlaying(true))
	render(out, 100)

	waitSignal(t, done, "completion")
	assert.False(t, p.Playing())
}

func TestSeek_NoSource(t *testing.T) {
	ctrl, _ := newTestEngine(t, engine.Config{})
	p := newTestPlayer(t, ctrl)

	p.SetCurrentTime(time.Second)

	assert.Zero(t, p.CurrentTime())
}

func TestVolume_ZeroIsSilent(t *testing.T) {
	p, out := setup(t, 4000, testutil.Constant(0.5))
	p.SetVolume(0)
	require.NoError(t, p.SetPlaying(true))

	for _, s := range render(out, 400) {
		require.Equal(t, [2]float64{}, s)
	}
	assert.Equal(t, 50*time.Millisecond, p.CurrentTime(), "silent playback still advances")
}

func TestVolume_Half(t *testing.T) {
	p, out := setup(t, 4000, testutil.Constant(0.5))
	p.SetVolume(0.5)
	require.NoError(t, p.SetPlaying(true))

	buf := render(out, 10)

	assert.InDelta(t, 0.25, buf[9][0], tolerance)
	assert.InDelta(t, 0.25, buf[9][1], tolerance)
}

func TestVolume_Clamped(t *testing.T) {
	ctrl, _ := newTestEngine(t, engine.Config{})
	p := newTestPlayer(t, ctrl)

	p.SetVolume(2)
	assert.InDelta(t, 1.0, p.Volume(), 0)
	p.SetVolume(-1)
	assert.InDelta(t, 0.0, p.Volume(), 0)
	p.SetPan(-3)
	assert.InDelta(t, -1.0, p.Pan(), 0)
	p.SetPan(3)
	assert.InDelta(t, 1.0, p.Pan(), 0)
}

func TestPan(t *testing.T) {
	tests := []struct {
		name      string
		pan       float64
		wantLeft  float64
		wantRight float64
	}{
		{"hard left", -1, 0.5, 0},
		{"hard right", 1, 0, 0.5},
		{"centre", 0, 0.5, 0.5},
		{"half left", -0.5, 0.5, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := setup(t, 4000, testutil.Constant(0.5))
			p.SetPan(tt.pan)
			require.NoError(t, p.SetPlaying(true))

			buf := render(out, 10)

			assert.InDelta(t, tt.wantLeft, buf[5][0], tolerance)
			assert.InDelta(t, tt.wantRight, buf[5][1], tolerance)
		})
	}
}

func TestPan_KeepsChannelsApart(t *testing.T) {
	antiPhase := func(int) [2]float64 { return [2]float64{0.5, -0.5} }
	tests := []struct {
		name      string
		pan       float64
		wantLeft  float64
		wantRight float64
	}{
		{"hard left", -1, 0.5, 0},
		{"hard right", 1, 0, -0.5},
		{"quarter right", 0.25, 0.375, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := setup(t, 4000, antiPhase)
			p.SetPan(tt.pan)
			require.NoError(t, p.SetPlaying(true))

			buf := render(out, 10)

			assert.InDelta(t, tt.wantLeft, buf[5][0], tolerance)
			assert.InDelta(t, tt.wantRight, buf[5][1], tolerance)
		})
	}
}

func TestBalance_NoAllocs(t *testing.T) {
	buf := make([][2]float64, 512)
	allocs := testing.AllocsPerRun(100, func() {
		balance(buf, -0.3)
		balance(buf, 0.7)
	})
	assert.Zero(t, allocs)
}

func TestRebind_StopsWithoutCompletion(t *testing.T) {
	p, out := setup(t, 4000, testutil.Constant(0.5))
	done := make(chan struct{}, 1)
	p.OnCompletion(func() { done <- struct{}{} })
	require.NoError(t, p.SetPlaying(true))
	render(out, 3900)

	other := testutil.WriteWAV(t, "other.wav", testRate, 16000, testutil.Constant(0.25))
	require.NoError(t, p.SetURL(other))
	renderChunks(out, 4000, 1000)

	select {
	case <-done:
		t.Fatal("completion fired after rebind")
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, p.Playing())
	assert.Zero(t, p.CurrentTime())
	assert.Equal(t, 2*time.Second, p.Duration())

	require.NoError(t, p.SetPlaying(true))
	buf := render(out, 4)
	assert.InDelta(t, 0.25, buf[0][0], tolerance, "plays the new source")
}

func TestResample(t *testing.T) {
	ctrl, out := newTestEngine(t, engine.Config{SampleRate: 8000})
	p := newTestPlayer(t, ctrl)
	path := testutil.WriteWAV(t, "hi.wav", 16000, 16000, testutil.Constant(0.5))
	require.NoError(t, p.SetURL(path))
	done := make(chan struct{}, 1)
	p.OnCompletion(func() { done <- struct{}{} })

	assert.Equal(t, time.Second, p.Duration())
	assert.Equal(t, 16000, p.AudioDescription().SampleRate)

	require.NoError(t, p.SetPlaying(true))
	buf := render(out, 4000)
	assert.InDelta(t, 0.5, buf[2000][0], 0.01)
	assert.InDelta(t, 500*time.Millisecond, p.CurrentTime(), float64(5*time.Millisecond))

	renderChunks(out, 5000, 1000)
	waitSignal(t, done, "completion")
}

func TestClose(t *testing.T) {
	ctrl, out := newTestEngine(t, engine.Config{})
	p, err := New(ctrl, WithLogger(logger.Discard()))
	require.NoError(t, err)
	path := testutil.WriteWAV(t, "a.wav", testRate, 4000, testutil.Constant(0.5))
	require.NoError(t, p.SetURL(path))
	require.NoError(t, p.SetPlaying(true))

	require.NoError(t, p.Close())

	assert.False(t, p.Playing())
	require.ErrorIs(t, p.SetURL(path), ErrClosed)
	require.ErrorIs(t, p.SetPlaying(true), ErrClosed)
	require.NoError(t, p.Close(), "Close is idempotent")

	render(out, 10)
	assert.Zero(t, ctrl.Channels())
}

func TestStats_Buffered(t *testing.T) {
	p, _ := setup(t, 8000, testutil.Constant(0.5))

	require.Eventually(t, func() bool {
		return p.Stats().Buffered > 0
	}, waitLimit, time.Millisecond)
	assert.Zero(t, p.Stats().Underruns, "offline rendering waits instead of underrunning")
}

func TestConcurrentControls(t *testing.T) {
	p, out := setup(t, 16000, testutil.Ramp(16000))
	require.NoError(t, p.SetPlaying(true))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			p.SetVolume(float64(i%10) / 10)
			p.SetPan(float64(i%3) - 1)
			_ = p.CurrentTime()
			_ = p.State()
		}
	}()

	renderChunks(out, 8000, 128)
	close(stop)
	wg.Wait()

	d := p.CurrentTime()
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, p.Duration())
}

var errBroken = errors.New("corrupt frame")

// brokenStreamer produces good frames up to fail, then fails.
type brokenStreamer struct {
	fail, length, pos int
}

func (b *brokenStreamer) Stream(samples [][2]float64) (int, bool) {
	if b.pos >= b.fail {
		return 0, false
	}
	n := min(len(samples), b.fail-b.pos)
	for i := range n {
		samples[i] = [2]float64{0.25, 0.25}
	}
	b.pos += n
	return n, true
}

func (b *brokenStreamer) Err() error {
	if b.pos >= b.fail {
		return errBroken
	}
	return nil
}

func (b *brokenStreamer) Len() int         { return b.length }
func (b *brokenStreamer) Position() int    { return b.pos }
func (b *brokenStreamer) Seek(p int) error { b.pos = p; return nil }
func (b *brokenStreamer) Close() error     { return nil }

func TestDecodeError_InvokesOnError(t *testing.T) {
	ctrl, out := newTestEngine(t, engine.Config{})
	p := newTestPlayer(t, ctrl)
	src := &decode.Source{
		StreamSeekCloser: &brokenStreamer{fail: 1000, length: 8000},
		Path:             "broken.wav",
		Desc:             decode.Description{Format: decode.FormatWAV, SampleRate: 8000, Channels: 2, BitsPerSample: 16, Frames: 8000},
	}
	p.mu.Lock()
	p.bindLocked("broken.wav", src, p.gen.Add(1))
	p.mu.Unlock()

	errs := make(chan error, 1)
	completions := make(chan struct{}, 1)
	p.OnError(func(err error) { errs <- err })
	p.OnCompletion(func() { completions <- struct{}{} })
	require.NoError(t, p.SetPlaying(true))

	renderChunks(out, 2000, 500)

	select {
	case err := <-errs:
		require.ErrorIs(t, err, errBroken)
	case <-time.After(waitLimit):
		t.Fatal("timed out waiting for OnError")
	}
	assert.False(t, p.Playing())
	assert.Empty(t, completions)
}

func TestSourcePath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "/music/a.flac", want: "/music/a.flac"},
		{in: "relative/a.mp3", want: "relative/a.mp3"},
		{in: "file:///music/a%20b.flac", want: "/music/a b.flac"},
		{in: "file://localhost/music/a.flac", want: "/music/a.flac"},
		{in: "file://nas/music/a.flac", wantErr: true},
		{in: "http://host/a.mp3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SourcePath(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelToVolume(t *testing.T) {
	assert.InDelta(t, 0.0, levelToVolume(1), 0)
	assert.InDelta(t, -1.0, levelToVolume(0.5), 1e-9)
	assert.InDelta(t, -2.0, levelToVolume(0.25), 1e-9)
	assert.InDelta(t, 0.0, levelToVolume(0), 0, "zero is handled by Silent")
}

func TestSeek_DuringOfflineRender(t *testing.T) {
	p, out := setup(t, 80000, testutil.Ramp(80000))
	require.NoError(t, p.SetPlaying(true))

	done := make(chan struct{})
	go func() {
		defer close(done)
		render(out, 40000)
	}()

seeking:
	for range 200 {
		select {
		case <-done:
			break seeking
		default:
		}
		p.SetCurrentTime(time.Second)
		time.Sleep(time.Millisecond)
	}
	select {
	case <-done:
	case <-time.After(waitLimit):
		t.Fatalf("render did not return after concurrent seeks (current %v)", p.CurrentTime())
	}
	assert.True(t, p.Playing())

	p.SetCurrentTime(time.Second)
	buf := render(out, 800)

	assert.InDelta(t, 8000.0/80000, buf[0][0], tolerance)
	assert.Equal(t, 1100*time.Millisecond, p.CurrentTime())
}

func TestSeek_RacingEndDropsCompletion(t *testing.T) {
	p, out := setup(t, 4000, testutil.Ramp(4000))
	var completions atomic.Int32
	p.OnCompletion(func() { completions.Add(1) })
	require.NoError(t, p.SetPlaying(true))
	render(out, 10)

	// The render side ends the current generation...
	n := notice{sess: p.sess.Load(), gen: p.gen.Load()}
	require.True(t, p.playing.CompareAndSwap(true, false))
	// ...and a seek lands before the notifier runs.
	p.SetCurrentTime(250 * time.Millisecond)
	p.deliver(n)

	assert.Zero(t, completions.Load())
	assert.False(t, p.Playing())
	assert.Equal(t, Paused, p.State())
	assert.Equal(t, 250*time.Millisecond, p.CurrentTime())

	require.NoError(t, p.SetPlaying(true))
	buf := render(out, 10)

	assert.InDelta(t, 2000.0/4000, buf[0][0], tolerance)
	assert.Zero(t, completions.Load())
}
