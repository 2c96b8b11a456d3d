package notify

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/unitplayer/internal/logger"
	"github.com/llehouerou/unitplayer/internal/playback"
	"github.com/llehouerou/unitplayer/internal/player"
	"github.com/llehouerou/unitplayer/internal/testutil"
)

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []Notification
	nextID uint32
	err    error
}

func (f *fakeNotifier) Notify(n Notification) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, n)
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeNotifier) Close(uint32) error { return nil }

func (f *fakeNotifier) notifications() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.sent...)
}

func newAnnounced(t *testing.T) (*fakeNotifier, playback.Service, *player.Mock, *Announcer) {
	t.Helper()
	p := player.NewMock()
	p.SetDuration(time.Minute)
	svc := playback.New(p, nil, playback.WithLogger(logger.Discard()))
	n := &fakeNotifier{}
	a := Announce(n, svc, logger.Discard())
	t.Cleanup(func() {
		a.Close()
		_ = svc.Close()
	})
	return n, svc, p, a
}

func TestAnnounce_NowPlaying(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		n, svc, _, _ := newAnnounced(t)

		require.NoError(t, svc.Load("/music/missing.flac"))
		synctest.Wait()

		sent := n.notifications()
		require.Len(t, sent, 1)
		assert.Equal(t, "Now playing", sent[0].Title)
		assert.Equal(t, "missing.flac", sent[0].Body)
		assert.Equal(t, UrgencyNormal, sent[0].Urgency)
		assert.Zero(t, sent[0].ReplacesID)
	})
}

func TestAnnounce_NowPlayingUsesTags(t *testing.T) {
	path := testutil.WriteWAV(t, "song.wav", 8000, 100, testutil.Sine(8000, 440, 0.5))
	dir := filepath.Dir(path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("jpg"), 0o600))

	synctest.Test(t, func(t *testing.T) {
		n, svc, _, _ := newAnnounced(t)

		require.NoError(t, svc.Load(path))
		synctest.Wait()

		sent := n.notifications()
		require.Len(t, sent, 1)
		assert.Equal(t, "song.wav", sent[0].Body)
		if albumArt(path) != "" {
			assert.Equal(t, filepath.Join(dir, "cover.jpg"), sent[0].Icon)
		}
	})
}

func TestAnnounce_CompletionReplacesPrevious(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		n, svc, p, _ := newAnnounced(t)

		require.NoError(t, svc.Load("/music/a.flac"))
		require.NoError(t, svc.Play())
		synctest.Wait()
		go p.Complete()
		synctest.Wait()

		sent := n.notifications()
		require.Len(t, sent, 2)
		assert.Equal(t, "Finished", sent[1].Title)
		assert.Equal(t, "a.flac", sent[1].Body)
		assert.Equal(t, uint32(1), sent[1].ReplacesID)
	})
}

func TestAnnounce_ErrorIsCritical(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		n, svc, p, _ := newAnnounced(t)

		require.NoError(t, svc.Load("/music/a.flac"))
		require.NoError(t, svc.Play())
		synctest.Wait()
		go p.Fail(errors.New("corrupt frame"))
		synctest.Wait()

		sent := n.notifications()
		require.Len(t, sent, 2)
		assert.Equal(t, UrgencyCritical, sent[1].Urgency)
		assert.Contains(t, sent[1].Body, "corrupt frame")
		assert.Contains(t, sent[1].Body, "/music/a.flac")
	})
}

func TestAnnounce_NotifyFailureKeepsRunning(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		n, svc, _, _ := newAnnounced(t)
		n.err = errors.New("no server")

		require.NoError(t, svc.Load("/music/a.flac"))
		synctest.Wait()

		n.mu.Lock()
		n.err = nil
		n.mu.Unlock()
		require.NoError(t, svc.Load("/music/b.flac"))
		synctest.Wait()

		sent := n.notifications()
		require.Len(t, sent, 1)
		assert.Equal(t, "b.flac", sent[0].Body)
		assert.Zero(t, sent[0].ReplacesID)
	})
}

func TestAnnouncer_StopsWhenServiceCloses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p := player.NewMock()
		svc := playback.New(p, nil, playback.WithLogger(logger.Discard()))
		a := Announce(&fakeNotifier{}, svc, logger.Discard())

		require.NoError(t, svc.Close())
		a.Close()
		a.Close()
	})
}

func TestDiscard(t *testing.T) {
	id, err := Discard.Notify(Notification{Title: "x"})
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, Discard.Close(id))
}
