package notify

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/llehouerou/unitplayer/internal/playback"
	"github.com/llehouerou/unitplayer/internal/player"
	"github.com/llehouerou/unitplayer/internal/tags"
)

const (
	timeoutNowPlaying int32 = 5000
	timeoutFinished   int32 = 3000
	timeoutError      int32 = -1
)

// Announcer posts a notification for each new source, completion and
// playback error of a service.
type Announcer struct {
	n    Notifier
	log  *slog.Logger
	sub  *playback.Subscription
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	lastID uint32
}

// Announce starts announcing events of svc through n.
func Announce(n Notifier, svc playback.Service, log *slog.Logger) *Announcer {
	a := &Announcer{
		n:    n,
		log:  log,
		sub:  svc.Subscribe(),
		stop: make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// Close stops the announcer and waits for it to exit.
func (a *Announcer) Close() {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

func (a *Announcer) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.stop:
			return
		case <-a.sub.Done:
			return
		case e := <-a.sub.SourceChanged:
			if e.Current != nil {
				a.post(nowPlaying(e.Current))
			}
		case e := <-a.sub.Completed:
			a.post(Notification{
				Title:   "Finished",
				Body:    displayName(e.URL),
				Timeout: timeoutFinished,
				Urgency: UrgencyLow,
			})
		case e := <-a.sub.Error:
			a.post(Notification{
				Title:   "Playback error",
				Body:    e.Message(),
				Timeout: timeoutError,
				Urgency: UrgencyCritical,
			})
		}
	}
}

func (a *Announcer) post(n Notification) {
	n.ReplacesID = a.lastID
	id, err := a.n.Notify(n)
	if err != nil {
		a.log.Debug("notification failed", "title", n.Title, "error", err)
		return
	}
	a.lastID = id
}

func nowPlaying(src *playback.Source) Notification {
	n := Notification{
		Title:   "Now playing",
		Body:    displayName(src.URL),
		Timeout: timeoutNowPlaying,
		Urgency: UrgencyNormal,
	}
	path, err := player.SourcePath(src.URL)
	if err != nil {
		return n
	}
	if t, err := tags.Read(path); err == nil && t.Title != "" {
		n.Body = t.Title
		if t.Artist != "" {
			n.Body = fmt.Sprintf("%s\n%s", t.Title, t.Artist)
		}
	}
	n.Icon = albumArt(path)
	return n
}

func displayName(url string) string {
	if path, err := player.SourcePath(url); err == nil {
		return filepath.Base(path)
	}
	return url
}
