//go:build linux

// Package mpris exposes a playback service on the session bus as an MPRIS
// media player, so desktop media keys and applets can drive it.
package mpris

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/unitplayer/internal/playback"
	"github.com/llehouerou/unitplayer/internal/player"
	"github.com/llehouerou/unitplayer/internal/tags"
)

// Adapter connects a playback service to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New registers name on the session bus and starts serving service.
func New(name string, service playback.Service) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer(name, &rootAdapter{name: name}, newPlayerAdapter(service)),
	}

	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct {
	name string
}

func (r *rootAdapter) Raise() error {
	return nil // No window to raise
}

func (r *rootAdapter) Quit() error {
	return nil // The command line owns the process lifetime
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return r.name, nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{
		"audio/mpeg", "audio/flac", "audio/wav", "audio/x-wav",
		"audio/ogg", "audio/opus", "audio/mp4", "audio/aac",
	}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	service playback.Service

	mu      sync.Mutex
	tagURL  string
	tagData *tags.Tag
}

func newPlayerAdapter(service playback.Service) *playerAdapter {
	return &playerAdapter{service: service}
}

// There is one source and no track list.
func (p *playerAdapter) Next() error { return nil }

func (p *playerAdapter) Previous() error { return nil }

func (p *playerAdapter) Pause() error {
	return p.service.Stop()
}

func (p *playerAdapter) PlayPause() error {
	return p.service.Toggle()
}

// Stop stops and rewinds, unlike Pause.
func (p *playerAdapter) Stop() error {
	if err := p.service.Stop(); err != nil {
		return err
	}
	if p.service.Source() == nil {
		return nil
	}
	return p.service.SeekTo(0)
}

func (p *playerAdapter) Play() error {
	if p.service.IsPlaying() {
		return nil
	}
	return p.service.Play()
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.service.Seek(time.Duration(offset) * time.Microsecond)
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	return p.service.SeekTo(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	if err := p.service.Load(uri); err != nil {
		return err
	}
	return p.service.Play()
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return statusOf(p.service.State()), nil
}

func statusOf(s playback.State) types.PlaybackStatus {
	switch s {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying
	case playback.StatePaused:
		return types.PlaybackStatusPaused
	case playback.StateStopped:
		return types.PlaybackStatusStopped
	}
	return types.PlaybackStatusStopped
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	src := p.service.Source()
	if src == nil {
		return types.Metadata{}, nil
	}
	return metadataFor(src, p.tagsFor(src.URL)), nil
}

// tagsFor reads the tags of url once per loaded source.
func (p *playerAdapter) tagsFor(url string) *tags.Tag {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tagURL == url {
		return p.tagData
	}
	p.tagURL, p.tagData = url, nil
	if path, err := player.SourcePath(url); err == nil {
		if t, err := tags.Read(path); err == nil {
			p.tagData = t
		}
	}
	return p.tagData
}

func metadataFor(src *playback.Source, t *tags.Tag) types.Metadata {
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(src.URL)),
		Length:  types.Microseconds(src.Duration.Microseconds()),
		Title:   filepath.Base(src.URL),
	}
	if t != nil {
		meta.Title = t.Title
		if t.Artist != "" {
			meta.Artist = []string{t.Artist}
		}
		meta.Album = t.Album
		meta.TrackNumber = t.Track.N
	}

	if path, err := player.SourcePath(src.URL); err == nil {
		if artPath := FindAlbumArt(path); artPath != "" {
			meta.ArtUrl = "file://" + artPath
		}
	}
	return meta
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.service.Volume(), nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	p.service.SetVolume(v)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.service.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.service.Source() != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.service.Source() != nil, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.service.Duration() > 0, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(url string) string {
	h := fnv.New64a()
	h.Write([]byte(url))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
