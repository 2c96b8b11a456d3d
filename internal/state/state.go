// Package state persists per-source resume positions and mix settings.
package state

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"

	"github.com/llehouerou/unitplayer/internal/db"
	"github.com/llehouerou/unitplayer/internal/logger"
)

const (
	appName      = "unitplayer"
	dbFileName   = "unitplayer.db"
	saveDebounce = 500 * time.Millisecond
)

// Option configures a Manager.
type Option func(*Manager)

// WithDebounce sets how long SaveResume waits before writing.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

// WithLogger sets the logger used for background saves.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

type Manager struct {
	db       *sql.DB
	debounce time.Duration
	log      *slog.Logger

	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   map[string]Resume
	closed    bool
	// flushing counts scheduled and running debounced saves.
	flushing sync.WaitGroup
}

// Open opens the database under the XDG data directory.
func Open(opts ...Option) (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath, opts...)
}

// OpenPath opens or creates the database at path. db.Memory opens a
// private in-memory database.
func OpenPath(path string, opts ...Option) (*Manager, error) {
	conn, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	m := &Manager{
		db:       conn,
		debounce: saveDebounce,
		pending:  make(map[string]Resume),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.WithComponent("state")
	}
	return m, nil
}

// Close flushes pending saves and closes the database once any debounced
// save already running has finished. Saves after Close are dropped.
func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.closed {
		m.saveMu.Unlock()
		return nil
	}
	m.closed = true
	m.stopTimerLocked()
	pending := m.takePending()
	m.saveMu.Unlock()

	m.flushing.Wait()

	var err error
	if len(pending) > 0 {
		err = saveResumes(context.Background(), m.db, pending)
	}
	return errors.Join(err, m.db.Close())
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// GetResume returns the record for url, or nil when none is stored. A
// pending save is returned before it reaches the database.
func (m *Manager) GetResume(ctx context.Context, url string) (*Resume, error) {
	m.saveMu.Lock()
	r, ok := m.pending[url]
	m.saveMu.Unlock()
	if ok {
		return &r, nil
	}
	return getResume(ctx, m.db, url)
}

// SaveResume schedules r to be written after the debounce period. Saves
// for the same URL within the period collapse to the latest.
func (m *Manager) SaveResume(r Resume) {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	if m.closed {
		return
	}
	m.pending[r.URL] = r
	m.stopTimerLocked()

	m.flushing.Add(1)
	m.saveTimer = time.AfterFunc(m.debounce, func() {
		defer m.flushing.Done()

		m.saveMu.Lock()
		pending := m.takePending()
		m.saveMu.Unlock()

		if len(pending) == 0 {
			return
		}
		if err := saveResumes(context.Background(), m.db, pending); err != nil {
			m.log.Debug("debounced save failed", slog.Int("count", len(pending)), slog.Any("error", err))
		}
	})
}

// stopTimerLocked cancels a scheduled save that has not started. It must be
// called with saveMu held.
func (m *Manager) stopTimerLocked() {
	if m.saveTimer != nil && m.saveTimer.Stop() {
		m.flushing.Done()
	}
	m.saveTimer = nil
}

// Flush writes pending saves now.
func (m *Manager) Flush(ctx context.Context) error {
	m.saveMu.Lock()
	m.stopTimerLocked()
	pending := m.takePending()
	m.saveMu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	return saveResumes(ctx, m.db, pending)
}

// Forget removes the record for url, including a pending save.
func (m *Manager) Forget(ctx context.Context, url string) error {
	m.saveMu.Lock()
	delete(m.pending, url)
	m.saveMu.Unlock()

	_, err := m.db.ExecContext(ctx, `DELETE FROM resume_points WHERE url = ?`, url)
	return err
}

// Prune deletes records not updated within olderThan and returns how many
// were removed.
func (m *Manager) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := m.db.ExecContext(ctx, `DELETE FROM resume_points WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// takePending must be called with saveMu held.
func (m *Manager) takePending() []Resume {
	if len(m.pending) == 0 {
		return nil
	}
	out := make([]Resume, 0, len(m.pending))
	for _, r := range m.pending {
		out = append(out, r)
	}
	clear(m.pending)
	return out
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
