package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/unitplayer/internal/db"
)

// Resume is the saved playback state of one source.
type Resume struct {
	URL       string
	Position  time.Duration
	Volume    *float64 // nil when the default should be used
	Pan       *float64
	UpdatedAt time.Time
}

func getResume(ctx context.Context, conn *sql.DB, url string) (*Resume, error) {
	var (
		pos       sql.Null[int64]
		vol, pan  sql.Null[float64]
		updatedAt int64
	)
	row := conn.QueryRowContext(ctx, `
		SELECT position_ms, volume, pan, updated_at
		FROM resume_points WHERE url = ?
	`, url)
	err := row.Scan(&pos, &vol, &pan, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // no record is not an error
	}
	if err != nil {
		return nil, err
	}

	return &Resume{
		URL:       url,
		Position:  time.Duration(pos.V) * time.Millisecond,
		Volume:    db.Ptr(vol),
		Pan:       db.Ptr(pan),
		UpdatedAt: time.Unix(updatedAt, 0),
	}, nil
}

func saveResumes(ctx context.Context, conn *sql.DB, records []Resume) error {
	return db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO resume_points (url, position_ms, volume, pan, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(url) DO UPDATE SET
				position_ms = excluded.position_ms,
				volume = excluded.volume,
				pan = excluded.pan,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			_, err := stmt.ExecContext(ctx,
				r.URL,
				max(r.Position, 0).Milliseconds(),
				db.FromPtr(r.Volume),
				db.FromPtr(r.Pan),
				r.UpdatedAt.Unix(),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
