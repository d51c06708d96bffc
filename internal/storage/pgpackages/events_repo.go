package pgpackages

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/openparcel/parceltrack/internal/models"
)

type EventInsert struct {
	Lat     float64
	Lng     float64
	Address *string
	Note    *string

	TZID        string
	UTCOffset   string
	LocalTime   *time.Time
	CountryCode string

	// CreatedAt defaults to now when zero.
	CreatedAt time.Time
}

// AppendEvent writes the event and the matching package position/status
// in one transaction: no reader ever sees one without the other. The
// package row UPDATE also serializes concurrent appends to the same
// package. An empty newStatus keeps the current status.
func (s *Storage) AppendEvent(ctx context.Context, packageID uint64, ev EventInsert, newStatus string) (*models.Event, error) {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var tag pgconn.CommandTag
	if newStatus != "" {
		tag, err = tx.Exec(ctx, `
UPDATE packages
SET last_lat=$2, last_lng=$3, last_address=$4, status=$5, updated_at=now()
WHERE id=$1
`, packageID, ev.Lat, ev.Lng, ev.Address, newStatus)
	} else {
		tag, err = tx.Exec(ctx, `
UPDATE packages
SET last_lat=$2, last_lng=$3, last_address=$4, updated_at=now()
WHERE id=$1
`, packageID, ev.Lat, ev.Lng, ev.Address)
	}
	if err != nil {
		return nil, errors.Wrap(err, "update package position")
	}
	if tag.RowsAffected() == 0 {
		return nil, errors.Wrapf(ErrNotFound, "id=%d", packageID)
	}

	out := models.Event{
		PackageID:   packageID,
		Lat:         ev.Lat,
		Lng:         ev.Lng,
		Address:     ev.Address,
		Note:        ev.Note,
		TZID:        ev.TZID,
		UTCOffset:   ev.UTCOffset,
		LocalTime:   ev.LocalTime,
		CountryCode: ev.CountryCode,
		CreatedAt:   createdAt,
	}
	err = tx.QueryRow(ctx, `
INSERT INTO package_events (package_id, lat, lng, address, note, tzid, utc_offset, event_dt_local, country_code, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id
`, packageID, ev.Lat, ev.Lng, ev.Address, ev.Note, ev.TZID, ev.UTCOffset, ev.LocalTime, ev.CountryCode, createdAt).Scan(&out.ID)
	if err != nil {
		return nil, errors.Wrap(err, "insert event")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return &out, nil
}

// ListEvents returns the full trail ordered by (created_at, id). The
// order is total: the insertion id breaks timestamp ties, so no two
// events compare equal.
func (s *Storage) ListEvents(ctx context.Context, packageID uint64, desc bool) ([]*models.Event, error) {
	order := "ASC"
	if desc {
		order = "DESC"
	}
	rows, err := s.db.Query(ctx, `
SELECT id, package_id, lat, lng, address, note, tzid, utc_offset, event_dt_local, country_code, created_at
FROM package_events
WHERE package_id = $1
ORDER BY created_at `+order+`, id `+order, packageID)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(
			&e.ID, &e.PackageID, &e.Lat, &e.Lng, &e.Address, &e.Note,
			&e.TZID, &e.UTCOffset, &e.LocalTime, &e.CountryCode, &e.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
