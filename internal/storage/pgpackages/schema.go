package pgpackages

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS packages (
  id BIGSERIAL PRIMARY KEY,
  tracking_number TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  arriving TEXT NOT NULL DEFAULT '',
  destination TEXT NOT NULL DEFAULT '',
  delivery_option TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  last_lat DOUBLE PRECISION NULL,
  last_lng DOUBLE PRECISION NULL,
  last_address TEXT NULL,
  image_path TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (tracking_number)
)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_updated_at ON packages(updated_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS package_events (
  id BIGSERIAL PRIMARY KEY,
  package_id BIGINT NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
  lat DOUBLE PRECISION NOT NULL,
  lng DOUBLE PRECISION NOT NULL,
  address TEXT NULL,
  note TEXT NULL,
  tzid TEXT NOT NULL DEFAULT '',
  utc_offset TEXT NOT NULL DEFAULT '',
  event_dt_local TIMESTAMP NULL,
  country_code TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL
)`,
		// (created_at, id) is the trail order; id breaks timestamp ties.
		`CREATE INDEX IF NOT EXISTS idx_package_events_trail ON package_events(package_id, created_at, id)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
