package pgpackages

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/openparcel/parceltrack/internal/models"
)

const pgUniqueViolation = "23505"

const packageColumns = `
  id, tracking_number, title, arriving, destination, delivery_option, description,
  status, last_lat, last_lng, last_address, image_path, created_at, updated_at
`

type CreateParams struct {
	TrackingNumber string
	Title          string
	Arriving       string
	Destination    string
	DeliveryOption string
	Description    string

	// Optional initial position. When set, a seed event with SeedNote
	// is written in the same transaction.
	Lat      *float64
	Lng      *float64
	Address  *string
	SeedNote string
}

func (s *Storage) CreatePackage(ctx context.Context, p CreateParams) (*models.Package, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uint64
	err = tx.QueryRow(ctx, `
INSERT INTO packages (
  tracking_number, title, arriving, destination, delivery_option, description,
  status, last_lat, last_lng, last_address, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
RETURNING id
`, p.TrackingNumber, p.Title, p.Arriving, p.Destination, p.DeliveryOption, p.Description,
		models.PackageStatusCreated, p.Lat, p.Lng, p.Address, now).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, errors.Wrapf(ErrDuplicateTracking, "%q", p.TrackingNumber)
		}
		return nil, errors.Wrap(err, "insert package")
	}

	if p.Lat != nil && p.Lng != nil {
		note := p.SeedNote
		if note == "" {
			note = "Created"
		}
		_, err = tx.Exec(ctx, `
INSERT INTO package_events (package_id, lat, lng, address, note, tzid, utc_offset, event_dt_local, country_code, created_at)
VALUES ($1,$2,$3,$4,$5,'','',NULL,'',$6)
`, id, *p.Lat, *p.Lng, p.Address, note, now)
		if err != nil {
			return nil, errors.Wrap(err, "insert seed event")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	return s.GetPackageByID(ctx, id)
}

func (s *Storage) GetPackageByID(ctx context.Context, id uint64) (*models.Package, error) {
	row := s.db.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id)
	return scanPackage(row)
}

func (s *Storage) GetPackageByTracking(ctx context.Context, trackingNumber string) (*models.Package, error) {
	row := s.db.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE tracking_number = $1`, trackingNumber)
	return scanPackage(row)
}

// ListPackages returns packages newest-updated first, optionally filtered
// by tracking number or title substring.
func (s *Storage) ListPackages(ctx context.Context, search string) ([]*models.Package, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if search != "" {
		rows, err = s.db.Query(ctx, `
SELECT `+packageColumns+`
FROM packages
WHERE tracking_number ILIKE $1 OR title ILIKE $1
ORDER BY updated_at DESC
`, "%"+search+"%")
	} else {
		rows, err = s.db.Query(ctx, `SELECT `+packageColumns+` FROM packages ORDER BY updated_at DESC`)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select packages")
	}
	defer rows.Close()

	var out []*models.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

type UpdateParams struct {
	Title          string
	Arriving       string
	Destination    string
	DeliveryOption string
	Description    string
	Status         string // manual override, stored as-is
	ImagePath      *string
}

func (s *Storage) UpdatePackage(ctx context.Context, id uint64, p UpdateParams) error {
	tag, err := s.db.Exec(ctx, `
UPDATE packages
SET title=$2, arriving=$3, destination=$4, delivery_option=$5, description=$6,
    status=$7, image_path=$8, updated_at=now()
WHERE id=$1
`, id, p.Title, p.Arriving, p.Destination, p.DeliveryOption, p.Description, p.Status, p.ImagePath)
	if err != nil {
		return errors.Wrap(err, "update package")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "id=%d", id)
	}
	return nil
}

// DeletePackage removes the package; its events go with it via cascade.
func (s *Storage) DeletePackage(ctx context.Context, id uint64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete package")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(ErrNotFound, "id=%d", id)
	}
	return nil
}

func scanPackage(row pgx.Row) (*models.Package, error) {
	var p models.Package
	err := row.Scan(
		&p.ID, &p.TrackingNumber, &p.Title, &p.Arriving, &p.Destination, &p.DeliveryOption, &p.Description,
		&p.Status, &p.LastLat, &p.LastLng, &p.LastAddress, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan package")
	}
	return &p, nil
}
