// Package packages orchestrates the tracking domain: create/move/annotate
// packages, derive progress and status, and shape the history for display.
package packages

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/openparcel/parceltrack/internal/broker/messages"
	"github.com/openparcel/parceltrack/internal/geocode"
	"github.com/openparcel/parceltrack/internal/geomath"
	"github.com/openparcel/parceltrack/internal/models"
	"github.com/openparcel/parceltrack/internal/progress"
	"github.com/openparcel/parceltrack/internal/storage/pgpackages"
	"github.com/openparcel/parceltrack/internal/timezone"
)

const maxNoteLen = 500

// ErrInvalidCoordinate rejects out-of-range lat/lng at the write boundary.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ErrAddressNotFound means the oracle produced no coordinate for the
// given text; the package state is left untouched.
var ErrAddressNotFound = errors.New("address not found")

type Repository interface {
	CreatePackage(ctx context.Context, p pgpackages.CreateParams) (*models.Package, error)
	GetPackageByID(ctx context.Context, id uint64) (*models.Package, error)
	GetPackageByTracking(ctx context.Context, trackingNumber string) (*models.Package, error)
	ListPackages(ctx context.Context, search string) ([]*models.Package, error)
	UpdatePackage(ctx context.Context, id uint64, p pgpackages.UpdateParams) error
	DeletePackage(ctx context.Context, id uint64) error
	AppendEvent(ctx context.Context, packageID uint64, ev pgpackages.EventInsert, newStatus string) (*models.Event, error)
	ListEvents(ctx context.Context, packageID uint64, desc bool) ([]*models.Event, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Service struct {
	repo   Repository
	geo    geocode.Geocoder
	tz     *timezone.Resolver
	engine *progress.Engine

	pub   Publisher // optional, best-effort
	topic string
}

func New(repo Repository, geo geocode.Geocoder, tz *timezone.Resolver, engine *progress.Engine, pub Publisher, topic string) *Service {
	if tz == nil {
		tz = timezone.Default()
	}
	if engine == nil {
		engine = progress.New(0)
	}
	if topic == "" {
		topic = "package.updated"
	}
	return &Service{repo: repo, geo: geo, tz: tz, engine: engine, pub: pub, topic: topic}
}

type CreateInput struct {
	TrackingNumber string
	Title          string
	Arriving       string
	Destination    string
	DeliveryOption string
	Description    string
	Address        string
	Lat            *float64
	Lng            *float64
}

// Create registers a package. Without explicit coordinates it tries to
// geocode the initial address (or the declared start); geocoding failure
// degrades to "no position yet". A seed "Created" event is written when
// a coordinate is known.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Package, error) {
	tracking := strings.TrimSpace(in.TrackingNumber)
	if tracking == "" {
		tracking = generateTrackingNumber()
	}

	lat, lng := in.Lat, in.Lng
	if (lat == nil) != (lng == nil) {
		return nil, errors.Wrap(ErrInvalidCoordinate, "lat and lng must come together")
	}
	address := strings.TrimSpace(in.Address)

	if lat != nil {
		// (0,0) from a broken client means "unknown", not the Gulf of Guinea.
		if *lat == 0 && *lng == 0 {
			lat, lng = nil, nil
		} else if !(geomath.Coordinate{Lat: *lat, Lng: *lng}).Valid() {
			return nil, errors.Wrapf(ErrInvalidCoordinate, "%v,%v", *lat, *lng)
		}
	}

	if lat == nil {
		geoQ := address
		if geoQ == "" {
			geoQ = strings.TrimSpace(in.Arriving)
		}
		if geoQ != "" {
			coord, displayName, err := s.geo.Forward(ctx, geoQ)
			switch {
			case err != nil:
				slog.Warn("initial geocode failed, creating without position", "query", geoQ, "err", err)
			case coord != nil:
				lat, lng = &coord.Lat, &coord.Lng
				if address == "" && strings.TrimSpace(in.Arriving) != "" {
					address = strings.TrimSpace(in.Arriving)
				} else if address == "" {
					address = displayName
				}
			}
		}
	}

	var addrPtr *string
	if address != "" {
		addrPtr = &address
	}

	return s.repo.CreatePackage(ctx, pgpackages.CreateParams{
		TrackingNumber: tracking,
		Title:          strings.TrimSpace(in.Title),
		Arriving:       strings.TrimSpace(in.Arriving),
		Destination:    strings.TrimSpace(in.Destination),
		DeliveryOption: strings.TrimSpace(in.DeliveryOption),
		Description:    strings.TrimSpace(in.Description),
		Lat:            lat,
		Lng:            lng,
		Address:        addrPtr,
		SeedNote:       "Created",
	})
}

// Move records a new position for the package. One atomic write covers
// the event and the package position/status; geocoding (reverse address,
// destination for the status rule) is best-effort and never aborts the
// update.
func (s *Service) Move(ctx context.Context, packageID uint64, coord geomath.Coordinate, address, note string) (*models.Package, error) {
	if !coord.Valid() {
		return nil, errors.Wrapf(ErrInvalidCoordinate, "%v,%v", coord.Lat, coord.Lng)
	}

	pkg, err := s.repo.GetPackageByID(ctx, packageID)
	if err != nil {
		return nil, err
	}

	note = truncateNote(strings.TrimSpace(note))
	if note == "" {
		note = "Moved"
	}

	address = strings.TrimSpace(address)
	if address == "" {
		if rev, err := s.geo.Reverse(ctx, coord); err != nil {
			slog.Warn("reverse geocode failed", "package", pkg.TrackingNumber, "err", err)
		} else {
			address = rev
		}
	}

	dest := s.resolveEndpoint(ctx, pkg.Destination)
	newStatus := s.engine.NextStatus(coord, dest, !pkg.HasPosition())

	ev := s.enrich(pgpackages.EventInsert{Lat: coord.Lat, Lng: coord.Lng, Note: &note}, coord, address)
	if address != "" {
		ev.Address = &address
	}

	if _, err := s.repo.AppendEvent(ctx, packageID, ev, newStatus); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetPackageByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, updated, note)
	return updated, nil
}

// MoveToAddress geocodes the address and moves there. No oracle result
// means ErrAddressNotFound and no state change.
func (s *Service) MoveToAddress(ctx context.Context, packageID uint64, address, note string) (*models.Package, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.Wrap(ErrAddressNotFound, "empty address")
	}

	coord, displayName, err := s.geo.Forward(ctx, address)
	if err != nil {
		slog.Warn("forward geocode failed", "query", address, "err", err)
		return nil, errors.Wrapf(ErrAddressNotFound, "%q", address)
	}
	if coord == nil {
		return nil, errors.Wrapf(ErrAddressNotFound, "%q", address)
	}
	if displayName == "" {
		displayName = address
	}
	return s.Move(ctx, packageID, *coord, displayName, note)
}

// AddNote appends an annotation at the package's current position. The
// marker does not move and the status does not change.
func (s *Service) AddNote(ctx context.Context, packageID uint64, note string) (*models.Event, error) {
	note = truncateNote(strings.TrimSpace(note))
	if note == "" {
		return nil, errors.New("note is required")
	}

	pkg, err := s.repo.GetPackageByID(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.HasPosition() {
		return nil, errors.New("package has no position yet")
	}

	coord := geomath.Coordinate{Lat: *pkg.LastLat, Lng: *pkg.LastLng}
	address := ""
	if pkg.LastAddress != nil {
		address = *pkg.LastAddress
	}

	ev := s.enrich(pgpackages.EventInsert{Lat: coord.Lat, Lng: coord.Lng, Note: &note}, coord, address)
	ev.Address = pkg.LastAddress

	out, err := s.repo.AppendEvent(ctx, packageID, ev, "")
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, pkg, note)
	return out, nil
}

type UpdateInput struct {
	Title          string
	Arriving       string
	Destination    string
	DeliveryOption string
	Description    string
	Status         string
	ImagePath      *string
}

func (s *Service) Update(ctx context.Context, packageID uint64, in UpdateInput) error {
	return s.repo.UpdatePackage(ctx, packageID, pgpackages.UpdateParams{
		Title:          strings.TrimSpace(in.Title),
		Arriving:       strings.TrimSpace(in.Arriving),
		Destination:    strings.TrimSpace(in.Destination),
		DeliveryOption: strings.TrimSpace(in.DeliveryOption),
		Description:    strings.TrimSpace(in.Description),
		Status:         strings.TrimSpace(in.Status),
		ImagePath:      in.ImagePath,
	})
}

func (s *Service) Get(ctx context.Context, packageID uint64) (*models.Package, error) {
	return s.repo.GetPackageByID(ctx, packageID)
}

func (s *Service) List(ctx context.Context, search string) ([]*models.Package, error) {
	return s.repo.ListPackages(ctx, search)
}

func (s *Service) Delete(ctx context.Context, packageID uint64) error {
	return s.repo.DeletePackage(ctx, packageID)
}

func (s *Service) History(ctx context.Context, packageID uint64) ([]*models.Event, error) {
	return s.repo.ListEvents(ctx, packageID, true)
}

// ApplyPositionReport handles a PositionReported message from the feed
// topic and applies it as a regular move.
func (s *Service) ApplyPositionReport(ctx context.Context, msg messages.PositionReported) error {
	if msg.TrackingNumber == "" {
		return errors.New("tracking_number is required")
	}
	pkg, err := s.repo.GetPackageByTracking(ctx, msg.TrackingNumber)
	if err != nil {
		return err
	}
	_, err = s.Move(ctx, pkg.ID, geomath.Coordinate{Lat: msg.Lat, Lng: msg.Lng}, msg.Address, msg.Note)
	return err
}

func (s *Service) resolveEndpoint(ctx context.Context, place string) *geomath.Coordinate {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil
	}
	coord, _, err := s.geo.Forward(ctx, place)
	if err != nil {
		slog.Warn("endpoint geocode failed", "query", place, "err", err)
		return nil
	}
	return coord
}

// enrich fills the timezone fields for an event at coord. The address
// text is unused for now but kept as the natural fallback input if the
// coordinate table ever gets too coarse.
func (s *Service) enrich(ev pgpackages.EventInsert, coord geomath.Coordinate, _ string) pgpackages.EventInsert {
	res := s.tz.ResolveCoord(coord)
	local, offset := timezone.LocalTime(time.Now().UTC(), res.TZID)
	ev.TZID = res.TZID
	ev.UTCOffset = offset
	ev.LocalTime = &local
	ev.CountryCode = res.Country
	return ev
}

func (s *Service) publishUpdated(ctx context.Context, pkg *models.Package, note string) {
	if s.pub == nil {
		return
	}
	msg := messages.PackageUpdated{
		PackageID:      pkg.ID,
		TrackingNumber: pkg.TrackingNumber,
		Status:         pkg.Status,
		Note:           note,
		UpdatedAt:      time.Now().UTC(),
	}
	if pkg.HasPosition() {
		msg.Lat, msg.Lng = *pkg.LastLat, *pkg.LastLng
	}
	if pkg.LastAddress != nil {
		msg.Address = *pkg.LastAddress
	}
	b, _ := json.Marshal(msg)
	if err := s.pub.Publish(ctx, s.topic, []byte(pkg.TrackingNumber), b); err != nil {
		slog.Warn("publish package.updated failed", "package", pkg.TrackingNumber, "err", err)
	}
}

func truncateNote(note string) string {
	r := []rune(note)
	if len(r) > maxNoteLen {
		return string(r[:maxNoteLen])
	}
	return note
}

func generateTrackingNumber() string {
	id := uuid.NewString()
	return "PKG-" + strings.ToUpper(strings.ReplaceAll(id, "-", ""))[:12]
}
