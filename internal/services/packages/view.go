package packages

import (
	"context"
	"log/slog"
	"time"

	"github.com/openparcel/parceltrack/internal/geomath"
	"github.com/openparcel/parceltrack/internal/history"
	"github.com/openparcel/parceltrack/internal/models"
	"github.com/openparcel/parceltrack/internal/progress"
)

// TrackView is the read-only model the presentation layer renders for a
// tracking number: package, progress report and the grouped trail.
type TrackView struct {
	Package  *models.Package `json:"package"`
	Progress progress.Report `json:"progress"`
	Days     []DayView       `json:"days"`
}

type DayView struct {
	Label  string      `json:"label"`
	Events []EventView `json:"events"`
}

type EventView struct {
	ID          uint64       `json:"id"`
	Lat         float64      `json:"lat"`
	Lng         float64      `json:"lng"`
	Address     string       `json:"address,omitempty"`
	Note        string       `json:"note,omitempty"`
	Kind        history.Kind `json:"kind"`
	ServiceArea string       `json:"service_area,omitempty"`
	Country     string       `json:"country,omitempty"`
	TZID        string       `json:"tzid,omitempty"`
	UTCOffset   string       `json:"utc_offset,omitempty"`
	LocalTime   *time.Time   `json:"local_time,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`

	// Elapsed is the time since the previous chronological event,
	// empty for the earliest one.
	Elapsed string `json:"elapsed,omitempty"`
}

// Track assembles the public view for a tracking number. Progress is
// recomputed from the persisted trail on every call; endpoints are
// geocoded best-effort and an unresolvable endpoint just hides the
// progress indicator.
func (s *Service) Track(ctx context.Context, trackingNumber string) (*TrackView, error) {
	pkg, err := s.repo.GetPackageByTracking(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}

	eventsDesc, err := s.repo.ListEvents(ctx, pkg.ID, true)
	if err != nil {
		return nil, err
	}

	reconcilePosition(pkg, eventsDesc)

	// Chronological copy for distance math and elapsed times.
	eventsAsc := make([]*models.Event, len(eventsDesc))
	for i, ev := range eventsDesc {
		eventsAsc[len(eventsDesc)-1-i] = ev
	}

	trail := make([]geomath.Coordinate, 0, len(eventsAsc))
	for _, ev := range eventsAsc {
		trail = append(trail, geomath.Coordinate{Lat: ev.Lat, Lng: ev.Lng})
	}
	if len(trail) == 0 && pkg.HasPosition() {
		trail = append(trail, geomath.Coordinate{Lat: *pkg.LastLat, Lng: *pkg.LastLng})
	}

	// No known position means no progress indicator at all.
	var report progress.Report
	if len(trail) > 0 {
		start := s.resolveEndpoint(ctx, pkg.Arriving)
		dest := s.resolveEndpoint(ctx, pkg.Destination)
		report = s.engine.Compute(start, dest, trail)
	}

	elapsed := history.ElapsedSincePrevious(eventsAsc)

	var days []DayView
	for _, g := range history.GroupByDay(eventsDesc) {
		day := DayView{Label: g.Label}
		for _, ev := range g.Events {
			day.Events = append(day.Events, eventView(ev, elapsed))
		}
		days = append(days, day)
	}

	return &TrackView{Package: pkg, Progress: report, Days: days}, nil
}

func eventView(ev *models.Event, elapsed map[uint64]time.Duration) EventView {
	v := EventView{
		ID:        ev.ID,
		Lat:       ev.Lat,
		Lng:       ev.Lng,
		Kind:      history.KindInTransit,
		Country:   history.CountryName(ev.CountryCode),
		TZID:      ev.TZID,
		UTCOffset: ev.UTCOffset,
		LocalTime: ev.LocalTime,
		CreatedAt: ev.CreatedAt,
	}
	if ev.Address != nil {
		v.Address = *ev.Address
		v.ServiceArea = history.ServiceArea(*ev.Address)
	}
	if ev.Note != nil {
		v.Note = *ev.Note
		v.Kind = history.Classify(*ev.Note)
	}
	if d, ok := elapsed[ev.ID]; ok {
		v.Elapsed = history.FormatElapsed(d)
	}
	return v
}

// reconcilePosition guards against a package whose cached position has
// drifted from its newest event. Structurally impossible while writes go
// through AppendEvent, but if it happens the trail wins.
func reconcilePosition(pkg *models.Package, eventsDesc []*models.Event) {
	if len(eventsDesc) == 0 {
		return
	}
	newest := eventsDesc[0]
	if pkg.HasPosition() && *pkg.LastLat == newest.Lat && *pkg.LastLng == newest.Lng {
		return
	}
	slog.Warn("package position disagrees with latest event, trusting the event",
		"package", pkg.TrackingNumber, "event_id", newest.ID)
	pkg.LastLat = &newest.Lat
	pkg.LastLng = &newest.Lng
	if newest.Address != nil {
		pkg.LastAddress = newest.Address
	}
}
