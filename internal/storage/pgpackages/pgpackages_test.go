package pgpackages

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/openparcel/parceltrack/internal/models"
)

func startPostgres(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "parceltrack_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/parceltrack_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestPGPackages_RepoFlow(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	lat, lng := 50.4501, 30.5234
	addr := "Kyiv, Ukraine"
	created, err := st.CreatePackage(ctx, CreateParams{
		TrackingNumber: "PKG-1001",
		Title:          "Books",
		Arriving:       "Kyiv, UA",
		Destination:    "Berlin, DE",
		Lat:            &lat,
		Lng:            &lng,
		Address:        &addr,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, models.PackageStatusCreated, created.Status)
	require.True(t, created.HasPosition())
	require.Equal(t, lat, *created.LastLat)

	// Seed event is there.
	evs, err := st.ListEvents(ctx, created.ID, false)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	require.NotNil(t, evs[0].Note)
	require.Equal(t, "Created", *evs[0].Note)

	// Duplicate tracking number is rejected.
	_, err = st.CreatePackage(ctx, CreateParams{TrackingNumber: "PKG-1001"})
	require.True(t, errors.Is(err, ErrDuplicateTracking))

	// Lookup both ways.
	got, err := st.GetPackageByTracking(ctx, "PKG-1001")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	_, err = st.GetPackageByTracking(ctx, "PKG-NOPE")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestPGPackages_AppendEventAtomicWithPosition(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	lat, lng := 50.4501, 30.5234
	created, err := st.CreatePackage(ctx, CreateParams{
		TrackingNumber: "PKG-2001",
		Destination:    "Berlin, DE",
		Lat:            &lat,
		Lng:            &lng,
	})
	require.NoError(t, err)

	warsaw := "Warsaw, Poland"
	note := "Departed from hub"
	localTime := time.Date(2024, 5, 2, 14, 0, 0, 0, time.UTC)
	ev, err := st.AppendEvent(ctx, created.ID, EventInsert{
		Lat:         52.2297,
		Lng:         21.0122,
		Address:     &warsaw,
		Note:        &note,
		TZID:        "Europe/Warsaw",
		UTCOffset:   "+02:00",
		LocalTime:   &localTime,
		CountryCode: "PL",
	}, models.PackageStatusInTransit)
	require.NoError(t, err)
	require.NotZero(t, ev.ID)

	// Package position and status moved together with the event.
	got, err := st.GetPackageByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.PackageStatusInTransit, got.Status)
	require.Equal(t, 52.2297, *got.LastLat)
	require.Equal(t, 21.0122, *got.LastLng)
	require.Equal(t, warsaw, *got.LastAddress)

	// Empty status keeps the current one (note-only annotation).
	_, err = st.AppendEvent(ctx, created.ID, EventInsert{
		Lat: 52.2297, Lng: 21.0122, Address: &warsaw, Note: &note,
	}, "")
	require.NoError(t, err)
	got, err = st.GetPackageByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.PackageStatusInTransit, got.Status)

	// Append to a missing package is NotFound, and no orphan event is left.
	_, err = st.AppendEvent(ctx, 999999, EventInsert{Lat: 1, Lng: 1}, models.PackageStatusInTransit)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestPGPackages_ListEventsOrder(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	created, err := st.CreatePackage(ctx, CreateParams{TrackingNumber: "PKG-3001"})
	require.NoError(t, err)

	// Same created_at: insertion id must break the tie.
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := st.AppendEvent(ctx, created.ID, EventInsert{
			Lat: float64(i), Lng: float64(i), CreatedAt: at,
		}, models.PackageStatusInTransit)
		require.NoError(t, err)
	}

	asc, err := st.ListEvents(ctx, created.ID, false)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	require.Less(t, asc[0].ID, asc[1].ID)
	require.Less(t, asc[1].ID, asc[2].ID)

	desc, err := st.ListEvents(ctx, created.ID, true)
	require.NoError(t, err)
	require.Equal(t, asc[2].ID, desc[0].ID)
	require.Equal(t, asc[0].ID, desc[2].ID)
}

func TestPGPackages_DeleteCascades(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	lat, lng := 1.0, 2.0
	created, err := st.CreatePackage(ctx, CreateParams{
		TrackingNumber: "PKG-4001", Lat: &lat, Lng: &lng,
	})
	require.NoError(t, err)

	require.NoError(t, st.DeletePackage(ctx, created.ID))

	evs, err := st.ListEvents(ctx, created.ID, false)
	require.NoError(t, err)
	require.Empty(t, evs)

	require.True(t, errors.Is(st.DeletePackage(ctx, created.ID), ErrNotFound))
}

func TestPGPackages_ListAndUpdate(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	_, err := st.CreatePackage(ctx, CreateParams{TrackingNumber: "PKG-5001", Title: "Shoes"})
	require.NoError(t, err)
	p2, err := st.CreatePackage(ctx, CreateParams{TrackingNumber: "PKG-5002", Title: "Laptop"})
	require.NoError(t, err)

	all, err := st.ListPackages(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	filtered, err := st.ListPackages(ctx, "lapt")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "PKG-5002", filtered[0].TrackingNumber)

	require.NoError(t, st.UpdatePackage(ctx, p2.ID, UpdateParams{
		Title:       "Laptop",
		Destination: "Paris, FR",
		Status:      "on_hold", // manual override is stored as-is
	}))
	got, err := st.GetPackageByID(ctx, p2.ID)
	require.NoError(t, err)
	require.Equal(t, "on_hold", got.Status)
	require.Equal(t, "Paris, FR", got.Destination)

	require.True(t, errors.Is(st.UpdatePackage(ctx, 999999, UpdateParams{}), ErrNotFound))
}
