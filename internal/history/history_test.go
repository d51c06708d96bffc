package history

import (
	"testing"
	"time"

	"github.com/openparcel/parceltrack/internal/models"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		note string
		want Kind
	}{
		{"Package left the facility", KindDeparted},
		{"Departed from Kyiv hub", KindDeparted},
		{"Arrived at sorting center", KindArrived},
		{"Passed customs", KindCustoms},
		{"Handed to courier", KindCourier},
		{"Out for delivery", KindCourier},
		{"Delivered to recipient", KindDelivered},
		{"DELIVERED", KindDelivered},
		{"", KindInTransit},
		{"Moved", KindInTransit},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Classify(c.note), "note=%q", c.note)
	}
}

func TestClassify_PriorityIsDeterministic(t *testing.T) {
	// "delivered" outranks "courier" when both keywords appear.
	require.Equal(t, KindDelivered, Classify("Delivered by courier"))
}

func ev(id uint64, at time.Time, local *time.Time) *models.Event {
	return &models.Event{ID: id, CreatedAt: at, LocalTime: local}
}

func TestGroupByDay(t *testing.T) {
	d1 := time.Date(2024, 5, 3, 22, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)

	// Newest first, as the storage returns for display.
	groups := GroupByDay([]*models.Event{ev(3, d1, nil), ev(2, d2, nil), ev(1, d3, nil)})
	require.Len(t, groups, 2)
	require.Equal(t, "2024-05-03", groups[0].Label)
	require.Len(t, groups[0].Events, 2)
	require.Equal(t, uint64(3), groups[0].Events[0].ID)
	require.Equal(t, uint64(2), groups[0].Events[1].ID)
	require.Equal(t, "2024-05-01", groups[1].Label)
}

func TestGroupByDay_PrefersLocalTime(t *testing.T) {
	// 23:30 UTC on May 3rd is already May 4th in Kyiv.
	utc := time.Date(2024, 5, 3, 23, 30, 0, 0, time.UTC)
	local := utc.Add(3 * time.Hour)

	groups := GroupByDay([]*models.Event{ev(1, utc, &local)})
	require.Len(t, groups, 1)
	require.Equal(t, "2024-05-04", groups[0].Label)
}

func TestGroupByDay_Empty(t *testing.T) {
	require.Empty(t, GroupByDay(nil))
}

func TestElapsedSincePrevious(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	events := []*models.Event{
		ev(1, t0, nil),
		ev(2, t0.Add(26*time.Hour), nil),
		ev(3, t0.Add(26*time.Hour+45*time.Minute), nil),
	}

	elapsed := ElapsedSincePrevious(events)
	require.Len(t, elapsed, 2)
	_, hasFirst := elapsed[1]
	require.False(t, hasFirst)
	require.Equal(t, 26*time.Hour, elapsed[2])
	require.Equal(t, 45*time.Minute, elapsed[3])
}

func TestFormatElapsed(t *testing.T) {
	require.Equal(t, "1d 2h", FormatElapsed(26*time.Hour))
	require.Equal(t, "3h 5m", FormatElapsed(3*time.Hour+5*time.Minute))
	require.Equal(t, "12m", FormatElapsed(12*time.Minute))
	require.Equal(t, "0m", FormatElapsed(-time.Minute))
}

func TestServiceArea(t *testing.T) {
	require.Equal(t, "", ServiceArea(""))
	require.Equal(t, "Berlin", ServiceArea("Berlin"))
	require.Equal(t, "Mitte · Berlin · Germany", ServiceArea("Mitte, Berlin, Germany"))
	require.Equal(t, "10115 · Berlin · Germany", ServiceArea("Alexanderplatz 1, Mitte, 10115, Berlin, Germany"))
	require.Equal(t, "Berlin · Germany", ServiceArea("  Berlin ,, Germany "))
}

func TestCountryName(t *testing.T) {
	require.Equal(t, "Ukraine", CountryName("UA"))
	require.Equal(t, "Germany", CountryName("de"))
	require.Equal(t, "XX", CountryName("XX"))
}
