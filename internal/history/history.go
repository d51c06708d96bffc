// Package history turns a package's raw event trail into the shape the
// presentation layer renders: calendar-day buckets, elapsed times between
// hops, a best-effort semantic kind per event, and coarse region labels.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/openparcel/parceltrack/internal/models"
)

// Kind is the semantic class of an event, inferred from its note text.
type Kind string

const (
	KindDelivered Kind = "delivered"
	KindCourier   Kind = "courier"
	KindArrived   Kind = "arrived"
	KindCustoms   Kind = "customs"
	KindDeparted  Kind = "departed"
	KindInTransit Kind = "in_transit"
)

// Classification is keyword matching over free text and lossy by design:
// the rules run in fixed priority order and anything ambiguous falls
// through to in_transit.
var classifyRules = []struct {
	kind     Kind
	keywords []string
}{
	{KindDelivered, []string{"delivered", "handed over to recipient"}},
	{KindCourier, []string{"courier", "out for delivery"}},
	{KindArrived, []string{"arrived", "received at", "reached"}},
	{KindCustoms, []string{"customs", "clearance"}},
	{KindDeparted, []string{"departed", "left the", "dispatched", "shipped"}},
}

// Classify maps a free-text note to its Kind, case-insensitively.
func Classify(note string) Kind {
	n := strings.ToLower(note)
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(n, kw) {
				return rule.kind
			}
		}
	}
	return KindInTransit
}

type DayGroup struct {
	Label  string
	Events []*models.Event
}

// GroupByDay buckets a newest-first event list into calendar days,
// preserving the incoming order across and within buckets. The day label
// uses the event's enriched local time when present, UTC otherwise.
func GroupByDay(events []*models.Event) []DayGroup {
	var groups []DayGroup
	for _, ev := range events {
		label := dayLabel(ev)
		if len(groups) == 0 || groups[len(groups)-1].Label != label {
			groups = append(groups, DayGroup{Label: label})
		}
		last := &groups[len(groups)-1]
		last.Events = append(last.Events, ev)
	}
	return groups
}

func dayLabel(ev *models.Event) string {
	if ev.LocalTime != nil {
		return ev.LocalTime.Format("2006-01-02")
	}
	return ev.CreatedAt.UTC().Format("2006-01-02")
}

// ElapsedSincePrevious returns, for each event except the earliest, the
// time since the immediately preceding chronological event. Input must be
// oldest-first.
func ElapsedSincePrevious(events []*models.Event) map[uint64]time.Duration {
	out := make(map[uint64]time.Duration, len(events))
	for i := 1; i < len(events); i++ {
		out[events[i].ID] = events[i].CreatedAt.Sub(events[i-1].CreatedAt)
	}
	return out
}

// FormatElapsed renders a duration as "Nd Nh", "Nh Nm" or "Nm" for
// display next to an event.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

// ServiceArea reduces a full address to its last up-to-3 comma segments,
// a coarse "region" label like "Mitte · Berlin · Germany".
func ServiceArea(address string) string {
	parts := strings.Split(address, ",")
	var segs []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segs = append(segs, p)
		}
	}
	if len(segs) == 0 {
		return ""
	}
	if len(segs) > 3 {
		segs = segs[len(segs)-3:]
	}
	return strings.Join(segs, " · ")
}

var countryNames = map[string]string{
	"DE": "Germany",
	"FR": "France",
	"GB": "United Kingdom",
	"IT": "Italy",
	"ES": "Spain",
	"UA": "Ukraine",
	"RU": "Russia",
	"US": "United States",
	"CA": "Canada",
	"JP": "Japan",
	"CN": "China",
	"KR": "South Korea",
	"IN": "India",
	"SG": "Singapore",
	"AU": "Australia",
}

// CountryName returns the display name for an ISO country code, or the
// code itself when unknown.
func CountryName(code string) string {
	if name, ok := countryNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}
