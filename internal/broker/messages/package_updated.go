package messages

import "time"

// PackageUpdated is published after every successful position update so
// downstream consumers (notifications, analytics) see the new state.
type PackageUpdated struct {
	PackageID      uint64  `json:"package_id"`
	TrackingNumber string  `json:"tracking_number"`
	Status         string  `json:"status"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Address        string  `json:"address,omitempty"`
	Note           string  `json:"note,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PositionReported arrives from external position feeds (courier apps,
// carrier webhooks) and is applied as a regular move.
type PositionReported struct {
	TrackingNumber string  `json:"tracking_number"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Address        string  `json:"address,omitempty"`
	Note           string  `json:"note,omitempty"`

	ReportedAt time.Time `json:"reported_at"`
}
