package models

import "time"

// Статусы посылки. created/in_transit/delivered проставляются автоматически,
// остальные значения допустимы только через ручной override.
const (
	PackageStatusCreated   = "created"
	PackageStatusInTransit = "in_transit"
	PackageStatusDelivered = "delivered"
)

type Package struct {
	ID             uint64    `json:"id"`
	TrackingNumber string    `json:"tracking_number"`
	Title          string    `json:"title"`
	Arriving       string    `json:"arriving"`
	Destination    string    `json:"destination"`
	DeliveryOption string    `json:"delivery_option,omitempty"`
	Description    string    `json:"description,omitempty"`
	Status         string    `json:"status"`
	LastLat        *float64  `json:"last_lat,omitempty"`
	LastLng        *float64  `json:"last_lng,omitempty"`
	LastAddress    *string   `json:"last_address,omitempty"`
	ImagePath      *string   `json:"image_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasPosition reports whether the package has a last known coordinate.
// LastLat и LastLng всегда либо оба nil, либо оба заданы.
func (p *Package) HasPosition() bool {
	return p.LastLat != nil && p.LastLng != nil
}

type Event struct {
	ID        uint64  `json:"id"`
	PackageID uint64  `json:"package_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Address   *string `json:"address,omitempty"`
	Note      *string `json:"note,omitempty"`

	// Timezone enrichment, best-effort at append time.
	TZID        string     `json:"tzid,omitempty"`
	UTCOffset   string     `json:"utc_offset,omitempty"`
	LocalTime   *time.Time `json:"local_time,omitempty"`
	CountryCode string     `json:"country_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
