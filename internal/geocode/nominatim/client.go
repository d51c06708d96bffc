// Package nominatim is the OpenStreetMap Nominatim client behind the
// geocode.Geocoder contract.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/openparcel/parceltrack/internal/geocode"
	"github.com/openparcel/parceltrack/internal/geomath"
)

const defaultUserAgent = "parceltrack"

type Client struct {
	baseURL   string
	userAgent string
	httpc     *http.Client
}

// New builds a client. An empty baseURL targets the public Nominatim
// instance; timeout <= 0 defaults to 6 seconds (the oracle is best-effort
// and must not stall position updates).
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: defaultUserAgent,
		httpc:     &http.Client{Timeout: timeout},
	}
}

type searchItem struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *Client) Forward(ctx context.Context, query string) (*geomath.Coordinate, string, error) {
	if query == "" {
		return nil, "", nil
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, "", errors.Wrap(err, "parse base url")
	}
	u.Path = "/search"
	q := u.Query()
	q.Set("format", "json")
	q.Set("q", query)
	u.RawQuery = q.Encode()

	var items []searchItem
	if err := c.getJSON(ctx, u.String(), &items); err != nil {
		return nil, "", err
	}
	if len(items) == 0 {
		return nil, "", nil
	}

	lat, errLat := strconv.ParseFloat(items[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(items[0].Lon, 64)
	if errLat != nil || errLng != nil {
		return nil, "", errors.Wrapf(geocode.ErrUnavailable, "bad coordinates %q,%q", items[0].Lat, items[0].Lon)
	}
	coord := geomath.Coordinate{Lat: lat, Lng: lng}
	if !coord.Valid() {
		return nil, "", errors.Wrapf(geocode.ErrUnavailable, "out-of-range coordinates %v", coord)
	}
	return &coord, items[0].DisplayName, nil
}

type reverseResp struct {
	DisplayName string `json:"display_name"`
}

func (c *Client) Reverse(ctx context.Context, coord geomath.Coordinate) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse base url")
	}
	u.Path = "/reverse"
	q := u.Query()
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coord.Lng, 'f', -1, 64))
	u.RawQuery = q.Encode()

	var r reverseResp
	if err := c.getJSON(ctx, u.String(), &r); err != nil {
		return "", err
	}
	return r.DisplayName, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(geocode.ErrUnavailable, "do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errors.Wrapf(geocode.ErrUnavailable, "nominatim http %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(geocode.ErrUnavailable, "decode: %v", err)
	}
	return nil
}

var _ geocode.Geocoder = (*Client)(nil)

// String implements fmt.Stringer for log lines.
func (c *Client) String() string {
	return fmt.Sprintf("nominatim(%s)", c.baseURL)
}
