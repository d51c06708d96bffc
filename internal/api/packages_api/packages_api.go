// Package packages_api exposes the tracking service over JSON HTTP: a
// public tracking view plus the administrative package CRUD.
package packages_api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/openparcel/parceltrack/internal/geomath"
	"github.com/openparcel/parceltrack/internal/services/packages"
	"github.com/openparcel/parceltrack/internal/storage/pgpackages"
)

type PackagesAPI struct {
	svc *packages.Service
}

func New(svc *packages.Service) *PackagesAPI {
	return &PackagesAPI{svc: svc}
}

// Router mounts all routes. The /track prefix is the public surface;
// everything under /packages is meant to sit behind the admin gateway.
func (a *PackagesAPI) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/track/{trackingNumber}", a.handleTrack)

	r.Route("/packages", func(r chi.Router) {
		r.Post("/", a.handleCreate)
		r.Get("/", a.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.handleGet)
			r.Put("/", a.handleUpdate)
			r.Delete("/", a.handleDelete)
			r.Post("/move", a.handleMove)
			r.Post("/note", a.handleAddNote)
			r.Get("/events", a.handleEvents)
		})
	})

	return r
}

func (a *PackagesAPI) handleTrack(w http.ResponseWriter, r *http.Request) {
	view, err := a.svc.Track(r.Context(), chi.URLParam(r, "trackingNumber"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type createRequest struct {
	TrackingNumber string   `json:"tracking_number"`
	Title          string   `json:"title"`
	Arriving       string   `json:"arriving"`
	Destination    string   `json:"destination"`
	DeliveryOption string   `json:"delivery_option"`
	Description    string   `json:"description"`
	Address        string   `json:"address"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
}

func (a *PackagesAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pkg, err := a.svc.Create(r.Context(), packages.CreateInput{
		TrackingNumber: req.TrackingNumber,
		Title:          req.Title,
		Arriving:       req.Arriving,
		Destination:    req.Destination,
		DeliveryOption: req.DeliveryOption,
		Description:    req.Description,
		Address:        req.Address,
		Lat:            req.Lat,
		Lng:            req.Lng,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pkg)
}

func (a *PackagesAPI) handleList(w http.ResponseWriter, r *http.Request) {
	pkgs, err := a.svc.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": pkgs})
}

func (a *PackagesAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	pkg, err := a.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

type updateRequest struct {
	Title          string  `json:"title"`
	Arriving       string  `json:"arriving"`
	Destination    string  `json:"destination"`
	DeliveryOption string  `json:"delivery_option"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	ImagePath      *string `json:"image_path"`
}

func (a *PackagesAPI) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.svc.Update(r.Context(), id, packages.UpdateInput{
		Title:          req.Title,
		Arriving:       req.Arriving,
		Destination:    req.Destination,
		DeliveryOption: req.DeliveryOption,
		Description:    req.Description,
		Status:         req.Status,
		ImagePath:      req.ImagePath,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	pkg, err := a.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func (a *PackagesAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	if err := a.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type moveRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
	Note    string   `json:"note"`
}

// handleMove accepts either a coordinate pair or an address to geocode.
// A coordinate wins when both are present.
func (a *PackagesAPI) handleMove(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if (req.Lat == nil) != (req.Lng == nil) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "lat and lng must come together"})
		return
	}

	var (
		pkg any
		err error
	)
	if req.Lat != nil {
		pkg, err = a.svc.Move(r.Context(), id, geomath.Coordinate{Lat: *req.Lat, Lng: *req.Lng}, req.Address, req.Note)
	} else {
		pkg, err = a.svc.MoveToAddress(r.Context(), id, req.Address, req.Note)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (a *PackagesAPI) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ev, err := a.svc.AddNote(r.Context(), id, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (a *PackagesAPI) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	events, err := a.svc.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func packageID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid package id"})
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pgpackages.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pgpackages.ErrDuplicateTracking):
		status = http.StatusConflict
	case errors.Is(err, packages.ErrInvalidCoordinate):
		status = http.StatusBadRequest
	case errors.Is(err, packages.ErrAddressNotFound):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
