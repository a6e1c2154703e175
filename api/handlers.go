package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"geocell/geohash"
	"geocell/models"
)

// PlaceService is the part of proximity.Service the API needs.
type PlaceService interface {
	Register(ctx context.Context, name string, c geohash.Coord) (models.Place, error)
	Get(ctx context.Context, id int64) (models.Place, error)
	Remove(ctx context.Context, id int64) error
	Nearby(ctx context.Context, c geohash.Coord, limit int) ([]models.NearbyResult, error)
}

type Handler struct {
	places PlaceService
	// health reports the state of the backing services; nil means healthy.
	health func(ctx context.Context) error
	log    *slog.Logger
}

func NewHandler(places PlaceService, health func(ctx context.Context) error, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{places: places, health: health, log: log}
}

const defaultNearbyLimit = 10

type decodeResponse struct {
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	LonError float64 `json:"lon_error"`
	LatError float64 `json:"lat_error"`
}

type hashResponse struct {
	Geohash string `json:"geohash"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug("encoding response", "status", status, "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps err to a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, geohash.ErrInvalidCoordinateRange),
		errors.Is(err, geohash.ErrInvalidLength),
		errors.Is(err, geohash.ErrInvalidHashCharacter),
		errors.Is(err, geohash.ErrInvalidHash):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sql.ErrNoRows):
		h.writeError(w, http.StatusNotFound, "not found")
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, errors.New("missing query parameter " + name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New("invalid query parameter " + name)
	}
	return f, nil
}

func parseCoord(r *http.Request) (geohash.Coord, error) {
	lon, err := parseFloat(r, "lon")
	if err != nil {
		return geohash.Coord{}, err
	}
	lat, err := parseFloat(r, "lat")
	if err != nil {
		return geohash.Coord{}, err
	}
	return geohash.Coord{X: lon, Y: lat}, nil
}

func parseIntParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid query parameter " + name)
	}
	return n, nil
}

// Encode handles GET /geohash/encode?lon=&lat=&len=
func (h *Handler) Encode(w http.ResponseWriter, r *http.Request) {
	c, err := parseCoord(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	length, err := parseIntParam(r, "len", geohash.MaxLength)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := geohash.Encode(c, length)
	observeCodec("encode", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, hashResponse{Geohash: hash})
}

// Decode handles GET /geohash/{hash}
func (h *Handler) Decode(w http.ResponseWriter, r *http.Request) {
	c, lonErr, latErr, err := geohash.Decode(mux.Vars(r)["hash"])
	observeCodec("decode", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, decodeResponse{Lon: c.X, Lat: c.Y, LonError: lonErr, LatError: latErr})
}

// Bbox handles GET /geohash/{hash}/bbox
func (h *Handler) Bbox(w http.ResponseWriter, r *http.Request) {
	rect, err := geohash.DecodeBbox(mux.Vars(r)["hash"])
	observeCodec("decode_bbox", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rect)
}

// Neighbors handles GET /geohash/{hash}/neighbors
func (h *Handler) Neighbors(w http.ResponseWriter, r *http.Request) {
	ns, err := geohash.AllNeighbors(mux.Vars(r)["hash"])
	observeCodec("neighbors", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ns)
}

// Neighbor handles GET /geohash/{hash}/neighbors/{direction}
func (h *Handler) Neighbor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	d, err := geohash.ParseDirection(vars["direction"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := geohash.Neighbor(vars["hash"], d)
	observeCodec("neighbor", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, hashResponse{Geohash: hash})
}

// CreatePlace handles POST /places
func (h *Handler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string   `json:"name"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Name == "" || req.Latitude == nil || req.Longitude == nil {
		h.writeError(w, http.StatusBadRequest, "name, latitude and longitude are required")
		return
	}

	p, err := h.places.Register(r.Context(), req.Name, geohash.Coord{X: *req.Longitude, Y: *req.Latitude})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, p)
}

func placeID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// GetPlace handles GET /places/{id}
func (h *Handler) GetPlace(w http.ResponseWriter, r *http.Request) {
	id, err := placeID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid place ID")
		return
	}
	p, err := h.places.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// DeletePlace handles DELETE /places/{id}
func (h *Handler) DeletePlace(w http.ResponseWriter, r *http.Request) {
	id, err := placeID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid place ID")
		return
	}
	if err := h.places.Remove(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NearbyPlaces handles GET /places/nearby?lon=&lat=&limit=
func (h *Handler) NearbyPlaces(w http.ResponseWriter, r *http.Request) {
	c, err := parseCoord(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseIntParam(r, "limit", defaultNearbyLimit)
	if err != nil || limit < 1 {
		h.writeError(w, http.StatusBadRequest, "invalid query parameter limit")
		return
	}

	results, err := h.places.Nearby(r.Context(), c, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.log.Warn("health check failed", "err", err)
			h.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
