// Package httpserver exposes the item service over JSON/HTTP.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"github.com/and161185/shoplist/internal/convert"
	"github.com/and161185/shoplist/internal/errs"
	"github.com/and161185/shoplist/internal/ordering"
	"github.com/and161185/shoplist/internal/service"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Handler routes shopping-list requests to the item service.
type Handler struct {
	svc   service.ItemService
	log   *zap.Logger
	mux   *http.ServeMux
	query *schema.Decoder
}

// New returns the full handler chain: recovery, request id, access log, routes.
func New(svc service.ItemService, log *zap.Logger) http.Handler {
	h := &Handler{
		svc:   svc,
		log:   log,
		mux:   http.NewServeMux(),
		query: schema.NewDecoder(),
	}
	h.query.IgnoreUnknownKeys(true)
	h.routes()
	return Chain(h.mux, WithRequestID, Recover(log), Logging(log))
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /items", h.handleList)
	h.mux.HandleFunc("POST /items", h.handleCreate)
	h.mux.HandleFunc("PUT /items/{id}/toggle", h.handleToggle)
	h.mux.HandleFunc("PUT /items/reorder", h.handleReorder)
	h.mux.HandleFunc("PUT /items/swap", h.handleSwap)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, "list", err)
		return
	}
	withIndex := h.svc.Strategy() == ordering.StrategyIndex

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(convert.ToWireItems(items, withIndex)); err != nil {
		h.log.Warn("encode list", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in convert.Item
	if !h.decodeBody(w, r, &in) {
		return
	}
	if _, err := h.svc.Create(r.Context(), convert.FromWireNewItem(in)); err != nil {
		h.fail(w, r, "create", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.fail(w, r, "toggle", errors.Join(errs.ErrValidation, err))
		return
	}
	if err := h.svc.Toggle(r.Context(), id); err != nil {
		h.fail(w, r, "toggle", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request) {
	var in convert.Item
	if !h.decodeBody(w, r, &in) {
		return
	}
	id, idx, err := convert.FromWireReorder(in)
	if err != nil {
		h.fail(w, r, "reorder", err)
		return
	}
	if err := h.svc.Reorder(r.Context(), id, idx); err != nil {
		h.fail(w, r, "reorder", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleSwap takes ids from the query string when present, else from the body.
func (h *Handler) handleSwap(w http.ResponseWriter, r *http.Request) {
	var in convert.SwapRequest
	q := r.URL.Query()
	if q.Has("id_a") || q.Has("id_b") {
		if err := h.query.Decode(&in, q); err != nil {
			h.fail(w, r, "swap", errors.Join(errs.ErrValidation, err))
			return
		}
	} else if !h.decodeBody(w, r, &in) {
		return
	}
	if err := h.svc.Swap(r.Context(), in.IDA, in.IDB); err != nil {
		h.fail(w, r, "swap", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.log.Warn("health", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// decodeBody reads a size-limited JSON body; on failure it answers 400.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.fail(w, r, "decode", errors.Join(errs.ErrValidation, err))
		return false
	}
	return true
}

// fail logs err and writes the mapped status with an empty body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := StatusFor(err)
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", code),
		zap.String("request_id", RequestID(r.Context())),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError && code != http.StatusNotImplemented {
		h.log.Error("request failed", fields...)
	} else {
		h.log.Warn("request rejected", fields...)
	}
	w.WriteHeader(code)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrNotFound):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
