package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds a notification body.
const maxBodyBytes = 1 << 20

// envelope is the part of a PayPal notification the inbox indexes.
type envelope struct {
	ID           string `json:"id"`
	EventType    string `json:"event_type"`
	ResourceType string `json:"resource_type"`
	Summary      string `json:"summary"`
	CreateTime   string `json:"create_time"`
	Resource     struct {
		ID string `json:"id"`
	} `json:"resource"`
}

// Handler handles webhook inbox requests.
type Handler struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(s *Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
		now:    time.Now,
	}
}

// Routes builds the inbox router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/webhooks/paypal", func(r chi.Router) {
		r.Post("/", h.ReceivePayPal)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

// ReceivePayPal handles POST /webhooks/paypal
func (h *Handler) ReceivePayPal(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if env.ID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing event id")
		return
	}

	created, err := h.store.Save(Event{
		ID:           env.ID,
		EventType:    env.EventType,
		ResourceType: env.ResourceType,
		ResourceID:   env.Resource.ID,
		Summary:      env.Summary,
		CreateTime:   env.CreateTime,
		ReceivedAt:   h.now().UTC(),
		Raw:          json.RawMessage(body),
	})
	if err != nil {
		h.logger.Error("Failed to store webhook event", "event_id", env.ID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to store event")
		return
	}

	h.logger.Info("Received webhook event",
		"event_id", env.ID,
		"event_type", env.EventType,
		"resource_id", env.Resource.ID,
		"duplicate", !created,
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"duplicate": !created,
	})
}

// List handles GET /webhooks/paypal
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.List()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
	})
}

// Get handles GET /webhooks/paypal/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.store.Get(chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Event not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ErrorResponse represents an inbox error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}
