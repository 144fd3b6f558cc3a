package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/iterworks/juvo-backend/internal/http/middleware"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// Handler exposes profile management over HTTP.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a profile HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if store == nil {
		panic("profile: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes returns a chi router with profile routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Put("/", h.Put)
	return r
}

// Get returns the caller's profile.
// GET /profile
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}
	record, err := h.store.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			// A fresh user simply has nothing saved yet.
			writeJSON(w, http.StatusOK, &Record{UserID: userID})
			return
		}
		h.logger.Error("failed to fetch profile", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// UpdateRequest is the request body for updating a profile.
type UpdateRequest struct {
	DisplayName    string `json:"displayName"`
	Role           string `json:"role"`
	Institution    string `json:"institution"`
	CaretakerName  string `json:"caretakerName"`
	CaretakerEmail string `json:"caretakerEmail"`
	CaretakerPhone string `json:"caretakerPhone"`
	Language       string `json:"language"`
}

// Put replaces the caller's profile.
// PUT /profile
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.CaretakerEmail != "" && !strings.Contains(req.CaretakerEmail, "@") {
		http.Error(w, `{"error": "caretakerEmail must be a valid email address"}`, http.StatusBadRequest)
		return
	}
	switch req.Role {
	case "", "student", "institution", "counselor":
	default:
		http.Error(w, `{"error": "role must be student, institution, or counselor"}`, http.StatusBadRequest)
		return
	}

	record := &Record{
		UserID:         userID,
		DisplayName:    req.DisplayName,
		Role:           req.Role,
		Institution:    req.Institution,
		CaretakerName:  req.CaretakerName,
		CaretakerEmail: req.CaretakerEmail,
		CaretakerPhone: req.CaretakerPhone,
		Language:       req.Language,
	}
	if err := h.store.Put(r.Context(), record); err != nil {
		h.logger.Error("failed to save profile", "user_id", userID, "error", err)
		http.Error(w, `{"error": "failed to save profile"}`, http.StatusInternalServerError)
		return
	}
	h.logger.Info("profile updated", "user_id", userID)
	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
