package voice

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/iterworks/juvo-backend/internal/http/middleware"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// Handler exposes the voice pipeline over HTTP.
type Handler struct {
	pipeline *Pipeline
	logger   *logging.Logger
}

// NewHandler creates a voice HTTP handler.
func NewHandler(pipeline *Pipeline, logger *logging.Logger) *Handler {
	if pipeline == nil {
		panic("voice: pipeline cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{pipeline: pipeline, logger: logger}
}

// Routes returns a chi router with voice routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/message", h.Message)
	return r
}

// MessageRequest carries one voice note as a base64 data URI.
type MessageRequest struct {
	AudioDataURI string `json:"audioDataUri"`
}

// Message runs one voice round trip.
// POST /voice/message
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.AudioDataURI == "" {
		http.Error(w, `{"error": "audioDataUri is required"}`, http.StatusBadRequest)
		return
	}

	result, err := h.pipeline.Process(r.Context(), userID, req.AudioDataURI)
	if err != nil {
		if errors.Is(err, ErrNoTranscript) {
			http.Error(w, `{"error": "could not understand the audio"}`, http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("voice message failed", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
