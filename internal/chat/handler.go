package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/iterworks/juvo-backend/internal/http/middleware"
	"github.com/iterworks/juvo-backend/internal/therapy"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// Handler exposes the chat endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a chat HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("chat: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi router with chat routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/message", h.SendMessage)
	r.Get("/history", h.History)
	return r
}

// SendMessage runs one chat round trip.
// POST /chat/message
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var input MessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	result, err := h.service.SendMessage(r.Context(), userID, input)
	if err != nil {
		h.logger.Error("chat message failed", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// History returns the user's recent transcript.
// GET /chat/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}
	history, err := h.service.History(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load chat history", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []therapy.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
