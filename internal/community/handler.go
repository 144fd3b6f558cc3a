package community

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/iterworks/juvo-backend/internal/http/middleware"
	"github.com/iterworks/juvo-backend/internal/moderation"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// Handler exposes the community board over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a community HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("community: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi router with community routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/posts", h.ListPosts)
	r.Post("/posts", h.CreatePost)
	r.Get("/posts/{postID}", h.GetThread)
	r.Post("/posts/{postID}/replies", h.CreateReply)
	return r
}

// ListPosts returns the newest posts.
// GET /community/posts?limit=N
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	posts, err := h.service.ListPosts(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []PostRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// CreatePost publishes a new post after moderation.
// POST /community/posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var input moderation.PostInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	post, err := h.service.CreatePost(r.Context(), userID, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// GetThread returns a post and its replies.
// GET /community/posts/{postID}
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	thread, err := h.service.GetThread(r.Context(), postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, `{"error": "post not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to fetch thread", "post_id", postID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

// CreateReply publishes a reply after moderation.
// POST /community/posts/{postID}/replies
func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}
	postID := chi.URLParam(r, "postID")
	var input moderation.ReplyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	reply, err := h.service.CreateReply(r.Context(), userID, postID, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *moderation.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
		return
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"approved": false, "reason": rejected.Reason})
		return
	}
	if errors.Is(err, ErrPostNotFound) {
		http.Error(w, `{"error": "post not found"}`, http.StatusNotFound)
		return
	}
	h.logger.Error("community request failed", "error", err)
	http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
