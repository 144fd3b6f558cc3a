package counselor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/iterworks/juvo-backend/internal/notify"
	"github.com/iterworks/juvo-backend/internal/therapy"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// TranscriptSource supplies a student's recent chat turns.
type TranscriptSource interface {
	RecentTurns(ctx context.Context, userID string, limit int) ([]therapy.Turn, error)
}

// ConcernAnalyzer reviews a conversation for escalation need.
type ConcernAnalyzer interface {
	Analyze(ctx context.Context, history []therapy.Turn) (therapy.Concern, error)
}

// Handler exposes the counselor portal flows.
type Handler struct {
	transcripts    TranscriptSource
	concerns       ConcernAnalyzer
	emergencies    *EmergencyEscalator
	email          notify.EmailSender
	counselorEmail string
	logger         *logging.Logger
}

// NewHandler creates a counselor HTTP handler. counselorEmail may be empty;
// escalations are then surfaced without a notification.
func NewHandler(transcripts TranscriptSource, concerns ConcernAnalyzer, emergencies *EmergencyEscalator, email notify.EmailSender, counselorEmail string, logger *logging.Logger) *Handler {
	if transcripts == nil {
		panic("counselor: transcript source cannot be nil")
	}
	if concerns == nil {
		panic("counselor: concern analyzer cannot be nil")
	}
	if emergencies == nil {
		panic("counselor: emergency escalator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		transcripts:    transcripts,
		concerns:       concerns,
		emergencies:    emergencies,
		email:          email,
		counselorEmail: counselorEmail,
		logger:         logger,
	}
}

// Routes returns a chi router with counselor routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/concern/{userID}", h.Concern)
	r.Post("/emergency/{userID}", h.Emergency)
	return r
}

// Concern reviews a student's recent conversation for escalation need.
// GET /counselor/concern/{userID}
func (h *Handler) Concern(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	history, err := h.transcripts.RecentTurns(r.Context(), userID, 20)
	if err != nil {
		h.logger.Error("failed to load transcript", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	concern, err := h.concerns.Analyze(r.Context(), history)
	if err != nil {
		h.logger.Error("concern analysis failed", "user_id", userID, "error", err)
		http.Error(w, `{"error": "analysis unavailable"}`, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, concern)
}

// Emergency triages a student's recent conversation and notifies the
// counselor when the verdict calls for it.
// POST /counselor/emergency/{userID}
func (h *Handler) Emergency(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	history, err := h.transcripts.RecentTurns(r.Context(), userID, 20)
	if err != nil {
		h.logger.Error("failed to load transcript", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	var transcript strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&transcript, "%s: %s\n", turn.Role, turn.Content)
	}

	escalation, err := h.emergencies.Assess(r.Context(), transcript.String())
	if err != nil {
		h.logger.Error("emergency triage failed", "user_id", userID, "error", err)
		http.Error(w, `{"error": "triage unavailable"}`, http.StatusBadGateway)
		return
	}

	if escalation.CounselorAlertSent && h.email != nil && h.counselorEmail != "" {
		msg := notify.EmailMessage{
			To:      h.counselorEmail,
			Subject: "Emergency Escalation: A Student May Need Immediate Support",
			Body:    fmt.Sprintf("An automated review flagged a student conversation as an emergency.\n\nStudent reference: %s\n\nPlease follow your crisis response protocol.", userID),
		}
		if err := h.email.Send(r.Context(), msg); err != nil {
			// The verdict still stands; the portal shows it either way.
			h.logger.Error("failed to notify counselor", "user_id", userID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, escalation)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
