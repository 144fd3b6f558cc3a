package wellness

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/iterworks/juvo-backend/internal/http/middleware"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// Handler exposes wellness tracking and insight flows over HTTP.
type Handler struct {
	store    *Store
	insights *Insights
	logger   *logging.Logger
}

// NewHandler creates a wellness HTTP handler.
func NewHandler(store *Store, insights *Insights, logger *logging.Logger) *Handler {
	if store == nil {
		panic("wellness: store cannot be nil")
	}
	if insights == nil {
		panic("wellness: insights cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, insights: insights, logger: logger}
}

// Routes returns a chi router with wellness routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/mood", h.LogMood)
	r.Get("/mood", h.RecentMoods)
	r.Post("/vitals", h.LogVitals)
	r.Get("/vitals/today", h.TodayVitals)
	r.Post("/cycle", h.LogCycle)
	r.Get("/cycle", h.MonthlyCycle)
	r.Post("/food", h.LogFood)
	r.Put("/sleep", h.SaveSleepSchedule)
	r.Get("/sleep", h.GetSleepSchedule)
	r.Post("/insights/affirmation", h.Affirmation)
	r.Post("/insights/food-mood", h.FoodMood)
	r.Post("/insights/sleep-stress", h.SleepStress)
	r.Post("/insights/cycle", h.Cycle)
	return r
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
	}
	return userID, ok
}

// LogMood records a mood entry.
// POST /wellness/mood
func (h *Handler) LogMood(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var log MoodLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if log.Mood == "" {
		http.Error(w, `{"error": "mood is required"}`, http.StatusBadRequest)
		return
	}
	if log.Score < 0 || log.Score > 100 {
		http.Error(w, `{"error": "score must be between 0 and 100"}`, http.StatusBadRequest)
		return
	}
	if err := h.store.LogMood(r.Context(), userID, &log); err != nil {
		h.logger.Error("failed to log mood", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

// RecentMoods returns the past week of moods.
// GET /wellness/mood
func (h *Handler) RecentMoods(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	moods, err := h.store.MoodsSince(r.Context(), userID, time.Now().Add(-7*24*time.Hour))
	if err != nil {
		h.logger.Error("failed to load moods", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if moods == nil {
		moods = []MoodLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"moods": moods})
}

// LogVitals records a wearable reading.
// POST /wellness/vitals
func (h *Handler) LogVitals(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var log VitalsLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if err := h.store.LogVitals(r.Context(), userID, &log); err != nil {
		h.logger.Error("failed to log vitals", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

// TodayVitals returns the latest reading from today.
// GET /wellness/vitals/today
func (h *Handler) TodayVitals(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	vitals, err := h.store.TodayVitals(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load vitals", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vitals": vitals})
}

// LogCycle records a cycle day entry.
// POST /wellness/cycle
func (h *Handler) LogCycle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var log CycleLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if log.DayOfCycle < 1 {
		http.Error(w, `{"error": "dayOfCycle must be at least 1"}`, http.StatusBadRequest)
		return
	}
	if err := h.store.LogCycle(r.Context(), userID, &log); err != nil {
		h.logger.Error("failed to log cycle entry", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

// MonthlyCycle returns the past month of cycle entries.
// GET /wellness/cycle
func (h *Handler) MonthlyCycle(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	logs, err := h.store.CyclesSince(r.Context(), userID, time.Now().Add(-30*24*time.Hour))
	if err != nil {
		h.logger.Error("failed to load cycle entries", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []CycleLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": logs})
}

// LogFood records a food diary entry.
// POST /wellness/food
func (h *Handler) LogFood(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var log FoodLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if log.Entry == "" {
		http.Error(w, `{"error": "entry is required"}`, http.StatusBadRequest)
		return
	}
	if err := h.store.LogFood(r.Context(), userID, &log); err != nil {
		h.logger.Error("failed to log food entry", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

// SaveSleepSchedule replaces the user's sleep schedule.
// PUT /wellness/sleep
func (h *Handler) SaveSleepSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var schedule SleepSchedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if err := h.store.SaveSleepSchedule(r.Context(), userID, &schedule); err != nil {
		h.logger.Error("failed to save sleep schedule", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// GetSleepSchedule returns the user's sleep schedule.
// GET /wellness/sleep
func (h *Handler) GetSleepSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	schedule, err := h.store.SleepScheduleFor(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoSleepSchedule) {
			http.Error(w, `{"error": "no sleep schedule saved"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load sleep schedule", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// Affirmation generates a personal affirmation.
// POST /wellness/insights/affirmation
func (h *Handler) Affirmation(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	var req struct {
		Mood  string `json:"mood"`
		Needs string `json:"needs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	affirmation := h.insights.Affirmation(r.Context(), req.Mood, req.Needs)
	writeJSON(w, http.StatusOK, map[string]string{"affirmation": affirmation})
}

// FoodMood analyzes the food diary against the user's mood.
// POST /wellness/insights/food-mood
func (h *Handler) FoodMood(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	var req struct {
		Mood        string `json:"mood"`
		FoodDiary   string `json:"foodDiary"`
		BMICategory string `json:"bmiCategory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	analysis := h.insights.FoodMoodAnalysis(r.Context(), req.Mood, req.FoodDiary, req.BMICategory)
	writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

// SleepStress analyzes the stored sleep schedule against the last 48 hours
// of moods.
// POST /wellness/insights/sleep-stress
func (h *Handler) SleepStress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	schedule, err := h.store.SleepScheduleFor(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoSleepSchedule) {
			http.Error(w, `{"error": "save a sleep schedule first"}`, http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to load sleep schedule", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	moods, err := h.store.MoodsSince(r.Context(), userID, time.Now().Add(-48*time.Hour))
	if err != nil {
		h.logger.Error("failed to load moods", "user_id", userID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	analysis := h.insights.SleepStressAnalysis(r.Context(), schedule, moods)
	writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

// Cycle generates a cycle phase insight.
// POST /wellness/insights/cycle
func (h *Handler) Cycle(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	var req struct {
		DayOfCycle int    `json:"dayOfCycle"`
		Mood       string `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.DayOfCycle < 1 {
		http.Error(w, `{"error": "dayOfCycle must be at least 1"}`, http.StatusBadRequest)
		return
	}
	insight := h.insights.CycleInsight(r.Context(), req.DayOfCycle, req.Mood)
	writeJSON(w, http.StatusOK, map[string]string{"insight": insight})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
