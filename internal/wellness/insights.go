package wellness

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iterworks/juvo-backend/internal/observability/metrics"
	"github.com/iterworks/juvo-backend/internal/oracle"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// Canned fallbacks keep the wellness views working when the oracle is
// unavailable. Each flow degrades independently.
const (
	affirmationFallback = "I am capable of handling whatever comes my way."
	foodMoodFallback    = "I'm having a little trouble analyzing that right now. Please try again in a moment."
	sleepFallback       = "I'm having a little trouble analyzing your sleep patterns right now. Please try again in a moment."
	cycleFallback       = "I'm having a little trouble generating an insight right now. Please try again in a moment."
)

const affirmationPrompt = `You are an expert in crafting positive affirmations. Your task is to generate a short, powerful, and personal affirmation for a user.

The affirmation MUST be:
- In the first person (using "I" or "My").
- Positive and empowering.
- Directly related to the user's stated mood and needs.
- No more than 1-2 sentences long.

User's Mood: %s
User's Need: %s

Example:
Mood: Anxious about exams
Need: Calm and focus
Affirmation: "I am calm and focused. I am prepared to do my best."

Respond with JSON only: {"affirmation": "<the affirmation>"}`

const foodMoodPrompt = `You are a gentle and encouraging wellness assistant. Your task is to analyze a user's food diary and their current mood to find potential connections. Your tone should be supportive and curious, not prescriptive or clinical.

CRITICAL RULES:
1. Never give medical advice. Do not diagnose, treat, or make definitive claims.
2. Use phrases like "Sometimes, certain foods can influence...", "You might notice...", "It could be interesting to see if...".
3. Keep the analysis brief (2-3 sentences).
4. Provide one simple, actionable suggestion.
5. If the user's mood is positive (e.g., "Happy", "Good"), acknowledge that and look for what might be supporting it.
%s
Analysis Context:
- User's Mood: %s
- User's Food Diary: %s

Respond with JSON only: {"analysis": "<the analysis>"}`

const sleepStressPrompt = `You are a wellness expert specializing in circadian rhythms and their effect on mood. Your task is to analyze a user's sleep schedule and their recent mood logs to identify potential connections between their sleep habits and stress levels.

Your tone should be gentle, informative, and encouraging. Avoid making definitive medical claims. Use phrases like "It seems like...", "You might notice...", or "It could be helpful to consider...".

CRITICAL RULES:
1. Acknowledge Consistency or Inconsistency: Start by commenting on the user's sleep schedule. Is it regular? Is there a big difference between weekdays and weekends?
2. Connect to Mood: Look at the recent moods. Is there a pattern? For example, did a 'Stressed' or 'Anxious' mood follow a late night?
3. Provide One Actionable Insight: Offer one simple, clear suggestion based on your analysis. This should be a practical tip, not a generic "get more sleep."
4. Keep it Brief: The entire analysis should be 2-4 sentences.

Analysis Context:
- User's Sleep Schedule:
  - Weekday Wake: %s
  - Weekday Bedtime: %s
  - Weekend Wake: %s
  - Weekend Bedtime: %s
- Recent Moods (last 48 hours):
%s
Respond with JSON only: {"analysis": "<the analysis>"}`

const cycleInsightPrompt = `You are a gentle and encouraging wellness assistant specializing in menstrual health. Your task is to analyze a user's current day in their menstrual cycle and their mood to provide a supportive insight.

CRITICAL RULES:
1. Never give medical advice. Do not diagnose or make definitive claims. Use phrases like "It's common to feel...", "Some people find that...", "You might consider...".
2. Acknowledge the Cycle Day: Relate your insight to the typical hormonal changes of that phase (Menstrual: days 1-5, Follicular: days 6-14, Ovulatory: days 15-18, Luteal: days 19-28).
3. Connect to Mood: Directly address the user's stated mood within the context of the cycle phase.
4. Provide One Actionable Suggestion: Offer a simple, supportive tip for self-care or symptom management.
5. Keep it Brief: The entire insight should be 2-3 sentences.

Analysis Context:
- Day of Cycle: %d
- User's Mood: %s

Respond with JSON only: {"insight": "<the insight>"}`

// Insights runs the oracle-backed wellness analysis flows.
type Insights struct {
	client  oracle.Client
	metrics *metrics.PipelineMetrics
	logger  *logging.Logger
}

// NewInsights creates the wellness insight flows.
func NewInsights(client oracle.Client, m *metrics.PipelineMetrics, logger *logging.Logger) *Insights {
	if client == nil {
		panic("wellness: oracle client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Insights{client: client, metrics: m, logger: logger}
}

func (i *Insights) run(ctx context.Context, flow, prompt, field, fallback string) string {
	start := time.Now()
	resp, err := i.client.Complete(ctx, oracle.Request{
		Messages:    []oracle.Message{{Role: oracle.RoleUser, Content: prompt}},
		MaxTokens:   512,
		Temperature: 0.7,
		JSONOutput:  true,
	})
	if err != nil {
		i.metrics.ObserveOracleCall(flow, "error", time.Since(start).Seconds())
		i.logger.Warn("insight flow failed", "flow", flow, "error", err)
		return fallback
	}
	i.metrics.ObserveOracleCall(flow, "ok", time.Since(start).Seconds())

	content := oracle.ExtractJSON(resp.Text)
	if content == "" {
		return fallback
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(content), &decoded); err != nil || decoded[field] == "" {
		return fallback
	}
	return decoded[field]
}

// Affirmation generates a first-person affirmation for a mood and need.
func (i *Insights) Affirmation(ctx context.Context, mood, needs string) string {
	return i.run(ctx, "affirmation", fmt.Sprintf(affirmationPrompt, mood, needs), "affirmation", affirmationFallback)
}

// FoodMoodAnalysis connects a food diary with the user's mood.
func (i *Insights) FoodMoodAnalysis(ctx context.Context, mood, foodDiary, bmiCategory string) string {
	bmiLine := ""
	if bmiCategory != "" {
		bmiLine = fmt.Sprintf("6. The user's BMI category is %q. Gently incorporate it into the context if relevant (e.g., for energy levels), but do not focus on weight loss.\n", bmiCategory)
	}
	return i.run(ctx, "food_mood", fmt.Sprintf(foodMoodPrompt, bmiLine, mood, foodDiary), "analysis", foodMoodFallback)
}

// SleepStressAnalysis connects a sleep schedule with recent moods.
func (i *Insights) SleepStressAnalysis(ctx context.Context, schedule *SleepSchedule, recentMoods []MoodLog) string {
	if schedule == nil {
		return sleepFallback
	}
	var moods strings.Builder
	for _, m := range recentMoods {
		fmt.Fprintf(&moods, "  - Mood: %s at %s\n", m.Mood, m.CreatedAt)
	}
	if moods.Len() == 0 {
		moods.WriteString("  (no moods logged)\n")
	}
	prompt := fmt.Sprintf(sleepStressPrompt,
		schedule.WeekdayWake, schedule.WeekdaySleep,
		schedule.WeekendWake, schedule.WeekendSleep,
		moods.String())
	return i.run(ctx, "sleep_stress", prompt, "analysis", sleepFallback)
}

// CycleInsight relates a cycle day and mood to its typical phase.
func (i *Insights) CycleInsight(ctx context.Context, dayOfCycle int, mood string) string {
	return i.run(ctx, "cycle_insight", fmt.Sprintf(cycleInsightPrompt, dayOfCycle, mood), "insight", cycleFallback)
}
