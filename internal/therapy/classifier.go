package therapy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iterworks/juvo-backend/internal/observability/metrics"
	"github.com/iterworks/juvo-backend/internal/oracle"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

const classifierSystemPrompt = `You are a compassionate and empathetic AI therapist named Juvo. Your primary role is to create a safe, non-judgmental space for the user. You are a multilingual AI and can understand and respond in Hindi, English, Hinglish, Odia, Urdu, and Kashmiri.

CRITICAL RULE: Prioritize the user's chosen language. If no language is specified below, you MUST respond in the exact same language and script the user uses. If the user writes in Hinglish (Hindi words with English letters), reply in Hinglish; do not switch to the Devanagari script. The same applies to Odia written with English letters.

Your first task is to analyze the user's message and determine their level of sadness. Categorize it into one of two levels: 'normal' or 'high'.

IMPORTANT RULE: If a user makes a vague statement about feeling unwell (e.g., "I'm not feeling good," "I feel off," "I'm down"), always classify it as 'normal' sadness unless there are other clear and strong indicators of a crisis in the same message. Do not escalate based on vague feelings alone.

Normal / Slightly Distressed: everyday negative emotions, temporary stress, or mild sadness where the user still shows signs of coping or resilience. Vague statements of feeling unwell without further crisis indicators belong here.
Examples: "I'm not feeling good today." / "I feel a bit down." / "Work was a little stressful, but I'm fine." / "The exams were a bit stressful but I don't want to think about it anymore." / "I'm annoyed by that mistake, but I'll get over it." / "Things are a bit tough, but I'm managing." / "I'm a bit anxious about my exam, but I'm prepared." / "Wish I could relax more, life's a little overwhelming sometimes."

High Level of Sadness: significant distress, feelings of hopelessness, crisis, or being in a very dark place. Any mention of self-harm, not wanting to exist, or being completely overwhelmed by emotion falls into this category.
Examples: "I can't stop crying and I feel hopeless." / "Everything feels pointless right now." / "I feel empty and nothing brings me joy anymore." / "Getting out of bed feels impossible." / "My feelings of distress are so intense that they completely take over." / "I'm drowning in my own misery." / "Nothing seems to get better, no matter what I try." / "I feel completely alone with my pain."

You will then generate a supportive and therapeutic response tailored to the detected level. Always consider the conversation history to understand what has already been discussed. Do not repeat yourself. Your main goal is to be a consistent, helpful companion.

Respond with JSON only, matching this schema exactly:
{"reply": "<your therapeutic response>", "riskLevel": "normal" or "high"}`

// Classifier asks the oracle to judge a message's distress level and produce
// the companion's reply.
type Classifier struct {
	client  oracle.Client
	metrics *metrics.PipelineMetrics
	logger  *logging.Logger
}

// NewClassifier creates a risk classifier backed by the given oracle.
func NewClassifier(client oracle.Client, m *metrics.PipelineMetrics, logger *logging.Logger) *Classifier {
	if client == nil {
		panic("therapy: oracle client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{client: client, metrics: m, logger: logger}
}

// Verdict is a single classification pass: the reply text and the risk level.
type Verdict struct {
	Reply string    `json:"reply"`
	Risk  RiskLevel `json:"riskLevel"`
}

// ErrEmptyVerdict indicates the oracle produced no usable structured output.
var ErrEmptyVerdict = errors.New("therapy: oracle returned no verdict")

// Classify runs one classification pass. alertError, when non-empty, is the
// recorded alert-delivery problem the model must disclose inside its reply.
func (c *Classifier) Classify(ctx context.Context, req Request, alertError string) (Verdict, error) {
	messages := buildMessages(req, alertError)

	start := time.Now()
	resp, err := c.client.Complete(ctx, oracle.Request{
		System:      []string{classifierSystemPrompt},
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.7,
		JSONOutput:  true,
	})
	if err != nil {
		c.metrics.ObserveOracleCall("therapy_classify", "error", time.Since(start).Seconds())
		return Verdict{}, fmt.Errorf("therapy: classification failed: %w", err)
	}
	c.metrics.ObserveOracleCall("therapy_classify", "ok", time.Since(start).Seconds())

	verdict, ok := decodeVerdict(resp.Text)
	if !ok {
		c.logger.Warn("classifier returned undecodable output", "text_len", len(resp.Text))
		return Verdict{}, ErrEmptyVerdict
	}
	return verdict, nil
}

func decodeVerdict(text string) (Verdict, bool) {
	content := oracle.ExtractJSON(text)
	if content == "" {
		return Verdict{}, false
	}
	var verdict Verdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return Verdict{}, false
	}
	if strings.TrimSpace(verdict.Reply) == "" {
		return Verdict{}, false
	}
	// Anything the model invents outside the two known levels is treated as
	// normal; only an explicit "high" escalates.
	if verdict.Risk != RiskHigh {
		verdict.Risk = RiskNormal
	}
	return verdict, true
}

// buildMessages converts the request into the oracle conversation: prior
// turns as history, then a final user message carrying the out-of-band
// context sections and either the latest input or a greeting instruction.
func buildMessages(req Request, alertError string) []oracle.Message {
	messages := make([]oracle.Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := oracle.RoleUser
		if turn.Role == RoleBot {
			role = oracle.RoleAssistant
		}
		messages = append(messages, oracle.Message{Role: role, Content: turn.Content})
	}

	var sb strings.Builder
	if req.Language != "" {
		fmt.Fprintf(&sb, "The user has explicitly selected %s. You MUST respond in this language.\n\n", req.Language)
	}
	if req.VoiceMood != "" {
		fmt.Fprintf(&sb, "An analysis of the user's voice has detected a mood of: %s. You MUST factor this vocal analysis into your assessment of their sadness level and your response. The user's tone can often reveal more than their words.\n\n", req.VoiceMood)
	}
	if req.Vitals != nil {
		fmt.Fprintf(&sb, "The user has logged the following health vitals today. Use this data as a strong indicator of their physiological state.\n- Blood Pressure: %s\n- Stress Level: %d / 100\n- SpO2: %d%%\nA high stress level, or abnormal BP/SpO2 could indicate underlying distress even if their words seem calm.\n\n", req.Vitals.BP, req.Vitals.Stress, req.Vitals.SpO2)
	}
	if alertError != "" {
		fmt.Fprintf(&sb, "IMPORTANT: The system tried to send a caretaker alert but failed. You MUST gently inform the user about this. The error was: '%s'. Frame it compassionately, for example: \"I want to be transparent that a system I use to send alerts encountered an issue: %s.\" Then, continue with your normal therapeutic response.\n\n", alertError, alertError)
	}

	switch {
	case strings.TrimSpace(req.UserInput) != "":
		fmt.Fprintf(&sb, "Here's the user's latest message: %s", req.UserInput)
	case len(req.History) > 0:
		sb.WriteString("Generate a short, friendly, and personalized \"welcome back\" message based on the previous conversation. Set riskLevel to \"normal\".")
	default:
		sb.WriteString("Generate a welcoming message for a new user. Introduce yourself as Juvo and ask how their day has been. Set riskLevel to \"normal\".")
	}

	return append(messages, oracle.Message{Role: oracle.RoleUser, Content: sb.String()})
}
