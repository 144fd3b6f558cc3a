package therapy

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

const concernPrompt = `You are an AI assistant that analyzes conversation history to determine if there is a need to escalate concerns to the user's caretakers or a university counselor.

Here is the conversation history:
%s

Based on the conversation, determine if the user is exhibiting persistent negative sentiment, high distress, or mentioning concerning keywords that suggest they need immediate help.

Respond with JSON only: {"escalationNeeded": true or false, "reason": "<brief reason, only when escalation is needed>"}`

// Concern is a counselor-facing review of a whole conversation, as opposed to
// the per-message risk classification.
type Concern struct {
	EscalationNeeded bool   `json:"escalationNeeded"`
	Reason           string `json:"reason,omitempty"`
}

// ConcernAnalyzer reviews conversation history for the counselor portal.
type ConcernAnalyzer struct {
	client  oracle.Client
	metrics *metrics.PipelineMetrics
	logger  *logging.Logger
}

// NewConcernAnalyzer creates a conversation-level concern analyzer.
func NewConcernAnalyzer(client oracle.Client, m *metrics.PipelineMetrics, logger *logging.Logger) *ConcernAnalyzer {
	if client == nil {
		panic("therapy: oracle client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConcernAnalyzer{client: client, metrics: m, logger: logger}
}

// Analyze judges whether the conversation warrants caretaker/counselor
// attention. An unreadable oracle result comes back as no-escalation with the
// error attached, so portal views degrade instead of breaking.
func (a *ConcernAnalyzer) Analyze(ctx context.Context, history []Turn) (Concern, error) {
	if len(history) == 0 {
		return Concern{}, nil
	}

	var transcript strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&transcript, "%s: %s\n", turn.Role, turn.Content)
	}

	start := time.Now()
	resp, err := a.client.Complete(ctx, oracle.Request{
		Messages: []oracle.Message{{
			Role:    oracle.RoleUser,
			Content: fmt.Sprintf(concernPrompt, transcript.String()),
		}},
		MaxTokens:   256,
		Temperature: 0,
		JSONOutput:  true,
	})
	if err != nil {
		a.metrics.ObserveOracleCall("concern_analysis", "error", time.Since(start).Seconds())
		return Concern{}, fmt.Errorf("therapy: concern analysis failed: %w", err)
	}
	a.metrics.ObserveOracleCall("concern_analysis", "ok", time.Since(start).Seconds())

	content := oracle.ExtractJSON(resp.Text)
	if content == "" {
		return Concern{}, ErrEmptyVerdict
	}
	var concern Concern
	if err := json.Unmarshal([]byte(content), &concern); err != nil {
		return Concern{}, ErrEmptyVerdict
	}
	return concern, nil
}
