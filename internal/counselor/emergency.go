package counselor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iterworks/juvo-backend/internal/observability/metrics"
	"github.com/iterworks/juvo-backend/internal/oracle"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

const emergencyPrompt = `You are an AI assistant that determines the need to escalate a user's chat to a university counselor.

Given the following chat content, determine if the situation warrants immediate attention due to the user expressing thoughts of self-harm, suicide, or violence towards others. If so, generate a message to display to the user with resources like a crisis hotline number and a button to directly contact the university counselor. Also, indicate that alerts should be sent to caretakers and the university counselor.

If the situation does not seem to be an emergency, return an empty messageToUser and set both caretakerAlertSent and counselorAlertSent to false.

Chat Content:
%s

Respond with JSON only: {"messageToUser": "<message or empty>", "caretakerAlertSent": true or false, "counselorAlertSent": true or false}`

// Escalation is the emergency triage outcome for one chat session.
type Escalation struct {
	MessageToUser      string `json:"messageToUser"`
	CaretakerAlertSent bool   `json:"caretakerAlertSent"`
	CounselorAlertSent bool   `json:"counselorAlertSent"`
}

// EmergencyEscalator judges whether a chat session is an active emergency.
type EmergencyEscalator struct {
	client  oracle.Client
	metrics *metrics.PipelineMetrics
	logger  *logging.Logger
}

// NewEmergencyEscalator creates the emergency triage flow.
func NewEmergencyEscalator(client oracle.Client, m *metrics.PipelineMetrics, logger *logging.Logger) *EmergencyEscalator {
	if client == nil {
		panic("counselor: oracle client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EmergencyEscalator{client: client, metrics: m, logger: logger}
}

// Assess triages chat content. An unreadable verdict comes back as an
// error; the caller decides how to degrade.
func (e *EmergencyEscalator) Assess(ctx context.Context, chatContent string) (Escalation, error) {
	if chatContent == "" {
		return Escalation{}, nil
	}
	start := time.Now()
	resp, err := e.client.Complete(ctx, oracle.Request{
		Messages:    []oracle.Message{{Role: oracle.RoleUser, Content: fmt.Sprintf(emergencyPrompt, chatContent)}},
		MaxTokens:   512,
		Temperature: 0,
		JSONOutput:  true,
	})
	if err != nil {
		e.metrics.ObserveOracleCall("emergency_triage", "error", time.Since(start).Seconds())
		return Escalation{}, fmt.Errorf("counselor: emergency triage failed: %w", err)
	}
	e.metrics.ObserveOracleCall("emergency_triage", "ok", time.Since(start).Seconds())

	content := oracle.ExtractJSON(resp.Text)
	if content == "" {
		return Escalation{}, fmt.Errorf("counselor: emergency triage returned no verdict")
	}
	var escalation Escalation
	if err := json.Unmarshal([]byte(content), &escalation); err != nil {
		return Escalation{}, fmt.Errorf("counselor: emergency verdict undecodable: %w", err)
	}
	return escalation, nil
}
