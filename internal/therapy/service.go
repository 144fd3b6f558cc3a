package therapy

import (
	"context"
	"fmt"
	"strings"

	"github.com/iterworks/juvo-backend/internal/notify"
	"github.com/iterworks/juvo-backend/internal/observability/metrics"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

const (
	alertSubject = "High Urgency Alert: Immediate Attention Recommended for Your Loved One"

	// Recorded locally when dispatch is impossible; surfaced through the
	// re-classified reply, never thrown.
	noCaretakerNotice = "No caretaker email is configured in the profile."
	noMessageNotice   = "Cannot send an alert without a user message."

	clarificationFallback = "I'm not sure how to respond to that. Could you tell me more?"
)

// Service runs the full classify -> alert -> re-classify pipeline. It never
// returns an error: every internal failure is folded into a calm, in-character
// reply so the chat surface always has something to render.
type Service struct {
	classifier *Classifier
	email      notify.EmailSender
	metrics    *metrics.PipelineMetrics
	logger     *logging.Logger
}

// NewService creates the therapy pipeline service.
func NewService(classifier *Classifier, email notify.EmailSender, m *metrics.PipelineMetrics, logger *logging.Logger) *Service {
	if classifier == nil {
		panic("therapy: classifier cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		classifier: classifier,
		email:      email,
		metrics:    m,
		logger:     logger,
	}
}

// Respond classifies the message, dispatches a caretaker alert when risk is
// high, and re-classifies exactly once when the alert could not be delivered
// so the reply discloses the failure transparently. The crisis flag is a
// function of risk level only.
func (s *Service) Respond(ctx context.Context, req Request) Result {
	verdict, err := s.classifier.Classify(ctx, req, "")
	if err != nil {
		s.logger.Error("initial classification failed", "error", err)
		return Result{
			Reply:             clarificationFallback,
			Risk:              RiskNormal,
			ShowCrisisOptions: false,
		}
	}

	s.metrics.ObserveRisk(string(verdict.Risk))
	reply := verdict.Reply

	var alertError string
	if verdict.Risk == RiskHigh {
		alertError = s.dispatchAlert(ctx, req)
	}

	if alertError != "" {
		// One bounded re-query so the model can phrase the disclosure in
		// context. The original risk level is preserved regardless.
		requery, err := s.classifier.Classify(ctx, req, alertError)
		if err != nil {
			s.logger.Warn("re-classification after alert error failed, keeping original reply", "error", err)
		} else {
			reply = requery.Reply
		}
	}

	return Result{
		Reply:             reply,
		Risk:              verdict.Risk,
		ShowCrisisOptions: verdict.Risk == RiskHigh,
		AlertError:        alertError,
	}
}

// dispatchAlert attempts the caretaker notification and returns the recorded
// error text, or "" on success. It requires a configured caretaker contact
// and a non-empty triggering message.
func (s *Service) dispatchAlert(ctx context.Context, req Request) string {
	if req.Profile == nil || strings.TrimSpace(req.Profile.CaretakerEmail) == "" {
		s.metrics.ObserveAlert("no_caretaker")
		s.logger.Warn("high risk message but no caretaker configured")
		return noCaretakerNotice
	}
	if strings.TrimSpace(req.UserInput) == "" {
		s.metrics.ObserveAlert("no_message")
		return noMessageNotice
	}
	if s.email == nil {
		s.metrics.ObserveAlert("sender_unconfigured")
		return "Alert delivery is not configured."
	}

	msg := notify.EmailMessage{
		To:      req.Profile.CaretakerEmail,
		ToName:  req.Profile.CaretakerName,
		Subject: alertSubject,
		HTML:    alertBody(req.UserInput),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.metrics.ObserveAlert("failed")
		s.logger.Error("failed to send caretaker alert", "error", err, "to", req.Profile.CaretakerEmail)
		// The delivery error text is surfaced verbatim in the disclosure.
		return err.Error()
	}

	s.metrics.ObserveAlert("sent")
	s.logger.Info("caretaker alert sent", "to", req.Profile.CaretakerEmail)
	return ""
}

// alertBody quotes the triggering message verbatim and states the assessed
// urgency.
func alertBody(userInput string) string {
	return fmt.Sprintf(`<p>This is an automated alert from Juvo, the AI mental wellness companion.</p>
<p>An interaction with the user has been flagged as requiring your attention. The urgency has been assessed as: <strong>HIGH</strong>.</p>
<p>The message that triggered this alert was:</p>
<blockquote style="border-left: 4px solid #ccc; padding-left: 1rem; font-style: italic;">
  "%s"
</blockquote>
<p>We recommend checking in with them when you have a moment.</p>
<p>Sincerely,<br/>The Juvo Team</p>`, userInput)
}
