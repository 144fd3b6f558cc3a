package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/iterworks/juvo-backend/internal/observability/metrics"
	"github.com/iterworks/juvo-backend/internal/oracle"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// unverifiedReason is the fail-closed verdict when the oracle produces no
// usable output. Content is never published on a missing verdict.
const unverifiedReason = "The content could not be verified at this time."

// PostInput is a community post pending moderation.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ReplyInput is a community reply pending moderation.
type ReplyInput struct {
	Content string `json:"content"`
}

// Verdict is the approve/reject decision for one piece of content.
type Verdict struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// ValidationError reports a field-level input problem, rejected before any
// oracle call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("moderation: %s: %s", e.Field, e.Message)
}

// Validate checks post length constraints.
func (p PostInput) Validate() error {
	titleLen := utf8.RuneCountInString(p.Title)
	if titleLen < 3 {
		return &ValidationError{Field: "title", Message: "Title must be at least 3 characters."}
	}
	if titleLen > 150 {
		return &ValidationError{Field: "title", Message: "Title must be at most 150 characters."}
	}
	if utf8.RuneCountInString(p.Content) < 10 {
		return &ValidationError{Field: "content", Message: "Post content must be at least 10 characters."}
	}
	return nil
}

// Validate checks reply length constraints.
func (r ReplyInput) Validate() error {
	length := utf8.RuneCountInString(r.Content)
	if length < 1 {
		return &ValidationError{Field: "content", Message: "Reply cannot be empty."}
	}
	if length > 2000 {
		return &ValidationError{Field: "content", Message: "Reply must be at most 2000 characters."}
	}
	return nil
}

const postPrompt = `You are a strict but fair content moderator for "Juvo," an anonymous mental health support community. Your primary responsibility is to ensure that every post is directly related to mental health and is appropriate for a supportive, safe environment.

You must evaluate the post based on these two CRITICAL criteria:
1. Relevance: Is the post about a personal mental health struggle, question, feeling, or experience? It should be a genuine request for support or a sharing of a personal journey. This includes feelings of stress, sadness, or anxiety related to common life events like exams, work, or relationships.
   - Examples of ACCEPTABLE content: "I've been feeling so anxious lately, I don't know how to cope.", "Does anyone have tips for dealing with social anxiety at work?", "I'm feeling sad and overwhelmed by my physics exam."
   - Examples of UNACCEPTABLE content: "What's the best pizza place?", "I'm bored, anyone want to chat?", "Political rant about current events.", "Selling my old bike."
2. Appropriateness: Does the post contain profanity, hate speech, spam, advertisements, personal attacks, or any form of explicit or harmful content?

Your task:
- Analyze the following post.
- Set "approved" to true if it meets BOTH criteria, false if it fails EITHER criterion.
- If "approved" is false, provide a brief, clear, and non-judgmental "reason" for the user. Be direct.

Reasoning examples:
- If irrelevant: "This post does not seem to be about a mental health topic."
- If it contains profanity: "This post contains inappropriate language."
- If it's an advertisement: "Advertisements are not allowed in this community."

Post to analyze:
- Title: %s
- Content: %s

Respond with JSON only: {"approved": true or false, "reason": "<only when rejected>"}`

const replyPrompt = `You are a fair and lenient safety moderator for "Juvo," an anonymous mental health support community. Your primary duty is to protect users from clear harm while allowing for genuine, good-faith discussions.

Your goal: approve any reply that is a good-faith attempt to help. Do NOT reject replies just because they are direct or not perfectly empathetic.

A reply MUST BE REJECTED only if it contains ANY of the following:
- Encouragement of self-harm or suicide: any statement that could be interpreted as encouraging, glorifying, or instructing on self-harm or suicide. This is the most critical rule. (Example to REJECT: "Maybe it's better to just end it.")
- Aggression or personal attacks: name-calling, insults, or direct aggression. (Example to REJECT: "You're an idiot for feeling that way.")
- Blatant invalidation: replies that bluntly and completely dismiss the original poster's feelings without offering any value. (Examples to REJECT: "Just get over it.", "That's not a real problem.", "You're being too dramatic.")
- Profanity or hate speech.
- Prescriptive medical advice: prescribing specific medications or giving definitive medical diagnoses. (Example to REJECT: "You should take 50mg of Zoloft for that.")
- Spam or advertisements.

A reply is ACCEPTABLE if it is a good-faith attempt to be supportive, share a personal experience, or offer gentle advice, even if imperfectly phrased. Direct, solution-oriented advice is acceptable as long as it is not aggressive or invalidating.
- APPROVE: "you should better manage time and work"
- APPROVE: "It's important to find a balance. Taking small breaks might make things more manageable."
- APPROVE: "Have you considered talking to a therapist about this?"

Your task:
- Analyze the following reply content.
- Set "approved" to true if it is a good-faith attempt at support and does not violate any rule above; false ONLY if it violates a rule.
- If "approved" is false, provide a very brief, clear, and direct "reason".

Reasoning examples: "This reply contains prohibited medical advice." / "Encouraging self-harm is strictly forbidden." / "This reply is aggressive and not supportive."

Reply content:
"%s"

Respond with JSON only: {"approved": true or false, "reason": "<only when rejected>"}`

// Moderator runs the two oracle-backed content gates. The post gate is
// deliberately stricter than the reply gate.
type Moderator struct {
	client  oracle.Client
	metrics *metrics.PipelineMetrics
	logger  *logging.Logger
}

// NewModerator creates an oracle-backed moderator.
func NewModerator(client oracle.Client, m *metrics.PipelineMetrics, logger *logging.Logger) *Moderator {
	if client == nil {
		panic("moderation: oracle client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Moderator{client: client, metrics: m, logger: logger}
}

// ReviewPost judges a post against the relevance + appropriateness policy.
// Any oracle failure fails closed.
func (m *Moderator) ReviewPost(ctx context.Context, post PostInput) Verdict {
	verdict := m.review(ctx, "post", fmt.Sprintf(postPrompt, post.Title, post.Content))
	m.metrics.ObserveVerdict("post", verdict.Approved)
	return verdict
}

// ReviewReply judges a reply against the harm denylist. Any oracle failure
// fails closed.
func (m *Moderator) ReviewReply(ctx context.Context, reply ReplyInput) Verdict {
	verdict := m.review(ctx, "reply", fmt.Sprintf(replyPrompt, reply.Content))
	m.metrics.ObserveVerdict("reply", verdict.Approved)
	return verdict
}

func (m *Moderator) review(ctx context.Context, flow, prompt string) Verdict {
	start := time.Now()
	resp, err := m.client.Complete(ctx, oracle.Request{
		Messages:    []oracle.Message{{Role: oracle.RoleUser, Content: prompt}},
		MaxTokens:   256,
		Temperature: 0,
		JSONOutput:  true,
	})
	if err != nil {
		m.metrics.ObserveOracleCall("moderate_"+flow, "error", time.Since(start).Seconds())
		m.logger.Error("moderation oracle call failed", "flow", flow, "error", err)
		return Verdict{Approved: false, Reason: unverifiedReason}
	}
	m.metrics.ObserveOracleCall("moderate_"+flow, "ok", time.Since(start).Seconds())

	content := oracle.ExtractJSON(resp.Text)
	if content == "" {
		m.logger.Warn("moderation oracle returned no verdict", "flow", flow)
		return Verdict{Approved: false, Reason: unverifiedReason}
	}
	var verdict Verdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		m.logger.Warn("moderation verdict undecodable", "flow", flow, "error", err)
		return Verdict{Approved: false, Reason: unverifiedReason}
	}
	if !verdict.Approved && verdict.Reason == "" {
		verdict.Reason = unverifiedReason
	}
	return verdict
}
