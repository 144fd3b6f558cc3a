package oracle

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Media is an inline binary part (audio, image) attached to a request.
type Media struct {
	MIMEType string
	Data     []byte
}

// TokenUsage reports token counts for a completed request.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Request describes a single generation/classification call.
type Request struct {
	Model       string
	System      []string
	Messages    []Message
	Media       []Media
	MaxTokens   int32
	Temperature float32
	TopP        float32
	// JSONOutput asks the provider to constrain the response to JSON where
	// supported. Callers must still parse defensively.
	JSONOutput bool
}

// Response is the model's reply to a Request.
type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client is the generative oracle every flow depends on. Implementations are
// injected so the pipeline's branching and failure handling can be tested
// with deterministic stubs.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
