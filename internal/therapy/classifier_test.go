package therapy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iterworks/juvo-backend/internal/oracle"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

// scriptedOracle returns queued responses in order and records every request.
type scriptedOracle struct {
	responses []oracle.Response
	errs      []error
	requests  []oracle.Request
}

func (o *scriptedOracle) Complete(ctx context.Context, req oracle.Request) (oracle.Response, error) {
	o.requests = append(o.requests, req)
	i := len(o.requests) - 1
	var resp oracle.Response
	var err error
	if i < len(o.responses) {
		resp = o.responses[i]
	}
	if i < len(o.errs) {
		err = o.errs[i]
	}
	return resp, err
}

func TestClassifier_DecodesVerdict(t *testing.T) {
	client := &scriptedOracle{responses: []oracle.Response{
		{Text: `{"reply": "That sounds hard. I'm here with you.", "riskLevel": "high"}`},
	}}
	c := NewClassifier(client, nil, logging.Default())

	verdict, err := c.Classify(context.Background(), Request{UserInput: "I feel hopeless"}, "")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if verdict.Risk != RiskHigh {
		t.Errorf("expected high risk, got %s", verdict.Risk)
	}
	if !strings.Contains(verdict.Reply, "here with you") {
		t.Errorf("unexpected reply: %q", verdict.Reply)
	}
}

func TestClassifier_UnknownRiskLevelIsNormal(t *testing.T) {
	client := &scriptedOracle{responses: []oracle.Response{
		{Text: `{"reply": "ok", "riskLevel": "medium"}`},
	}}
	c := NewClassifier(client, nil, logging.Default())

	verdict, err := c.Classify(context.Background(), Request{UserInput: "hi"}, "")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if verdict.Risk != RiskNormal {
		t.Errorf("unknown risk level should normalize to normal, got %s", verdict.Risk)
	}
}

func TestClassifier_EmptyOutputIsError(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no json", "I cannot help with that"},
		{"empty reply", `{"reply": "", "riskLevel": "normal"}`},
		{"empty response", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedOracle{responses: []oracle.Response{{Text: tt.text}}}
			c := NewClassifier(client, nil, logging.Default())
			if _, err := c.Classify(context.Background(), Request{UserInput: "hi"}, ""); !errors.Is(err, ErrEmptyVerdict) {
				t.Fatalf("expected ErrEmptyVerdict, got %v", err)
			}
		})
	}
}

func TestClassifier_TransportErrorPropagates(t *testing.T) {
	client := &scriptedOracle{errs: []error{errors.New("network down")}}
	c := NewClassifier(client, nil, logging.Default())
	if _, err := c.Classify(context.Background(), Request{UserInput: "hi"}, ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildMessages_HistoryRolesMapped(t *testing.T) {
	req := Request{
		UserInput: "today was rough",
		History: []Turn{
			{Role: RoleUser, Content: "hello"},
			{Role: RoleBot, Content: "hi, how was your day?"},
		},
	}
	messages := buildMessages(req, "")
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Role != oracle.RoleUser || messages[1].Role != oracle.RoleAssistant {
		t.Errorf("history roles not mapped: %s, %s", messages[0].Role, messages[1].Role)
	}
	if !strings.Contains(messages[2].Content, "today was rough") {
		t.Errorf("final message should carry the user input: %q", messages[2].Content)
	}
}

func TestBuildMessages_GreetingPaths(t *testing.T) {
	newUser := buildMessages(Request{}, "")
	if len(newUser) != 1 || !strings.Contains(newUser[0].Content, "welcoming message for a new user") {
		t.Errorf("expected new-user greeting instruction, got %v", newUser)
	}

	returning := buildMessages(Request{History: []Turn{{Role: RoleUser, Content: "hi"}}}, "")
	last := returning[len(returning)-1]
	if !strings.Contains(last.Content, "welcome back") {
		t.Errorf("expected welcome-back instruction, got %q", last.Content)
	}
}

func TestBuildMessages_ContextSections(t *testing.T) {
	req := Request{
		UserInput: "I'm fine",
		VoiceMood: "Anxious",
		Vitals:    &VitalsContext{BP: "140/95", Stress: 82, SpO2: 97},
		Language:  "Hinglish",
	}
	messages := buildMessages(req, "smtp timeout")
	content := messages[len(messages)-1].Content

	for _, want := range []string{"Anxious", "140/95", "82 / 100", "Hinglish", "smtp timeout"} {
		if !strings.Contains(content, want) {
			t.Errorf("final message missing %q:\n%s", want, content)
		}
	}
}
