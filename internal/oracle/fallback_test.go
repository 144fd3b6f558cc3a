package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/iterworks/juvo-backend/pkg/logging"
)

type scriptedClient struct {
	resp  Response
	err   error
	calls int
}

func (c *scriptedClient) Complete(ctx context.Context, req Request) (Response, error) {
	c.calls++
	return c.resp, c.err
}

func TestFallbackClient_PrimarySucceeds(t *testing.T) {
	primary := &scriptedClient{resp: Response{Text: "primary"}}
	fallback := &scriptedClient{resp: Response{Text: "fallback"}}
	client := NewFallbackClient(primary, fallback, logging.Default())

	resp, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if resp.Text != "primary" {
		t.Errorf("expected primary response, got %q", resp.Text)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback should not be called, got %d calls", fallback.calls)
	}
}

func TestFallbackClient_PrimaryFailsFallbackUsed(t *testing.T) {
	primary := &scriptedClient{err: errors.New("primary down")}
	fallback := &scriptedClient{resp: Response{Text: "fallback"}}
	client := NewFallbackClient(primary, fallback, logging.Default())

	resp, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if resp.Text != "fallback" {
		t.Errorf("expected fallback response, got %q", resp.Text)
	}
}

func TestFallbackClient_BothFailReturnsFallbackError(t *testing.T) {
	primary := &scriptedClient{err: errors.New("primary down")}
	fallback := &scriptedClient{err: errors.New("fallback down")}
	client := NewFallbackClient(primary, fallback, logging.Default())

	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil || err.Error() != "fallback down" {
		t.Fatalf("expected fallback error, got %v", err)
	}
}

func TestFallbackClient_NoFallbackConfigured(t *testing.T) {
	primary := &scriptedClient{err: errors.New("primary down")}
	client := NewFallbackClient(primary, nil, logging.Default())

	_, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil || err.Error() != "primary down" {
		t.Fatalf("expected primary error, got %v", err)
	}
}

func TestFallbackClient_MediaRequestsStayOnPrimary(t *testing.T) {
	primary := &scriptedClient{err: errors.New("primary down")}
	fallback := &scriptedClient{resp: Response{Text: "fallback"}}
	client := NewFallbackClient(primary, fallback, logging.Default())

	req := Request{
		Messages: []Message{{Role: RoleUser, Content: "transcribe this"}},
		Media:    []Media{{MIMEType: "audio/webm", Data: []byte{1, 2, 3}}},
	}
	_, err := client.Complete(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for media request when primary fails")
	}
	if fallback.calls != 0 {
		t.Errorf("text-only fallback must not receive media requests, got %d calls", fallback.calls)
	}
}
