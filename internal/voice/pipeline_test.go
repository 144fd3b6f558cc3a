package voice

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/iterworks/juvo-backend/internal/chat"
	"github.com/iterworks/juvo-backend/internal/notify"
	"github.com/iterworks/juvo-backend/internal/oracle"
	"github.com/iterworks/juvo-backend/internal/therapy"
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

type noopDynamo struct{}

func (noopDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return &dynamodb.PutItemOutput{}, nil
}

func (noopDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

type stubSynthesizer struct {
	result oracle.SpeechResult
	err    error
	texts  []string
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, text string) (oracle.SpeechResult, error) {
	s.texts = append(s.texts, text)
	return s.result, s.err
}

func audioURI(t *testing.T) string {
	t.Helper()
	return "data:audio/webm;base64," + base64.StdEncoding.EncodeToString([]byte("fake-opus-frames"))
}

func newPipeline(t *testing.T, client oracle.Client, synth Synthesizer) *Pipeline {
	t.Helper()
	classifier := therapy.NewClassifier(client, nil, logging.Default())
	therapist := therapy.NewService(classifier, &notify.StubEmailSender{}, nil, logging.Default())
	chats := chat.NewService(chat.ServiceConfig{
		Therapist: therapist,
		Turns:     chat.NewTurnStore(noopDynamo{}, "juvo_chat_turns", logging.Default()),
		Logger:    logging.Default(),
	})
	return NewPipeline(client, chats, synth, nil, logging.Default())
}

func TestProcess_FullRoundTrip(t *testing.T) {
	client := &scriptedOracle{responses: []oracle.Response{
		{Text: `{"transcript": "I had a rough day at college", "mood": "Sad"}`},
		{Text: `{"reply": "I'm sorry today was heavy. Want to talk through it?", "riskLevel": "normal"}`},
	}}
	synth := &stubSynthesizer{result: oracle.SpeechResult{PCM: make([]byte, 480), SampleRate: 24000}}
	p := newPipeline(t, client, synth)

	result, err := p.Process(context.Background(), "user-1", audioURI(t))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Transcript != "I had a rough day at college" {
		t.Errorf("unexpected transcript: %q", result.Transcript)
	}
	if result.Mood != "Sad" {
		t.Errorf("unexpected mood: %q", result.Mood)
	}
	if !strings.HasPrefix(result.AudioResponse, "data:audio/wav;base64,") {
		t.Errorf("audio response must be a WAV data URI, got %q", result.AudioResponse[:30])
	}

	// The detected mood must flow into the therapy prompt.
	therapyReq := client.requests[1]
	last := therapyReq.Messages[len(therapyReq.Messages)-1]
	if !strings.Contains(last.Content, "Sad") {
		t.Errorf("therapy prompt missing detected mood:\n%s", last.Content)
	}

	// The spoken text is the therapy reply.
	if len(synth.texts) != 1 || !strings.Contains(synth.texts[0], "today was heavy") {
		t.Errorf("synthesizer got unexpected text: %v", synth.texts)
	}

	// The transcription request carries the audio as media.
	if len(client.requests[0].Media) != 1 || client.requests[0].Media[0].MIMEType != "audio/webm" {
		t.Errorf("transcription request missing audio media: %+v", client.requests[0].Media)
	}
}

func TestProcess_MissingTranscriptIsFatal(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no json", "I heard nothing"},
		{"empty transcript", `{"transcript": "", "mood": "Calm"}`},
		{"empty response", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedOracle{responses: []oracle.Response{{Text: tt.text}}}
			p := newPipeline(t, client, &stubSynthesizer{})
			if _, err := p.Process(context.Background(), "user-1", audioURI(t)); !errors.Is(err, ErrNoTranscript) {
				t.Fatalf("expected ErrNoTranscript, got %v", err)
			}
		})
	}
}

func TestProcess_SynthesisFailureIsFatal(t *testing.T) {
	client := &scriptedOracle{responses: []oracle.Response{
		{Text: `{"transcript": "hello", "mood": "Calm"}`},
		{Text: `{"reply": "hi there", "riskLevel": "normal"}`},
	}}
	synth := &stubSynthesizer{err: errors.New("tts unavailable")}
	p := newPipeline(t, client, synth)

	if _, err := p.Process(context.Background(), "user-1", audioURI(t)); err == nil {
		t.Fatal("expected error when synthesis fails")
	}
}

func TestProcess_BadDataURI(t *testing.T) {
	p := newPipeline(t, &scriptedOracle{}, &stubSynthesizer{})
	if _, err := p.Process(context.Background(), "user-1", "not-a-data-uri"); err == nil {
		t.Fatal("expected error for malformed data URI")
	}
}

func TestProcess_CrisisMoodPropagates(t *testing.T) {
	client := &scriptedOracle{responses: []oracle.Response{
		{Text: `{"transcript": "I can't do this anymore", "mood": "Extreme Sadness - Crisis"}`},
		{Text: `{"reply": "I'm here with you. You are not alone.", "riskLevel": "high"}`},
		{Text: `{"reply": "I want to be honest: I couldn't reach your caretaker.", "riskLevel": "high"}`},
	}}
	synth := &stubSynthesizer{result: oracle.SpeechResult{PCM: make([]byte, 480), SampleRate: 24000}}
	p := newPipeline(t, client, synth)

	result, err := p.Process(context.Background(), "user-1", audioURI(t))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Risk != therapy.RiskHigh || !result.ShowCrisisOptions {
		t.Errorf("crisis state must propagate: %s / %v", result.Risk, result.ShowCrisisOptions)
	}
	if result.Mood != "Extreme Sadness - Crisis" {
		t.Errorf("unexpected mood: %q", result.Mood)
	}
}
