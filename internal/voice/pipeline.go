package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iterworks/juvo-backend/internal/chat"
	"github.com/iterworks/juvo-backend/internal/observability/metrics"
	"github.com/iterworks/juvo-backend/internal/oracle"
	"github.com/iterworks/juvo-backend/internal/therapy"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

const transcriptionPrompt = `You are an expert AI therapist specializing in vocal biomarker analysis. Your task is to transcribe the user's speech and determine their mood.

Analyze the attached audio. Your goal is to detect the user's true mood by considering a wide range of vocal cues. Pay attention to:
- Tone: Is the voice monotonous, strained, or warm?
- Pitch: Is it higher or lower than usual? Does it crack?
- Pace: Are they speaking quickly (a sign of anxiety) or slowly (a sign of sadness)?
- Volume: Are they speaking loudly or softly?
- Signs of Distress: Listen for trembling, sighing, or long pauses.

It's crucial to identify mismatches between words and voice. For example, if the user says "I'm fine," but their voice is trembling, you should identify the mood as "Anxious" or "Sad". If their voice indicates extreme distress, classify it as "Extreme Sadness - Crisis".

First, provide a verbatim transcript of the user's words.
Then, based on your detailed analysis of the audio, determine the most accurate mood (e.g. "Calm", "Anxious", "Sad", "Happy", "Extreme Sadness - Crisis").

Respond with JSON only: {"transcript": "<verbatim transcript>", "mood": "<detected mood>"}`

// ErrNoTranscript indicates the model produced no usable transcript. Voice
// requests fail hard in that case; there is no text to run therapy on.
var ErrNoTranscript = errors.New("voice: no transcript from audio")

// Synthesizer turns a reply into speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (oracle.SpeechResult, error)
}

// Result is a full voice round trip: the therapy result plus what was heard
// and the spoken reply.
type Result struct {
	therapy.Result
	Mood          string `json:"mood"`
	Transcript    string `json:"transcript"`
	AudioResponse string `json:"audioResponse"`
}

// Pipeline runs speech-to-text with mood detection, the therapy pipeline,
// and text-to-speech in sequence.
type Pipeline struct {
	client  oracle.Client
	chats   *chat.Service
	speech  Synthesizer
	metrics *metrics.PipelineMetrics
	logger  *logging.Logger
}

// NewPipeline creates the voice pipeline.
func NewPipeline(client oracle.Client, chats *chat.Service, speech Synthesizer, m *metrics.PipelineMetrics, logger *logging.Logger) *Pipeline {
	if client == nil {
		panic("voice: oracle client cannot be nil")
	}
	if chats == nil {
		panic("voice: chat service cannot be nil")
	}
	if speech == nil {
		panic("voice: synthesizer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{client: client, chats: chats, speech: speech, metrics: m, logger: logger}
}

type transcription struct {
	Transcript string `json:"transcript"`
	Mood       string `json:"mood"`
}

func (p *Pipeline) transcribe(ctx context.Context, audioDataURI string) (transcription, error) {
	mimeType, audio, err := parseDataURI(audioDataURI)
	if err != nil {
		return transcription{}, err
	}
	if len(audio) == 0 {
		return transcription{}, errors.New("voice: empty audio payload")
	}

	start := time.Now()
	resp, err := p.client.Complete(ctx, oracle.Request{
		Messages:    []oracle.Message{{Role: oracle.RoleUser, Content: transcriptionPrompt}},
		Media:       []oracle.Media{{MIMEType: mimeType, Data: audio}},
		MaxTokens:   1024,
		Temperature: 0,
		JSONOutput:  true,
	})
	if err != nil {
		p.metrics.ObserveOracleCall("voice_transcribe", "error", time.Since(start).Seconds())
		return transcription{}, fmt.Errorf("voice: transcription failed: %w", err)
	}
	p.metrics.ObserveOracleCall("voice_transcribe", "ok", time.Since(start).Seconds())

	content := oracle.ExtractJSON(resp.Text)
	if content == "" {
		return transcription{}, ErrNoTranscript
	}
	var out transcription
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return transcription{}, ErrNoTranscript
	}
	if out.Transcript == "" {
		return transcription{}, ErrNoTranscript
	}
	return out, nil
}

// Process runs one voice message end to end. Unlike the text pipeline,
// failures here are fatal: a voice client cannot use a silent response.
func (p *Pipeline) Process(ctx context.Context, userID, audioDataURI string) (*Result, error) {
	heard, err := p.transcribe(ctx, audioDataURI)
	if err != nil {
		return nil, err
	}
	p.logger.Info("voice transcribed", "user_id", userID, "mood", heard.Mood)

	therapyResult, err := p.chats.SendMessage(ctx, userID, chat.MessageInput{
		Message:   heard.Transcript,
		VoiceMood: heard.Mood,
	})
	if err != nil {
		return nil, fmt.Errorf("voice: therapy pipeline failed: %w", err)
	}

	speech, err := p.speech.Synthesize(ctx, therapyResult.Reply)
	if err != nil {
		return nil, fmt.Errorf("voice: speech synthesis failed: %w", err)
	}

	return &Result{
		Result:        therapyResult,
		Mood:          heard.Mood,
		Transcript:    heard.Transcript,
		AudioResponse: wavDataURI(pcmToWAV(speech.PCM, speech.SampleRate)),
	}, nil
}
