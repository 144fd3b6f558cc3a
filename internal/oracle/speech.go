package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iterworks/juvo-backend/pkg/logging"
)

const (
	defaultSpeechBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	speechCallTimeout    = 60 * time.Second
)

// SpeechResult is raw synthesized audio as returned by the model: PCM samples
// plus the declared sample rate (16-bit little-endian, mono).
type SpeechResult struct {
	MIMEType   string
	PCM        []byte
	SampleRate int
}

// SpeechClient synthesizes speech through the Generative Language REST API.
// The genai SDK has no speech-synthesis surface, so this talks to the
// generateContent endpoint directly with an AUDIO response modality.
type SpeechClient struct {
	apiKey     string
	modelID    string
	voice      string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// SpeechClientConfig configures the speech synthesis client.
type SpeechClientConfig struct {
	// APIKey is the Generative Language API key.
	APIKey string
	// ModelID selects the TTS-capable model.
	ModelID string
	// Voice is the prebuilt voice name used for synthesis.
	Voice string
	// BaseURL overrides the API base URL (for testing).
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewSpeechClient creates a client for synthesizing spoken replies.
func NewSpeechClient(cfg SpeechClientConfig) (*SpeechClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("oracle: speech client API key required")
	}
	modelID := cfg.ModelID
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash-preview-tts"
	}
	voice := cfg.Voice
	if strings.TrimSpace(voice) == "" {
		voice = "Umbriel"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSpeechBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: speechCallTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &SpeechClient{
		apiKey:     cfg.APIKey,
		modelID:    modelID,
		voice:      voice,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type speechRequest struct {
	Contents         []speechContent        `json:"contents"`
	GenerationConfig speechGenerationConfig `json:"generationConfig"`
}

type speechContent struct {
	Parts []speechPart `json:"parts"`
}

type speechPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *speechInlineData `json:"inlineData,omitempty"`
}

type speechInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type speechGenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type speechResponse struct {
	Candidates []struct {
		Content struct {
			Parts []speechPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Synthesize converts reply text into PCM audio.
func (c *SpeechClient) Synthesize(ctx context.Context, text string) (SpeechResult, error) {
	if strings.TrimSpace(text) == "" {
		return SpeechResult{}, errors.New("oracle: cannot synthesize empty text")
	}

	payload := speechRequest{
		Contents: []speechContent{{Parts: []speechPart{{Text: text}}}},
		GenerationConfig: speechGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.voice},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SpeechResult{}, fmt.Errorf("oracle: failed to marshal speech request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return SpeechResult{}, fmt.Errorf("oracle: failed to build speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SpeechResult{}, fmt.Errorf("oracle: speech request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return SpeechResult{}, fmt.Errorf("oracle: failed to read speech response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("speech synthesis returned error status", "status", resp.StatusCode, "body", string(raw))
		return SpeechResult{}, fmt.Errorf("oracle: speech synthesis returned status %d", resp.StatusCode)
	}

	var decoded speechResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return SpeechResult{}, fmt.Errorf("oracle: failed to decode speech response: %w", err)
	}
	if decoded.Error != nil {
		return SpeechResult{}, fmt.Errorf("oracle: speech synthesis error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}

	for _, cand := range decoded.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return SpeechResult{}, fmt.Errorf("oracle: failed to decode audio payload: %w", err)
			}
			return SpeechResult{
				MIMEType:   part.InlineData.MIMEType,
				PCM:        pcm,
				SampleRate: sampleRateFromMIME(part.InlineData.MIMEType),
			}, nil
		}
	}

	return SpeechResult{}, errors.New("oracle: no media returned from speech model")
}

// sampleRateFromMIME parses "rate=NNNNN" from MIME types like
// "audio/L16;codec=pcm;rate=24000". Defaults to 24000 when absent.
func sampleRateFromMIME(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		param = strings.TrimSpace(param)
		if value, ok := strings.CutPrefix(param, "rate="); ok {
			if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return 24000
}
