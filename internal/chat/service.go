package chat

import (
	"context"
	"time"

	"github.com/iterworks/juvo-backend/internal/therapy"
	"github.com/iterworks/juvo-backend/pkg/logging"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// ProfileSource supplies the caretaker contact for alert dispatch.
type ProfileSource interface {
	Caretaker(ctx context.Context, userID string) (*therapy.CaretakerProfile, error)
}

// VitalsSource supplies the latest wearable reading for prompt context.
type VitalsSource interface {
	TodayVitals(ctx context.Context, userID string) (*therapy.VitalsContext, error)
}

// Service drives a full chat round trip: load context, run the therapy
// pipeline, persist both turns.
type Service struct {
	therapist    *therapy.Service
	turns        *TurnStore
	cache        *historyCache
	profiles     ProfileSource
	vitals       VitalsSource
	historyLimit int
	logger       *logging.Logger
}

// ServiceConfig wires the chat service dependencies.
type ServiceConfig struct {
	Therapist    *therapy.Service
	Turns        *TurnStore
	Redis        *redis.Client
	HistoryTTL   time.Duration
	Tracer       trace.Tracer
	Profiles     ProfileSource
	Vitals       VitalsSource
	HistoryLimit int
	Logger       *logging.Logger
}

// NewService creates a chat service. Redis is optional; without it every
// request reads history from DynamoDB.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Therapist == nil {
		panic("chat: therapist cannot be nil")
	}
	if cfg.Turns == nil {
		panic("chat: turn store cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	var cache *historyCache
	if cfg.Redis != nil {
		cache = newHistoryCache(cfg.Redis, cfg.HistoryTTL, cfg.Tracer)
	}
	return &Service{
		therapist:    cfg.Therapist,
		turns:        cfg.Turns,
		cache:        cache,
		profiles:     cfg.Profiles,
		vitals:       cfg.Vitals,
		historyLimit: cfg.HistoryLimit,
		logger:       cfg.Logger,
	}
}

// MessageInput is one inbound chat message. Message may be empty; the
// pipeline then produces a greeting instead of a reply.
type MessageInput struct {
	Message   string `json:"message"`
	VoiceMood string `json:"voiceMood,omitempty"`
	Language  string `json:"language,omitempty"`
}

// SendMessage runs the therapy pipeline for one message and appends the
// exchange to the transcript.
func (s *Service) SendMessage(ctx context.Context, userID string, input MessageInput) (therapy.Result, error) {
	history, err := s.History(ctx, userID)
	if err != nil {
		return therapy.Result{}, err
	}

	req := therapy.Request{
		UserInput: input.Message,
		History:   history,
		VoiceMood: input.VoiceMood,
		Language:  input.Language,
	}
	if s.profiles != nil {
		profile, err := s.profiles.Caretaker(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to load caretaker profile", "user_id", userID, "error", err)
		} else {
			req.Profile = profile
		}
	}
	if s.vitals != nil {
		vitals, err := s.vitals.TodayVitals(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to load vitals", "user_id", userID, "error", err)
		} else {
			req.Vitals = vitals
		}
	}

	result := s.therapist.Respond(ctx, req)

	var appended []therapy.Turn
	if input.Message != "" {
		appended = append(appended, therapy.Turn{Role: therapy.RoleUser, Content: input.Message})
	}
	appended = append(appended, therapy.Turn{Role: therapy.RoleBot, Content: result.Reply})
	if err := s.turns.AppendTurns(ctx, userID, appended); err != nil {
		// The reply already happened; losing a turn is recoverable.
		s.logger.Error("failed to persist chat turns", "user_id", userID, "error", err)
	}

	if s.cache != nil {
		updated := append(history, appended...)
		if len(updated) > s.historyLimit {
			updated = updated[len(updated)-s.historyLimit:]
		}
		if err := s.cache.Save(ctx, userID, updated); err != nil {
			s.logger.Warn("failed to refresh history cache", "user_id", userID, "error", err)
		}
	}
	return result, nil
}

// History returns the user's recent transcript, reading through the cache.
func (s *Service) History(ctx context.Context, userID string) ([]therapy.Turn, error) {
	if s.cache != nil {
		history, hit, err := s.cache.Load(ctx, userID)
		if err != nil {
			s.logger.Warn("history cache read failed", "user_id", userID, "error", err)
		} else if hit {
			return history, nil
		}
	}

	history, err := s.turns.RecentTurns(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(history) > 0 {
		if err := s.cache.Save(ctx, userID, history); err != nil {
			s.logger.Warn("failed to warm history cache", "user_id", userID, "error", err)
		}
	}
	return history, nil
}
