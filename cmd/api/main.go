package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iterworks/juvo-backend/cmd/mainconfig"
	"github.com/iterworks/juvo-backend/internal/api/router"
	"github.com/iterworks/juvo-backend/internal/chat"
	"github.com/iterworks/juvo-backend/internal/community"
	appconfig "github.com/iterworks/juvo-backend/internal/config"
	"github.com/iterworks/juvo-backend/internal/counselor"
	"github.com/iterworks/juvo-backend/internal/moderation"
	"github.com/iterworks/juvo-backend/internal/notify"
	"github.com/iterworks/juvo-backend/internal/observability/metrics"
	"github.com/iterworks/juvo-backend/internal/oracle"
	"github.com/iterworks/juvo-backend/internal/profile"
	"github.com/iterworks/juvo-backend/internal/therapy"
	"github.com/iterworks/juvo-backend/internal/voice"
	"github.com/iterworks/juvo-backend/internal/wellness"
	"github.com/iterworks/juvo-backend/pkg/logging"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting juvo-backend API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	redisClient := newRedisClient(ctx, cfg, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	oracleClient, err := newOracleClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to initialize oracle client", "error", err)
		os.Exit(1)
	}

	emailSender := newEmailSender(cfg, awsCfg, logger)

	// Stores
	turnStore := chat.NewTurnStore(dynamoClient, cfg.ChatTurnsTable, logger)
	communityStore := community.NewStore(dynamoClient, cfg.CommunityTable, logger)
	profileStore := profile.NewStore(dynamoClient, cfg.ProfilesTable, logger)
	wellnessStore := wellness.NewStore(dynamoClient, cfg.WellnessTable, logger)

	// Oracle-backed services
	classifier := therapy.NewClassifier(oracleClient, pipelineMetrics, logger)
	therapist := therapy.NewService(classifier, emailSender, pipelineMetrics, logger)
	concerns := therapy.NewConcernAnalyzer(oracleClient, pipelineMetrics, logger)
	moderator := moderation.NewModerator(oracleClient, pipelineMetrics, logger)
	insights := wellness.NewInsights(oracleClient, pipelineMetrics, logger)
	emergencies := counselor.NewEmergencyEscalator(oracleClient, pipelineMetrics, logger)

	chatService := chat.NewService(chat.ServiceConfig{
		Therapist:    therapist,
		Turns:        turnStore,
		Redis:        redisClient,
		HistoryTTL:   cfg.ChatHistoryTTL,
		Profiles:     profileStore,
		Vitals:       wellnessStore,
		HistoryLimit: cfg.ChatHistoryLimit,
		Logger:       logger,
	})
	communityService := community.NewService(communityStore, moderator, logger)

	// Handlers
	chatHandler := chat.NewHandler(chatService, logger)
	communityHandler := community.NewHandler(communityService, logger)
	profileHandler := profile.NewHandler(profileStore, logger)
	wellnessHandler := wellness.NewHandler(wellnessStore, insights, logger)
	counselorHandler := counselor.NewHandler(turnStore, concerns, emergencies, emailSender, cfg.CounselorEmail, logger)

	var voiceHandler *voice.Handler
	if cfg.GeminiAPIKey != "" {
		speech, err := oracle.NewSpeechClient(oracle.SpeechClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			ModelID: cfg.GeminiTTSModelID,
			Voice:   cfg.GeminiTTSVoice,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to initialize speech client", "error", err)
			os.Exit(1)
		}
		pipeline := voice.NewPipeline(oracleClient, chatService, speech, pipelineMetrics, logger)
		voiceHandler = voice.NewHandler(pipeline, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, voice routes disabled")
	}

	routerCfg := &router.Config{
		Logger:           logger,
		ChatHandler:      chatHandler,
		VoiceHandler:     voiceHandler,
		CommunityHandler: communityHandler,
		WellnessHandler:  wellnessHandler,
		ProfileHandler:   profileHandler,
		CounselorHandler: counselorHandler,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		AuthJWTSecret:      cfg.AuthJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // oracle round trips can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// newRedisClient connects the hot history cache. Redis is optional: when it
// is unreachable the chat service falls back to DynamoDB reads.
func newRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	options := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available, chat history cache disabled", "error", err)
		return nil
	}
	return client
}

// newOracleClient selects the LLM backend. "auto" prefers Gemini and falls
// back to Bedrock on per-request failures when both are configured.
func newOracleClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (oracle.Client, error) {
	var gemini *oracle.GeminiClient
	if cfg.GeminiAPIKey != "" {
		var err error
		gemini, err = oracle.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, err
		}
	}
	var bedrock *oracle.BedrockClient
	if cfg.BedrockModelID != "" {
		bedrock = oracle.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	}

	switch cfg.LLMProvider {
	case "gemini":
		if gemini == nil {
			return nil, fmt.Errorf("LLM_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return gemini, nil
	case "bedrock":
		if bedrock == nil {
			return nil, fmt.Errorf("LLM_PROVIDER=bedrock requires BEDROCK_MODEL_ID")
		}
		return bedrock, nil
	case "auto":
		switch {
		case gemini != nil && bedrock != nil:
			return oracle.NewFallbackClient(gemini, bedrock, logger), nil
		case gemini != nil:
			return gemini, nil
		case bedrock != nil:
			return bedrock, nil
		default:
			return nil, fmt.Errorf("no LLM configured: set GEMINI_API_KEY or BEDROCK_MODEL_ID")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

// newEmailSender picks the alert delivery channel. The stub sender logs
// instead of sending, which keeps local development honest about alerts.
func newEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	case "webhook":
		if cfg.AlertWebhookURL != "" {
			return notify.NewWebhookSender(cfg.AlertWebhookURL, nil, logger)
		}
	}
	logger.Warn("email provider not configured, alerts will be logged only", "provider", cfg.EmailProvider)
	return notify.NewStubEmailSender(logger)
}
