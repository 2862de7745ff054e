package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/drive-assist/internal/answer"
	"github.com/xaenox/drive-assist/internal/api"
	"github.com/xaenox/drive-assist/internal/assistant"
	"github.com/xaenox/drive-assist/internal/bot"
	"github.com/xaenox/drive-assist/internal/cache"
	"github.com/xaenox/drive-assist/internal/speech"
	"github.com/xaenox/drive-assist/internal/storage"
	"github.com/xaenox/drive-assist/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	var (
		answerers  []answer.Answerer
		recognizer speech.Recognizer
		synth      speech.Synthesizer
	)
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OpenAI API key not set, answers fall back to the placeholder and audio is disabled")
	} else {
		oaConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			oaConfig.BaseURL = cfg.OpenAI.BaseURL
		}
		client := openai.NewClientWithConfig(oaConfig)

		chatConfig := answer.ChatConfig{
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		}
		answerers = []answer.Answerer{
			answer.NewContextAnswerer(client, chatConfig, store, cfg.Assistant.ManualSnippets, logger),
			answer.NewPlainAnswerer(client, chatConfig, logger),
		}
		recognizer = speech.NewWhisperRecognizer(client, cfg.OpenAI.TranscriptionModel, logger)
		synth = speech.NewOpenAISynthesizer(client, cfg.OpenAI.SpeechModel, cfg.OpenAI.Voice)
	}

	if cfg.Cache.Enabled && len(answerers) > 0 {
		answerCache := newAnswerCache(cfg.Cache, logger)
		defer answerCache.Close()
		for i, a := range answerers {
			answerers[i] = answer.NewCached(a, answerCache, cfg.Cache.TTL, logger)
		}
	}

	chain := answer.NewChain(logger, cfg.Assistant.AnswerTimeout, answerers...)
	svc := assistant.New(assistant.Config{
		DefaultVehicleModel: cfg.Assistant.DefaultVehicleModel,
		SessionID:           cfg.Assistant.SessionID,
		Language:            cfg.Assistant.Language,
		SpeechTimeout:       cfg.Assistant.SpeechTimeout,
	}, chain, store, recognizer, synth, logger)

	if cfg.Telegram.Enabled {
		b, err := bot.New(cfg.Telegram.Token, svc, logger)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
		go func() {
			if err := b.Start(ctx); err != nil {
				logger.Error("Bot error", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(svc, store, logger, cfg.Server.RequestTimeout),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown error", zap.Error(err))
		}
	}()

	logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("HTTP server error", zap.Error(err))
	}
}

// newAnswerCache prefers Redis and falls back to an in-process cache when
// Redis is unreachable.
func newAnswerCache(cfg config.CacheConfig, logger *zap.Logger) cache.Client {
	client, err := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		Prefix:   cfg.Prefix,
	})
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory answer cache", zap.Error(err))
		return cache.NewMemoryClient()
	}
	logger.Info("Using Redis answer cache", zap.String("addr", cfg.Addr))
	return client
}
