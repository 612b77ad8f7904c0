// Package app builds the question pipeline and its collaborators from
// configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"market-mentor/internal/assembler"
	"market-mentor/internal/common/config"
	"market-mentor/internal/common/database"
	"market-mentor/internal/common/logger"
	"market-mentor/internal/common/observability"
	"market-mentor/internal/generation"
	"market-mentor/internal/llm"
	"market-mentor/internal/pipeline"
	"market-mentor/internal/prompt"
	"market-mentor/internal/relevance/classifier"
	"market-mentor/internal/relevance/gate"
	"market-mentor/internal/search/google"
	"market-mentor/internal/search/you"
)

const ServiceName = "market-mentor"

type App struct {
	Config     *config.Config
	Gate       *gate.Gate
	Classifier *classifier.Classifier
	Assembler  *assembler.Assembler
	Pipeline   *pipeline.Pipeline
	Redis      *database.RedisClient
	Obs        *observability.Observability
	logger     logger.Logger
}

// Build wires every component. Redis is only dialed when the shared
// verdict cache is enabled.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		logger: log.With(map[string]interface{}{"component": "app"}),
	}

	obs, err := observability.New(ServiceName)
	if err != nil {
		a.logger.Warn("otel metrics exporter unavailable, continuing with tracing only", map[string]interface{}{
			"error": err.Error(),
		})
	}
	a.Obs = obs

	prompts, err := prompt.NewBuilder(prompt.PersonaFromConfig(cfg.Assistant))
	if err != nil {
		return nil, fmt.Errorf("build prompts: %w", err)
	}

	a.Gate, err = gate.New(gate.DefaultPatterns, log)
	if err != nil {
		return nil, fmt.Errorf("compile keyword gate: %w", err)
	}

	store, err := a.verdictStore(ctx)
	if err != nil {
		return nil, err
	}

	specialized := you.NewClient(you.NewConfig(cfg.APIs.YouSearch, cfg.Assistant.ContextHits), log)
	general := google.NewClient(google.NewConfig(cfg.APIs.GoogleSearch, cfg.Assistant.GeneralHits), log)

	classification := llm.NewClient(llm.NewConfig(llm.PurposeClassification, cfg.APIs.Classification), log)
	generator := llm.NewClient(llm.NewConfig(llm.PurposeGeneration, cfg.APIs.Generation), log)
	rejection := llm.NewClient(llm.NewConfig(llm.PurposeRejection, cfg.APIs.Rejection), log)

	a.Classifier = classifier.New(
		classifier.NewConfig(cfg.Assistant, cfg.Cache),
		a.Gate,
		specialized,
		classification,
		prompts,
		store,
		log,
	)
	a.Assembler = assembler.New(assembler.NewConfig(cfg.Assistant), specialized, general, log)

	a.Pipeline = pipeline.New(
		a.Classifier,
		a.Assembler,
		generation.NewAnswerGenerator(generator, prompts, log),
		generation.NewRejectionGenerator(rejection, prompts, log),
		a.Obs,
		log,
	)

	a.logger.Info("pipeline initialized", map[string]interface{}{
		"keywordPatterns":  a.Gate.Len(),
		"sharedCache":      a.Redis != nil,
		"parallelSearches": cfg.Assistant.ParallelSearches,
	})
	return a, nil
}

func (a *App) verdictStore(ctx context.Context) (classifier.VerdictStore, error) {
	cfg := a.Config
	if !cfg.Cache.Redis.Enabled {
		store, err := classifier.NewMemoryStore(cfg.Cache.Capacity)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	err := retryWithBackoff(ctx, func() error {
		client, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return err
		}
		a.Redis = client
		return nil
	}, 5, 500*time.Millisecond, a.logger, "Redis connection")
	if err != nil {
		return nil, err
	}
	a.logger.Info("Redis connected successfully", map[string]interface{}{
		"address": cfg.Database.Redis.Address,
	})

	return classifier.NewRedisStore(
		a.Redis.Client,
		cfg.Cache.Redis.Prefix,
		time.Duration(cfg.Cache.Redis.TTL)*time.Second,
	), nil
}

// Ping reports readiness of the optional shared cache.
func (a *App) Ping(ctx context.Context) error {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Ping(ctx)
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", map[string]interface{}{"error": err.Error()})
		}
	}
	a.Obs.Shutdown()
}

// retryWithBackoff attempts operation up to maxRetries times, doubling the
// delay between attempts.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
