package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clinical-evidence-server/internal/api"
	"github.com/clinical-evidence-server/internal/audit"
	"github.com/clinical-evidence-server/internal/config"
	"github.com/clinical-evidence-server/internal/database"
	"github.com/clinical-evidence-server/internal/domain"
	"github.com/clinical-evidence-server/internal/service"
	"github.com/clinical-evidence-server/pkg/embedding"
	"github.com/clinical-evidence-server/pkg/external"
	"github.com/clinical-evidence-server/pkg/llm"
)

const memoizedAdapterCacheSize = 128

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auditStore, checks, err := buildAuditStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize audit store")
	}
	defer auditStore.Close()

	gatherer, cacheCheck, err := buildGatherer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize evidence gatherer")
	}
	if cacheCheck != nil {
		checks = append(checks, *cacheCheck)
	}

	generator, err := buildGenerator(cfg.LLM, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize answer generator")
	}

	embedder, err := buildEmbedder(ctx, cfg.Embedding)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize embedding backend")
	}

	classifier, err := service.NewRuleClassifier(service.Rules(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load classification rules")
	}

	pipeline := service.NewPipeline(service.PipelineDeps{
		Extractor:  service.NewKeywordTagExtractor(logger),
		Classifier: classifier,
		Router:     service.NewPatternIntentRouter(logger),
		Anchors:    service.NewCuratedAnchorMatcher(logger),
		Gatherer:   gatherer,
		Filter:     service.NewExclusionEvidenceFilter(logger),
		Conflicts:  service.NewGuidelineConflictDetector(logger),
		Validator:  service.NewCitationValidator(embedder, logger),
		Generator:  generator,
		AuditStore: auditStore,
	}, logger)

	server := api.NewServer(cfg, pipeline, auditStore, checks, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting clinical evidence server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}
	return logger
}

// buildAuditStore opens the configured audit backend. The postgres backend
// runs its schema migrations first; sqlite creates its schema inline.
func buildAuditStore(cfg *domain.Config, logger *logrus.Logger) (audit.Store, []api.HealthCheck, error) {
	switch cfg.Database.Driver {
	case "postgres":
		databaseURL := database.PostgresURL(cfg.Database)

		runner, err := database.NewMigrationRunner(databaseURL, cfg.Database.MigrationsPath, logger)
		if err != nil {
			return nil, nil, err
		}
		defer runner.Close()
		if err := runner.Up(context.Background()); err != nil {
			return nil, nil, err
		}

		db, err := database.OpenPostgres(cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := audit.NewPostgresStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, []api.HealthCheck{pingCheck("database", db)}, nil

	default:
		store, err := audit.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

func pingCheck(name string, db *sql.DB) api.HealthCheck {
	return api.HealthCheck{
		Name:  name,
		Probe: func(ctx context.Context) error { return db.PingContext(ctx) },
	}
}

// buildGatherer wires the source adapters, the optional shared cache and the
// optional web-search fallback into the gatherer.
func buildGatherer(cfg *domain.Config, logger *logrus.Logger) (domain.EvidenceGatherer, *api.HealthCheck, error) {
	ext := cfg.ExternalAPI

	pubmed := external.NewPubMedAdapter(external.PubMedConfig{
		BaseURL:    ext.PubMed.BaseURL,
		APIKey:     ext.PubMed.APIKey,
		Email:      ext.PubMed.Email,
		Timeout:    ext.PubMed.Timeout,
		RateLimit:  ext.PubMed.RateLimit,
		MaxResults: ext.PubMed.MaxResults,
	})
	europepmc := external.NewEuropePMCAdapter(external.EuropePMCConfig{
		BaseURL:    ext.EuropePMC.BaseURL,
		Timeout:    ext.EuropePMC.Timeout,
		RateLimit:  ext.EuropePMC.RateLimit,
		MaxResults: ext.EuropePMC.MaxResults,
	})
	cochraneCfg := external.CochraneConfig{
		BaseURL:    ext.Cochrane.BaseURL,
		APIKey:     ext.Cochrane.APIKey,
		Email:      ext.Cochrane.Email,
		Timeout:    ext.Cochrane.Timeout,
		RateLimit:  ext.Cochrane.RateLimit,
		MaxResults: ext.Cochrane.MaxResults,
	}
	cochrane := external.NewCochraneAdapter(cochraneCfg)
	systematic := external.NewSystematicReviewAdapter(cochraneCfg)
	trials := external.NewClinicalTrialsAdapter(external.ClinicalTrialsConfig{
		BaseURL:    ext.ClinicalTrials.BaseURL,
		Timeout:    ext.ClinicalTrials.Timeout,
		RateLimit:  ext.ClinicalTrials.RateLimit,
		MaxResults: ext.ClinicalTrials.MaxResults,
	})
	dailymed := external.NewDailyMedAdapter(external.DailyMedConfig{
		BaseURL:   ext.DailyMed.BaseURL,
		Timeout:   ext.DailyMed.Timeout,
		RateLimit: ext.DailyMed.RateLimit,
		MaxLabels: ext.DailyMed.MaxResults,
	})
	openfda := external.NewOpenFDAAdapter(external.OpenFDAConfig{
		BaseURL:   ext.OpenFDA.BaseURL,
		APIKey:    ext.OpenFDA.APIKey,
		Timeout:   ext.OpenFDA.Timeout,
		RateLimit: ext.OpenFDA.RateLimit,
		MaxLabels: ext.OpenFDA.MaxResults,
	})

	adapters := []external.SourceAdapter{
		memoize(pubmed),
		memoize(europepmc),
		memoize(cochrane),
		memoize(systematic),
		memoize(trials),
		memoize(dailymed),
		memoize(openfda),
		memoize(external.NewWHOAdapter(guidelineConfig(ext.WHO))),
		memoize(external.NewCDCAdapter(guidelineConfig(ext.CDC))),
		memoize(external.NewNICEAdapter(guidelineConfig(ext.NICE))),
		memoize(external.NewUSPSTFAdapter(guidelineConfig(ext.USPSTF))),
		external.NewLandmarkTrialAdapter(),
	}

	var fallback external.SourceAdapter
	if ext.WebSearch.APIKey != "" {
		fallback = external.NewWebSearchAdapter(external.WebSearchConfig{
			BaseURL:    ext.WebSearch.BaseURL,
			APIKey:     ext.WebSearch.APIKey,
			Timeout:    ext.WebSearch.Timeout,
			RateLimit:  ext.WebSearch.RateLimit,
			MaxResults: ext.WebSearch.MaxResults,
		}, logger)
	} else {
		logger.Info("Web search fallback disabled: no API key configured")
	}

	var shared *external.EvidenceCache
	var cacheCheck *api.HealthCheck
	if cfg.Cache.RedisURL != "" {
		var err error
		shared, err = external.NewEvidenceCache(cfg.Cache.RedisURL, cfg.Cache.DefaultTTL)
		if err != nil {
			return nil, nil, err
		}
		cacheCheck = &api.HealthCheck{Name: "redis", Probe: shared.Ping}
	}

	cache, err := service.NewGatherCache(cfg.Cache.MemorySize, cfg.Cache.MemoryTTL, shared, logger)
	if err != nil {
		return nil, nil, err
	}

	gatherer := service.NewMultiSourceGatherer(
		adapters,
		fallback,
		service.NewCuratedAnchorMatcher(logger),
		service.NewAdditiveSufficiencyScorer(logger),
		cache,
		service.GathererOptions{
			MaxConcurrency:  cfg.Gather.MaxConcurrency,
			FallbackEnabled: cfg.Gather.FallbackEnabled,
		},
		logger,
	)
	return gatherer, cacheCheck, nil
}

func memoize(adapter external.SourceAdapter) external.SourceAdapter {
	return external.Memoize(adapter, memoizedAdapterCacheSize, 15*time.Minute)
}

func guidelineConfig(p domain.ProviderConfig) external.GuidelineConfig {
	return external.GuidelineConfig{
		BaseURL:    p.BaseURL,
		APIKey:     p.APIKey,
		Timeout:    p.Timeout,
		RateLimit:  p.RateLimit,
		MaxResults: p.MaxResults,
	}
}

func buildGenerator(cfg domain.LLMConfig, logger *logrus.Logger) (domain.AnswerGenerator, error) {
	switch cfg.Backend {
	case "anthropic":
		if cfg.APIKey == "" {
			logger.Warn("Answer generation disabled: no LLM API key configured")
			return llm.NewNoop(), nil
		}
		return llm.NewAnthropicGenerator(llm.AnthropicConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: int64(cfg.MaxTokens),
		}, logger)
	default:
		return llm.NewNoop(), nil
	}
}

func buildEmbedder(ctx context.Context, cfg domain.EmbeddingConfig) (domain.EmbeddingGenerator, error) {
	switch cfg.Backend {
	case "genai":
		return embedding.NewGenAIEngine(ctx, cfg.APIKey, cfg.Model)
	default:
		return embedding.NewNoop(), nil
	}
}
