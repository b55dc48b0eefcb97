package app

import (
	"fmt"

	"github.com/loglens/backend/internal/cache"
	"github.com/loglens/backend/internal/config"
	"github.com/loglens/backend/internal/db"
	"github.com/loglens/backend/internal/logformat"
	"github.com/loglens/backend/internal/logger"
	"github.com/loglens/backend/internal/services"
	"gorm.io/gorm"
)

// App holds the services built from a Config.
type App struct {
	Config    *config.Config
	Catalog   *logformat.Catalog
	Analysis  *services.AnalysisService
	LLM       *services.LLMService
	Discovery *services.PatternDiscovery
	Cache     *cache.Cache
	DB        *gorm.DB
}

// Options selects the optional collaborators.
type Options struct {
	UseDatabase bool
	UseLLM      bool
	UseCache    bool
}

// New wires the pipeline. Failing to open the summary cache is logged and
// tolerated; a configured database that cannot be reached is an error.
func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	catalog := logformat.DefaultCatalog()
	if cfg.CatalogFile != "" {
		var err error
		if catalog, err = logformat.LoadCatalogFile(cfg.CatalogFile); err != nil {
			return nil, err
		}
		logger.Info("Loaded format catalog", map[string]interface{}{
			"file":    cfg.CatalogFile,
			"formats": catalog.Len(),
		})
	}
	a.Catalog = catalog

	analysisCfg := services.AnalysisConfig{
		Normalizer: logformat.NewNormalizer(catalog),
		ChunkSize:  cfg.ChunkSize,
		MaxSize:    cfg.MaxUploadMB << 20,
	}

	if opts.UseLLM {
		a.LLM = services.NewLLMService(services.LLMConfig{
			BaseURL:           cfg.OllamaURL,
			Model:             cfg.OllamaModel,
			Timeout:           cfg.OllamaTimeout,
			RequestsPerSecond: cfg.LLMRequestsPerSec,
		})
		a.Discovery = services.NewPatternDiscovery(a.LLM)

		var summaryCache services.SummaryCache
		if opts.UseCache {
			c, err := cache.Open(cfg.CacheDir)
			if err != nil {
				logger.WithError(err, "cache").Warn("Summary cache disabled")
			} else {
				a.Cache = c
				summaryCache = c
			}
		}
		analysisCfg.Summarizer = services.NewSummarizer(a.LLM, summaryCache, cfg.SummaryConcurrency)
		if cfg.DiscoverUnknownFormats {
			analysisCfg.Discovery = a.Discovery
		}
	}

	if opts.UseDatabase && cfg.DatabaseEnabled() {
		conn, err := db.Connect(cfg.DSN())
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := db.AutoMigrate(conn); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		a.DB = conn
		analysisCfg.Store = services.NewGormRunStore(conn)
	} else {
		analysisCfg.Store = services.NewMemoryRunStore()
	}

	a.Analysis = services.NewAnalysisService(analysisCfg)
	return a, nil
}

// Close releases the cache and database handles.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			logger.WithError(err, "cache").Warn("Closing summary cache failed")
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
