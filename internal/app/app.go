// Package app wires configuration, storage, clients, and services into
// one initialized application core.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/qiuyin/fundwatch/internal/clients/eastmoney"
	"github.com/qiuyin/fundwatch/internal/clients/gemini"
	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/interfaces"
	"github.com/qiuyin/fundwatch/internal/services/commentary"
	"github.com/qiuyin/fundwatch/internal/services/fund"
	"github.com/qiuyin/fundwatch/internal/services/watchlist"
	"github.com/qiuyin/fundwatch/internal/storage"
)

// App holds all initialized services, clients, and storage.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	Storage           interfaces.StorageManager
	EastmoneyClient   interfaces.EastmoneyClient
	GeminiClient      interfaces.GeminiClient
	FundService       interfaces.FundService
	WatchlistService  interfaces.WatchlistService
	CommentaryService interfaces.CommentaryService
	StartupTime       time.Time
}

func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case FUNDWATCH_CONFIG and the
// binary directory are consulted.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("FUNDWATCH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "fundwatch.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fundwatch.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	ctx := context.Background()

	em := config.Clients.Eastmoney
	eastmoneyClient := eastmoney.NewClient(
		eastmoney.WithBaseURLs(em.FundBaseURL, em.MobileBaseURL, em.QuoteBaseURL, em.SearchBaseURL),
		eastmoney.WithLogger(logger),
		eastmoney.WithRateLimit(em.RateLimit),
		eastmoney.WithTimeout(em.GetTimeout()),
		eastmoney.WithUserAgent(em.UserAgent),
	)

	geminiKey, err := common.ResolveAPIKey(ctx, storageManager.KeyValueStore(), "gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - commentary will be unavailable")
	}

	var geminiClient interfaces.GeminiClient
	if geminiKey != "" {
		client, err := gemini.NewClient(ctx, geminiKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			geminiClient = client
		}
	}

	fundService := fund.NewService(storageManager, eastmoneyClient, logger)
	watchlistService := watchlist.NewService(storageManager, eastmoneyClient, logger)
	commentaryService := commentary.NewService(fundService, geminiClient, logger)

	a := &App{
		Config:            config,
		Logger:            logger,
		Storage:           storageManager,
		EastmoneyClient:   eastmoneyClient,
		GeminiClient:      geminiClient,
		FundService:       fundService,
		WatchlistService:  watchlistService,
		CommentaryService: commentaryService,
		StartupTime:       startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.GeminiClient != nil {
		if err := a.GeminiClient.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close Gemini client")
		}
		a.GeminiClient = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
