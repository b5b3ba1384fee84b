package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tandem-recipes/internal/app"
	"tandem-recipes/internal/config"
	"tandem-recipes/internal/database"
	"tandem-recipes/internal/ingredient"
	"tandem-recipes/internal/llm"
	"tandem-recipes/internal/location"
	"tandem-recipes/internal/logging"
	"tandem-recipes/internal/overseer"
	"tandem-recipes/internal/planner"
	"tandem-recipes/internal/recipe"
	"tandem-recipes/internal/retailer"
	"tandem-recipes/internal/server"
	"tandem-recipes/internal/sku"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	recipeRepo := recipe.NewRepository(db.SQL)
	ingredientRepo := ingredient.NewRepository(db.SQL)
	skuRepo := sku.NewRepository(db.SQL, cfg.SKUCacheTTL)
	planRepo := planner.NewRepository(db.SQL)
	callLog := llm.NewCallLogStore(db.SQL)

	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		textGen, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			logger.Fatal("failed to initialize gemini client", zap.Error(err))
		}
		if closer, ok := textGen.(llm.Closer); ok {
			defer closer.Close()
		}
	} else {
		logger.Warn("no GEMINI_API_KEY set, using heuristic ingredient normalization")
	}

	normalizer := llm.NewNormalizer(textGen, cfg.LLMModel, callLog, 1000)
	mealPlanner := planner.New(recipeRepo, ingredientRepo, skuRepo, planRepo,
		logger, cfg.SolveTimeLimit, cfg.BatchPenalty)

	var auditor *overseer.Overseer
	if textGen != nil {
		corrector := overseer.NewCorrector(textGen, cfg.LLMModel, callLog)
		auditor = overseer.New(corrector, ingredientRepo, recipeRepo, skuRepo, logger)
	}

	var retailerClient retailer.Client
	switch {
	case cfg.RetailerAPIBaseURL != "":
		retailerClient = retailer.NewAPIClient(cfg.RetailerAPIBaseURL, cfg.RetailerAPIKey, nil)
	case cfg.RetailerSiteURL != "":
		retailerClient = retailer.NewHTMLClient(cfg.RetailerSiteURL, cfg.RetailerSlug, nil)
	}

	resolver := location.NewResolver(cfg.LocationLookupURL, cfg.DefaultPostalCode, nil, logger)

	application := app.NewApp(cfg, logger, db, recipeRepo, ingredientRepo, skuRepo, planRepo,
		normalizer, mealPlanner, auditor, retailerClient)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.New(application, resolver, logger, cfg.AdminTokenSecret),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server.listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("server.stopped")
}
