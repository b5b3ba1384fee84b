package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tandem-recipes/internal/app"
	"tandem-recipes/internal/config"
	"tandem-recipes/internal/database"
	"tandem-recipes/internal/ingredient"
	"tandem-recipes/internal/llm"
	"tandem-recipes/internal/logging"
	"tandem-recipes/internal/overseer"
	"tandem-recipes/internal/planner"
	"tandem-recipes/internal/recipe"
	"tandem-recipes/internal/retailer"
	"tandem-recipes/internal/server"
	"tandem-recipes/internal/sku"
)

const usage = `Usage: tandem <command> [options]

Commands:
  ingest <file>       Parse and store a recipe text file
  plan                Solve a meal plan (see plan -h)
  sku-status          Report SKU price cache coverage
  refresh-prices      Fetch fresh prices for known ingredients
  oversee             Audit the latest plan and apply LLM catalog corrections
  clear               Remove all stored data
  admin-token         Mint a bearer token for the admin endpoints
`

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// admin-token needs no database or LLM wiring.
	if os.Args[1] == "admin-token" {
		token, err := server.MintAdminToken(cfg.AdminTokenSecret, 24*time.Hour)
		if err != nil {
			logger.Fatal("failed to mint admin token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

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

	application := app.NewApp(cfg, logger, db, recipeRepo, ingredientRepo, skuRepo, planRepo,
		normalizer, mealPlanner, auditor, retailerClient)

	switch os.Args[1] {
	case "ingest":
		if len(os.Args) < 3 {
			logger.Fatal("usage: tandem ingest <file>")
		}
		report, err := application.IngestRecipeFile(ctx, os.Args[2])
		if err != nil {
			logger.Fatal("ingest failed", zap.Error(err))
		}
		fmt.Printf("Stored %d recipes (%d ingredient lines): %s\n",
			len(report.Recipes), report.RequirementCount, strings.Join(report.Recipes, ", "))

	case "plan":
		req, err := parsePlanFlags(os.Args[2:])
		if err != nil {
			logger.Fatal("invalid plan options", zap.Error(err))
		}
		resp, err := application.Plan(ctx, req)
		if err != nil {
			logger.Fatal("plan failed", zap.Error(err))
		}
		printJSON(resp)

	case "sku-status":
		report, err := application.SKUStatus(ctx)
		if err != nil {
			logger.Fatal("sku status failed", zap.Error(err))
		}
		printJSON(report)

	case "refresh-prices":
		fs := flag.NewFlagSet("refresh-prices", flag.ExitOnError)
		postal := fs.String("postal", "", "postal code to search near (default: configured)")
		fs.Parse(os.Args[2:])
		count, err := application.RefreshPrices(ctx, *postal)
		if err != nil {
			logger.Fatal("price refresh failed", zap.Error(err))
		}
		fmt.Printf("Cached %d SKUs\n", count)

	case "oversee":
		applied, err := application.ReviewLatestPlan(ctx)
		if err != nil {
			logger.Fatal("plan review failed", zap.Error(err))
		}
		fmt.Printf("Applied %d corrections\n", applied)

	case "clear":
		if err := application.Clear(ctx); err != nil {
			logger.Fatal("clear failed", zap.Error(err))
		}
		fmt.Println("Cleared all stored data")

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func parsePlanFlags(args []string) (planner.Request, error) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	servings := fs.Int("servings", 0, "target number of servings (required)")
	required := fs.String("required", "", "comma-separated recipe ids that must be cooked")
	includeEvery := fs.String("include-every", "", "comma-separated recipe ids counted one serving per batch")
	allergens := fs.String("exclude-allergens", "", "comma-separated allergen codes to exclude")
	retailers := fs.String("retailers", "", "comma-separated retailer slugs to buy from")
	minimums := fs.String("minimums", "", "meal type minimums, e.g. dessert=1,entree=2")
	timeLimit := fs.Float64("time-limit", 0, "solver time limit in seconds")
	if err := fs.Parse(args); err != nil {
		return planner.Request{}, err
	}

	req := planner.Request{
		TargetServings:   *servings,
		TimeLimitSeconds: *timeLimit,
	}
	var err error
	if req.RequiredRecipeIDs, err = parseIDList(*required); err != nil {
		return planner.Request{}, err
	}
	if req.IncludeEveryRecipeIDs, err = parseIDList(*includeEvery); err != nil {
		return planner.Request{}, err
	}
	req.ExcludeAllergens = splitList(*allergens)
	req.Retailers = splitList(*retailers)
	if req.MealTypeMinimums, err = parseMinimums(*minimums); err != nil {
		return planner.Request{}, err
	}
	return req, nil
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid recipe id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseMinimums(raw string) (map[string]int, error) {
	parts := splitList(raw)
	if len(parts) == 0 {
		return nil, nil
	}
	minimums := make(map[string]int, len(parts))
	for _, part := range parts {
		mealType, value, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("invalid minimum %q, want type=count", part)
		}
		count, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid minimum count in %q", part)
		}
		minimums[mealType] = count
	}
	return minimums, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render output: %v", err)
	}
	fmt.Println(string(out))
}
