// Package app wires the application's components behind one facade used by
// both the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"tandem-recipes/internal/allergen"
	"tandem-recipes/internal/config"
	"tandem-recipes/internal/database"
	"tandem-recipes/internal/ingredient"
	"tandem-recipes/internal/llm"
	"tandem-recipes/internal/overseer"
	"tandem-recipes/internal/planner"
	"tandem-recipes/internal/recipe"
	"tandem-recipes/internal/retailer"
	"tandem-recipes/internal/sku"
)

// App holds the application's dependencies.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB

	recipeRepo     *recipe.Repository
	ingredientRepo *ingredient.Repository
	skuRepo        *sku.Repository
	planRepo       *planner.Repository

	normalizer     *llm.Normalizer
	mealPlanner    *planner.Planner
	catalogAuditor *overseer.Overseer
	retailerClient retailer.Client
}

// NewApp creates and initializes a new App instance. retailerClient may be
// nil when no retailer is configured; price refreshes then fail with a
// clear error while planning keeps working from cached SKUs.
func NewApp(
	cfg *config.Config,
	logger *zap.Logger,
	db *database.DB,
	recipeRepo *recipe.Repository,
	ingredientRepo *ingredient.Repository,
	skuRepo *sku.Repository,
	planRepo *planner.Repository,
	normalizer *llm.Normalizer,
	mealPlanner *planner.Planner,
	catalogAuditor *overseer.Overseer,
	retailerClient retailer.Client,
) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		recipeRepo:     recipeRepo,
		ingredientRepo: ingredientRepo,
		skuRepo:        skuRepo,
		planRepo:       planRepo,
		normalizer:     normalizer,
		mealPlanner:    mealPlanner,
		catalogAuditor: catalogAuditor,
		retailerClient: retailerClient,
	}
}

// IngestReport summarizes one recipe upload.
type IngestReport struct {
	Recipes          []string `json:"recipes"`
	RequirementCount int      `json:"requirement_count"`
}

// IngestRecipeText parses an uploaded recipe file, normalizes every
// ingredient line, and stores the recipes with inferred meal types and
// allergen tags.
func (a *App) IngestRecipeText(ctx context.Context, sourceFile, text string) (*IngestReport, error) {
	parsed := recipe.ParseText(text)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("no recipes found in %s", sourceFile)
	}
	a.logger.Info("ingest.start",
		zap.String("source", sourceFile),
		zap.Int("recipes", len(parsed)),
		zap.Int("ingredient_lines", recipe.CountIngredients(text)))

	report := &IngestReport{}
	for _, p := range parsed {
		rec := recipe.Recipe{
			Name:         p.Name,
			Servings:     p.Servings,
			Instructions: p.Instructions,
			SourceFile:   sourceFile,
			MealType:     recipe.InferMealType(p.Name, p.Instructions),
		}

		var requirements []recipe.Requirement
		var canonicalNames []string
		for _, line := range p.Ingredients {
			normalized, err := a.normalizer.Normalize(ctx, line)
			if err != nil {
				return nil, fmt.Errorf("failed to normalize %q in %q: %w", line, p.Name, err)
			}
			ing, err := a.ingredientRepo.GetOrCreate(ctx,
				normalized.Name, normalized.CanonicalName, normalized.BaseUnit, normalized.BaseUnitQty)
			if err != nil {
				return nil, err
			}
			canonicalNames = append(canonicalNames, ing.CanonicalName)
			requirements = append(requirements, recipe.Requirement{
				IngredientID: ing.ID,
				Quantity:     normalized.Quantity,
				Unit:         normalized.BaseUnit,
				OriginalText: line,
			})
		}

		rec.Allergens = allergen.Infer(canonicalNames)
		if err := a.recipeRepo.Save(ctx, &rec); err != nil {
			return nil, err
		}
		for i := range requirements {
			requirements[i].RecipeID = rec.ID
		}
		if err := a.recipeRepo.SaveRequirements(ctx, requirements); err != nil {
			return nil, err
		}

		report.Recipes = append(report.Recipes, rec.Name)
		report.RequirementCount += len(requirements)
		a.logger.Info("ingest.recipe_saved",
			zap.String("name", rec.Name),
			zap.String("meal_type", rec.MealType),
			zap.Int("ingredients", len(requirements)))
	}
	return report, nil
}

// IngestRecipeFile reads and ingests one recipe file from disk.
func (a *App) IngestRecipeFile(ctx context.Context, path string) (*IngestReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}
	return a.IngestRecipeText(ctx, path, string(data))
}

// Plan runs one meal plan.
func (a *App) Plan(ctx context.Context, req planner.Request) (*planner.Response, error) {
	return a.mealPlanner.Plan(ctx, req)
}

// RefreshPrices fetches fresh SKUs for every known ingredient near the
// given postal code. Returns the number of SKUs cached.
func (a *App) RefreshPrices(ctx context.Context, postalCode string) (int, error) {
	if a.retailerClient == nil {
		return 0, fmt.Errorf("no retailer configured")
	}
	if postalCode == "" {
		postalCode = a.cfg.DefaultPostalCode
	}

	ingredients, err := a.ingredientRepo.List(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, ing := range ingredients {
		products, err := a.retailerClient.SearchProducts(ctx, ing.CanonicalName, postalCode)
		if err != nil {
			a.logger.Warn("prices.search_failed",
				zap.String("ingredient", ing.CanonicalName), zap.Error(err))
			continue
		}
		if len(products) == 0 {
			continue
		}

		skus := make([]sku.SKU, 0, len(products))
		for _, p := range products {
			skus = append(skus, sku.SKU{
				IngredientID: ing.ID,
				Name:         p.Name,
				Brand:        p.Brand,
				Size:         p.Size,
				Price:        p.Price,
				PricePerUnit: p.PricePerUnit,
				RetailerSlug: p.RetailerSlug,
				PostalCode:   postalCode,
			})
		}
		if err := a.skuRepo.Insert(ctx, skus); err != nil {
			return total, err
		}
		total += len(skus)
	}
	a.logger.Info("prices.refreshed", zap.Int("skus", total), zap.String("postal_code", postalCode))
	return total, nil
}

// SKUStatusReport reports the SKU price cache coverage per ingredient.
type SKUStatusReport struct {
	TotalSKUs          int      `json:"total_skus"`
	ActiveSKUs         int      `json:"active_skus"`
	IngredientsCovered []string `json:"ingredients_covered"`
	IngredientsMissing []string `json:"ingredients_missing"`
}

// SKUStatus reports which ingredients have live prices and which would get
// placeholder supply in a plan.
func (a *App) SKUStatus(ctx context.Context) (*SKUStatusReport, error) {
	ingredients, err := a.ingredientRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	active, err := a.skuRepo.ListActive(ctx, time.Now().UTC(), nil)
	if err != nil {
		return nil, err
	}
	total, err := a.skuRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	covered := make(map[int64]bool, len(active))
	for _, s := range active {
		covered[s.IngredientID] = true
	}

	report := &SKUStatusReport{TotalSKUs: total, ActiveSKUs: len(active)}
	for _, ing := range ingredients {
		if covered[ing.ID] {
			report.IngredientsCovered = append(report.IngredientsCovered, ing.CanonicalName)
		} else {
			report.IngredientsMissing = append(report.IngredientsMissing, ing.CanonicalName)
		}
	}
	sort.Strings(report.IngredientsCovered)
	sort.Strings(report.IngredientsMissing)
	return report, nil
}

// ReviewLatestPlan audits the purchase lines of the most recent plan for
// quantities and costs that point at bad catalog data, applying any
// corrections the auditor proposes. Returns the number of catalog rows
// changed. A corrected catalog only takes effect on the next plan run.
func (a *App) ReviewLatestPlan(ctx context.Context) (int, error) {
	if a.catalogAuditor == nil {
		return 0, fmt.Errorf("no catalog auditor configured")
	}
	if a.planRepo == nil {
		return 0, fmt.Errorf("no plan store configured")
	}
	plan, err := a.planRepo.GetLatest(ctx)
	if err != nil {
		return 0, err
	}
	if plan == nil {
		return 0, fmt.Errorf("no plan to review; run a plan first")
	}
	a.logger.Info("oversee.reviewing_plan",
		zap.Int64("plan_id", plan.ID),
		zap.Int("purchases", len(plan.Payload.Response.Purchases)))
	return a.catalogAuditor.Review(ctx, plan.Payload.Response.Purchases)
}

// Clear removes every stored row.
func (a *App) Clear(ctx context.Context) error {
	if err := a.db.ClearAll(ctx); err != nil {
		return err
	}
	a.logger.Info("app.cleared")
	return nil
}
