// Package planner turns a plan request into a solved, persisted meal plan.
// It loads a catalog snapshot, injects placeholder supply for ingredients
// with no live prices, runs the optimizer, and projects the result into the
// API shapes.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"tandem-recipes/internal/ingredient"
	"tandem-recipes/internal/optimizer"
	"tandem-recipes/internal/recipe"
	"tandem-recipes/internal/shopping"
	"tandem-recipes/internal/sku"
	"tandem-recipes/internal/timing"
)

// Placeholder supply stands in for ingredients that have no usable SKU so a
// missing price never makes the whole plan infeasible. The id offset keeps
// placeholder ids out of the real SKU id space.
const (
	placeholderIDBase   int64   = 1_000_000
	placeholderQuantity float64 = 999999
	placeholderCost     float64 = 1.0
)

// ErrInvalidRequest marks request validation failures so callers can
// distinguish them from infrastructure errors.
var ErrInvalidRequest = errors.New("invalid plan request")

// RecipeSource loads the recipe side of the catalog snapshot.
type RecipeSource interface {
	List(ctx context.Context) ([]recipe.Recipe, error)
	ListRequirements(ctx context.Context) ([]recipe.Requirement, error)
}

// IngredientSource loads the ingredient catalog.
type IngredientSource interface {
	List(ctx context.Context) ([]ingredient.Ingredient, error)
}

// SKUSource loads live, non-expired SKUs.
type SKUSource interface {
	ListActive(ctx context.Context, now time.Time, retailers []string) ([]sku.SKU, error)
}

// PlanStore persists solved plans.
type PlanStore interface {
	Save(ctx context.Context, plan *StoredPlan) error
}

// Request describes one plan run.
type Request struct {
	TargetServings        int              `json:"target_servings"`
	MealTypeMinimums      map[string]int   `json:"meal_type_minimums,omitempty"`
	RequiredRecipeIDs     []int64          `json:"required_recipe_ids,omitempty"`
	IncludeEveryRecipeIDs []int64          `json:"include_every_recipe_ids,omitempty"`
	ExcludeAllergens      []string         `json:"exclude_allergens,omitempty"`
	Retailers             []string         `json:"retailers,omitempty"`
	TimeLimitSeconds      float64          `json:"time_limit_seconds,omitempty"`
}

// SKUPurchase is one purchased pack line of a solved plan.
type SKUPurchase struct {
	SKUID        int64   `json:"sku_id"`
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand,omitempty"`
	RetailerSlug string  `json:"retailer_slug,omitempty"`
	Size         string  `json:"size,omitempty"`
	UnitPrice    float64 `json:"unit_price"`
	Units        int64   `json:"units"`
	TotalPrice   float64 `json:"total_price"`
}

// RecipeSelection is one chosen recipe line of a solved plan.
type RecipeSelection struct {
	RecipeID      int64  `json:"recipe_id"`
	Name          string `json:"name"`
	MealType      string `json:"meal_type,omitempty"`
	Batches       int64  `json:"batches"`
	TotalServings int64  `json:"total_servings"`
}

// Response is the full projection of one plan run.
type Response struct {
	PlanID                   int64             `json:"plan_id,omitempty"`
	RunID                    string            `json:"run_id,omitempty"`
	Status                   optimizer.Status  `json:"status"`
	Objective                *float64          `json:"objective,omitempty"`
	Recipes                  []RecipeSelection `json:"recipes"`
	Purchases                []SKUPurchase     `json:"purchases"`
	ShoppingList             []shopping.Item   `json:"shopping_list"`
	PlaceholderIngredientIDs []int64           `json:"placeholder_ingredient_ids,omitempty"`
	SolveMillis              int64             `json:"solve_ms"`
}

// Planner orchestrates plan runs against a catalog snapshot.
type Planner struct {
	recipes      RecipeSource
	ingredients  IngredientSource
	skus         SKUSource
	plans        PlanStore
	logger       *zap.Logger
	timeLimit    time.Duration
	batchPenalty float64
	now          func() time.Time
}

// New creates a planner. plans may be nil to skip persistence.
func New(recipes RecipeSource, ingredients IngredientSource, skus SKUSource,
	plans PlanStore, logger *zap.Logger, timeLimit time.Duration, batchPenalty float64) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		recipes:      recipes,
		ingredients:  ingredients,
		skus:         skus,
		plans:        plans,
		logger:       logger,
		timeLimit:    timeLimit,
		batchPenalty: batchPenalty,
		now:          time.Now,
	}
}

// Plan runs one end-to-end plan: snapshot load, filtering, placeholder
// injection, solve, projection, persistence. Infeasible and timed-out
// outcomes are values in the response, not errors.
func (p *Planner) Plan(ctx context.Context, req Request) (*Response, error) {
	if req.TargetServings <= 0 {
		return nil, fmt.Errorf("%w: target servings must be positive, got %d", ErrInvalidRequest, req.TargetServings)
	}
	for mealType, minimum := range req.MealTypeMinimums {
		if minimum < 0 {
			return nil, fmt.Errorf("%w: negative minimum for meal type %q", ErrInvalidRequest, mealType)
		}
	}

	span := timing.Start(p.logger, "planner.plan", zap.Int("target_servings", req.TargetServings))

	recipes, err := p.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	requirements, err := p.recipes.ListRequirements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	ingredients, err := p.ingredients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	skus, err := p.skus.ListActive(ctx, p.now().UTC(), req.Retailers)
	if err != nil {
		return nil, fmt.Errorf("failed to load skus: %w", err)
	}

	recipes, excluded := filterAllergens(recipes, req.ExcludeAllergens)
	if err := checkSelections(req, recipes, excluded); err != nil {
		return nil, err
	}

	options := buildRecipeOptions(recipes, requirements)
	supply := buildSupplyOptions(skus)
	placeholderIDs := injectPlaceholders(&supply, options)

	timeLimit := p.timeLimit
	if req.TimeLimitSeconds > 0 {
		timeLimit = time.Duration(req.TimeLimitSeconds * float64(time.Second))
	}
	solveOpts := optimizer.SolveOptions{
		TimeLimit:             timeLimit,
		BatchPenalty:          p.batchPenalty,
		MealTypeMinimums:      req.MealTypeMinimums,
		RecipeMealTypes:       mealTypesByID(recipes),
		RequiredRecipeIDs:     req.RequiredRecipeIDs,
		IncludeEveryRecipeIDs: req.IncludeEveryRecipeIDs,
	}

	solveStart := p.now()
	result, err := optimizer.Solve(req.TargetServings, options, supply, solveOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to solve plan: %w", err)
	}
	solveMillis := p.now().Sub(solveStart).Milliseconds()

	resp := &Response{
		Status:                   result.Status,
		Objective:                result.Objective,
		Recipes:                  projectRecipes(result.RecipeBatches, recipes),
		Purchases:                projectPurchases(result.SKUUnits, skus),
		ShoppingList:             shopping.Consolidate(result.RecipeBatches, requirements, ingredientsByID(ingredients)),
		PlaceholderIngredientIDs: placeholderIDs,
		SolveMillis:              solveMillis,
	}

	if p.plans != nil {
		stored := &StoredPlan{
			TargetServings: req.TargetServings,
			Status:         string(result.Status),
			Objective:      result.Objective,
			Payload:        Payload{Request: req, Response: *resp},
		}
		if err := p.plans.Save(ctx, stored); err != nil {
			return nil, fmt.Errorf("failed to save plan: %w", err)
		}
		resp.PlanID = stored.ID
		resp.RunID = stored.RunID
	}

	span.End(
		zap.String("status", string(result.Status)),
		zap.Int("recipes", len(resp.Recipes)),
		zap.Int("placeholders", len(placeholderIDs)),
	)
	return resp, nil
}

// filterAllergens drops recipes tagged with any excluded allergen and
// returns the dropped ids for selection conflict reporting.
func filterAllergens(recipes []recipe.Recipe, exclude []string) ([]recipe.Recipe, map[int64]bool) {
	if len(exclude) == 0 {
		return recipes, nil
	}
	excludeSet := make(map[string]bool, len(exclude))
	for _, code := range exclude {
		excludeSet[code] = true
	}

	kept := recipes[:0]
	dropped := make(map[int64]bool)
	for _, rec := range recipes {
		hit := false
		for _, code := range rec.Allergens {
			if excludeSet[code] {
				hit = true
				break
			}
		}
		if hit {
			dropped[rec.ID] = true
		} else {
			kept = append(kept, rec)
		}
	}
	return kept, dropped
}

func checkSelections(req Request, recipes []recipe.Recipe, excluded map[int64]bool) error {
	known := make(map[int64]bool, len(recipes))
	for _, rec := range recipes {
		known[rec.ID] = true
	}
	for _, id := range append(append([]int64{}, req.RequiredRecipeIDs...), req.IncludeEveryRecipeIDs...) {
		if known[id] {
			continue
		}
		if excluded[id] {
			return fmt.Errorf("%w: recipe %d is excluded by the allergen filter but was requested", ErrInvalidRequest, id)
		}
		return fmt.Errorf("%w: unknown recipe id %d", ErrInvalidRequest, id)
	}
	return nil
}

func buildRecipeOptions(recipes []recipe.Recipe, requirements []recipe.Requirement) []optimizer.RecipeOption {
	needs := make(map[int64]map[int64]float64)
	for _, req := range requirements {
		m := needs[req.RecipeID]
		if m == nil {
			m = make(map[int64]float64)
			needs[req.RecipeID] = m
		}
		m[req.IngredientID] += req.Quantity
	}

	options := make([]optimizer.RecipeOption, 0, len(recipes))
	for _, rec := range recipes {
		servings := rec.Servings
		if servings <= 0 {
			servings = 1
		}
		options = append(options, optimizer.RecipeOption{
			RecipeID:               rec.ID,
			ServingsPerBatch:       servings,
			IngredientRequirements: needs[rec.ID],
		})
	}
	return options
}

func buildSupplyOptions(skus []sku.SKU) []optimizer.SupplyOption {
	supply := make([]optimizer.SupplyOption, 0, len(skus))
	for _, s := range skus {
		qty := s.PackQuantity()
		if qty <= 0 {
			continue
		}
		supply = append(supply, optimizer.SupplyOption{
			SKUID:           s.ID,
			IngredientID:    s.IngredientID,
			QuantityPerUnit: qty,
			UnitCost:        s.Price,
		})
	}
	return supply
}

// injectPlaceholders adds synthetic supply for every demanded ingredient
// with no real SKU, so missing prices degrade the objective instead of the
// feasibility. Returns the affected ingredient ids, sorted.
func injectPlaceholders(supply *[]optimizer.SupplyOption, recipes []optimizer.RecipeOption) []int64 {
	covered := make(map[int64]bool)
	for _, s := range *supply {
		covered[s.IngredientID] = true
	}

	missing := make(map[int64]bool)
	for _, rec := range recipes {
		for ingredientID, qty := range rec.IngredientRequirements {
			if qty > 0 && !covered[ingredientID] {
				missing[ingredientID] = true
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		*supply = append(*supply, optimizer.SupplyOption{
			SKUID:           placeholderIDBase + id,
			IngredientID:    id,
			QuantityPerUnit: placeholderQuantity,
			UnitCost:        placeholderCost,
		})
	}
	return ids
}

func mealTypesByID(recipes []recipe.Recipe) map[int64]string {
	types := make(map[int64]string, len(recipes))
	for _, rec := range recipes {
		if rec.MealType != "" {
			types[rec.ID] = rec.MealType
		}
	}
	return types
}

func ingredientsByID(ingredients []ingredient.Ingredient) map[int64]ingredient.Ingredient {
	byID := make(map[int64]ingredient.Ingredient, len(ingredients))
	for _, ing := range ingredients {
		byID[ing.ID] = ing
	}
	return byID
}

func projectRecipes(batches map[int64]int64, recipes []recipe.Recipe) []RecipeSelection {
	selections := make([]RecipeSelection, 0)
	for _, rec := range recipes {
		count := batches[rec.ID]
		if count <= 0 {
			continue
		}
		servings := rec.Servings
		if servings <= 0 {
			servings = 1
		}
		selections = append(selections, RecipeSelection{
			RecipeID:      rec.ID,
			Name:          rec.Name,
			MealType:      rec.MealType,
			Batches:       count,
			TotalServings: count * int64(servings),
		})
	}
	sort.Slice(selections, func(i, j int) bool { return selections[i].RecipeID < selections[j].RecipeID })
	return selections
}

// projectPurchases expands purchased unit counts into priced lines.
// Placeholder ids have no backing SKU row and are skipped; they are
// reported through PlaceholderIngredientIDs instead.
func projectPurchases(units map[int64]int64, skus []sku.SKU) []SKUPurchase {
	byID := make(map[int64]sku.SKU, len(skus))
	for _, s := range skus {
		byID[s.ID] = s
	}

	purchases := make([]SKUPurchase, 0)
	for skuID, count := range units {
		if count <= 0 {
			continue
		}
		s, ok := byID[skuID]
		if !ok {
			continue
		}
		purchases = append(purchases, SKUPurchase{
			SKUID:        s.ID,
			IngredientID: s.IngredientID,
			Name:         s.Name,
			Brand:        s.Brand,
			RetailerSlug: s.RetailerSlug,
			Size:         s.Size,
			UnitPrice:    s.Price,
			Units:        count,
			TotalPrice:   s.Price * float64(count),
		})
	}
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].SKUID < purchases[j].SKUID })
	return purchases
}
