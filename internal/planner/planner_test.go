package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tandem-recipes/internal/ingredient"
	"tandem-recipes/internal/optimizer"
	"tandem-recipes/internal/recipe"
	"tandem-recipes/internal/sku"
)

type stubCatalog struct {
	recipes      []recipe.Recipe
	requirements []recipe.Requirement
	ingredients  []ingredient.Ingredient
	skus         []sku.SKU
}

func (s *stubCatalog) List(_ context.Context) ([]recipe.Recipe, error) { return s.recipes, nil }
func (s *stubCatalog) ListRequirements(_ context.Context) ([]recipe.Requirement, error) {
	return s.requirements, nil
}

type stubIngredients struct{ ingredients []ingredient.Ingredient }

func (s *stubIngredients) List(_ context.Context) ([]ingredient.Ingredient, error) {
	return s.ingredients, nil
}

type stubSKUs struct {
	skus      []sku.SKU
	retailers []string
}

func (s *stubSKUs) ListActive(_ context.Context, _ time.Time, retailers []string) ([]sku.SKU, error) {
	s.retailers = retailers
	return s.skus, nil
}

type memPlanStore struct{ saved []*StoredPlan }

func (m *memPlanStore) Save(_ context.Context, plan *StoredPlan) error {
	plan.ID = int64(len(m.saved) + 1)
	plan.RunID = "run-test"
	m.saved = append(m.saved, plan)
	return nil
}

func testCatalog() (*stubCatalog, *stubIngredients, *stubSKUs) {
	catalog := &stubCatalog{
		recipes: []recipe.Recipe{
			{ID: 1, Name: "Pasta", Servings: 4, MealType: "entree"},
			{ID: 2, Name: "Peanut Brittle", Servings: 8, MealType: "dessert", Allergens: []string{"peanut"}},
		},
		requirements: []recipe.Requirement{
			{ID: 1, RecipeID: 1, IngredientID: 10, Quantity: 500, Unit: "g"},
			{ID: 2, RecipeID: 2, IngredientID: 11, Quantity: 300, Unit: "g"},
		},
	}
	ingredients := &stubIngredients{ingredients: []ingredient.Ingredient{
		{ID: 10, CanonicalName: "pasta", BaseUnit: "g"},
		{ID: 11, CanonicalName: "peanut", BaseUnit: "g"},
	}}
	skus := &stubSKUs{skus: []sku.SKU{
		{ID: 100, IngredientID: 10, Name: "Pasta 1kg", Price: 2.50, QuantityInBaseUnit: 1000, RetailerSlug: "acme"},
		{ID: 101, IngredientID: 11, Name: "Peanuts 500g", Price: 4.00, QuantityInBaseUnit: 500, RetailerSlug: "acme"},
	}}
	return catalog, ingredients, skus
}

func newTestPlanner(catalog *stubCatalog, ingredients *stubIngredients, skus *stubSKUs, store PlanStore) *Planner {
	return New(catalog, ingredients, skus, store, nil, 10*time.Second, 1e-4)
}

func TestPlanOptimal(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	store := &memPlanStore{}
	p := newTestPlanner(catalog, ingredients, skus, store)

	resp, err := p.Plan(context.Background(), Request{TargetServings: 4})
	require.NoError(t, err)

	assert.Equal(t, optimizer.StatusOptimal, resp.Status)
	require.NotNil(t, resp.Objective)
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, int64(1), resp.Recipes[0].RecipeID)
	assert.Equal(t, int64(1), resp.Recipes[0].Batches)
	assert.Equal(t, int64(4), resp.Recipes[0].TotalServings)

	require.Len(t, resp.Purchases, 1)
	assert.Equal(t, int64(100), resp.Purchases[0].SKUID)
	assert.Equal(t, int64(1), resp.Purchases[0].Units)
	assert.InDelta(t, 2.50, resp.Purchases[0].TotalPrice, 1e-9)

	require.Len(t, resp.ShoppingList, 1)
	assert.Equal(t, "pasta", resp.ShoppingList[0].Name)
	assert.InDelta(t, 500, resp.ShoppingList[0].Quantity, 1e-9)

	assert.Empty(t, resp.PlaceholderIngredientIDs)
}

func TestPlanPersistsResult(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	store := &memPlanStore{}
	p := newTestPlanner(catalog, ingredients, skus, store)

	resp, err := p.Plan(context.Background(), Request{TargetServings: 4})
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, resp.PlanID, saved.ID)
	assert.Equal(t, "run-test", resp.RunID)
	assert.Equal(t, 4, saved.TargetServings)
	assert.Equal(t, string(optimizer.StatusOptimal), saved.Status)
	assert.Equal(t, 4, saved.Payload.Request.TargetServings)
}

func TestPlanInjectsPlaceholders(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	skus.skus = skus.skus[:1] // peanut ingredient loses its only SKU
	p := newTestPlanner(catalog, ingredients, skus, nil)

	resp, err := p.Plan(context.Background(), Request{
		TargetServings:    4,
		RequiredRecipeIDs: []int64{2},
	})
	require.NoError(t, err)

	assert.Equal(t, optimizer.StatusOptimal, resp.Status)
	assert.Equal(t, []int64{11}, resp.PlaceholderIngredientIDs)
	for _, purchase := range resp.Purchases {
		assert.Less(t, purchase.SKUID, int64(1_000_000), "placeholder must not appear as a purchase")
	}
}

func TestPlanAllergenFilter(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	p := newTestPlanner(catalog, ingredients, skus, nil)

	resp, err := p.Plan(context.Background(), Request{
		TargetServings:   4,
		ExcludeAllergens: []string{"peanut"},
	})
	require.NoError(t, err)

	for _, sel := range resp.Recipes {
		assert.NotEqual(t, int64(2), sel.RecipeID, "allergen-tagged recipe must not be planned")
	}
}

func TestPlanRequiredRecipeExcludedByAllergen(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	p := newTestPlanner(catalog, ingredients, skus, nil)

	_, err := p.Plan(context.Background(), Request{
		TargetServings:    4,
		ExcludeAllergens:  []string{"peanut"},
		RequiredRecipeIDs: []int64{2},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allergen filter")
}

func TestPlanUnknownRequiredRecipe(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	p := newTestPlanner(catalog, ingredients, skus, nil)

	_, err := p.Plan(context.Background(), Request{TargetServings: 4, RequiredRecipeIDs: []int64{99}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown recipe id 99")
}

func TestPlanInvalidTarget(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	p := newTestPlanner(catalog, ingredients, skus, nil)

	for _, target := range []int{0, -3} {
		_, err := p.Plan(context.Background(), Request{TargetServings: target})
		assert.Error(t, err, "target %d", target)
	}
}

func TestPlanForwardsRetailerFilter(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	p := newTestPlanner(catalog, ingredients, skus, nil)

	_, err := p.Plan(context.Background(), Request{TargetServings: 4, Retailers: []string{"acme"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, skus.retailers)
}

func TestPlanMealTypeMinimum(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	p := newTestPlanner(catalog, ingredients, skus, nil)

	resp, err := p.Plan(context.Background(), Request{
		TargetServings:   4,
		MealTypeMinimums: map[string]int{"dessert": 1},
	})
	require.NoError(t, err)

	assert.Equal(t, optimizer.StatusOptimal, resp.Status)
	var dessertBatches int64
	for _, sel := range resp.Recipes {
		if sel.MealType == "dessert" {
			dessertBatches += sel.Batches
		}
	}
	assert.GreaterOrEqual(t, dessertBatches, int64(1))
}

func TestPlanSolveMillisFromInjectedClock(t *testing.T) {
	catalog, ingredients, skus := testCatalog()
	p := newTestPlanner(catalog, ingredients, skus, nil)

	// The clock advances 250ms per reading. Plan reads it for the SKU
	// cutoff, at solve start and at solve end, so the reported solve time
	// is exactly one step.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var readings int
	p.now = func() time.Time {
		readings++
		return base.Add(time.Duration(readings) * 250 * time.Millisecond)
	}

	resp, err := p.Plan(context.Background(), Request{TargetServings: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(250), resp.SolveMillis)
	assert.Equal(t, 3, readings)
}
