package shopping

import (
	"testing"

	"tandem-recipes/internal/ingredient"
	"tandem-recipes/internal/recipe"
)

func TestConsolidate(t *testing.T) {
	requirements := []recipe.Requirement{
		{RecipeID: 1, IngredientID: 1, Quantity: 1.5},
		{RecipeID: 1, IngredientID: 2, Quantity: 0.5},
		{RecipeID: 2, IngredientID: 2, Quantity: 2},
		{RecipeID: 3, IngredientID: 3, Quantity: 4},
	}
	batches := map[int64]int64{1: 2, 2: 1, 3: 0}
	ingredients := map[int64]ingredient.Ingredient{
		1: {ID: 1, CanonicalName: "chicken breast", BaseUnit: "g"},
		2: {ID: 2, CanonicalName: "soy sauce", BaseUnit: "ml"},
		3: {ID: 3, CanonicalName: "rice", BaseUnit: "g"},
	}

	items := Consolidate(batches, requirements, ingredients)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items (unused recipe excluded), got %d", len(items))
	}

	// Sorted by name: chicken breast before soy sauce.
	if items[0].Name != "chicken breast" || items[0].Quantity != 3 {
		t.Errorf("Expected 3 of chicken breast, got %g of %q", items[0].Quantity, items[0].Name)
	}
	if items[1].Name != "soy sauce" || items[1].Quantity != 3 {
		t.Errorf("Expected 3 of soy sauce (2*0.5 + 1*2), got %g of %q", items[1].Quantity, items[1].Name)
	}
	if items[1].Unit != "ml" {
		t.Errorf("Expected unit ml, got %q", items[1].Unit)
	}
}

func TestConsolidateEmptyPlan(t *testing.T) {
	items := Consolidate(map[int64]int64{}, []recipe.Requirement{
		{RecipeID: 1, IngredientID: 1, Quantity: 1},
	}, nil)
	if len(items) != 0 {
		t.Errorf("Expected empty list for zero batches, got %d items", len(items))
	}
}
