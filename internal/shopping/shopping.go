// Package shopping turns a solved plan into a consolidated shopping list.
package shopping

import (
	"sort"

	"tandem-recipes/internal/ingredient"
	"tandem-recipes/internal/recipe"
)

// Item is one consolidated shopping list line: the total amount of an
// ingredient the planned batches consume, in the ingredient's base unit.
type Item struct {
	IngredientID int64   `json:"ingredient_id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

// Consolidate expands recipe batch counts through the same requirement rows
// the optimizer consumed into per-ingredient totals. Using the same rows is
// what keeps the list's units consistent with the solved plan.
func Consolidate(
	batches map[int64]int64,
	requirements []recipe.Requirement,
	ingredients map[int64]ingredient.Ingredient,
) []Item {
	totals := make(map[int64]float64)
	for _, req := range requirements {
		count := batches[req.RecipeID]
		if count <= 0 {
			continue
		}
		totals[req.IngredientID] += req.Quantity * float64(count)
	}

	items := make([]Item, 0, len(totals))
	for ingredientID, quantity := range totals {
		item := Item{IngredientID: ingredientID, Quantity: quantity}
		if ing, ok := ingredients[ingredientID]; ok {
			item.Name = ing.CanonicalName
			item.Unit = ing.BaseUnit
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].IngredientID < items[j].IngredientID
	})
	return items
}
