package recipe

import "time"

// MealTypes is the fixed vocabulary of meal type tags.
var MealTypes = []string{"appetizer", "entree", "dessert", "side"}

// Recipe is a stored recipe row.
type Recipe struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Servings     int       `json:"servings"`
	Instructions string    `json:"instructions"`
	SourceFile   string    `json:"source_file"`
	MealType     string    `json:"meal_type"`
	Allergens    []string  `json:"allergens,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Requirement is a stored recipe_ingredient row: how much of one ingredient
// a single batch of the recipe consumes, in the ingredient's base unit.
type Requirement struct {
	ID           int64   `json:"id"`
	RecipeID     int64   `json:"recipe_id"`
	IngredientID int64   `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	OriginalText string  `json:"original_text"`
}
