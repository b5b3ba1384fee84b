package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository handles persistence of recipes and their ingredient links.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new recipe repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a recipe and fills in its ID and creation time.
func (r *Repository) Save(ctx context.Context, rec *Recipe) error {
	allergens, err := json.Marshal(rec.Allergens)
	if err != nil {
		return fmt.Errorf("failed to marshal allergens: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recipe (name, servings, instructions, source_file, meal_type, allergens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Servings, rec.Instructions, rec.SourceFile, rec.MealType, string(allergens), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read recipe id: %w", err)
	}
	return nil
}

// SaveRequirements inserts the ingredient links of a recipe.
func (r *Repository) SaveRequirements(ctx context.Context, requirements []Requirement) error {
	for i := range requirements {
		req := &requirements[i]
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO recipe_ingredient (recipe_id, ingredient_id, quantity, unit, original_text)
			 VALUES (?, ?, ?, ?, ?)`,
			req.RecipeID, req.IngredientID, req.Quantity, req.Unit, req.OriginalText,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recipe ingredient: %w", err)
		}
		if req.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read recipe ingredient id: %w", err)
		}
	}
	return nil
}

// List returns all stored recipes.
func (r *Repository) List(ctx context.Context) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, servings, instructions, source_file, meal_type, allergens, created_at FROM recipe`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var rec Recipe
		var allergens sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Servings, &rec.Instructions,
			&rec.SourceFile, &rec.MealType, &allergens, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		if allergens.Valid && allergens.String != "" && allergens.String != "null" {
			if err := json.Unmarshal([]byte(allergens.String), &rec.Allergens); err != nil {
				return nil, fmt.Errorf("failed to unmarshal allergens for recipe %d: %w", rec.ID, err)
			}
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

// ListRequirements returns all recipe ingredient links.
func (r *Repository) ListRequirements(ctx context.Context) ([]Requirement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recipe_id, ingredient_id, quantity, unit, original_text FROM recipe_ingredient`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	var requirements []Requirement
	for rows.Next() {
		var req Requirement
		if err := rows.Scan(&req.ID, &req.RecipeID, &req.IngredientID,
			&req.Quantity, &req.Unit, &req.OriginalText); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		requirements = append(requirements, req)
	}
	return requirements, rows.Err()
}

// ListRequirementsByIngredient returns the links touching one ingredient,
// used by the overseer when diagnosing an anomaly.
func (r *Repository) ListRequirementsByIngredient(ctx context.Context, ingredientID int64) ([]Requirement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recipe_id, ingredient_id, quantity, unit, original_text
		 FROM recipe_ingredient WHERE ingredient_id = ?`, ingredientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	var requirements []Requirement
	for rows.Next() {
		var req Requirement
		if err := rows.Scan(&req.ID, &req.RecipeID, &req.IngredientID,
			&req.Quantity, &req.Unit, &req.OriginalText); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		requirements = append(requirements, req)
	}
	return requirements, rows.Err()
}

// UpdateRequirement rewrites the quantity and unit of one link. Used by the
// overseer apply pass.
func (r *Repository) UpdateRequirement(ctx context.Context, id int64, quantity float64, unit string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE recipe_ingredient SET quantity = ?, unit = ? WHERE id = ?`,
		quantity, unit, id); err != nil {
		return fmt.Errorf("failed to update recipe ingredient %d: %w", id, err)
	}
	return nil
}
