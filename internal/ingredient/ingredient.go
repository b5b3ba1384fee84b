package ingredient

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Ingredient is a canonicalized ingredient row. BaseUnit and BaseUnitQty
// define the unit every recipe requirement and SKU pack size for this
// ingredient is expressed in.
type Ingredient struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	CanonicalName string    `json:"canonical_name"`
	BaseUnit      string    `json:"base_unit"`
	BaseUnitQty   float64   `json:"base_unit_qty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Repository handles persistence of ingredients.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new ingredient repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the ingredient with the given canonical name,
// inserting it first if missing.
func (r *Repository) GetOrCreate(ctx context.Context, name, canonicalName, baseUnit string, baseUnitQty float64) (*Ingredient, error) {
	existing, err := r.getByCanonicalName(ctx, canonicalName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	ing := &Ingredient{
		Name:          name,
		CanonicalName: canonicalName,
		BaseUnit:      baseUnit,
		BaseUnitQty:   baseUnitQty,
		CreatedAt:     time.Now().UTC(),
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredient (name, canonical_name, base_unit, base_unit_qty, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ing.Name, ing.CanonicalName, ing.BaseUnit, ing.BaseUnitQty, ing.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ingredient: %w", err)
	}
	if ing.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read ingredient id: %w", err)
	}
	return ing, nil
}

// List returns all stored ingredients.
func (r *Repository) List(ctx context.Context) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, canonical_name, base_unit, base_unit_qty, created_at FROM ingredient`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.CanonicalName,
			&ing.BaseUnit, &ing.BaseUnitQty, &ing.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

// GetByID returns one ingredient, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Ingredient, error) {
	var ing Ingredient
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, canonical_name, base_unit, base_unit_qty, created_at
		 FROM ingredient WHERE id = ?`, id,
	).Scan(&ing.ID, &ing.Name, &ing.CanonicalName, &ing.BaseUnit, &ing.BaseUnitQty, &ing.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient %d: %w", id, err)
	}
	return &ing, nil
}

// UpdateBaseUnit rewrites an ingredient's base unit. Used by the overseer
// apply pass.
func (r *Repository) UpdateBaseUnit(ctx context.Context, id int64, baseUnit string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE ingredient SET base_unit = ? WHERE id = ?`, baseUnit, id); err != nil {
		return fmt.Errorf("failed to update ingredient %d: %w", id, err)
	}
	return nil
}

func (r *Repository) getByCanonicalName(ctx context.Context, canonicalName string) (*Ingredient, error) {
	var ing Ingredient
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, canonical_name, base_unit, base_unit_qty, created_at
		 FROM ingredient WHERE canonical_name = ?`, canonicalName,
	).Scan(&ing.ID, &ing.Name, &ing.CanonicalName, &ing.BaseUnit, &ing.BaseUnitQty, &ing.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up ingredient %q: %w", canonicalName, err)
	}
	return &ing, nil
}
