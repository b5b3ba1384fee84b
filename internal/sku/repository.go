package sku

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository handles persistence of the SKU price cache.
type Repository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewRepository creates a new SKU repository. ttl is the cache window for
// freshly fetched prices.
func NewRepository(db *sql.DB, ttl time.Duration) *Repository {
	return &Repository{db: db, ttl: ttl}
}

// Insert stores freshly fetched SKUs for one ingredient, stamping them with
// the cache TTL. IDs are filled in on the way out.
func (r *Repository) Insert(ctx context.Context, skus []SKU) error {
	now := time.Now().UTC()
	expires := now.Add(r.ttl)
	for i := range skus {
		s := &skus[i]
		if s.FetchedAt.IsZero() {
			s.FetchedAt = now
		}
		if s.ExpiresAt.IsZero() {
			s.ExpiresAt = expires
		}
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO sku (ingredient_id, name, brand, size, price, price_per_unit,
			                  retailer_slug, postal_code, quantity_in_base_unit, fetched_at, expires_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.IngredientID, s.Name, s.Brand, s.Size, s.Price, s.PricePerUnit,
			s.RetailerSlug, s.PostalCode, s.QuantityInBaseUnit, s.FetchedAt, s.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sku: %w", err)
		}
		if s.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read sku id: %w", err)
		}
	}
	return nil
}

// ListActive returns non-expired SKUs, optionally filtered to a set of
// retailer slugs.
func (r *Repository) ListActive(ctx context.Context, now time.Time, retailers []string) ([]SKU, error) {
	query := `SELECT id, ingredient_id, name, brand, size, price, price_per_unit,
	                 retailer_slug, postal_code, quantity_in_base_unit, fetched_at, expires_at
	          FROM sku WHERE expires_at > ?`
	args := []any{now}
	if len(retailers) > 0 {
		query += ` AND retailer_slug IN (?` + strings.Repeat(",?", len(retailers)-1) + `)`
		for _, slug := range retailers {
			args = append(args, slug)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active skus: %w", err)
	}
	defer rows.Close()
	return scanSKUs(rows)
}

// GetByID returns one SKU, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id int64) (*SKU, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, ingredient_id, name, brand, size, price, price_per_unit,
		        retailer_slug, postal_code, quantity_in_base_unit, fetched_at, expires_at
		 FROM sku WHERE id = ?`, id)
	s, err := scanSKU(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sku %d: %w", id, err)
	}
	return &s, nil
}

// CountAll returns the total number of cached SKU rows, expired included.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sku`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count skus: %w", err)
	}
	return count, nil
}

// UpdateQuantityInBaseUnit rewrites a SKU's converted pack size. Used by
// the overseer apply pass.
func (r *Repository) UpdateQuantityInBaseUnit(ctx context.Context, id int64, quantity float64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE sku SET quantity_in_base_unit = ? WHERE id = ?`, quantity, id); err != nil {
		return fmt.Errorf("failed to update sku %d: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSKU(row rowScanner) (SKU, error) {
	var s SKU
	var brand, size, pricePerUnit, retailerSlug, postalCode sql.NullString
	var price, quantity sql.NullFloat64
	err := row.Scan(&s.ID, &s.IngredientID, &s.Name, &brand, &size, &price, &pricePerUnit,
		&retailerSlug, &postalCode, &quantity, &s.FetchedAt, &s.ExpiresAt)
	if err != nil {
		return SKU{}, err
	}
	s.Brand = brand.String
	s.Size = size.String
	s.Price = price.Float64
	s.PricePerUnit = pricePerUnit.String
	s.RetailerSlug = retailerSlug.String
	s.PostalCode = postalCode.String
	s.QuantityInBaseUnit = quantity.Float64
	return s, nil
}

func scanSKUs(rows *sql.Rows) ([]SKU, error) {
	var skus []SKU
	for rows.Next() {
		s, err := scanSKU(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sku: %w", err)
		}
		skus = append(skus, s)
	}
	return skus, rows.Err()
}
