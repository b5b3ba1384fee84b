package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payload is the typed JSON body persisted with each plan row. Keeping it
// typed rather than a free-form map makes old rows loadable after the
// response shape grows.
type Payload struct {
	Request  Request  `json:"request"`
	Response Response `json:"response"`
}

// StoredPlan is a persisted menu_plan row.
type StoredPlan struct {
	ID             int64
	RunID          string
	TargetServings int
	Status         string
	Objective      *float64
	Payload        Payload
	CreatedAt      time.Time
}

// Repository persists solved plans.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new plan repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a plan row, filling in its ID, run id and creation time.
func (r *Repository) Save(ctx context.Context, plan *StoredPlan) error {
	if plan.RunID == "" {
		plan.RunID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(plan.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal plan payload: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_plan (run_id, target_servings, status, objective, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		plan.RunID, plan.TargetServings, plan.Status, plan.Objective, string(payload), plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert menu plan: %w", err)
	}
	if plan.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read menu plan id: %w", err)
	}
	return nil
}

// GetByID returns one stored plan, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id int64) (*StoredPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, run_id, target_servings, status, objective, payload, created_at
		 FROM menu_plan WHERE id = ?`, id)
	return scanPlan(row)
}

// GetLatest returns the most recently stored plan, or nil when no plan has
// been run yet.
func (r *Repository) GetLatest(ctx context.Context) (*StoredPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, run_id, target_servings, status, objective, payload, created_at
		 FROM menu_plan ORDER BY id DESC LIMIT 1`)
	return scanPlan(row)
}

func scanPlan(row *sql.Row) (*StoredPlan, error) {
	var plan StoredPlan
	var objective sql.NullFloat64
	var payload string
	err := row.Scan(&plan.ID, &plan.RunID, &plan.TargetServings, &plan.Status, &objective, &payload, &plan.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan menu plan: %w", err)
	}
	if objective.Valid {
		plan.Objective = &objective.Float64
	}
	if err := json.Unmarshal([]byte(payload), &plan.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan payload for %d: %w", plan.ID, err)
	}
	return &plan, nil
}
