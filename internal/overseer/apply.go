package overseer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tandem-recipes/internal/planner"
	"tandem-recipes/internal/recipe"
)

// IngredientUpdater rewrites ingredient base units.
type IngredientUpdater interface {
	UpdateBaseUnit(ctx context.Context, id int64, baseUnit string) error
}

// RequirementUpdater rewrites requirement quantities.
type RequirementUpdater interface {
	UpdateRequirement(ctx context.Context, id int64, quantity float64, unit string) error
}

// RequirementStore also reads the requirements of one ingredient, used as
// context when proposing corrections for a flagged purchase line.
type RequirementStore interface {
	RequirementUpdater
	ListRequirementsByIngredient(ctx context.Context, ingredientID int64) ([]recipe.Requirement, error)
}

// SKUUpdater rewrites converted SKU pack sizes.
type SKUUpdater interface {
	UpdateQuantityInBaseUnit(ctx context.Context, id int64, quantity float64) error
}

// Apply writes valid corrections back to the catalog and returns how many
// were applied. Corrections with an unknown target or unusable values are
// skipped with a warning rather than failing the batch.
func Apply(ctx context.Context, corrections []Correction,
	ingredients IngredientUpdater, requirements RequirementUpdater, skus SKUUpdater,
	logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	applied := 0
	for _, c := range corrections {
		var err error
		switch c.Target {
		case "ingredient":
			if c.BaseUnit == "" {
				logger.Warn("overseer.skip_correction",
					zap.String("target", c.Target), zap.Int64("id", c.ID),
					zap.String("cause", "missing base unit"))
				continue
			}
			err = ingredients.UpdateBaseUnit(ctx, c.ID, c.BaseUnit)
		case "recipe_ingredient":
			if c.Quantity <= 0 {
				logger.Warn("overseer.skip_correction",
					zap.String("target", c.Target), zap.Int64("id", c.ID),
					zap.String("cause", "non-positive quantity"))
				continue
			}
			err = requirements.UpdateRequirement(ctx, c.ID, c.Quantity, c.Unit)
		case "sku":
			if c.QuantityInBaseUnit <= 0 {
				logger.Warn("overseer.skip_correction",
					zap.String("target", c.Target), zap.Int64("id", c.ID),
					zap.String("cause", "non-positive quantity"))
				continue
			}
			err = skus.UpdateQuantityInBaseUnit(ctx, c.ID, c.QuantityInBaseUnit)
		default:
			logger.Warn("overseer.skip_correction",
				zap.String("target", c.Target), zap.Int64("id", c.ID),
				zap.String("cause", "unknown target"))
			continue
		}
		if err != nil {
			return applied, fmt.Errorf("failed to apply correction for %s %d: %w", c.Target, c.ID, err)
		}
		applied++
		logger.Info("overseer.applied_correction",
			zap.String("target", c.Target), zap.Int64("id", c.ID), zap.String("note", c.Note))
	}
	return applied, nil
}

// Overseer runs the full audit loop: detect, propose, apply.
type Overseer struct {
	corrector    *Corrector
	ingredients  IngredientUpdater
	requirements RequirementStore
	skus         SKUUpdater
	logger       *zap.Logger
}

// New creates an overseer.
func New(corrector *Corrector, ingredients IngredientUpdater, requirements RequirementStore,
	skus SKUUpdater, logger *zap.Logger) *Overseer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Overseer{
		corrector:    corrector,
		ingredients:  ingredients,
		requirements: requirements,
		skus:         skus,
		logger:       logger,
	}
}

// Review audits a solved plan's purchase lines and applies any catalog
// corrections the corrector proposes. Returns the number of rows changed.
func (o *Overseer) Review(ctx context.Context, purchases []planner.SKUPurchase) (int, error) {
	anomalies := Detect(purchases)
	if len(anomalies) == 0 {
		return 0, nil
	}
	o.logger.Info("overseer.anomalies_detected", zap.Int("count", len(anomalies)))

	requirements, err := o.contextRequirements(ctx, anomalies)
	if err != nil {
		return 0, err
	}
	corrections, err := o.corrector.Propose(ctx, anomalies, requirements)
	if err != nil {
		return 0, err
	}
	return Apply(ctx, corrections, o.ingredients, o.requirements, o.skus, o.logger)
}

// contextRequirements loads the requirement rows of every flagged
// ingredient once, preserving anomaly order.
func (o *Overseer) contextRequirements(ctx context.Context, anomalies []Anomaly) ([]recipe.Requirement, error) {
	seen := make(map[int64]bool, len(anomalies))
	var requirements []recipe.Requirement
	for _, a := range anomalies {
		if seen[a.IngredientID] {
			continue
		}
		seen[a.IngredientID] = true
		rows, err := o.requirements.ListRequirementsByIngredient(ctx, a.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("failed to load requirements for ingredient %d: %w", a.IngredientID, err)
		}
		requirements = append(requirements, rows...)
	}
	return requirements, nil
}
