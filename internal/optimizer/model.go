package optimizer

import "time"

// Status is the outcome vocabulary of a solve. The string values match the
// classic LP solver status names so persisted plans stay comparable across
// versions.
type Status string

const (
	// StatusOptimal means the solver certified a globally optimal integer
	// solution within the time limit.
	StatusOptimal Status = "Optimal"
	// StatusInfeasible means the constraints are provably unsatisfiable.
	StatusInfeasible Status = "Infeasible"
	// StatusNotSolved means the time limit was reached before the solver
	// could certify optimality or infeasibility. The best integer solution
	// found so far, if any, is still reported.
	StatusNotSolved Status = "Not Solved"
	// StatusUnbounded signals a malformed model. Every variable here is
	// bounded, so this should never be produced.
	StatusUnbounded Status = "Unbounded"
	// StatusUndefined means the solver failed internally before producing
	// any verdict.
	StatusUndefined Status = "Undefined"
)

// RecipeOption describes one cookable recipe: how many servings a single
// batch yields and how much of each ingredient a batch consumes, in the
// ingredient's base unit. Quantities must already be reconciled to the same
// base unit as the matching supply options; the optimizer does no unit
// conversion.
type RecipeOption struct {
	RecipeID               int64
	ServingsPerBatch       int
	IngredientRequirements map[int64]float64
}

// SupplyOption describes one purchasable pack (SKU) of a single ingredient.
type SupplyOption struct {
	SKUID           int64
	IngredientID    int64
	QuantityPerUnit float64
	UnitCost        float64
}

// SolveOptions carries the optional knobs of a solve. The zero value asks
// for the defaults: 10s wall-clock limit and a 1e-4 batch penalty.
type SolveOptions struct {
	// TimeLimit bounds the solver's wall clock. Cutting off is not an
	// error; see StatusNotSolved.
	TimeLimit time.Duration

	// BatchPenalty is the tie-breaker weight on total batch count. It must
	// stay small enough to never change which solution is cheapest; it only
	// decides between equal-cost alternatives.
	BatchPenalty float64

	// MealTypeMinimums maps a meal type tag to a minimum total batch count
	// among recipes carrying that tag. RecipeMealTypes supplies the tags;
	// recipes without a tag are excluded from every meal-type sum.
	MealTypeMinimums map[string]int
	RecipeMealTypes  map[int64]string

	// RequiredRecipeIDs forces each listed recipe to at least one batch.
	RequiredRecipeIDs []int64

	// IncludeEveryRecipeIDs forces each listed recipe to at least one batch
	// and counts its servings as one per batch rather than
	// ServingsPerBatch. The caller owns that normalization policy.
	IncludeEveryRecipeIDs []int64
}

// PlanResult is the projection of a solve back into domain terms. Every
// recipe and SKU that went into the model appears in the maps, with zero
// counts for unused ones. Objective is nil when no integer solution was
// found.
type PlanResult struct {
	Status        Status
	Objective     *float64
	RecipeBatches map[int64]int64
	SKUUnits      map[int64]int64
}
