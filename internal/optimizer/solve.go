package optimizer

import (
	"fmt"
	"math"
	"time"

	"github.com/nextmv-io/sdk/mip"
)

const (
	// DefaultTimeLimit bounds a single branch-and-bound run.
	DefaultTimeLimit = 10 * time.Second
	// DefaultBatchPenalty is the objective weight on total batch count.
	// Small enough to never outweigh a real price difference at the scales
	// this system plans for (costs in dollars, batches in the tens).
	DefaultBatchPenalty = 1e-4
)

// Solve builds the meal-plan MILP and runs it through the HiGHS
// branch-and-bound solver.
//
// Decision variables: a non-negative integer batch count per recipe and a
// non-negative integer purchased-unit count per supply option. Constraints:
// total servings meet the target, per-ingredient demand never exceeds
// purchased supply, optional meal-type minimums and forced inclusions.
// Objective: minimize purchase cost, tie-broken by total batch count.
//
// An error is returned only for invalid input or a solver machinery
// failure. Infeasibility and time-limit cutoffs are ordinary results; a
// cutoff surfaces the best integer solution found so far.
func Solve(targetServings int, recipes []RecipeOption, supply []SupplyOption, opts SolveOptions) (PlanResult, error) {
	if err := validate(targetServings, recipes, supply, opts); err != nil {
		return PlanResult{Status: StatusUndefined}, err
	}

	limit := opts.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	penalty := opts.BatchPenalty
	if penalty <= 0 {
		penalty = DefaultBatchPenalty
	}

	required := idSet(opts.RequiredRecipeIDs)
	includeEvery := idSet(opts.IncludeEveryRecipeIDs)

	// No recipe ever needs more batches than this: servings coefficients
	// are >= 1, so targetServings batches of any single recipe already meet
	// the target, and meal-type minimums can only add that much on top.
	batchBound := int64(targetServings)
	for _, minBatches := range opts.MealTypeMinimums {
		batchBound += int64(minBatches)
	}
	batchBound++

	m := mip.NewModel()
	m.Objective().SetMinimize()

	batchVars := make(map[int64]mip.Var, len(recipes))
	for _, r := range recipes {
		batchVars[r.RecipeID] = m.NewInt(0, batchBound)
	}

	unitVars := make(map[int64]mip.Var, len(supply))
	maxDemand := maxDemandPerIngredient(recipes, batchBound)
	for _, s := range supply {
		bound := int64(math.Ceil(maxDemand[s.IngredientID]/s.QuantityPerUnit)) + 1
		unitVars[s.SKUID] = m.NewInt(0, bound)
	}

	// Serving target: a lower bound, not an equality. Overshooting is
	// allowed when it is cheaper.
	servings := m.NewConstraint(mip.GreaterThanOrEqual, float64(targetServings))
	for _, r := range recipes {
		coeff := float64(r.ServingsPerBatch)
		if _, ok := includeEvery[r.RecipeID]; ok {
			coeff = 1
		}
		servings.NewTerm(coeff, batchVars[r.RecipeID])
	}

	// Supply >= demand, one constraint per demanded ingredient. An
	// ingredient with demand and no supply options yields demand <= 0: the
	// solver zeroes the batches of recipes that need it rather than
	// failing, unless those recipes are forced in.
	for _, ingredientID := range demandedIngredients(recipes) {
		balance := m.NewConstraint(mip.LessThanOrEqual, 0)
		for _, r := range recipes {
			if qty, ok := r.IngredientRequirements[ingredientID]; ok && qty > 0 {
				balance.NewTerm(qty, batchVars[r.RecipeID])
			}
		}
		for _, s := range supply {
			if s.IngredientID == ingredientID {
				balance.NewTerm(-s.QuantityPerUnit, unitVars[s.SKUID])
			}
		}
	}

	for mealType, minBatches := range opts.MealTypeMinimums {
		if minBatches <= 0 {
			continue
		}
		minimum := m.NewConstraint(mip.GreaterThanOrEqual, float64(minBatches))
		for _, r := range recipes {
			if opts.RecipeMealTypes[r.RecipeID] == mealType {
				minimum.NewTerm(1, batchVars[r.RecipeID])
			}
		}
	}

	for recipeID := range union(required, includeEvery) {
		include := m.NewConstraint(mip.GreaterThanOrEqual, 1)
		include.NewTerm(1, batchVars[recipeID])
	}

	for _, s := range supply {
		m.Objective().NewTerm(s.UnitCost, unitVars[s.SKUID])
	}
	for _, r := range recipes {
		m.Objective().NewTerm(penalty, batchVars[r.RecipeID])
	}

	solver, err := mip.NewSolver("highs", m)
	if err != nil {
		return PlanResult{Status: StatusUndefined}, fmt.Errorf("create solver: %w", err)
	}

	solveOpts := mip.NewSolveOptions()
	if err := solveOpts.SetMaximumDuration(limit); err != nil {
		return PlanResult{Status: StatusUndefined}, fmt.Errorf("set time limit: %w", err)
	}
	if err := solveOpts.SetMIPGapRelative(0); err != nil {
		return PlanResult{Status: StatusUndefined}, fmt.Errorf("set MIP gap: %w", err)
	}
	solveOpts.SetVerbosity(mip.Off)

	solution, err := solver.Solve(solveOpts)
	if err != nil {
		return PlanResult{Status: StatusUndefined}, fmt.Errorf("solve: %w", err)
	}

	return project(solution, recipes, supply, batchVars, unitVars), nil
}

// project reads the solved variable values into a PlanResult. Variables
// without a value (aborted or infeasible solve) are reported as zero, not
// omitted.
func project(
	solution mip.Solution,
	recipes []RecipeOption,
	supply []SupplyOption,
	batchVars map[int64]mip.Var,
	unitVars map[int64]mip.Var,
) PlanResult {
	result := PlanResult{
		RecipeBatches: make(map[int64]int64, len(recipes)),
		SKUUnits:      make(map[int64]int64, len(supply)),
	}
	for _, r := range recipes {
		result.RecipeBatches[r.RecipeID] = 0
	}
	for _, s := range supply {
		result.SKUUnits[s.SKUID] = 0
	}

	if solution == nil {
		result.Status = StatusUndefined
		return result
	}

	if !solution.HasValues() {
		switch {
		case solution.IsInfeasible():
			result.Status = StatusInfeasible
		case solution.IsUnbounded():
			result.Status = StatusUnbounded
		case solution.IsTimeOut():
			// Cut off before the first incumbent. Not an error; the caller
			// may retry with a larger limit.
			result.Status = StatusNotSolved
		default:
			result.Status = StatusUndefined
		}
		return result
	}

	if solution.IsOptimal() {
		result.Status = StatusOptimal
	} else {
		// Incumbent found but not certified within the limit. The best
		// solution so far is still surfaced.
		result.Status = StatusNotSolved
	}

	objective := solution.ObjectiveValue()
	result.Objective = &objective

	// The variables are integer-typed in the model; rounding only strips
	// float noise from the solver's value reporting.
	for recipeID, v := range batchVars {
		result.RecipeBatches[recipeID] = int64(math.Round(solution.Value(v)))
	}
	for skuID, v := range unitVars {
		result.SKUUnits[skuID] = int64(math.Round(solution.Value(v)))
	}
	return result
}

func validate(targetServings int, recipes []RecipeOption, supply []SupplyOption, opts SolveOptions) error {
	if targetServings <= 0 {
		return fmt.Errorf("target servings must be positive, got %d", targetServings)
	}
	if len(recipes) == 0 {
		return fmt.Errorf("no recipes to plan with")
	}
	seen := make(map[int64]struct{}, len(recipes))
	for _, r := range recipes {
		if r.ServingsPerBatch <= 0 {
			return fmt.Errorf("recipe %d: servings per batch must be positive, got %d", r.RecipeID, r.ServingsPerBatch)
		}
		for ingredientID, qty := range r.IngredientRequirements {
			if qty < 0 {
				return fmt.Errorf("recipe %d: negative requirement %g for ingredient %d", r.RecipeID, qty, ingredientID)
			}
		}
		if _, dup := seen[r.RecipeID]; dup {
			return fmt.Errorf("duplicate recipe id %d", r.RecipeID)
		}
		seen[r.RecipeID] = struct{}{}
	}
	for _, s := range supply {
		if s.QuantityPerUnit <= 0 {
			return fmt.Errorf("sku %d: quantity per unit must be positive, got %g", s.SKUID, s.QuantityPerUnit)
		}
		if s.UnitCost < 0 {
			return fmt.Errorf("sku %d: negative unit cost %g", s.SKUID, s.UnitCost)
		}
	}
	for _, recipeID := range opts.RequiredRecipeIDs {
		if _, ok := seen[recipeID]; !ok {
			return fmt.Errorf("required recipe %d is not among the planning candidates", recipeID)
		}
	}
	for _, recipeID := range opts.IncludeEveryRecipeIDs {
		if _, ok := seen[recipeID]; !ok {
			return fmt.Errorf("include-every recipe %d is not among the planning candidates", recipeID)
		}
	}
	for mealType, minBatches := range opts.MealTypeMinimums {
		if minBatches < 0 {
			return fmt.Errorf("meal type %q: negative minimum %d", mealType, minBatches)
		}
	}
	return nil
}

// demandedIngredients returns every ingredient any recipe requires a
// positive quantity of.
func demandedIngredients(recipes []RecipeOption) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, r := range recipes {
		for ingredientID, qty := range r.IngredientRequirements {
			if qty <= 0 {
				continue
			}
			if _, ok := seen[ingredientID]; !ok {
				seen[ingredientID] = struct{}{}
				ids = append(ids, ingredientID)
			}
		}
	}
	return ids
}

// maxDemandPerIngredient computes a loose per-ingredient demand ceiling
// given the batch bound, used to cap the purchased-unit variables.
func maxDemandPerIngredient(recipes []RecipeOption, batchBound int64) map[int64]float64 {
	demand := make(map[int64]float64)
	for _, r := range recipes {
		for ingredientID, qty := range r.IngredientRequirements {
			demand[ingredientID] += qty * float64(batchBound)
		}
	}
	return demand
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func union(a, b map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}
