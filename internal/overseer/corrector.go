package overseer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tandem-recipes/internal/llm"
	"tandem-recipes/internal/recipe"
)

const (
	correctorPromptName    = "overseer_corrector"
	correctorPromptVersion = "v1"
)

// Correction is one proposed fix for an anomalous row. Target selects which
// table the fix applies to; the matching value fields carry the new data.
type Correction struct {
	Target string `json:"target"` // "ingredient", "recipe_ingredient" or "sku"
	ID     int64  `json:"id"`

	BaseUnit           string  `json:"base_unit,omitempty"`
	Quantity           float64 `json:"quantity,omitempty"`
	Unit               string  `json:"unit,omitempty"`
	QuantityInBaseUnit float64 `json:"quantity_in_base_unit,omitempty"`

	Note string `json:"note,omitempty"`
}

// Corrector asks an LLM to propose corrections for flagged rows.
type Corrector struct {
	textGen   llm.TextGenerator
	modelName string
	calls     *llm.CallLogStore
}

// NewCorrector creates a corrector. calls may be nil to skip call logging.
func NewCorrector(textGen llm.TextGenerator, modelName string, calls *llm.CallLogStore) *Corrector {
	return &Corrector{textGen: textGen, modelName: modelName, calls: calls}
}

// Propose sends the flagged purchase lines to the LLM, together with the
// recipe requirements driving demand for the affected ingredients, and
// parses its proposed catalog corrections. An empty result means the model
// stands by the data as is.
func (c *Corrector) Propose(ctx context.Context, anomalies []Anomaly, requirements []recipe.Requirement) ([]Correction, error) {
	if len(anomalies) == 0 {
		return nil, nil
	}
	if c.textGen == nil {
		return nil, fmt.Errorf("no text generator configured")
	}

	input, err := json.Marshal(anomalies)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal anomalies: %w", err)
	}
	contextRows, err := json.Marshal(requirements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal context requirements: %w", err)
	}
	prompt := fmt.Sprintf(`
You audit a grocery planning database. A solved meal plan bought the
purchase lines below, flagged as statistical outliers. Such a line is
almost always caused by bad catalog data, not by the plan itself: a recipe
quantity in the wrong unit (grams read as kilograms), an ingredient with
the wrong base unit, or a pack size misconverted into the base unit. The
recipe requirements that drive demand for the affected ingredients follow
the flagged lines. For each flagged line decide which catalog row needs a
fix, if any. Return a JSON array, possibly empty, of objects:
{
  "target": "ingredient" | "recipe_ingredient" | "sku",
  "id": <row id>,
  "base_unit": "<only for ingredient>",
  "quantity": <only for recipe_ingredient>,
  "unit": "<only for recipe_ingredient>",
  "quantity_in_base_unit": <only for sku>,
  "note": "<one line explaining the fix>"
}
Return nothing but the JSON array.

Flagged purchase lines:
%s

Recipe requirements for the affected ingredients:
%s
`, input, contextRows)

	start := time.Now()
	response, err := c.textGen.GenerateContent(ctx, prompt)
	latency := time.Since(start).Milliseconds()
	if c.calls != nil {
		logErr := c.calls.Record(ctx, llm.CallLog{
			PromptName:    correctorPromptName,
			PromptVersion: correctorPromptVersion,
			Model:         c.modelName,
			InputPayload:  string(input),
			OutputPayload: response,
			LatencyMS:     latency,
		})
		if logErr != nil {
			return nil, fmt.Errorf("failed to log llm call: %w", logErr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to propose corrections: %w", err)
	}

	var corrections []Correction
	if err := json.Unmarshal([]byte(llm.StripFences(response)), &corrections); err != nil {
		return nil, fmt.Errorf("failed to parse corrector response: %w. Response: %s", err, response)
	}
	return corrections, nil
}
