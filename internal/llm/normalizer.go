package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tandem-recipes/internal/cache"
)

const (
	normalizerPromptName    = "ingredient_normalizer"
	normalizerPromptVersion = "v1"
)

// Normalized is the canonical form of one free-text ingredient line: a
// canonical name, the base unit the ingredient is measured in, and the
// quantity the line calls for expressed in that base unit.
type Normalized struct {
	Name          string  `json:"name"`
	CanonicalName string  `json:"canonical_name"`
	BaseUnit      string  `json:"base_unit"`
	BaseUnitQty   float64 `json:"base_unit_qty"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
}

// Normalizer canonicalizes ingredient text so that recipe requirements and
// SKU pack sizes for the same ingredient end up in the same base unit
// before they reach the optimizer. Results are cached per raw line; the
// cache is owned here and bounded.
type Normalizer struct {
	textGen   TextGenerator
	modelName string
	calls     *CallLogStore
	cache     *cache.Cache[Normalized]
}

// NewNormalizer creates a normalizer. textGen may be nil, in which case a
// deterministic heuristic is used instead of the LLM. calls may be nil to
// skip call logging.
func NewNormalizer(textGen TextGenerator, modelName string, calls *CallLogStore, cacheSize int) *Normalizer {
	return &Normalizer{
		textGen:   textGen,
		modelName: modelName,
		calls:     calls,
		cache:     cache.New[Normalized](cacheSize),
	}
}

// Normalize canonicalizes one raw ingredient line like "2 cups flour".
func (n *Normalizer) Normalize(ctx context.Context, raw string) (Normalized, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return Normalized{}, fmt.Errorf("empty ingredient text")
	}
	if cached, ok := n.cache.Get(key); ok {
		return cached, nil
	}

	var result Normalized
	var err error
	if n.textGen != nil {
		result, err = n.normalizeLLM(ctx, raw)
	} else {
		result = heuristicNormalize(raw)
	}
	if err != nil {
		return Normalized{}, err
	}

	n.cache.Put(key, result)
	return result, nil
}

func (n *Normalizer) normalizeLLM(ctx context.Context, raw string) (Normalized, error) {
	prompt := fmt.Sprintf(`
You normalize grocery ingredient lines. For the ingredient line below, return
a JSON object with this exact structure and nothing else:
{
  "name": "original ingredient name without quantities",
  "canonical_name": "lowercase singular canonical name",
  "base_unit": "g | ml | count",
  "base_unit_qty": 1,
  "quantity": <amount called for, converted to the base unit>,
  "unit": "<unit as written, lowercase>"
}

Ingredient line: %q
`, raw)

	start := time.Now()
	response, err := n.textGen.GenerateContent(ctx, prompt)
	latency := time.Since(start).Milliseconds()
	if n.calls != nil {
		logErr := n.calls.Record(ctx, CallLog{
			PromptName:    normalizerPromptName,
			PromptVersion: normalizerPromptVersion,
			Model:         n.modelName,
			InputPayload:  raw,
			OutputPayload: response,
			LatencyMS:     latency,
		})
		if logErr != nil {
			return Normalized{}, fmt.Errorf("failed to log llm call: %w", logErr)
		}
	}
	if err != nil {
		return Normalized{}, fmt.Errorf("failed to normalize %q: %w", raw, err)
	}

	var result Normalized
	if err := json.Unmarshal([]byte(StripFences(response)), &result); err != nil {
		return Normalized{}, fmt.Errorf("failed to parse normalizer response: %w. Response: %s", err, response)
	}
	if result.CanonicalName == "" || result.Quantity <= 0 {
		return Normalized{}, fmt.Errorf("normalizer returned unusable result for %q: %+v", raw, result)
	}
	if result.BaseUnitQty <= 0 {
		result.BaseUnitQty = 1
	}
	return result, nil
}

var leadingQtyRe = regexp.MustCompile(`^([\d.]+(?:/\d+)?)\s*([a-zA-Z]*)\s+(.*)$`)

// heuristicNormalize is the no-LLM fallback: strip a leading quantity and
// unit token, lowercase the rest. Quantities without a unit are treated as
// counts; everything else keeps the written unit as its base unit.
func heuristicNormalize(raw string) Normalized {
	trimmed := strings.TrimSpace(raw)
	result := Normalized{
		Name:        trimmed,
		BaseUnit:    "count",
		BaseUnitQty: 1,
		Quantity:    1,
	}
	if m := leadingQtyRe.FindStringSubmatch(trimmed); m != nil {
		if qty := parseAmount(m[1]); qty > 0 {
			result.Quantity = qty
		}
		result.Unit = strings.ToLower(m[2])
		if result.Unit != "" {
			result.BaseUnit = result.Unit
		}
		result.Name = strings.TrimSpace(m[3])
	}
	result.CanonicalName = strings.ToLower(result.Name)
	return result
}

func parseAmount(s string) float64 {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN == nil && errD == nil && d != 0 {
			return n / d
		}
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// StripFences removes a markdown code fence wrapper from an LLM response,
// if present.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
