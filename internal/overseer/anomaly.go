// Package overseer audits solved plans for purchase lines that only make
// sense if the underlying catalog data is wrong: buying hundreds of packs
// of one ingredient, or a line whose total dwarfs the rest of the bill. A
// misconverted pack size or a quantity in the wrong unit survives catalog
// validation but shows up immediately in what the plan buys. Flagged lines
// are sent to an LLM for a proposed correction, which is then written back
// to the catalog.
package overseer

import (
	"fmt"
	"math"
	"sort"

	"tandem-recipes/internal/planner"
)

const (
	// unitsFloor keeps small plans from flagging ordinary lines: a pack
	// count is never anomalous below this value regardless of the
	// distribution.
	unitsFloor = 10.0

	// costMedianFactor flags a line total above this multiple of the
	// median line total.
	costMedianFactor = 3.0

	// costFallbackThreshold applies when there is no other line to compare
	// against.
	costFallbackThreshold = 100.0
)

// Anomaly is one flagged purchase line. The SKU identity fields carry
// enough context for a reader, human or LLM, to judge the line without the
// plan in hand.
type Anomaly struct {
	Kind         string  `json:"kind"` // "purchase_quantity" or "purchase_cost"
	SKUID        int64   `json:"sku_id"`
	IngredientID int64   `json:"ingredient_id"`
	SKUName      string  `json:"sku_name,omitempty"`
	Size         string  `json:"size,omitempty"`
	Units        int64   `json:"units"`
	UnitPrice    float64 `json:"unit_price"`
	Value        float64 `json:"value"`
	Reason       string  `json:"reason"`
}

// Detect scans a solved plan's purchase lines for statistical outliers. An
// empty result means the plan looks plausible.
func Detect(purchases []planner.SKUPurchase) []Anomaly {
	var anomalies []Anomaly
	anomalies = append(anomalies, detectUnits(purchases)...)
	anomalies = append(anomalies, detectCosts(purchases)...)
	return anomalies
}

// detectUnits flags a line whose pack count exceeds both the floor and two
// standard deviations above the mean of the other lines' counts. The line
// under test is left out of its own statistics so a single extreme count
// cannot hide by inflating them.
func detectUnits(purchases []planner.SKUPurchase) []Anomaly {
	if len(purchases) == 0 {
		return nil
	}
	counts := make([]float64, 0, len(purchases))
	for _, p := range purchases {
		counts = append(counts, float64(p.Units))
	}

	var anomalies []Anomaly
	for _, p := range purchases {
		units := float64(p.Units)
		mean, stddev := meanStddev(excluding(counts, units))
		threshold := math.Max(unitsFloor, mean+2*stddev)
		if units <= threshold {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			Kind:         "purchase_quantity",
			SKUID:        p.SKUID,
			IngredientID: p.IngredientID,
			SKUName:      p.Name,
			Size:         p.Size,
			Units:        p.Units,
			UnitPrice:    p.UnitPrice,
			Value:        units,
			Reason:       fmt.Sprintf("%d units exceeds threshold %.2f", p.Units, threshold),
		})
	}
	return anomalies
}

// detectCosts flags a line whose total price exceeds three times the
// median of the other lines' totals, or an absolute fallback when it is
// the only line.
func detectCosts(purchases []planner.SKUPurchase) []Anomaly {
	totals := make([]float64, 0, len(purchases))
	for _, p := range purchases {
		totals = append(totals, lineTotal(p))
	}

	var anomalies []Anomaly
	for _, p := range purchases {
		total := lineTotal(p)
		if total <= 0 {
			continue
		}
		others := excluding(totals, total)
		var threshold float64
		if len(others) > 0 {
			threshold = costMedianFactor * median(others)
		} else {
			threshold = costFallbackThreshold
		}
		if total <= threshold {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			Kind:         "purchase_cost",
			SKUID:        p.SKUID,
			IngredientID: p.IngredientID,
			SKUName:      p.Name,
			Size:         p.Size,
			Units:        p.Units,
			UnitPrice:    p.UnitPrice,
			Value:        total,
			Reason:       fmt.Sprintf("line total %.2f exceeds threshold %.2f", total, threshold),
		})
	}
	return anomalies
}

// lineTotal prefers the stored total and falls back to unit price times
// count for lines persisted before totals were recorded.
func lineTotal(p planner.SKUPurchase) float64 {
	if p.TotalPrice > 0 {
		return p.TotalPrice
	}
	return p.UnitPrice * float64(p.Units)
}

func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// excluding removes one instance of value from the slice.
func excluding(values []float64, value float64) []float64 {
	out := make([]float64, 0, len(values))
	removed := false
	for _, v := range values {
		if !removed && v == value {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out
}
