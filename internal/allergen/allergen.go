// Package allergen tags recipes with the ten most common food allergens
// (US FDA plus common international) by keyword lookup over canonical
// ingredient names.
package allergen

import (
	"sort"
	"strings"
)

var ontology = map[string][]string{
	"milk": {"milk", "dairy", "cream", "butter", "cheese", "whey", "casein", "lactose"},
	"eggs": {"egg", "eggs", "mayonnaise", "meringue"},
	"fish": {"fish", "anchovy", "salmon", "tuna", "cod", "tilapia", "sardine", "halibut"},
	"shellfish": {
		"shrimp", "crab", "lobster", "clam", "mussel", "oyster", "scallop",
		"prawn", "crayfish", "shellfish",
	},
	"tree_nuts": {
		"almond", "walnut", "cashew", "pecan", "pistachio", "macadamia",
		"hazelnut", "brazil nut", "pine nut", "chestnut",
	},
	"peanuts": {"peanut", "peanuts", "groundnut"},
	"wheat":   {"wheat", "flour", "bread", "pasta", "gluten"},
	"soy":     {"soy", "soya", "tofu", "tempeh", "edamame", "miso"},
	"sesame":  {"sesame", "tahini", "hummus"},
	"mustard": {"mustard"},
}

// Infer returns the allergen codes present in a list of canonical
// ingredient names, sorted.
func Infer(ingredientNames []string) []string {
	combined := strings.ToLower(strings.Join(ingredientNames, " "))
	var found []string
	for code, keywords := range ontology {
		for _, kw := range keywords {
			if strings.Contains(combined, kw) {
				found = append(found, code)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

// Codes returns every known allergen code, sorted, for UI filtering.
func Codes() []string {
	codes := make([]string, 0, len(ontology))
	for code := range ontology {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
