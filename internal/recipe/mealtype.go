package recipe

import "strings"

var (
	dessertKeywords = []string{
		"dessert", "cake", "pie", "cookie", "ice cream", "pudding", "tart", "sorbet",
	}
	appetizerKeywords = []string{
		"salad", "soup", "dip", "appetizer", "appetiser", "starter", "hors d", "bruschetta",
	}
	sideKeywords = []string{
		"side", "potato", "asparagus", "vegetable side", "rice side", "bread",
	}
)

// InferMealType guesses the meal type from a recipe name and instructions.
// Checks run dessert, then appetizer, then side; order matters, so "Sweet
// Potato Pie" lands on dessert before "potato" can pull it to side. Falls
// back to entree.
func InferMealType(name, instructions string) string {
	combined := strings.ToLower(name + " " + instructions)
	for _, kw := range dessertKeywords {
		if strings.Contains(combined, kw) {
			return "dessert"
		}
	}
	for _, kw := range appetizerKeywords {
		if strings.Contains(combined, kw) {
			return "appetizer"
		}
	}
	for _, kw := range sideKeywords {
		if strings.Contains(combined, kw) {
			return "side"
		}
	}
	return "entree"
}
