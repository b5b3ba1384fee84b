package recipe

import (
	"testing"
)

const sampleUpload = `Chicken Stir Fry (for 4 people)
Ingredients
- 2 chicken breasts
- 1 tbsp soy sauce
- 200g rice
Instructions
Cut the chicken into strips.
Fry until golden, add the sauce.
---
Garden Salad
Ingredients
- 1 head lettuce
- 2 tomatoes
Instructions
Toss everything together.
`

func TestParseText(t *testing.T) {
	recipes := ParseText(sampleUpload)
	if len(recipes) != 2 {
		t.Fatalf("Expected 2 recipes, got %d", len(recipes))
	}

	first := recipes[0]
	if first.Name != "Chicken Stir Fry" {
		t.Errorf("Expected name 'Chicken Stir Fry', got '%s'", first.Name)
	}
	if first.Servings != 4 {
		t.Errorf("Expected 4 servings, got %d", first.Servings)
	}
	if len(first.Ingredients) != 3 {
		t.Fatalf("Expected 3 ingredients, got %d", len(first.Ingredients))
	}
	if first.Ingredients[0] != "2 chicken breasts" {
		t.Errorf("Expected '2 chicken breasts', got '%s'", first.Ingredients[0])
	}
	if first.Instructions != "Cut the chicken into strips. Fry until golden, add the sauce." {
		t.Errorf("Unexpected instructions: '%s'", first.Instructions)
	}

	second := recipes[1]
	if second.Name != "Garden Salad" {
		t.Errorf("Expected name 'Garden Salad', got '%s'", second.Name)
	}
	if second.Servings != 1 {
		t.Errorf("Expected servings to default to 1, got %d", second.Servings)
	}
	if len(second.Ingredients) != 2 {
		t.Errorf("Expected 2 ingredients, got %d", len(second.Ingredients))
	}
}

func TestParseTextEmptySections(t *testing.T) {
	recipes := ParseText("---\n\n---\n")
	if len(recipes) != 0 {
		t.Errorf("Expected no recipes from empty input, got %d", len(recipes))
	}
}

func TestParseTitleCaseInsensitive(t *testing.T) {
	name, servings := parseTitle("Beef Stew (FOR 6 People)")
	if name != "Beef Stew" {
		t.Errorf("Expected 'Beef Stew', got '%s'", name)
	}
	if servings != 6 {
		t.Errorf("Expected 6 servings, got %d", servings)
	}
}

func TestCountIngredients(t *testing.T) {
	if got := CountIngredients(sampleUpload); got != 5 {
		t.Errorf("Expected 5 ingredients, got %d", got)
	}
	if got := CountIngredients("no structure at all"); got != 1 {
		t.Errorf("Expected floor of 1, got %d", got)
	}
}

func TestInferMealType(t *testing.T) {
	cases := []struct {
		name         string
		instructions string
		want         string
	}{
		{"Chicken Stir Fry", "Cook the chicken", "entree"},
		{"Beef Stew", "", "entree"},
		{"Chocolate Cake", "Bake for 30 minutes", "dessert"},
		{"Apple Pie", "", "dessert"},
		{"Ice cream sundae", "", "dessert"},
		{"Greek Salad", "Toss ingredients", "appetizer"},
		{"Tomato Soup", "Simmer for 20 min", "appetizer"},
		{"Spinach dip", "Mix and serve", "appetizer"},
		{"Mashed Potato", "Boil and mash", "side"},
		{"Garlic bread", "Toast with garlic butter", "side"},
		// "potato" matches side, but dessert keywords run first.
		{"Sweet Potato Pie", "", "dessert"},
		{"Mystery Dish", "Serve as appetizer with crackers", "appetizer"},
		{"Dish", "A dessert to finish the meal", "dessert"},
	}
	for _, tc := range cases {
		if got := InferMealType(tc.name, tc.instructions); got != tc.want {
			t.Errorf("InferMealType(%q, %q) = %q, want %q", tc.name, tc.instructions, got, tc.want)
		}
	}
}
