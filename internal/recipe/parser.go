package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

// Parsed is one recipe section of an uploaded recipe text file, before
// ingredient normalization.
type Parsed struct {
	Name         string
	Servings     int
	Ingredients  []string
	Instructions string
}

var titleRe = regexp.MustCompile(`(?i)^(.*)\(for\s+(\d+)\s+people\)\s*$`)

// ParseText splits an uploaded recipe file into recipes. The format is
// sections separated by ---, a title line optionally carrying
// "(for N people)", then "Ingredients" with dash-bulleted lines and
// "Instructions" with free text. Servings default to 1.
func ParseText(text string) []Parsed {
	sections := splitSections(text)
	recipes := make([]Parsed, 0, len(sections))
	for _, section := range sections {
		lines := nonEmptyLines(section)
		if len(lines) == 0 {
			continue
		}
		name, servings := parseTitle(lines[0])
		var ingredients []string
		var instructions []string
		mode := ""
		for _, line := range lines[1:] {
			lower := strings.ToLower(line)
			switch {
			case strings.HasPrefix(lower, "ingredients"):
				mode = "ingredients"
			case strings.HasPrefix(lower, "instructions"):
				mode = "instructions"
			case mode == "ingredients" && strings.HasPrefix(line, "-"):
				ingredients = append(ingredients, strings.TrimSpace(strings.TrimLeft(line, "-")))
			case mode == "instructions":
				instructions = append(instructions, strings.TrimSpace(line))
			}
		}
		recipes = append(recipes, Parsed{
			Name:         name,
			Servings:     servings,
			Ingredients:  ingredients,
			Instructions: strings.TrimSpace(strings.Join(instructions, " ")),
		})
	}
	return recipes
}

// CountIngredients counts bulleted ingredient lines without parsing the
// recipes in full. Used for upfront progress estimates. Never reports less
// than one.
func CountIngredients(text string) int {
	total := 0
	for _, section := range splitSections(text) {
		lines := nonEmptyLines(section)
		if len(lines) == 0 {
			continue
		}
		mode := ""
		for _, line := range lines[1:] {
			lower := strings.ToLower(line)
			switch {
			case strings.HasPrefix(lower, "ingredients"):
				mode = "ingredients"
			case strings.HasPrefix(lower, "instructions"):
				mode = "instructions"
			case mode == "ingredients" && strings.HasPrefix(line, "-"):
				total++
			}
		}
	}
	if total < 1 {
		return 1
	}
	return total
}

func parseTitle(line string) (string, int) {
	if m := titleRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		servings, err := strconv.Atoi(m[2])
		if err == nil && servings > 0 {
			return strings.TrimSpace(m[1]), servings
		}
	}
	return strings.TrimSpace(line), 1
}

func splitSections(text string) []string {
	var sections []string
	for _, s := range strings.Split(text, "---") {
		if strings.TrimSpace(s) != "" {
			sections = append(sections, strings.TrimSpace(s))
		}
	}
	return sections
}

func nonEmptyLines(section string) []string {
	var lines []string
	for _, line := range strings.Split(section, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, " \t\r"))
		}
	}
	return lines
}
