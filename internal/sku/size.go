package sku

import (
	"regexp"
	"strconv"
)

var sizeRe = regexp.MustCompile(`[\d.]+`)

// ParseSize pulls the first number out of a free-form size string like
// "2.5 lb bag" or "12 oz". Unknown or unparsable sizes fall back to 1 so a
// pack always supplies something.
func ParseSize(size string) float64 {
	if size == "" {
		return 1
	}
	match := sizeRe.FindString(size)
	if match == "" {
		return 1
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value <= 0 {
		return 1
	}
	return value
}
