package detection

import (
	"fmt"
	"regexp"
)

// Pattern categories.
const (
	CategoryAddress = "address"
	CategoryPOBox   = "po_box"
	CategoryZipCode = "zip_code"
)

// Pattern is a sensitive-content matcher with its category label.
// Patterns are immutable once compiled and safe for concurrent use.
type Pattern struct {
	Category string
	Expr     *regexp.Regexp
}

// Matches reports whether the pattern occurs anywhere in text.
func (p Pattern) Matches(text string) bool {
	return p.Expr.MatchString(text)
}

var defaultPatterns = []Pattern{
	{CategoryAddress, regexp.MustCompile(`(?i)\b\d{1,5}\s\w+\s(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)\b`)},
	{CategoryPOBox, regexp.MustCompile(`(?i)\bP\.?O\.? Box\s*\d+\b`)},
	{CategoryZipCode, regexp.MustCompile(`(?i)\b\d{5}(-\d{4})?\b`)},
}

// DefaultPatterns returns the built-in address, PO box, and zip code patterns,
// in that order.
func DefaultPatterns() []Pattern {
	out := make([]Pattern, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}

// CompilePattern builds a case-insensitive Pattern from a regular expression.
func CompilePattern(category, expr string) (Pattern, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid %s pattern: %w", category, err)
	}
	return Pattern{Category: category, Expr: re}, nil
}
