package lexical

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize lowercases text and returns its maximal runs of letters,
// digits and underscores. Everything else separates tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
