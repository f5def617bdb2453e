// Package corpus loads, tokenizes, and splits the evaluation corpora.
package corpus

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TokenizerOptions controls text → token conversion.
type TokenizerOptions struct {
	// Deaccent strips combining marks (é → e) before tokenizing.
	Deaccent bool
}

// deaccenter decomposes to NFD, removes combining marks, and recomposes.
var deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Tokenize splits text into lowercased alphabetic tokens. Digits and
// punctuation separate tokens and are never part of one.
func Tokenize(text string, opts TokenizerOptions) []string {
	if opts.Deaccent {
		if out, _, err := transform.String(deaccenter, text); err == nil {
			text = out
		}
	}
	text = strings.ToLower(text)

	var tokens []string
	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
