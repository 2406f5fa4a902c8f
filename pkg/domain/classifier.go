// Package domain holds per-profession configuration: founding good, virtue
// lists, and the keyword tables that drive classification throughout the
// pipeline. Tables are data, not code, so domains beyond engineering can be
// added without touching the services.
package domain

import (
	"strings"
	"unicode"
)

// CategoryKeywords binds one category to its matcher keywords. Keywords are
// lowercase stems matched against token prefixes; order in a classifier
// table is significant: the first matching category wins.
type CategoryKeywords struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// KeywordClassifier classifies free text into categories by keyword
// presence. It is the pluggable replacement for inline keyword literals.
type KeywordClassifier struct {
	table    []CategoryKeywords
	fallback string
}

// NewKeywordClassifier creates a classifier over an ordered category table.
// fallback is returned when no category matches.
func NewKeywordClassifier(table []CategoryKeywords, fallback string) *KeywordClassifier {
	return &KeywordClassifier{table: table, fallback: fallback}
}

// Classify returns the first category with a keyword present in text.
func (c *KeywordClassifier) Classify(text string) string {
	toks := tokens(text)
	for _, entry := range c.table {
		if anyKeywordMatches(toks, entry.Keywords) {
			return entry.Category
		}
	}
	return c.fallback
}

// ClassifyAll returns every category with a keyword present in text, in
// table order.
func (c *KeywordClassifier) ClassifyAll(text string) []string {
	toks := tokens(text)
	var out []string
	for _, entry := range c.table {
		if anyKeywordMatches(toks, entry.Keywords) {
			out = append(out, entry.Category)
		}
	}
	return out
}

// Matches reports whether any keyword of the given category is present.
func (c *KeywordClassifier) Matches(category, text string) bool {
	toks := tokens(text)
	for _, entry := range c.table {
		if entry.Category == category && anyKeywordMatches(toks, entry.Keywords) {
			return true
		}
	}
	return false
}

// tokens splits text into lowercased alphanumeric runs.
func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// anyKeywordMatches reports whether some keyword is a prefix of some token.
// Stems like "disclos" still match "disclosure", but a keyword never fires
// from the middle of a longer word.
func anyKeywordMatches(toks []string, keywords []string) bool {
	for _, kw := range keywords {
		for _, tok := range toks {
			if strings.HasPrefix(tok, kw) {
				return true
			}
		}
	}
	return false
}

// Keywords returns the keyword list for a category, or nil.
func (c *KeywordClassifier) Keywords(category string) []string {
	for _, entry := range c.table {
		if entry.Category == category {
			return entry.Keywords
		}
	}
	return nil
}

// ContainsAny reports whether any of the keywords appears in text.
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
