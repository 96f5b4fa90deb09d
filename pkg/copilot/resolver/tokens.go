package resolver

import (
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "do": true, "does": true, "for": true,
	"from": true, "give": true,
	"how": true, "in": true, "is": true, "it": true, "list": true,
	"me": true, "my": true, "of": true, "on": true, "or": true,
	"per": true, "please": true, "show": true, "the": true, "to": true,
	"was": true, "were": true, "what": true, "which": true, "with": true,
}

// synonyms maps common business wording onto the schema's vocabulary
// before scoring.
var synonyms = map[string]string{
	"supplier":  "vendor",
	"suppliers": "vendor",
	"quantity":  "qty",
	"amount":    "qty",
	"volume":    "qty",
	"location":  "origin",
	"lot":       "batch",
	"lots":      "batch",
}

var referentialCues = []string{
	"this", "that", "these", "those", "it", "them",
	"same", "again", "instead", "also",
	"break down", "break it down", "drill down", "drill into",
	"what about", "how about", "and for", "now show",
}

// Tokenize lowercases, splits on non-alphanumeric runs, drops stopwords and
// normalizes plurals and synonyms. Deterministic for identical input.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopwords[f] {
			continue
		}
		out = append(out, normalizeToken(f))
	}
	return out
}

// normalizeToken folds plurals and synonyms onto a canonical form so
// "suppliers" matches the vendors table.
func normalizeToken(tok string) string {
	if mapped, ok := synonyms[tok]; ok {
		tok = mapped
	}
	switch {
	case len(tok) > 4 && strings.HasSuffix(tok, "ies"):
		tok = tok[:len(tok)-3] + "y"
	case len(tok) > 4 && strings.HasSuffix(tok, "es"):
		tok = tok[:len(tok)-2]
	case len(tok) > 3 && strings.HasSuffix(tok, "s"):
		tok = tok[:len(tok)-1]
	}
	return tok
}

// HasReferentialCue reports whether the prompt refers back to an earlier
// turn ("break this down", "what about defect rate").
func HasReferentialCue(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, cue := range referentialCues {
		if strings.Contains(cue, " ") {
			if strings.Contains(lower, cue) {
				return true
			}
			continue
		}
		for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
			return !unicode.IsLetter(r)
		}) {
			if word == cue {
				return true
			}
		}
	}
	return false
}

// nameParts splits an entity name into normalized underscore segments.
func nameParts(name string) []string {
	raw := strings.Split(strings.ToLower(name), "_")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p == "" {
			continue
		}
		out = append(out, normalizeToken(p))
	}
	return out
}

func containsToken(parts []string, tok string) bool {
	for _, p := range parts {
		if p == tok {
			return true
		}
	}
	return false
}

func tokenSet(tokens []string) map[string]bool {
	out := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		out[t] = true
	}
	return out
}
