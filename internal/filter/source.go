package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SourceMatcher reports whether a job's source satisfies the requested one.
type SourceMatcher func(jobSource, requested string) bool

// SubstringSourceMatch is a lowercase substring match. Any request mentioning
// "welcome" also accepts sources mentioning it, so "Welcome to the Jungle"
// matches "WelcomeToTheJungle".
func SubstringSourceMatch(jobSource, requested string) bool {
	src := strings.ToLower(jobSource)
	want := strings.ToLower(requested)
	if strings.Contains(src, want) {
		return true
	}
	return strings.Contains(want, "welcome") && strings.Contains(src, "welcome")
}

// NormalizedSourceMatch folds case and diacritics before matching and knows
// two synonyms: "welcome to the jungle" and "pole emploi".
func NormalizedSourceMatch(jobSource, requested string) bool {
	want := Fold(requested)
	if want == "" {
		return true
	}
	src := Fold(jobSource)
	switch want {
	case "welcome to the jungle":
		return strings.Contains(src, "welcome")
	case "pole emploi":
		return strings.Contains(src, "pole") || strings.Contains(src, "emploi")
	}
	return strings.Contains(src, want)
}

// Fold lowercases s and strips combining marks, so "Pôle Émploi" becomes
// "pole emploi".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// SourceMatcherByName resolves a configured matcher name. Unknown names fall
// back to SubstringSourceMatch.
func SourceMatcherByName(name string) SourceMatcher {
	if name == "normalized" {
		return NormalizedSourceMatch
	}
	return SubstringSourceMatch
}
