package matching

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Bank statement lines carry boilerplate that says nothing about who paid.
var noiseTokens = map[string]bool{
	"ach":      true,
	"chk":      true,
	"dep":      true,
	"deposit":  true,
	"online":   true,
	"payment":  true,
	"pmt":      true,
	"ref":      true,
	"sepa":     true,
	"transfer": true,
	"trf":      true,
	"wire":     true,
}

// Normalize lowercases s, folds accented characters to their base form and
// collapses everything non-alphanumeric into single spaces.
func Normalize(s string) string {
	// The transform chain buffers internally, so build it per call to keep
	// scoring safe under concurrent use.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	collapsed := nonAlnum.ReplaceAllString(strings.ToLower(folded), " ")
	return strings.TrimSpace(collapsed)
}

// tokenize splits a normalized string into comparison tokens, dropping bank
// boilerplate words.
func tokenize(s string) []string {
	fields := strings.Fields(Normalize(s))
	toks := make([]string, 0, len(fields))
	for _, f := range fields {
		if !noiseTokens[f] {
			toks = append(toks, f)
		}
	}
	return toks
}

// Similarity scores how well two free-text strings describe the same party,
// in [0,1]. Comparison is token-based so word order does not matter: each
// token is aligned with its closest counterpart by edit-distance ratio, the
// per-side coverages are length-weighted, and the result is their harmonic
// mean. Either side normalizing to nothing yields 0.
func Similarity(a, b string) float64 {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	ca := coverage(ta, tb)
	cb := coverage(tb, ta)
	if ca+cb == 0 {
		return 0
	}
	return 2 * ca * cb / (ca + cb)
}

// coverage measures how much of `from` is accounted for by `to`: each token
// takes the best edit-distance ratio against the other side, weighted by
// token length so short fragments cannot dominate.
func coverage(from, to []string) float64 {
	var matched, total float64
	for _, tok := range from {
		best := 0.0
		for _, other := range to {
			r := levenshtein.RatioForStrings([]rune(tok), []rune(other), levenshtein.DefaultOptions)
			if r > best {
				best = r
			}
		}
		weight := float64(len([]rune(tok)))
		matched += weight * best
		total += weight
	}
	if total == 0 {
		return 0
	}
	return matched / total
}
