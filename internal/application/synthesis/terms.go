package synthesis

import (
	"regexp"
	"sort"
	"strings"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "do": true, "for": true, "from": true, "give": true,
	"how": true, "in": true, "is": true, "it": true, "its": true, "list": true,
	"me": true, "of": true, "on": true, "or": true, "our": true, "show": true,
	"that": true, "the": true, "their": true, "this": true, "to": true,
	"what": true, "which": true, "with": true,
}

var tokenRe = regexp.MustCompile(`[A-Za-z][A-Za-z0-9_-]*`)

// keyConcepts extracts candidate subject terms from a prompt: lowercased
// content words plus adjacent-word bigrams, sorted and deduplicated so the
// output is stable for identical prompts.
func keyConcepts(text string) []string {
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)

	seen := map[string]bool{}
	var prev string
	for _, tok := range tokens {
		if stopwords[tok] {
			prev = ""
			continue
		}
		seen[tok] = true
		if prev != "" {
			seen[prev+" "+tok] = true
		}
		prev = tok
	}

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

var tableRe = regexp.MustCompile(`(?i)\btable\s+([A-Za-z0-9_]+)`)

// detectTableRef finds an explicit "table <name>" reference in the prompt
func detectTableRef(text string) string {
	m := tableRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// trigrams of a lowercased string, space-padded at the edges
func trigrams(s string) map[string]bool {
	s = " " + strings.ToLower(s) + " "
	out := map[string]bool{}
	for i := 0; i+3 <= len(s); i++ {
		out[s[i:i+3]] = true
	}
	return out
}

// similarity scores two strings by shared-trigram ratio in [0,1]
func similarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for g := range ta {
		if tb[g] {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}
