package bot

import "strings"

// Normalize trims surrounding whitespace and lowercases s.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Match returns the first active rule, in priority order, that has a
// keyword contained in message. Matching is greedy: no scoring, the
// first hit wins. Keywords are compared after normalization, so rules
// need not be pre-normalized. Callers reject empty messages before
// matching.
func Match(message string, rules []Rule) (Rule, bool) {
	candidates := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.Active {
			continue
		}
		r.Keywords = NormalizeKeywords(r.Keywords)
		candidates = append(candidates, r)
	}
	sortRules(candidates)
	return firstMatch(Normalize(message), candidates)
}

func firstMatch(normalized string, ordered []Rule) (Rule, bool) {
	for _, r := range ordered {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(normalized, kw) {
				return r, true
			}
		}
	}
	return Rule{}, false
}
