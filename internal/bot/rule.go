package bot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrConfiguration marks a rule set that cannot produce a reply,
// e.g. an active rule without keywords or responses.
var ErrConfiguration = errors.New("bot: invalid rule configuration")

// DefaultCategory is reported when no rule matched and the reply came
// from the built-in fallback set. It is reserved: no rule may use it, so
// a configured rule named "default" is counted apart from the fallback.
const DefaultCategory = "_fallback"

// Rule is one intent bucket: a message containing any of Keywords is
// answered with one of Responses.
type Rule struct {
	ID        uint64
	Category  string
	Keywords  []string
	Responses []string
	Priority  int
	Active    bool
}

// ParseKeywords splits a comma separated keyword list, normalizing each
// entry and dropping empty ones. An empty keyword would match everything.
func ParseKeywords(csv string) []string {
	return NormalizeKeywords(strings.Split(csv, ","))
}

// NormalizeKeywords trims and lowercases keywords, dropping empties and
// duplicates while keeping the first occurrence order.
func NormalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = Normalize(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Validate reports whether r can take part in matching. Inactive rules
// are valid unless they use the reserved fallback category.
func (r Rule) Validate() error {
	if Normalize(r.Category) == DefaultCategory {
		return fmt.Errorf("%w: category %q is reserved", ErrConfiguration, DefaultCategory)
	}
	if !r.Active {
		return nil
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("%w: rule %d has no category", ErrConfiguration, r.ID)
	}
	if len(NormalizeKeywords(r.Keywords)) == 0 {
		return fmt.Errorf("%w: category %q has no keywords", ErrConfiguration, r.Category)
	}
	if len(r.Responses) == 0 {
		return fmt.Errorf("%w: category %q has no responses", ErrConfiguration, r.Category)
	}
	return nil
}

// Table is an immutable, priority-ordered rule set. It holds only
// active rules; build it with NewTable.
type Table struct {
	rules []Rule
}

// NewTable normalizes and validates rules and orders them by priority,
// then category. Rules with equal priority and category keep their
// input order.
func NewTable(rules []Rule) (*Table, error) {
	active := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if !r.Active {
			continue
		}
		r.Keywords = NormalizeKeywords(r.Keywords)
		r.Responses = append([]string(nil), r.Responses...)
		active = append(active, r)
	}
	sortRules(active)
	return &Table{rules: active}, nil
}

// EmptyTable matches nothing; every reply falls back to the defaults.
func EmptyTable() *Table { return &Table{} }

// Rules returns a copy of the ordered active rules.
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	return append([]Rule(nil), t.rules...)
}

// Len is the number of active rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Match runs the matcher over the pre-ordered table.
func (t *Table) Match(message string) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	return firstMatch(Normalize(message), t.rules)
}

func sortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].Category < rules[j].Category
	})
}
