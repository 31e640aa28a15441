package bot

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Selector picks one response text for a matched rule, or one of the
// fallback responses when nothing matched. It is safe for concurrent use.
type Selector struct {
	mu       sync.Mutex
	rng      *rand.Rand
	defaults []string
}

// NewSelector builds a selector drawing from src. A nil src seeds from
// the clock; pass a fixed source (e.g. rand.NewPCG(1, 2)) for
// reproducible picks. Empty defaults fall back to DefaultResponses.
func NewSelector(src rand.Source, defaults []string) *Selector {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	if len(defaults) == 0 {
		defaults = DefaultResponses()
	}
	return &Selector{
		rng:      rand.New(src),
		defaults: append([]string(nil), defaults...),
	}
}

// NewSeededSelector is NewSelector with a PCG source seeded from seed.
func NewSeededSelector(seed uint64, defaults []string) *Selector {
	return NewSelector(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15), defaults)
}

// Select returns a uniformly random response of rule, or of the fallback
// set when rule is nil. A rule without responses is ErrConfiguration.
func (s *Selector) Select(rule *Rule) (string, error) {
	pool := s.defaults
	if rule != nil {
		if len(rule.Responses) == 0 {
			return "", fmt.Errorf("%w: category %q has no responses", ErrConfiguration, rule.Category)
		}
		pool = rule.Responses
	}
	if len(pool) == 0 {
		return "", fmt.Errorf("%w: no fallback responses", ErrConfiguration)
	}

	s.mu.Lock()
	i := s.rng.IntN(len(pool))
	s.mu.Unlock()
	return pool[i], nil
}
