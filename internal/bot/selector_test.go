package bot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_ReturnsMemberOfRule(t *testing.T) {
	sel := NewSeededSelector(42, nil)
	rule := DefaultRules()[0]
	for i := 0; i < 50; i++ {
		got, err := sel.Select(&rule)
		require.NoError(t, err)
		assert.Contains(t, rule.Responses, got)
	}
}

func TestSelector_SameSeedSameSequence(t *testing.T) {
	rule := DefaultRules()[1]
	a := NewSeededSelector(7, nil)
	b := NewSeededSelector(7, nil)
	for i := 0; i < 20; i++ {
		x, err := a.Select(&rule)
		require.NoError(t, err)
		y, err := b.Select(&rule)
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}
}

func TestSelector_FallbackWhenNoRule(t *testing.T) {
	sel := NewSeededSelector(1, nil)
	got, err := sel.Select(nil)
	require.NoError(t, err)
	assert.Contains(t, DefaultResponses(), got)

	custom := NewSeededSelector(1, []string{"só isso"})
	got, err = custom.Select(nil)
	require.NoError(t, err)
	assert.Equal(t, "só isso", got)
}

func TestSelector_EmptyResponsesIsConfigurationError(t *testing.T) {
	sel := NewSeededSelector(1, nil)
	_, err := sel.Select(&Rule{Category: "broken"})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestSelector_ConcurrentUse(t *testing.T) {
	sel := NewSeededSelector(3, nil)
	rule := DefaultRules()[2]
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = sel.Select(&rule)
			}
		}()
	}
	wg.Wait()
}

func TestResponder_RespondAndSwap(t *testing.T) {
	table, err := NewTable(DefaultRules())
	require.NoError(t, err)
	r := NewResponder(table, NewSeededSelector(9, nil))

	reply, err := r.Respond("Olá")
	require.NoError(t, err)
	assert.True(t, reply.Matched)
	assert.Equal(t, "greeting", reply.Category)
	assert.Contains(t, DefaultRules()[0].Responses, reply.Text)

	reply, err = r.Respond("xyzzyunmatched")
	require.NoError(t, err)
	assert.False(t, reply.Matched)
	assert.Equal(t, DefaultCategory, reply.Category)
	assert.Contains(t, DefaultResponses(), reply.Text)

	r.Swap(nil)
	reply, err = r.Respond("Olá")
	require.NoError(t, err)
	assert.False(t, reply.Matched)
}
