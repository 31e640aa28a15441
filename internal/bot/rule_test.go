package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeywords(t *testing.T) {
	kws := ParseKeywords("oi, OLÁ ,hello,, ,oi")
	assert.Equal(t, []string{"oi", "olá", "hello"}, kws)
	assert.Empty(t, ParseKeywords(""))
	assert.Empty(t, ParseKeywords(" , ,"))
}

func TestNewTable_RejectsActiveRuleWithoutKeywords(t *testing.T) {
	_, err := NewTable([]Rule{{Category: "x", Keywords: []string{" "}, Responses: []string{"r"}, Active: true}})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNewTable_RejectsActiveRuleWithoutResponses(t *testing.T) {
	_, err := NewTable([]Rule{{Category: "x", Keywords: []string{"k"}, Active: true}})
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), `"x"`)
}

func TestNewTable_RejectsReservedCategory(t *testing.T) {
	for _, active := range []bool{true, false} {
		_, err := NewTable([]Rule{{Category: " _Fallback", Keywords: []string{"k"}, Responses: []string{"r"}, Active: active}})
		require.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "reserved")
	}

	_, err := NewTable([]Rule{{Category: "default", Keywords: []string{"k"}, Responses: []string{"r"}, Active: true}})
	assert.NoError(t, err)
}

func TestNewTable_DropsInactiveAndOrders(t *testing.T) {
	table, err := NewTable([]Rule{
		{Category: "b", Keywords: []string{"k"}, Responses: []string{"r"}, Priority: 2, Active: true},
		{Category: "off", Priority: 0, Active: false},
		{Category: "a", Keywords: []string{"K "}, Responses: []string{"r"}, Priority: 2, Active: true},
		{Category: "z", Keywords: []string{"k"}, Responses: []string{"r"}, Priority: 1, Active: true},
	})
	require.NoError(t, err)

	rules := table.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "z", rules[0].Category)
	assert.Equal(t, "a", rules[1].Category)
	assert.Equal(t, "b", rules[2].Category)
	assert.Equal(t, []string{"k"}, rules[1].Keywords)
}

func TestParseRules(t *testing.T) {
	data := []byte(`
rules:
  - category: weather
    keywords: [Chuva, " sol "]
    responses: ["Não sei a previsão do tempo."]
  - category: time
    keywords: [horas]
    responses: ["Não tenho relógio."]
    priority: 5
    active: false
`)
	rules, err := ParseRules(data)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, []string{"chuva", "sol"}, rules[0].Keywords)
	assert.Equal(t, 1, rules[0].Priority)
	assert.True(t, rules[0].Active)
	assert.Equal(t, 5, rules[1].Priority)
	assert.False(t, rules[1].Active)
}

func TestParseRules_InvalidRule(t *testing.T) {
	_, err := ParseRules([]byte("rules:\n  - category: x\n    keywords: [a]\n"))
	require.ErrorIs(t, err, ErrConfiguration)
}
