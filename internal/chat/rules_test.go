package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suPer8Hu/keyword-chatbot/internal/bot"
)

func intPtr(n int) *int     { return &n }
func boolPtr(b bool) *bool { return &b }

func TestLoadRules_SeedsOnlyEmptyStore(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rows, err := svc.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rows, len(bot.DefaultRules()))
	assert.Equal(t, "greeting", rows[0].Category)

	// a second load must not duplicate the seed
	require.NoError(t, svc.LoadRules(ctx, bot.DefaultRules()))
	rows, err = svc.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, len(bot.DefaultRules()))
	assert.Equal(t, len(bot.DefaultRules()), svc.responder.Table().Len())
}

func TestCreateRule_TakesEffectImmediately(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	row, err := svc.CreateRule(ctx, RuleInput{
		Category:  "Weather",
		Keywords:  " Chuva, sol ,, CHUVA",
		Responses: []string{"Leve um guarda-chuva.", "  "},
		Priority:  intPtr(0),
	})
	require.NoError(t, err)
	assert.NotZero(t, row.ID)
	assert.Equal(t, "weather", row.Category)
	assert.Equal(t, "chuva, sol", row.Keywords)
	assert.True(t, row.Active)

	res, err := svc.Reply(ctx, ReplyInput{Message: "Vai ter CHUVA hoje?", SessionID: "s-w"})
	require.NoError(t, err)
	assert.Equal(t, "weather", res.Category)
	assert.Equal(t, "Leve um guarda-chuva.", res.Response)
}

func TestCreateRule_Invalid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []RuleInput{
		{Category: "", Keywords: "a", Responses: []string{"r"}},
		{Category: "x", Keywords: " , ", Responses: []string{"r"}},
		{Category: "x", Keywords: "a", Responses: []string{"  "}},
	}
	for _, in := range cases {
		_, err := svc.CreateRule(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidRule, "%+v", in)
	}

	rows, err := svc.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, len(bot.DefaultRules()))
}

func TestCreateRule_DefaultNameKeptApartFromFallback(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, active := range []bool{true, false} {
		_, err := svc.CreateRule(ctx, RuleInput{
			Category: " _FALLBACK ", Keywords: "x", Responses: []string{"r"}, Active: boolPtr(active),
		})
		assert.ErrorIs(t, err, ErrInvalidRule)
	}

	_, err := svc.CreateRule(ctx, RuleInput{Category: "default", Keywords: "padrão", Responses: []string{"Regra padrão."}})
	require.NoError(t, err)

	named, err := svc.Reply(ctx, ReplyInput{Message: "resposta padrão", SessionID: "s-f"})
	require.NoError(t, err)
	assert.Equal(t, "default", named.Category)
	assert.True(t, named.Matched)

	fallback, err := svc.Reply(ctx, ReplyInput{Message: "xyzzyunmatched", SessionID: "s-f"})
	require.NoError(t, err)
	assert.Equal(t, bot.DefaultCategory, fallback.Category)
	assert.False(t, fallback.Matched)

	for _, res := range []*ReplyResult{named, fallback} {
		require.NoError(t, svc.RecordExchange(ctx, ExchangeEvent{Category: res.Category, Matched: res.Matched}))
	}
	hits, err := svc.RuleHits(ctx)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	got := map[string]int64{}
	for _, h := range hits {
		got[h.Category] = h.Hits
	}
	assert.Equal(t, map[string]int64{"default": 1, bot.DefaultCategory: 1}, got)
}

func TestCreateRule_InactiveMayBeIncomplete(t *testing.T) {
	svc, _ := newTestService(t)

	row, err := svc.CreateRule(context.Background(), RuleInput{Category: "draft", Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, row.Active)
}

func TestUpdateRule_DeactivateStopsMatching(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rows, err := svc.ListRules(ctx)
	require.NoError(t, err)
	greeting := rows[0]
	require.Equal(t, "greeting", greeting.Category)

	updated, err := svc.UpdateRule(ctx, greeting.ID, RuleInput{
		Category:  "greeting",
		Keywords:  greeting.Keywords,
		Responses: []string{"Oi!"},
		Active:    boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, 1, updated.Priority, "priority kept when omitted")

	res, err := svc.Reply(ctx, ReplyInput{Message: "oi", SessionID: "s-u"})
	require.NoError(t, err)
	assert.Equal(t, bot.DefaultCategory, res.Category)
}

func TestUpdateAndDeleteRule_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateRule(ctx, 9999, RuleInput{Category: "x", Keywords: "a", Responses: []string{"r"}})
	assert.True(t, IsNotFound(err))

	assert.True(t, IsNotFound(svc.DeleteRule(ctx, 9999)))
}

func TestDeleteRule_Reloads(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rows, err := svc.ListRules(ctx)
	require.NoError(t, err)
	for _, r := range rows {
		if r.Category == "farewell" {
			require.NoError(t, svc.DeleteRule(ctx, r.ID))
		}
	}

	res, err := svc.Reply(ctx, ReplyInput{Message: "tchau", SessionID: "s-d"})
	require.NoError(t, err)
	assert.Equal(t, bot.DefaultCategory, res.Category)
}

func TestResponseRuleRow_RuleRoundTrip(t *testing.T) {
	in := bot.Rule{
		Category:  "help",
		Keywords:  []string{"Ajuda", "socorro"},
		Responses: []string{"Claro!"},
		Priority:  3,
		Active:    true,
	}
	row, err := rowFromRule(in)
	require.NoError(t, err)
	assert.Equal(t, "ajuda, socorro", row.Keywords)

	out, err := row.Rule()
	require.NoError(t, err)
	assert.Equal(t, []string{"ajuda", "socorro"}, out.Keywords)
	assert.Equal(t, in.Responses, out.Responses)
	assert.Equal(t, 3, out.Priority)
}
