package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/suPer8Hu/keyword-chatbot/internal/bot"
)

// RuleInput is an admin-supplied rule. Keywords is comma separated.
type RuleInput struct {
	Category  string   `json:"category"`
	Keywords  string   `json:"keywords"`
	Responses []string `json:"responses"`
	Priority  *int     `json:"priority"`
	Active    *bool    `json:"active"`
}

func (in RuleInput) apply(row *ResponseRuleRow) error {
	responses := make([]string, 0, len(in.Responses))
	for _, r := range in.Responses {
		if r = strings.TrimSpace(r); r != "" {
			responses = append(responses, r)
		}
	}
	raw, err := json.Marshal(responses)
	if err != nil {
		return err
	}

	row.Category = strings.ToLower(strings.TrimSpace(in.Category))
	row.Keywords = strings.Join(bot.ParseKeywords(in.Keywords), ", ")
	row.Responses = datatypes.JSON(raw)
	if in.Priority != nil {
		row.Priority = *in.Priority
	} else if row.ID == 0 {
		row.Priority = 1
	}
	if in.Active != nil {
		row.Active = *in.Active
	} else if row.ID == 0 {
		row.Active = true
	}

	if row.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidRule)
	}
	if row.Category == bot.DefaultCategory {
		return fmt.Errorf("%w: category %q is reserved", ErrInvalidRule, bot.DefaultCategory)
	}
	r, err := row.Rule()
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}

// Rule converts the stored row into a matcher rule.
func (row ResponseRuleRow) Rule() (bot.Rule, error) {
	var responses []string
	if len(row.Responses) > 0 {
		if err := json.Unmarshal(row.Responses, &responses); err != nil {
			return bot.Rule{}, fmt.Errorf("%w: rule %d responses: %v", bot.ErrConfiguration, row.ID, err)
		}
	}
	return bot.Rule{
		ID:        row.ID,
		Category:  row.Category,
		Keywords:  bot.ParseKeywords(row.Keywords),
		Responses: responses,
		Priority:  row.Priority,
		Active:    row.Active,
	}, nil
}

func rowFromRule(r bot.Rule) (ResponseRuleRow, error) {
	raw, err := json.Marshal(r.Responses)
	if err != nil {
		return ResponseRuleRow{}, err
	}
	return ResponseRuleRow{
		Category:  r.Category,
		Keywords:  strings.Join(bot.NormalizeKeywords(r.Keywords), ", "),
		Responses: datatypes.JSON(raw),
		Priority:  r.Priority,
		Active:    r.Active,
	}, nil
}
