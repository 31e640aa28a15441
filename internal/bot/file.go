package bot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type fileRule struct {
	Category  string   `yaml:"category"`
	Keywords  []string `yaml:"keywords"`
	Responses []string `yaml:"responses"`
	Priority  *int     `yaml:"priority"`
	Active    *bool    `yaml:"active"`
}

type rulesFile struct {
	Rules []fileRule `yaml:"rules"`
}

// ParseRules decodes a YAML rule list:
//
//	rules:
//	  - category: greeting
//	    keywords: [oi, olá]
//	    responses: ["Oi!"]
//	    priority: 1
//
// priority defaults to 1 and active to true.
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("bot: parse rules: %w", err)
	}
	out := make([]Rule, 0, len(f.Rules))
	for _, fr := range f.Rules {
		r := Rule{
			Category:  fr.Category,
			Keywords:  NormalizeKeywords(fr.Keywords),
			Responses: fr.Responses,
			Priority:  1,
			Active:    true,
		}
		if fr.Priority != nil {
			r.Priority = *fr.Priority
		}
		if fr.Active != nil {
			r.Active = *fr.Active
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadRulesFile reads and parses a YAML rules file.
func LoadRulesFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(data)
}
