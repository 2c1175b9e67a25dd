package rules

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RuleFile is the declarative yaml form of a redirect list, used by file and
// URL rule sources. Example:
//
//	project: myproject
//	rules:
//	  - type: exact
//	    from: /docs/$rest
//	    to: /en/latest/
//	    status: 301
type RuleFile struct {
	Project string      `yaml:"project,omitempty"`
	Rules   []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Type   string `yaml:"type"`
	From   string `yaml:"from,omitempty"`
	To     string `yaml:"to,omitempty"`
	Force  bool   `yaml:"force,omitempty"`
	Status int    `yaml:"status,omitempty"`
	Active *bool  `yaml:"active,omitempty"` // default true
}

// ParseRuleFile parses and validates a yaml redirect list. Any malformed
// entry fails the whole file; a partially applied rule list is worse than a
// load error the operator can see.
func ParseRuleFile(data []byte) ([]*Rule, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	out := make([]*Rule, 0, len(rf.Rules))
	for i, e := range rf.Rules {
		t, err := ParseType(e.Type)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		status := e.Status
		if status == 0 {
			status = 302
		}
		active := true
		if e.Active != nil {
			active = *e.Active
		}

		r := &Rule{
			Project:    rf.Project,
			Type:       t,
			FromURL:    e.From,
			ToURL:      e.To,
			Force:      e.Force,
			HTTPStatus: status,
			Active:     active,
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, r)
	}

	return out, nil
}
