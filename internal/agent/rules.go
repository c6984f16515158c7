package agent

import (
	"fmt"
	"log/slog"
	"os"

	"newsagent/internal/domain"

	"gopkg.in/yaml.v3"
)

// CategoryRule maps a keyword found in the message text to a news category.
// Rules are an ordered list: the first keyword contained in the text wins,
// regardless of where it appears.
type CategoryRule struct {
	Keyword  string          `yaml:"keyword"`
	Category domain.Category `yaml:"category"`
}

// DefaultCategoryRules returns the built-in keyword mapping in its fixed
// precedence order. "world" deliberately maps to general.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{"tech", domain.CategoryTechnology},
		{"technology", domain.CategoryTechnology},
		{"business", domain.CategoryBusiness},
		{"economy", domain.CategoryBusiness},
		{"world", domain.CategoryGeneral},
		{"health", domain.CategoryHealth},
		{"sports", domain.CategorySports},
		{"science", domain.CategoryScience},
		{"entertainment", domain.CategoryEntertainment},
	}
}

// LoadCategoryRules reads a rule list from a YAML file. Returns the
// defaults when the path is empty; a missing or unparseable file also falls
// back to the defaults with a warning, so a bad override never takes the
// router down.
func LoadCategoryRules(path string, logger *slog.Logger) []CategoryRule {
	if path == "" {
		return DefaultCategoryRules()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("cannot read intent rules file, using defaults", "path", path, "err", err)
		return DefaultCategoryRules()
	}

	var rules []CategoryRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		logger.Warn("cannot parse intent rules file, using defaults", "path", path, "err", err)
		return DefaultCategoryRules()
	}

	valid := rules[:0]
	for _, r := range rules {
		if r.Keyword == "" {
			logger.Warn("skipping rule with empty keyword", "path", path)
			continue
		}
		if domain.ParseCategory(string(r.Category)) == "" {
			logger.Warn("skipping rule with unknown category", "keyword", r.Keyword, "category", string(r.Category))
			continue
		}
		valid = append(valid, r)
	}

	if len(valid) == 0 {
		logger.Warn("intent rules file contained no usable rules, using defaults", "path", path)
		return DefaultCategoryRules()
	}

	logger.Info("loaded intent rules", "path", path, "count", len(valid))
	return valid
}

// WriteExampleRules renders the default rules as YAML, for `newsagent
// rules` style tooling and documentation.
func WriteExampleRules() (string, error) {
	out, err := yaml.Marshal(DefaultCategoryRules())
	if err != nil {
		return "", fmt.Errorf("marshal rules: %w", err)
	}
	return string(out), nil
}
