package normalize

import (
	"strings"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// Rule maps any of its keywords (lower-case substrings) to a category.
type Rule struct {
	Keywords []string `yaml:"match"`
	Category string   `yaml:"category"`
}

// DefaultRules is the shared keyword-to-category table. Order matters:
// the first rule whose keyword appears wins.
var DefaultRules = []Rule{
	{
		Category: "Project Management",
		Keywords: []string{"project manager", "project management", "project coordinator", "programme manager", "program manager", "pmo", "scrum master", "delivery manager"},
	},
	{
		Category: "Consulting",
		Keywords: []string{"consultant", "consulting", "advisor", "adviser", "consultancy"},
	},
	{
		Category: "Leadership",
		Keywords: []string{"director", "head of", "chief", "executive", "vice president", "team lead", "leadership", "management"},
	},
	{
		Category: "Education",
		Keywords: []string{"scholarship", "fellowship", "teacher", "education", "lecturer", "professor", "tutor", "training", "academic"},
	},
	{
		Category: "Sustainability",
		Keywords: []string{"sustainab", "climate", "environment", "renewable", "energy", "conservation", "esg"},
	},
	{
		Category: "Grants",
		Keywords: []string{"grant", "funding", "call for proposals"},
	},
	{
		Category: "Humanitarian",
		Keywords: []string{"humanitarian", "relief", "emergency response", "refugee", "ngo"},
	},
	{
		Category: "Development",
		Keywords: []string{"developer", "engineer", "software", "programmer", "devops", "data scien", "development"},
	},
}

// Categorizer infers a category from a title and optional source hints.
type Categorizer struct {
	rules    []Rule
	fallback string
}

// NewCategorizer builds a categorizer whose overrides are checked before
// DefaultRules. An empty fallback means domain.DefaultCategory.
func NewCategorizer(overrides []Rule, fallback string) *Categorizer {
	if fallback == "" {
		fallback = domain.DefaultCategory
	}

	rules := make([]Rule, 0, len(overrides)+len(DefaultRules))
	for _, r := range overrides {
		if r.Category == "" || len(r.Keywords) == 0 {
			continue
		}
		rules = append(rules, lowerRule(r))
	}
	for _, r := range DefaultRules {
		rules = append(rules, lowerRule(r))
	}

	return &Categorizer{rules: rules, fallback: fallback}
}

func lowerRule(r Rule) Rule {
	kws := make([]string, 0, len(r.Keywords))
	for _, kw := range r.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			kws = append(kws, kw)
		}
	}
	return Rule{Keywords: kws, Category: r.Category}
}

// Categorize checks the title against every rule first, then the hints
// (tags, source category). A title match always beats a hint match.
func (c *Categorizer) Categorize(title string, hints ...string) string {
	if cat, ok := c.match(strings.ToLower(title)); ok {
		return cat
	}
	if cat, ok := c.match(strings.ToLower(strings.Join(hints, " | "))); ok {
		return cat
	}
	return c.fallback
}

func (c *Categorizer) match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r.Category, true
			}
		}
	}
	return "", false
}
