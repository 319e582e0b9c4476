package rules

import "github.com/raysh454/owaspscan/internal/model"

// Info is the presentation form of a rule used by the rule listings.
type Info struct {
	ID             string           `json:"id"`
	Category       string           `json:"category"`
	Type           string           `json:"type"`
	Severity       model.Severity   `json:"severity"`
	Languages      []model.Language `json:"languages"`
	Matcher        string           `json:"matcher"`
	Description    string           `json:"description"`
	Recommendation string           `json:"recommendation"`
}

func (r Rule) Info() Info {
	langs := append([]model.Language{}, r.Languages...)
	return Info{
		ID:             r.ID,
		Category:       r.Category.Code(),
		Type:           r.Type(),
		Severity:       r.Severity,
		Languages:      langs,
		Matcher:        r.Matcher.Kind.String(),
		Description:    r.Description,
		Recommendation: r.Recommendation,
	}
}

// Describe lists the rules applicable to lang, or every rule when lang
// is empty.
func (c *Catalog) Describe(lang model.Language) []Info {
	src := c.rules
	if lang != "" {
		src = c.RulesFor(lang)
	}
	out := make([]Info, 0, len(src))
	for _, r := range src {
		out = append(out, r.Info())
	}
	return out
}
