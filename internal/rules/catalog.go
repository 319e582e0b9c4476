package rules

import (
	"fmt"

	"github.com/raysh454/owaspscan/internal/model"
)

// Catalog is an immutable, ordered rule registry. Registration order is
// the order rules were passed to NewCatalog and is the tie-breaker for
// findings on the same line. A Catalog is safe for concurrent reads.
type Catalog struct {
	rules []Rule
	index map[string]int
}

type catalogOptions struct {
	disabled map[string]bool
}

// CatalogOption configures NewCatalog.
type CatalogOption func(*catalogOptions)

// WithDisabled drops the named rules before the catalog is built.
// NewCatalog fails if an ID does not name a rule.
func WithDisabled(ids ...string) CatalogOption {
	return func(o *catalogOptions) {
		for _, id := range ids {
			o.disabled[id] = true
		}
	}
}

// NewCatalog validates rules and freezes them into a Catalog.
func NewCatalog(rules []Rule, opts ...CatalogOption) (*Catalog, error) {
	o := catalogOptions{disabled: map[string]bool{}}
	for _, opt := range opts {
		opt(&o)
	}

	seen := make(map[string]bool, len(rules))
	c := &Catalog{index: make(map[string]int, len(rules))}
	for _, r := range rules {
		if err := r.validate(); err != nil {
			return nil, err
		}
		if seen[r.ID] {
			return nil, &RuleError{ID: r.ID, Reason: "duplicate id"}
		}
		seen[r.ID] = true
		if o.disabled[r.ID] {
			continue
		}
		r.Languages = append([]model.Language(nil), r.Languages...)
		c.index[r.ID] = len(c.rules)
		c.rules = append(c.rules, r)
	}
	for id := range o.disabled {
		if !seen[id] {
			return nil, fmt.Errorf("disabling rule %q: %w", id, ErrUnknownRule)
		}
	}
	return c, nil
}

// MustNewCatalog is NewCatalog for rule sets known to be valid.
func MustNewCatalog(rules []Rule, opts ...CatalogOption) *Catalog {
	c, err := NewCatalog(rules, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default builds a catalog from the built-in rules.
func Default(opts ...CatalogOption) (*Catalog, error) {
	return NewCatalog(Builtin(), opts...)
}

// RulesFor returns the rules applicable to lang in registration order.
func (c *Catalog) RulesFor(lang model.Language) []Rule {
	out := make([]Rule, 0, len(c.rules))
	for _, r := range c.rules {
		if r.AppliesTo(lang) {
			out = append(out, r)
		}
	}
	return out
}

// Rules returns every rule in registration order.
func (c *Catalog) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Lookup finds a rule by ID.
func (c *Catalog) Lookup(id string) (Rule, bool) {
	i, ok := c.index[id]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Index returns the registration position of a rule, or -1.
func (c *Catalog) Index(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

func (c *Catalog) Len() int { return len(c.rules) }
