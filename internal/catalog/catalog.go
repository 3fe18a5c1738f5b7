// Package catalog holds the interview roles: their topics and keywords,
// opening questions and per-level question banks.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/mockview/internal/domain"
)

//go:embed roles.yaml
var rolesYAML []byte

// Topic is a knowledge area recognised by case-insensitive keyword
// substrings.
type Topic struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Role describes one interview track.
type Role struct {
	ID        string                    `yaml:"id"`
	Name      string                    `yaml:"name"`
	Topics    []Topic                   `yaml:"topics"`
	Openings  map[domain.Level]string   `yaml:"openings"`
	Questions map[domain.Level][]string `yaml:"questions"`
}

type catalogFile struct {
	Version        int          `yaml:"version"`
	DefaultOpening string       `yaml:"default_opening"`
	FallbackRole   string       `yaml:"fallback_role"`
	FallbackLevel  domain.Level `yaml:"fallback_level"`
	Roles          []Role       `yaml:"roles"`
}

// Catalog is an immutable set of roles.
type Catalog struct {
	roles          []Role
	byID           map[string]int
	defaultOpening string
	fallbackRole   string
	fallbackLevel  domain.Level
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(rolesYAML)
})

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded roles.yaml is invalid: %v", err))
	}
	return c
}

// Parse decodes and validates a catalog document. Unknown keys are
// rejected so a misspelt field fails loudly instead of emptying a bank.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		roles:          f.Roles,
		byID:           make(map[string]int, len(f.Roles)),
		defaultOpening: f.DefaultOpening,
		fallbackRole:   f.FallbackRole,
		fallbackLevel:  f.FallbackLevel,
	}
	for i, r := range f.Roles {
		if r.ID == "" {
			return nil, fmt.Errorf("role %d: missing id", i)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("role %q: duplicate id", r.ID)
		}
		for _, t := range r.Topics {
			if len(t.Keywords) == 0 {
				return nil, fmt.Errorf("role %q topic %q: no keywords", r.ID, t.Name)
			}
		}
		for _, l := range domain.Levels {
			if len(r.Questions[l]) == 0 {
				return nil, fmt.Errorf("role %q: no %s questions", r.ID, l)
			}
		}
		c.byID[r.ID] = i
	}
	if c.defaultOpening == "" {
		return nil, fmt.Errorf("default_opening is required")
	}
	if _, ok := c.byID[c.fallbackRole]; !ok {
		return nil, fmt.Errorf("fallback_role %q is not a known role", c.fallbackRole)
	}
	if _, err := domain.ParseLevel(string(c.fallbackLevel)); err != nil {
		return nil, fmt.Errorf("fallback_level: %w", err)
	}
	return c, nil
}

// NormalizeRole maps a free-form role name to a role id:
// "Node.js Developer" → "nodejs", "DevOps Engineer" → "devops".
func NormalizeRole(role string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(role) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	key := b.String()
	key = strings.Replace(key, "developer", "", 1)
	key = strings.Replace(key, "engineer", "", 1)
	return key
}

// Roles returns every role in file order.
func (c *Catalog) Roles() []Role {
	return c.roles
}

// Lookup finds a role by id or free-form name.
func (c *Catalog) Lookup(role string) (Role, bool) {
	i, ok := c.byID[NormalizeRole(role)]
	if !ok {
		return Role{}, false
	}
	return c.roles[i], true
}

// Topics returns the role's topics, or nil for unknown roles.
func (c *Catalog) Topics(role string) []Topic {
	r, ok := c.Lookup(role)
	if !ok {
		return nil
	}
	return r.Topics
}

// DisplayName returns the role's display name, or role itself if unknown.
func (c *Catalog) DisplayName(role string) string {
	if r, ok := c.Lookup(role); ok {
		return r.Name
	}
	return role
}

// Opening returns the first interviewer question for a session.
func (c *Catalog) Opening(role string, level domain.Level) string {
	if r, ok := c.Lookup(role); ok {
		if q := r.Openings[level]; q != "" {
			return q
		}
	}
	return c.defaultOpening
}

// Questions returns the question bank for role and level. Unknown
// combinations fall back to the catalog's fallback bank.
func (c *Catalog) Questions(role string, level domain.Level) []string {
	if r, ok := c.Lookup(role); ok {
		if qs := r.Questions[level]; len(qs) > 0 {
			return qs
		}
	}
	return c.roles[c.byID[c.fallbackRole]].Questions[c.fallbackLevel]
}
