// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog provides the country, group, and releasability-shortcut
// tables the marking engine renders against. A built-in table ships with
// the binary; a user overlay file can extend or correct it without a
// rebuild, and a watcher picks overlay edits up live.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtin []byte

// Country is one FGI candidate: display name plus its ISO 3166-1 alpha-3
// trigraph.
type Country struct {
	Name     string `yaml:"name"`
	Trigraph string `yaml:"trigraph"`
}

// Catalog is the full lookup table set.
type Catalog struct {
	Countries []Country           `yaml:"countries"`
	Groups    map[string][]string `yaml:"groups"`
	Shortcuts []string            `yaml:"rel_to_shortcuts"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		var c Catalog
		if err := yaml.Unmarshal(builtin, &c); err != nil {
			panic("catalog: built-in table invalid: " + err.Error())
		}
		if err := c.Validate(); err != nil {
			panic("catalog: built-in table invalid: " + err.Error())
		}
		defaultCatalog = &c
	})
	return defaultCatalog
}

// Load returns the built-in catalog merged with the overlay file at path.
// A missing overlay is not an error; the built-in catalog is returned.
func Load(path string) (*Catalog, error) {
	base := Default().clone()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var overlay Catalog
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}

	base.merge(&overlay)
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return base, nil
}

// merge applies overlay entries on top of the receiver. Countries replace
// by trigraph, groups replace by name, and a non-empty shortcut list
// replaces the built-in one.
func (c *Catalog) merge(overlay *Catalog) {
	for _, country := range overlay.Countries {
		i := slices.IndexFunc(c.Countries, func(x Country) bool { return x.Trigraph == country.Trigraph })
		if i >= 0 {
			c.Countries[i] = country
		} else {
			c.Countries = append(c.Countries, country)
		}
	}
	for name, members := range overlay.Groups {
		if c.Groups == nil {
			c.Groups = make(map[string][]string)
		}
		c.Groups[name] = members
	}
	if len(overlay.Shortcuts) > 0 {
		c.Shortcuts = overlay.Shortcuts
	}
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		Countries: slices.Clone(c.Countries),
		Groups:    make(map[string][]string, len(c.Groups)),
		Shortcuts: slices.Clone(c.Shortcuts),
	}
	for name, members := range c.Groups {
		out.Groups[name] = slices.Clone(members)
	}
	return out
}

// Validate checks table integrity: names present, trigraphs and tetragraphs
// well formed, group members resolvable.
func (c *Catalog) Validate() error {
	seen := make(map[string]string, len(c.Countries))
	for _, country := range c.Countries {
		if country.Name == "" {
			return fmt.Errorf("country with trigraph %q has no name", country.Trigraph)
		}
		if !validGraph(country.Trigraph) {
			return fmt.Errorf("country %q: trigraph %q is not 3-4 uppercase letters", country.Name, country.Trigraph)
		}
		if prev, dup := seen[country.Trigraph]; dup {
			return fmt.Errorf("trigraph %q assigned to both %q and %q", country.Trigraph, prev, country.Name)
		}
		seen[country.Trigraph] = country.Name
	}
	for name, members := range c.Groups {
		if !validGraph(name) {
			return fmt.Errorf("group %q is not 3-4 uppercase letters", name)
		}
		if len(members) == 0 {
			return fmt.Errorf("group %q has no members", name)
		}
		for _, m := range members {
			if !validGraph(m) {
				return fmt.Errorf("group %q: member %q is not 3-4 uppercase letters", name, m)
			}
		}
	}
	return nil
}

// validGraph reports whether s is a CAPCO trigraph or tetragraph.
func validGraph(s string) bool {
	if len(s) != 3 && len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// TrigraphIndex returns the country-name to trigraph table the assembler
// consumes.
func (c *Catalog) TrigraphIndex() map[string]string {
	idx := make(map[string]string, len(c.Countries))
	for _, country := range c.Countries {
		idx[country.Name] = country.Trigraph
	}
	return idx
}

// NameIndex returns the trigraph to country-name table.
func (c *Catalog) NameIndex() map[string]string {
	idx := make(map[string]string, len(c.Countries))
	for _, country := range c.Countries {
		idx[country.Trigraph] = country.Name
	}
	return idx
}

// Names returns all country names in display order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Countries))
	for i, country := range c.Countries {
		names[i] = country.Name
	}
	slices.Sort(names)
	return names
}

// MatchNames returns the country names with the given case-insensitive
// prefix, sorted. Dialog completion treats a single match as a resolution.
func (c *Catalog) MatchNames(prefix string) []string {
	if prefix == "" {
		return nil
	}
	prefix = strings.ToLower(prefix)
	var matches []string
	for _, country := range c.Countries {
		if strings.HasPrefix(strings.ToLower(country.Name), prefix) {
			matches = append(matches, country.Name)
		}
	}
	slices.Sort(matches)
	return matches
}

// LookupName resolves a trigraph to its country name.
func (c *Catalog) LookupName(trigraph string) (string, bool) {
	for _, country := range c.Countries {
		if country.Trigraph == trigraph {
			return country.Name, true
		}
	}
	return "", false
}
