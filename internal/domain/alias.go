package domain

import (
	"fmt"
	"sort"
)

// AliasTable maps legacy movie IDs to the canonical ID they duplicate.
type AliasTable struct {
	canonical map[string]string // alias -> canonical
}

// NewAliasTable builds an AliasTable from canonical ID -> alias IDs. An alias
// may not be listed under two canonical IDs, nor be a canonical ID itself.
func NewAliasTable(groups map[string][]string) (AliasTable, error) {
	t := AliasTable{canonical: make(map[string]string)}
	for canon, aliases := range groups {
		if canon == "" {
			return AliasTable{}, fmt.Errorf("alias table: empty canonical id")
		}
		for _, alias := range aliases {
			if alias == "" || alias == canon {
				return AliasTable{}, fmt.Errorf("alias table: invalid alias %q for %q", alias, canon)
			}
			if prev, ok := t.canonical[alias]; ok && prev != canon {
				return AliasTable{}, fmt.Errorf("alias table: %q listed under %q and %q", alias, prev, canon)
			}
			t.canonical[alias] = canon
		}
	}
	for alias := range t.canonical {
		if _, ok := groups[alias]; ok {
			return AliasTable{}, fmt.Errorf("alias table: %q is both an alias and a canonical id", alias)
		}
	}
	return t, nil
}

// DefaultAliases returns the two known cases of upstream identifier drift.
func DefaultAliases() AliasTable {
	t, _ := NewAliasTable(map[string][]string{
		"ex-machina-2015":    {"ex-machina-2014"},
		"black-panther-2018": {"black-panther"},
	})
	return t
}

// Canonical returns the canonical ID for id, or id itself.
func (t AliasTable) Canonical(id string) string {
	if c, ok := t.canonical[id]; ok {
		return c
	}
	return id
}

// IsAlias reports whether id is a legacy ID.
func (t AliasTable) IsAlias(id string) bool {
	_, ok := t.canonical[id]
	return ok
}

// Aliases returns the legacy IDs in sorted order.
func (t AliasTable) Aliases() []string {
	out := make([]string, 0, len(t.canonical))
	for a := range t.canonical {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of legacy IDs.
func (t AliasTable) Len() int { return len(t.canonical) }
