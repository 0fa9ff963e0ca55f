package domain

import (
	"maps"
	"sort"
	"strings"
)

// Criteria maps filter keys to the selected value. An empty value means no constraint.
type Criteria map[string]string

// NewCriteria returns criteria with every key present and unconstrained.
func NewCriteria(keys ...string) Criteria {
	c := make(Criteria, len(keys))
	for _, key := range keys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			c[trimmed] = ""
		}
	}
	return c
}

// Clone returns an independent copy.
func (c Criteria) Clone() Criteria {
	if c == nil {
		return Criteria{}
	}
	return maps.Clone(c)
}

// With returns a copy with key set to the trimmed value.
func (c Criteria) With(key, value string) Criteria {
	out := c.Clone()
	out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	return out
}

// Cleared returns a copy with every key kept and every constraint removed.
func (c Criteria) Cleared() Criteria {
	out := make(Criteria, len(c))
	for key := range c {
		out[key] = ""
	}
	return out
}

// Active returns the keys carrying a constraint, sorted for deterministic evaluation.
func (c Criteria) Active() []string {
	keys := make([]string, 0, len(c))
	for key, value := range c {
		if strings.TrimSpace(key) != "" && value != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether both criteria constrain the same keys to the same values.
func (c Criteria) Equal(other Criteria) bool {
	a, b := c.Active(), other.Active()
	if len(a) != len(b) {
		return false
	}
	for i, key := range a {
		if key != b[i] || c[key] != other[key] {
			return false
		}
	}
	return true
}
