package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the entities matching searchTerm and criteria.
//
// An entity passes when the term is exactly empty or a case-insensitive substring of at least one
// search value, and every active criterion equals the entity's field value exactly.
// Missing fields never match a constraint. With no term and no active criteria the input
// slice itself is returned.
func Filter(entities []Entity, searchTerm string, criteria Criteria) []Entity {
	active := criteria.Active()
	if searchTerm == "" && len(active) == 0 {
		return entities
	}

	folder := cases.Fold()
	needle := folder.String(searchTerm)

	out := make([]Entity, 0, len(entities))
	for _, entity := range entities {
		if entity == nil {
			continue
		}
		if needle != "" && !matchesSearch(folder, entity, needle) {
			continue
		}
		if !matchesCriteria(entity, criteria, active) {
			continue
		}
		out = append(out, entity)
	}
	return out
}

func matchesSearch(folder cases.Caser, entity Entity, needle string) bool {
	for _, value := range entity.SearchValues() {
		if value == "" {
			continue
		}
		if strings.Contains(folder.String(value), needle) {
			return true
		}
	}
	return false
}

func matchesCriteria(entity Entity, criteria Criteria, active []string) bool {
	for _, key := range active {
		value, ok := entity.FieldValue(key)
		if !ok || value != criteria[key] {
			return false
		}
	}
	return true
}
