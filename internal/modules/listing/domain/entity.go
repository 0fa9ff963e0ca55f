package domain

// Entity is one row of a list page. Implementations are immutable values:
// mutations produce new values instead of editing in place.
type Entity interface {
	// EntityID returns the backend object identifier.
	EntityID() string
	// SearchValues returns the fields free-text search matches against.
	// Empty strings are ignored.
	SearchValues() []string
	// FieldValue returns a filterable categorical attribute. ok is false when the
	// entity has no value for key.
	FieldValue(key string) (value string, ok bool)
}

// StatusToggler is an Entity with a two-state status (Active/Pending, Open/Closed, available or not).
type StatusToggler interface {
	Entity
	ToggleStatus() Entity
}

// IndexOf returns the position of the entity with the given id, or -1.
func IndexOf(entities []Entity, id string) int {
	for i, entity := range entities {
		if entity != nil && entity.EntityID() == id {
			return i
		}
	}
	return -1
}

// Find returns the entity with the given id.
func Find(entities []Entity, id string) (Entity, bool) {
	if i := IndexOf(entities, id); i >= 0 {
		return entities[i], true
	}
	return nil, false
}

// Without returns a copy of entities with the id removed. The input is not modified.
func Without(entities []Entity, id string) []Entity {
	out := make([]Entity, 0, len(entities))
	for _, entity := range entities {
		if entity != nil && entity.EntityID() == id {
			continue
		}
		out = append(out, entity)
	}
	return out
}

// Replace returns a copy of entities with the entity sharing replacement's id swapped out.
func Replace(entities []Entity, replacement Entity) []Entity {
	out := make([]Entity, len(entities))
	copy(out, entities)
	if i := IndexOf(out, replacement.EntityID()); i >= 0 {
		out[i] = replacement
	}
	return out
}
