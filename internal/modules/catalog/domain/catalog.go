package domain

import (
	"encoding/json"
	"maps"
	"strings"
	"time"

	listing "bistroPulse/internal/modules/listing/domain"
	"bistroPulse/internal/shared/normalization"
)

// Record is a catalog entity that can be written back to the REST API.
type Record interface {
	listing.Entity
	// Payload is the request body the REST API accepts for this record.
	Payload() map[string]any
}

// Descriptor tells the console how to list, decode and filter one entity.
type Descriptor struct {
	Entity string
	Label  string
	// FilterKeys are the criteria offered by the filter panel.
	FilterKeys []string
	// RequiredFields are the struct fields a decoded record must satisfy for a list to be accepted.
	RequiredFields []string
	// StatusField is the payload key sent to the status endpoint.
	StatusField string
	ReadOnly    bool
	Decode      func(raw map[string]any) (Record, bool)
}

// Patch overlays an edit on an existing record and decodes the result. Identifier keys in
// patch are ignored. Keys the record does not carry and values of the wrong JSON type are
// returned as field errors, with no record.
func (d Descriptor) Patch(existing Record, patch map[string]any) (Record, map[string]string, bool) {
	payload := maps.Clone(existing.Payload())
	var fields map[string]string
	for key, value := range patch {
		switch key {
		case "_id", "id":
			continue
		}
		current, known := payload[key]
		problem := "is not an editable field"
		if known {
			problem = patchMismatch(current, value)
		}
		if problem != "" {
			if fields == nil {
				fields = make(map[string]string)
			}
			fields[key] = problem
			continue
		}
		payload[key] = value
	}
	if len(fields) > 0 {
		return nil, fields, false
	}
	payload["_id"] = existing.EntityID()
	record, ok := d.Decode(payload)
	return record, nil, ok
}

// patchMismatch compares an edited value with the JSON type of the field it replaces.
// Text fields, timestamps included, also accept null.
func patchMismatch(current, value any) string {
	switch current.(type) {
	case float64, float32, int, int64:
		switch value.(type) {
		case float64, float32, int, int64, json.Number:
			return ""
		}
		return "must be a number"
	case bool:
		if _, ok := value.(bool); ok {
			return ""
		}
		return "must be true or false"
	default:
		switch value.(type) {
		case string, nil:
			return ""
		}
		return "must be text"
	}
}

var descriptors = []Descriptor{
	{
		Entity:         "customers",
		StatusField:    "status",
		Label:          "customer",
		FilterKeys:     []string{"status"},
		RequiredFields: []string{"ID", "Status"},
		Decode:         decodeAs(NormalizeCustomer),
	},
	{
		Entity:         "restaurants",
		StatusField:    "status",
		Label:          "restaurant",
		FilterKeys:     []string{"location", "category", "status"},
		RequiredFields: []string{"ID", "Name", "Status"},
		Decode:         decodeAs(NormalizeRestaurant),
	},
	{
		Entity:         "menu-items",
		StatusField:    "isAvailable",
		Label:          "menu item",
		FilterKeys:     []string{"category", "restaurantId", "availability"},
		RequiredFields: []string{"ID", "Name", "Price"},
		Decode:         decodeAs(NormalizeMenuItem),
	},
	{
		Entity:         "owners",
		StatusField:    "status",
		Label:          "owner",
		FilterKeys:     []string{"location", "status"},
		RequiredFields: []string{"ID", "Status"},
		Decode:         decodeAs(NormalizeOwner),
	},
	{
		Entity:         "orders",
		StatusField:    "status",
		Label:          "order",
		FilterKeys:     []string{"status", "restaurantId"},
		RequiredFields: []string{"ID", "Status"},
		ReadOnly:       true,
		Decode:         decodeAs(NormalizeOrder),
	},
}

func decodeAs[T Record](normalize func(map[string]any) (T, bool)) func(map[string]any) (Record, bool) {
	return func(raw map[string]any) (Record, bool) {
		record, ok := normalize(raw)
		if !ok {
			return nil, false
		}
		return record, true
	}
}

// Lookup resolves an entity name or alias.
func Lookup(entity string) (Descriptor, bool) {
	canonical := normalization.NormalizeEntity(entity)
	for _, d := range descriptors {
		if d.Entity == canonical {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Descriptors returns every catalog entity.
func Descriptors() []Descriptor {
	return append([]Descriptor(nil), descriptors...)
}

func recordID(raw map[string]any) string {
	return normalization.FirstString(raw, "_id", "id")
}

// normalizeEnum matches value against allowed ignoring case, spaces, dashes and underscores.
func normalizeEnum(value any, allowed ...string) string {
	key := enumKey(normalization.AsString(value))
	if key == "" {
		return ""
	}
	for _, candidate := range allowed {
		if enumKey(candidate) == key {
			return candidate
		}
	}
	return ""
}

func enumKey(s string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
}

func timestampPayload(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func fieldValue(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	return value, true
}
