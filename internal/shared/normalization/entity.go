package normalization

import "strings"

// entityAliases maps the spellings used by routes and kafka events to canonical console entities.
var entityAliases = map[string]string{
	"customer":  "customers",
	"customers": "customers",
	"client":    "customers",
	"clients":   "customers",

	"restaurant":  "restaurants",
	"restaurants": "restaurants",

	"menu":       "menu-items",
	"menus":      "menu-items",
	"menu-item":  "menu-items",
	"menu-items": "menu-items",
	"menuitem":   "menu-items",
	"menuitems":  "menu-items",
	"food":       "menu-items",
	"foods":      "menu-items",
	"food-menu":  "menu-items",

	"owner":            "owners",
	"owners":           "owners",
	"restaurant-owner": "owners",

	"order":  "orders",
	"orders": "orders",
}

var validEntities = []string{"customers", "restaurants", "menu-items", "owners", "orders"}

// NormalizeEntity converts various entity name formats to their canonical form.
//
// Example:
//
//	NormalizeEntity("Menu_Item") => "menu-items"
//	NormalizeEntity("restaurant") => "restaurants"
func NormalizeEntity(raw string) string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-")
	if canonical, found := entityAliases[normalized]; found {
		return canonical
	}
	return normalized
}

// IsValidEntity reports whether raw names one of the console list entities.
func IsValidEntity(raw string) bool {
	normalized := NormalizeEntity(raw)
	for _, entity := range validEntities {
		if entity == normalized {
			return true
		}
	}
	return false
}

// ValidEntities returns the canonical console entity names.
func ValidEntities() []string {
	return append([]string(nil), validEntities...)
}
