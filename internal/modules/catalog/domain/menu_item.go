package domain

import (
	"time"

	listing "bistroPulse/internal/modules/listing/domain"
	"bistroPulse/internal/shared/normalization"
)

const (
	Available   = "Available"
	Unavailable = "Unavailable"
)

// MenuItem is a dish offered by a restaurant.
type MenuItem struct {
	ID             string    `json:"id" validate:"required"`
	RestaurantID   string    `json:"restaurantId" validate:"required"`
	RestaurantName string    `json:"restaurantName"`
	Name           string    `json:"name" validate:"required,min=2,max=120"`
	Category       string    `json:"category" validate:"max=80"`
	Description    string    `json:"description" validate:"max=1000"`
	Price          float64   `json:"price" validate:"gte=0"`
	Image          string    `json:"image" validate:"omitempty,url"`
	IsAvailable    bool      `json:"isAvailable"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NormalizeMenuItem(raw map[string]any) (MenuItem, bool) {
	id := recordID(raw)
	if id == "" {
		return MenuItem{}, false
	}
	item := MenuItem{
		ID:           id,
		RestaurantID: normalization.AsRef(raw["restaurantId"]),
		Name:         normalization.FirstString(raw, "name", "foodName", "title"),
		Category:     normalization.AsString(raw["category"]),
		Description:  normalization.AsString(raw["description"]),
		Price:        normalization.AsFloat64(raw["price"]),
		Image:        normalization.FirstString(raw, "image", "imageUrl"),
		IsAvailable:  true,
		CreatedAt:    normalization.AsTime(raw["createdAt"]),
	}
	if restaurant, ok := raw["restaurant"].(map[string]any); ok {
		if item.RestaurantID == "" {
			item.RestaurantID = normalization.AsRef(restaurant)
		}
		item.RestaurantName = normalization.AsString(restaurant["name"])
	}
	if name := normalization.AsString(raw["restaurantName"]); name != "" {
		item.RestaurantName = name
	}
	if available, ok := normalization.AsBool(raw["isAvailable"]); ok {
		item.IsAvailable = available
	} else if availability := normalizeEnum(raw["availability"], Available, Unavailable); availability != "" {
		item.IsAvailable = availability == Available
	}
	return item, true
}

func (m MenuItem) EntityID() string { return m.ID }

func (m MenuItem) SearchValues() []string {
	return []string{m.Name, m.Category, m.RestaurantName}
}

// Availability is the filter value of IsAvailable.
func (m MenuItem) Availability() string {
	if m.IsAvailable {
		return Available
	}
	return Unavailable
}

func (m MenuItem) FieldValue(key string) (string, bool) {
	switch key {
	case "availability", "status":
		return m.Availability(), true
	case "category":
		return fieldValue(m.Category)
	case "restaurantId":
		return fieldValue(m.RestaurantID)
	}
	return "", false
}

func (m MenuItem) ToggleStatus() listing.Entity {
	m.IsAvailable = !m.IsAvailable
	return m
}

func (m MenuItem) Payload() map[string]any {
	return map[string]any{
		"restaurantId":   m.RestaurantID,
		"restaurantName": m.RestaurantName,
		"name":           m.Name,
		"category":       m.Category,
		"description":    m.Description,
		"price":          m.Price,
		"image":          m.Image,
		"isAvailable":    m.IsAvailable,
		"createdAt":      timestampPayload(m.CreatedAt),
	}
}
