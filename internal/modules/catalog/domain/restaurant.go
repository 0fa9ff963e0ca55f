package domain

import (
	"time"

	listing "bistroPulse/internal/modules/listing/domain"
	"bistroPulse/internal/shared/normalization"
)

type RestaurantStatus string

const (
	RestaurantOpen   RestaurantStatus = "Open"
	RestaurantClosed RestaurantStatus = "Closed"
)

// NormalizeRestaurantStatus accepts Open/Closed in any case and the boolean isOpen flag.
func NormalizeRestaurantStatus(raw map[string]any) RestaurantStatus {
	if status := normalizeEnum(raw["status"], string(RestaurantOpen), string(RestaurantClosed)); status != "" {
		return RestaurantStatus(status)
	}
	if open, ok := normalization.AsBool(raw["isOpen"]); ok {
		if open {
			return RestaurantOpen
		}
		return RestaurantClosed
	}
	return ""
}

type Restaurant struct {
	ID           string           `json:"id" validate:"required"`
	Name         string           `json:"name" validate:"required,min=2,max=160"`
	BusinessName string           `json:"businessName" validate:"max=160"`
	OwnerID      string           `json:"ownerId"`
	OwnerName    string           `json:"ownerName"`
	Email        string           `json:"email" validate:"omitempty,email"`
	Phone        string           `json:"phone" validate:"omitempty,min=6,max=20"`
	Location     string           `json:"location" validate:"max=160"`
	Category     string           `json:"category" validate:"max=80"`
	Image        string           `json:"image" validate:"omitempty,url"`
	Rating       float64          `json:"rating" validate:"gte=0,lte=5"`
	Status       RestaurantStatus `json:"status" validate:"required,oneof=Open Closed"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func NormalizeRestaurant(raw map[string]any) (Restaurant, bool) {
	id := recordID(raw)
	if id == "" {
		return Restaurant{}, false
	}
	restaurant := Restaurant{
		ID:           id,
		Name:         normalization.FirstString(raw, "name", "restaurantName"),
		BusinessName: normalization.AsString(raw["businessName"]),
		OwnerID:      normalization.AsRef(raw["ownerId"]),
		OwnerName:    normalization.AsString(raw["ownerName"]),
		Email:        normalization.AsString(raw["email"]),
		Phone:        normalization.FirstString(raw, "phone", "phoneNumber"),
		Location:     normalization.FirstString(raw, "location", "address", "city"),
		Category:     normalization.FirstString(raw, "category", "cuisine"),
		Image:        normalization.FirstString(raw, "image", "logo"),
		Rating:       normalization.AsFloat64(raw["rating"]),
		Status:       NormalizeRestaurantStatus(raw),
		CreatedAt:    normalization.AsTime(raw["createdAt"]),
	}
	// Owner may arrive populated instead of as ownerId.
	if owner, ok := raw["owner"].(map[string]any); ok {
		if restaurant.OwnerID == "" {
			restaurant.OwnerID = normalization.AsRef(owner)
		}
		if restaurant.OwnerName == "" {
			restaurant.OwnerName = normalization.FirstString(owner, "name", "fullName")
		}
	}
	return restaurant, true
}

func (r Restaurant) EntityID() string { return r.ID }

func (r Restaurant) SearchValues() []string {
	return []string{r.Name, r.BusinessName, r.OwnerName, r.Email, r.Phone}
}

func (r Restaurant) FieldValue(key string) (string, bool) {
	switch key {
	case "status":
		return fieldValue(string(r.Status))
	case "location":
		return fieldValue(r.Location)
	case "category":
		return fieldValue(r.Category)
	case "ownerId":
		return fieldValue(r.OwnerID)
	}
	return "", false
}

func (r Restaurant) ToggleStatus() listing.Entity {
	if r.Status == RestaurantOpen {
		r.Status = RestaurantClosed
	} else {
		r.Status = RestaurantOpen
	}
	return r
}

func (r Restaurant) Payload() map[string]any {
	return map[string]any{
		"name":         r.Name,
		"businessName": r.BusinessName,
		"ownerId":      r.OwnerID,
		"ownerName":    r.OwnerName,
		"email":        r.Email,
		"phone":        r.Phone,
		"location":     r.Location,
		"category":     r.Category,
		"image":        r.Image,
		"rating":       r.Rating,
		"status":       string(r.Status),
		"createdAt":    timestampPayload(r.CreatedAt),
	}
}
