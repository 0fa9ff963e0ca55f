package domain

import (
	"time"

	listing "bistroPulse/internal/modules/listing/domain"
	"bistroPulse/internal/shared/normalization"
)

// Owner is a restaurant owner account. Owners share the customer status values.
type Owner struct {
	ID           string         `json:"id" validate:"required"`
	Name         string         `json:"name" validate:"required,min=2,max=120"`
	Email        string         `json:"email" validate:"required,email"`
	Phone        string         `json:"phone" validate:"omitempty,min=6,max=20"`
	BusinessName string         `json:"businessName" validate:"max=160"`
	Location     string         `json:"location" validate:"max=160"`
	Avatar       string         `json:"avatar" validate:"omitempty,url"`
	Status       CustomerStatus `json:"status" validate:"required,oneof=Active Pending"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func NormalizeOwner(raw map[string]any) (Owner, bool) {
	id := recordID(raw)
	if id == "" {
		return Owner{}, false
	}
	return Owner{
		ID:           id,
		Name:         normalization.FirstString(raw, "name", "fullName", "ownerName"),
		Email:        normalization.AsString(raw["email"]),
		Phone:        normalization.FirstString(raw, "phone", "phoneNumber"),
		BusinessName: normalization.FirstString(raw, "businessName", "restaurantName"),
		Location:     normalization.FirstString(raw, "location", "address", "city"),
		Avatar:       normalization.FirstString(raw, "avatar", "image", "photo"),
		Status:       NormalizeCustomerStatus(raw),
		CreatedAt:    normalization.AsTime(raw["createdAt"]),
	}, true
}

func (o Owner) EntityID() string { return o.ID }

func (o Owner) SearchValues() []string {
	return []string{o.Name, o.Email, o.Phone, o.BusinessName}
}

func (o Owner) FieldValue(key string) (string, bool) {
	switch key {
	case "status":
		return fieldValue(string(o.Status))
	case "location":
		return fieldValue(o.Location)
	}
	return "", false
}

func (o Owner) ToggleStatus() listing.Entity {
	if o.Status == CustomerActive {
		o.Status = CustomerPending
	} else {
		o.Status = CustomerActive
	}
	return o
}

func (o Owner) Payload() map[string]any {
	return map[string]any{
		"name":         o.Name,
		"email":        o.Email,
		"phone":        o.Phone,
		"businessName": o.BusinessName,
		"location":     o.Location,
		"avatar":       o.Avatar,
		"status":       string(o.Status),
		"createdAt":    timestampPayload(o.CreatedAt),
	}
}
