package domain

import (
	"time"

	listing "bistroPulse/internal/modules/listing/domain"
	"bistroPulse/internal/shared/normalization"
)

type CustomerStatus string

const (
	CustomerActive  CustomerStatus = "Active"
	CustomerPending CustomerStatus = "Pending"
)

// NormalizeCustomerStatus accepts the status spellings and the legacy isActive flag.
func NormalizeCustomerStatus(raw map[string]any) CustomerStatus {
	if status := normalizeEnum(raw["status"], string(CustomerActive), string(CustomerPending)); status != "" {
		return CustomerStatus(status)
	}
	if active, ok := normalization.AsBool(raw["isActive"]); ok {
		if active {
			return CustomerActive
		}
		return CustomerPending
	}
	return ""
}

// Customer is a registered platform user.
type Customer struct {
	ID        string         `json:"id" validate:"required"`
	Name      string         `json:"name" validate:"required,min=2,max=120"`
	Email     string         `json:"email" validate:"required,email"`
	Phone     string         `json:"phone" validate:"omitempty,min=6,max=20"`
	Address   string         `json:"address" validate:"max=240"`
	Avatar    string         `json:"avatar" validate:"omitempty,url"`
	Status    CustomerStatus `json:"status" validate:"required,oneof=Active Pending"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NormalizeCustomer constructs a Customer from a loosely typed REST record.
func NormalizeCustomer(raw map[string]any) (Customer, bool) {
	id := recordID(raw)
	if id == "" {
		return Customer{}, false
	}
	return Customer{
		ID:        id,
		Name:      normalization.FirstString(raw, "name", "fullName", "username"),
		Email:     normalization.AsString(raw["email"]),
		Phone:     normalization.FirstString(raw, "phone", "phoneNumber"),
		Address:   normalization.FirstString(raw, "address", "location"),
		Avatar:    normalization.FirstString(raw, "avatar", "image", "photo"),
		Status:    NormalizeCustomerStatus(raw),
		CreatedAt: normalization.AsTime(raw["createdAt"]),
	}, true
}

func (c Customer) EntityID() string { return c.ID }

func (c Customer) SearchValues() []string { return []string{c.Name, c.Email, c.Phone} }

func (c Customer) FieldValue(key string) (string, bool) {
	switch key {
	case "status":
		return fieldValue(string(c.Status))
	case "address", "location":
		return fieldValue(c.Address)
	}
	return "", false
}

func (c Customer) ToggleStatus() listing.Entity {
	if c.Status == CustomerActive {
		c.Status = CustomerPending
	} else {
		c.Status = CustomerActive
	}
	return c
}

func (c Customer) Payload() map[string]any {
	return map[string]any{
		"name":      c.Name,
		"email":     c.Email,
		"phone":     c.Phone,
		"address":   c.Address,
		"avatar":    c.Avatar,
		"status":    string(c.Status),
		"createdAt": timestampPayload(c.CreatedAt),
	}
}
