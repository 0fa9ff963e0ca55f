package domain

import (
	"time"

	"bistroPulse/internal/shared/normalization"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderPreparing OrderStatus = "Preparing"
	OrderOnTheWay  OrderStatus = "OnTheWay"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

var orderStatuses = []string{
	string(OrderPending),
	string(OrderPreparing),
	string(OrderOnTheWay),
	string(OrderDelivered),
	string(OrderCancelled),
}

// NormalizeOrderStatus maps "on the way", "ON_THE_WAY" and friends onto OrderStatus.
// "Canceled" is accepted as well.
func NormalizeOrderStatus(value any) OrderStatus {
	if status := normalizeEnum(value, orderStatuses...); status != "" {
		return OrderStatus(status)
	}
	if enumKey(normalization.AsString(value)) == "canceled" {
		return OrderCancelled
	}
	return ""
}

// Order is a placed food order. The order tracking list is read only.
type Order struct {
	ID             string      `json:"id" validate:"required"`
	CustomerName   string      `json:"customerName"`
	RestaurantID   string      `json:"restaurantId"`
	RestaurantName string      `json:"restaurantName"`
	Status         OrderStatus `json:"status" validate:"required,oneof=Pending Preparing OnTheWay Delivered Cancelled"`
	Total          float64     `json:"total" validate:"gte=0"`
	PlacedAt       time.Time   `json:"placedAt"`
}

func NormalizeOrder(raw map[string]any) (Order, bool) {
	id := recordID(raw)
	if id == "" {
		return Order{}, false
	}
	order := Order{
		ID:             id,
		CustomerName:   normalization.AsString(raw["customerName"]),
		RestaurantID:   normalization.AsRef(raw["restaurantId"]),
		RestaurantName: normalization.AsString(raw["restaurantName"]),
		Status:         NormalizeOrderStatus(raw["status"]),
		Total:          normalization.AsFloat64(raw["total"]),
		PlacedAt:       normalization.AsTime(raw["createdAt"]),
	}
	if total := normalization.AsFloat64(raw["totalPrice"]); order.Total == 0 && total > 0 {
		order.Total = total
	}
	if customer, ok := raw["customer"].(map[string]any); ok && order.CustomerName == "" {
		order.CustomerName = normalization.FirstString(customer, "name", "fullName")
	}
	if restaurant, ok := raw["restaurant"].(map[string]any); ok {
		if order.RestaurantID == "" {
			order.RestaurantID = normalization.AsRef(restaurant)
		}
		if order.RestaurantName == "" {
			order.RestaurantName = normalization.AsString(restaurant["name"])
		}
	}
	return order, true
}

func (o Order) EntityID() string { return o.ID }

func (o Order) SearchValues() []string {
	return []string{o.ID, o.CustomerName, o.RestaurantName}
}

func (o Order) FieldValue(key string) (string, bool) {
	switch key {
	case "status":
		return fieldValue(string(o.Status))
	case "restaurantId":
		return fieldValue(o.RestaurantID)
	}
	return "", false
}

func (o Order) Payload() map[string]any {
	return map[string]any{
		"status": string(o.Status),
	}
}
