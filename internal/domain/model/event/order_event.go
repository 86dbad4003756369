package event

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	OrderCreatedEventName       EventType = "order.created"
	OrderStatusChangedEventName EventType = "order.status_changed"
	PaymentCompletedEventName   EventType = "payment.completed"
)

type Event interface {
	Type() EventType
}

type BaseEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type OrderCreatedEvent struct {
	BaseEvent
	OrderID     uint            `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uint            `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func (e *OrderCreatedEvent) Type() EventType {
	return OrderCreatedEventName
}

type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      uint   `json:"user_id"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
	Note        string `json:"note,omitempty"`
}

func (e *OrderStatusChangedEvent) Type() EventType {
	return OrderStatusChangedEventName
}

type PaymentCompletedEvent struct {
	BaseEvent
	OrderID       uint            `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uint            `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
}

func (e *PaymentCompletedEvent) Type() EventType {
	return PaymentCompletedEventName
}
