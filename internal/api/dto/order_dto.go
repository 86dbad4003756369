package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

type CreateOrderDTO struct {
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
}

type UpdateOrderStatusDTO struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type CancelOrderDTO struct {
	Reason string `json:"reason,omitempty"`
}
