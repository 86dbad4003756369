package dto

type InitiatePaymentDTO struct {
	OrderID uint `json:"order_id"`
}
