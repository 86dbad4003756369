package dto

type InitStockDTO struct {
	ProductID string `json:"product_id"`
	OnHand    int    `json:"on_hand"`
}

type RestockDTO struct {
	Quantity int `json:"quantity"`
}
