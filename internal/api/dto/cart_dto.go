package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type AddCartItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemDTO struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponDTO struct {
	Code string `json:"code"`
}

type CartItemDTO struct {
	ProductID           string          `json:"product_id"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	UnitDiscountPercent decimal.Decimal `json:"unit_discount_percent"`
}

type CartDTO struct {
	UserID uint                 `json:"user_id"`
	Items  []CartItemDTO        `json:"items"`
	Coupon *model.AppliedCoupon `json:"coupon,omitempty"`
}

func ConvertCartToDTO(cart *model.Cart) CartDTO {
	result := CartDTO{
		UserID: cart.UserID,
		Items:  make([]CartItemDTO, 0, len(cart.Items)),
		Coupon: cart.Coupon,
	}
	for _, item := range cart.Items {
		result.Items = append(result.Items, CartItemDTO{
			ProductID:           item.ProductID,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			UnitDiscountPercent: item.UnitDiscountPercent,
		})
	}
	return result
}

type PricedLineDTO struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	FinalPrice   decimal.Decimal `json:"final_price"`
	ItemTotal    decimal.Decimal `json:"item_total"`
	ItemDiscount decimal.Decimal `json:"item_discount"`
}

type CartPricingDTO struct {
	Lines           []PricedLineDTO `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ProductDiscount decimal.Decimal `json:"product_discount"`
	CouponDiscount  decimal.Decimal `json:"coupon_discount"`
	Total           decimal.Decimal `json:"total"`
}

func ConvertPricingToDTO(pricing *service.CartPricing) CartPricingDTO {
	result := CartPricingDTO{
		Lines:           make([]PricedLineDTO, 0, len(pricing.Lines)),
		Subtotal:        pricing.Subtotal,
		ProductDiscount: pricing.ProductDiscount,
		CouponDiscount:  pricing.CouponDiscount,
		Total:           pricing.Total,
	}
	for _, line := range pricing.Lines {
		result.Lines = append(result.Lines, PricedLineDTO{
			ProductID:    line.ProductID,
			Name:         line.Name,
			Quantity:     line.Quantity,
			UnitPrice:    line.Price,
			FinalPrice:   line.FinalPrice,
			ItemTotal:    line.ItemTotal,
			ItemDiscount: line.ItemDiscount,
		})
	}
	return result
}
