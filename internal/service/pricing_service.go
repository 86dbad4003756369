package service

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

var percentBase = decimal.NewFromInt(100)

// PricedLine 單列商品的計價結果
type PricedLine struct {
	ProductID       string
	Name            string
	CategoryID      string
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
	Quantity        int
	ItemTotal       decimal.Decimal // price × qty
	ItemDiscount    decimal.Decimal // price × (percent/100) × qty
	FinalPrice      decimal.Decimal // 單價扣除商品折扣後
}

// CartPricing 整車計價結果
// 不變量: Total = Subtotal - ProductDiscount - CouponDiscount，下限0
type CartPricing struct {
	Lines           []PricedLine
	Subtotal        decimal.Decimal
	ProductDiscount decimal.Decimal
	CouponDiscount  decimal.Decimal
	Total           decimal.Decimal
}

// PricingLine 計價輸入，價格一律來自型錄現值，不信任client
type PricingLine struct {
	ProductID       string
	Name            string
	CategoryID      string
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
	Quantity        int
}

// PriceLines 純函數計價器
// 購物車預覽與訂單成立走同一條路，輸入相同結果必須完全一致
func PriceLines(lines []PricingLine) CartPricing {
	result := CartPricing{
		Subtotal:        decimal.Zero,
		ProductDiscount: decimal.Zero,
		CouponDiscount:  decimal.Zero,
	}

	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		itemTotal := line.Price.Mul(qty).Round(2)
		itemDiscount := line.Price.Mul(line.DiscountPercent).Div(percentBase).Mul(qty).Round(2)
		finalPrice := line.Price.Sub(line.Price.Mul(line.DiscountPercent).Div(percentBase)).Round(2)

		result.Lines = append(result.Lines, PricedLine{
			ProductID:       line.ProductID,
			Name:            line.Name,
			CategoryID:      line.CategoryID,
			Price:           line.Price,
			DiscountPercent: line.DiscountPercent,
			Quantity:        line.Quantity,
			ItemTotal:       itemTotal,
			ItemDiscount:    itemDiscount,
			FinalPrice:      finalPrice,
		})

		result.Subtotal = result.Subtotal.Add(itemTotal)
		result.ProductDiscount = result.ProductDiscount.Add(itemDiscount)
	}

	result.Total = result.Subtotal.Sub(result.ProductDiscount)
	if result.Total.IsNegative() {
		result.Total = decimal.Zero
	}
	return result
}

// ApplyCouponAdjustment 在計價結果上疊加折價券（展示用，結帳時另走resolver完整驗證）
// percentage作用在商品折扣後的基底；fixed以剩餘應付金額為上限
func ApplyCouponAdjustment(pricing CartPricing, couponType model.DiscountType, value decimal.Decimal) CartPricing {
	payable := pricing.Subtotal.Sub(pricing.ProductDiscount)
	if payable.IsNegative() {
		payable = decimal.Zero
	}

	var discount decimal.Decimal
	switch couponType {
	case model.DiscountTypePercentage:
		discount = payable.Mul(value).Div(percentBase).Round(2)
	case model.DiscountTypeFixed:
		discount = decimal.Min(value, payable)
	default:
		discount = decimal.Zero
	}

	pricing.CouponDiscount = discount
	pricing.Total = payable.Sub(discount)
	if pricing.Total.IsNegative() {
		pricing.Total = decimal.Zero
	}
	return pricing
}
