package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartTTL 購物車閒置超過此時間後由redis過期清除
const CartTTL = 30 * 24 * time.Hour

// Cart 購物車，一個用戶一台車
// 只存在redis，成功建立訂單後清空
type Cart struct {
	UserID uint       `json:"user_id"`
	Items  []CartItem `json:"items"`
	// 套用中的折價券快照，結帳時仍會重新驗證
	Coupon *AppliedCoupon `json:"coupon,omitempty"`
}

// CartItem 購物車內的一列商品，unit price為加入當下的快照
// 結帳時會以型錄現價重新計價
type CartItem struct {
	ProductID           string          `json:"product_id"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	UnitDiscountPercent decimal.Decimal `json:"unit_discount_percent"`
	AddedAt             time.Time       `json:"added_at"`
}

type AppliedCoupon struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// FindItem 回傳指定商品的item index，不存在回傳-1
func (c *Cart) FindItem(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
