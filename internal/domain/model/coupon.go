package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type CouponError error

var (
	ErrCouponPercentTooLarge = errors.New("coupon percentage exceeds 100")
	ErrCouponWindowInvalid   = errors.New("coupon validity end must be after start")
)

// Coupon 全域可重複使用的折價券
// 使用紀錄externalize到CouponUsage，不內嵌在券上無限增長
type Coupon struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Code          string          `gorm:"not null;type:varchar(50);uniqueIndex" json:"code"`
	DiscountType  DiscountType    `gorm:"not null;type:varchar(20)" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"discount_value"`
	// 合格小計低於此金額不可使用
	MinimumAmount   decimal.Decimal  `gorm:"not null;type:decimal(12,2);default:0" json:"minimum_amount"`
	MaximumDiscount *decimal.Decimal `gorm:"type:decimal(12,2)" json:"maximum_discount,omitempty"`
	ValidFrom       time.Time        `gorm:"not null" json:"valid_from"`
	ValidUntil      time.Time        `gorm:"not null" json:"valid_until"`
	UsageLimit      int              `gorm:"not null;default:0" json:"usage_limit"` // 0 = 不限
	UsedCount       int              `gorm:"not null;default:0" json:"used_count"`
	PerUserLimit    int              `gorm:"not null;default:0" json:"per_user_limit"` // 0 = 不限
	IsActive        bool             `gorm:"not null;default:true" json:"is_active"`

	// 商品/分類適用範圍，空=全部適用。排除永遠優先於包含
	IncludeProducts   []string `gorm:"serializer:json;type:text" json:"include_products,omitempty"`
	IncludeCategories []string `gorm:"serializer:json;type:text" json:"include_categories,omitempty"`
	ExcludeProducts   []string `gorm:"serializer:json;type:text" json:"exclude_products,omitempty"`
	ExcludeCategories []string `gorm:"serializer:json;type:text" json:"exclude_categories,omitempty"`
	BaseModel
}

// Validate 管理端建立時的欄位檢查
func (c *Coupon) Validate() error {
	if c.DiscountType == DiscountTypePercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return ErrCouponPercentTooLarge
	}
	if !c.ValidUntil.After(c.ValidFrom) {
		return ErrCouponWindowInvalid
	}
	return nil
}

// IsUsable 檢查券在指定時間點是否可用（不含per-user與金額門檻）
func (c *Coupon) IsUsable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// AppliesTo 檢查單一商品是否在券的適用範圍內
func (c *Coupon) AppliesTo(productID, categoryID string) bool {
	for _, p := range c.ExcludeProducts {
		if p == productID {
			return false
		}
	}
	for _, cat := range c.ExcludeCategories {
		if cat == categoryID {
			return false
		}
	}
	if len(c.IncludeProducts) == 0 && len(c.IncludeCategories) == 0 {
		return true
	}
	for _, p := range c.IncludeProducts {
		if p == productID {
			return true
		}
	}
	for _, cat := range c.IncludeCategories {
		if cat == categoryID {
			return true
		}
	}
	return false
}

// CouponUsage append-only使用紀錄，以(coupon_id, order_id)為冪等鍵
// 重送同一張訂單的使用紀錄不會重複計數
type CouponUsage struct {
	ID        string          `gorm:"primaryKey;type:varchar(50)" json:"id"`
	CouponID  uint            `gorm:"not null;index;uniqueIndex:idx_coupon_order" json:"coupon_id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	OrderID   uint            `gorm:"not null;uniqueIndex:idx_coupon_order" json:"order_id"`
	Discount  decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"discount"`
	CreatedAt time.Time       `gorm:"not null;default:now()" json:"created_at"`
}
