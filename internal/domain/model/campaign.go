package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusEnded     CampaignStatus = "ended"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

type CampaignRuleType string

const (
	CampaignRulePercentage CampaignRuleType = "percentage"
	CampaignRuleFixed      CampaignRuleType = "fixed"
	CampaignRuleTiered     CampaignRuleType = "tiered"
	CampaignRuleBuyXGetY   CampaignRuleType = "buy_x_get_y"
	CampaignRuleBundle     CampaignRuleType = "bundle"
)

type CampaignAudience string

const (
	AudienceAll    CampaignAudience = "all"
	AudienceCohort CampaignAudience = "cohort" // 搭配TargetCohorts
	AudienceListed CampaignAudience = "listed" // 搭配TargetUserIDs
)

type CampaignError error

var (
	ErrCampaignWindowInvalid     CampaignError = errors.New("campaign end date must be after start date")
	ErrCampaignIllegalTransition CampaignError = errors.New("illegal campaign status transition")
)

// 活動狀態轉移表
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignStatusDraft:     {CampaignStatusScheduled, CampaignStatusCancelled},
	CampaignStatusScheduled: {CampaignStatusActive, CampaignStatusCancelled},
	CampaignStatusActive:    {CampaignStatusPaused, CampaignStatusEnded, CampaignStatusCancelled},
	CampaignStatusPaused:    {CampaignStatusActive, CampaignStatusEnded, CampaignStatusCancelled},
}

// CampaignTier 階梯式折扣級距，金額達到MinAmount套用該級
type CampaignTier struct {
	MinAmount     decimal.Decimal `json:"min_amount"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// Campaign 限時促銷活動
// IsActive是衍生屬性，一律用Status+時間窗即時推導，不落庫快取
type Campaign struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Name          string           `gorm:"not null;type:varchar(100)" json:"name"`
	Status        CampaignStatus   `gorm:"not null;type:varchar(20);default:'draft'" json:"status"`
	RuleType      CampaignRuleType `gorm:"not null;type:varchar(20)" json:"rule_type"`
	DiscountValue decimal.Decimal  `gorm:"not null;type:decimal(12,2);default:0" json:"discount_value"`
	Tiers         []CampaignTier   `gorm:"serializer:json;type:text" json:"tiers,omitempty"`

	// buy_x_get_y: 買BuyQuantity個BuyProductID送GetQuantity個GetProductID
	BuyProductID string `gorm:"type:varchar(50)" json:"buy_product_id,omitempty"`
	BuyQuantity  int    `gorm:"not null;default:0" json:"buy_quantity,omitempty"`
	GetProductID string `gorm:"type:varchar(50)" json:"get_product_id,omitempty"`
	GetQuantity  int    `gorm:"not null;default:0" json:"get_quantity,omitempty"`

	// bundle: 購物車同時包含全部BundleProducts時折DiscountValue
	BundleProducts []string `gorm:"serializer:json;type:text" json:"bundle_products,omitempty"`

	Audience      CampaignAudience `gorm:"not null;type:varchar(20);default:'all'" json:"audience"`
	TargetCohorts []string         `gorm:"serializer:json;type:text" json:"target_cohorts,omitempty"`
	TargetUserIDs []uint           `gorm:"serializer:json;type:text" json:"target_user_ids,omitempty"`
	// 消費門檻，0 = 不限
	MinLifetimeSpend decimal.Decimal `gorm:"not null;type:decimal(12,2);default:0" json:"min_lifetime_spend"`
	MinOrderCount    int             `gorm:"not null;default:0" json:"min_order_count"`

	// 商品/分類適用範圍，空=全部
	IncludeProducts   []string `gorm:"serializer:json;type:text" json:"include_products,omitempty"`
	IncludeCategories []string `gorm:"serializer:json;type:text" json:"include_categories,omitempty"`

	Priority     int  `gorm:"not null;default:0" json:"priority"`
	IsStackable  bool `gorm:"not null;default:false" json:"is_stackable"`
	UsageLimit   int  `gorm:"not null;default:0" json:"usage_limit"`    // 0 = 不限
	UsedCount    int  `gorm:"not null;default:0" json:"used_count"`
	PerUserLimit int  `gorm:"not null;default:0" json:"per_user_limit"` // 0 = 不限

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	BaseModel
}

// Validate 管理端建立時的欄位檢查
func (c *Campaign) Validate() error {
	if !c.EndDate.After(c.StartDate) {
		return ErrCampaignWindowInvalid
	}
	if c.RuleType == CampaignRulePercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return ErrCouponPercentTooLarge
	}
	return nil
}

// CanTransitionTo 檢查活動狀態轉移是否合法
func (c *Campaign) CanTransitionTo(to CampaignStatus) bool {
	for _, next := range campaignTransitions[c.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// IsRunning 衍生屬性：status為active且目前時間落在活動期間內
// 每次讀取重新推導，避免快取過期的啟用狀態
func (c *Campaign) IsRunning(now time.Time) bool {
	return c.Status == CampaignStatusActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// RemainingTime 衍生屬性：距離活動結束的剩餘時間
func (c *Campaign) RemainingTime(now time.Time) time.Duration {
	if !c.IsRunning(now) {
		return 0
	}
	return c.EndDate.Sub(now)
}

// AppliesTo 檢查單一商品是否在活動適用範圍內
func (c *Campaign) AppliesTo(productID, categoryID string) bool {
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

// CampaignUsage append-only使用紀錄，以(campaign_id, order_id)為冪等鍵
type CampaignUsage struct {
	ID         string          `gorm:"primaryKey;type:varchar(50)" json:"id"`
	CampaignID uint            `gorm:"not null;index;uniqueIndex:idx_campaign_order" json:"campaign_id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	OrderID    uint            `gorm:"not null;uniqueIndex:idx_campaign_order" json:"order_id"`
	Discount   decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"discount"`
	CreatedAt  time.Time       `gorm:"not null;default:now()" json:"created_at"`
}
