package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/shopspring/decimal"
)

type DiscountError error

var (
	ErrCouponInvalid       DiscountError = errors.New("coupon invalid")
	ErrCouponBelowMinimum  DiscountError = errors.New("cart subtotal below coupon minimum")
	ErrCampaignNotEligible DiscountError = errors.New("campaign not eligible for user")
)

// AppliedCampaign 單一活動的套用結果
type AppliedCampaign struct {
	CampaignID uint            `json:"campaign_id"`
	Name       string          `json:"name"`
	Priority   int             `json:"priority"`
	Stackable  bool            `json:"stackable"`
	Discount   decimal.Decimal `json:"discount"`
}

// DiscountResolution 結帳時的最終折扣組合
// 券折扣先算，活動折扣作用在扣券後的剩餘應付金額上
// 這個順序是既定的商業policy，改動會直接改變客戶看到的價格
type DiscountResolution struct {
	CouponID       uint
	CouponCode     string
	CouponDiscount decimal.Decimal
	Campaigns      []AppliedCampaign
	CampaignTotal  decimal.Decimal
	TotalDiscount  decimal.Decimal
}

type IDiscountService interface {
	// ResolveCoupon 驗證券並計算折扣，供結帳與購物車套用共用
	ResolveCoupon(ctx context.Context, userID uint, code string, pricing CartPricing, now time.Time) (*model.Coupon, decimal.Decimal, error)

	// Resolve 結帳時的完整折扣解析: 券 + 活動堆疊
	Resolve(ctx context.Context, userID uint, pricing CartPricing, couponCode string, now time.Time) (*DiscountResolution, error)
}

type DiscountService struct {
	couponRepo   db.ICouponRepository
	campaignRepo db.ICampaignRepository
	orderRepo    db.IOrderRepository
}

func NewDiscountService(couponRepo db.ICouponRepository, campaignRepo db.ICampaignRepository, orderRepo db.IOrderRepository) *DiscountService {
	return &DiscountService{
		couponRepo:   couponRepo,
		campaignRepo: campaignRepo,
		orderRepo:    orderRepo,
	}
}

// ResolveCoupon 驗證券資格並計算折扣金額
// 合格小計 = 通過範圍過濾的各列扣除商品折扣後的金額合計，排除永遠優先於包含
func (d *DiscountService) ResolveCoupon(ctx context.Context, userID uint, code string, pricing CartPricing, now time.Time) (*model.Coupon, decimal.Decimal, error) {
	coupon, err := d.couponRepo.GetCouponByCode(ctx, code)
	if errors.Is(err, db.ErrCouponNotFound) {
		return nil, decimal.Zero, fmt.Errorf("%w: %s not found", ErrCouponInvalid, code)
	}
	if err != nil {
		return nil, decimal.Zero, err
	}

	if !coupon.IsUsable(now) {
		return nil, decimal.Zero, fmt.Errorf("%w: %s is not usable", ErrCouponInvalid, code)
	}

	if coupon.PerUserLimit > 0 {
		used, err := d.orderRepo.CountCouponUsageByUser(ctx, coupon.ID, userID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if used >= int64(coupon.PerUserLimit) {
			return nil, decimal.Zero, fmt.Errorf("%w: %s per-user limit reached", ErrCouponInvalid, code)
		}
	}

	eligible := eligibleSubtotal(pricing.Lines, coupon.AppliesTo)
	if eligible.LessThan(coupon.MinimumAmount) {
		return nil, decimal.Zero, fmt.Errorf("%w: %s requires minimum %s, eligible subtotal is %s",
			ErrCouponBelowMinimum, code, coupon.MinimumAmount, eligible)
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case model.DiscountTypePercentage:
		discount = eligible.Mul(coupon.DiscountValue).Div(percentBase).Round(2)
	case model.DiscountTypeFixed:
		discount = coupon.DiscountValue
	default:
		return nil, decimal.Zero, fmt.Errorf("%w: %s has unknown discount type", ErrCouponInvalid, code)
	}

	if coupon.MaximumDiscount != nil {
		discount = decimal.Min(discount, *coupon.MaximumDiscount)
	}
	discount = decimal.Min(discount, eligible)

	return coupon, discount, nil
}

// Resolve 結帳折扣解析
// 1. 券折扣（可選）
// 2. 過濾執行中活動的受眾資格與使用上限
// 3. priority遞減堆疊: stackable累加、遇到第一個折出非零金額的exclusive即停止
func (d *DiscountService) Resolve(ctx context.Context, userID uint, pricing CartPricing, couponCode string, now time.Time) (*DiscountResolution, error) {
	resolution := &DiscountResolution{
		CouponDiscount: decimal.Zero,
		CampaignTotal:  decimal.Zero,
	}

	payable := pricing.Subtotal.Sub(pricing.ProductDiscount)
	if payable.IsNegative() {
		payable = decimal.Zero
	}

	if couponCode != "" {
		coupon, discount, err := d.ResolveCoupon(ctx, userID, couponCode, pricing, now)
		if err != nil {
			return nil, err
		}
		resolution.CouponID = coupon.ID
		resolution.CouponCode = coupon.Code
		resolution.CouponDiscount = decimal.Min(discount, payable)
	}

	// 活動作用在扣券後的剩餘應付金額
	remaining := payable.Sub(resolution.CouponDiscount)

	campaigns, err := d.campaignRepo.GetRunningCampaigns(ctx, now)
	if err != nil {
		return nil, err
	}

	// 用戶統計lazy載入，同一次解析最多查一次
	var stats *model.UserOrderStats
	loadStats := func() (*model.UserOrderStats, error) {
		if stats != nil {
			return stats, nil
		}
		stats, err = d.orderRepo.GetUserOrderStats(ctx, userID)
		return stats, err
	}

	for _, campaign := range campaigns {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		eligible, err := d.isEligible(ctx, &campaign, userID, now, loadStats)
		if err != nil {
			return nil, err
		}
		if !eligible {
			continue
		}

		discount := campaignDiscount(&campaign, pricing.Lines, remaining)
		if discount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		resolution.Campaigns = append(resolution.Campaigns, AppliedCampaign{
			CampaignID: campaign.ID,
			Name:       campaign.Name,
			Priority:   campaign.Priority,
			Stackable:  campaign.IsStackable,
			Discount:   discount,
		})
		resolution.CampaignTotal = resolution.CampaignTotal.Add(discount)
		remaining = remaining.Sub(discount)

		// exclusive活動折出非零金額後停止堆疊
		if !campaign.IsStackable {
			break
		}
	}

	resolution.TotalDiscount = resolution.CouponDiscount.Add(resolution.CampaignTotal)
	return resolution, nil
}

// isEligible 受眾過濾 + 使用上限
func (d *DiscountService) isEligible(ctx context.Context, campaign *model.Campaign, userID uint, now time.Time, loadStats func() (*model.UserOrderStats, error)) (bool, error) {
	if campaign.UsageLimit > 0 && campaign.UsedCount >= campaign.UsageLimit {
		return false, nil
	}
	if campaign.PerUserLimit > 0 {
		used, err := d.orderRepo.CountCampaignUsageByUser(ctx, campaign.ID, userID)
		if err != nil {
			return false, err
		}
		if used >= int64(campaign.PerUserLimit) {
			return false, nil
		}
	}

	switch campaign.Audience {
	case model.AudienceAll:
		// 繼續檢查消費門檻
	case model.AudienceListed:
		found := false
		for _, id := range campaign.TargetUserIDs {
			if id == userID {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	case model.AudienceCohort:
		s, err := loadStats()
		if err != nil {
			return false, err
		}
		cohort := model.DeriveCohort(*s, now)
		found := false
		for _, c := range campaign.TargetCohorts {
			if model.UserCohort(c) == cohort {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	default:
		return false, nil
	}

	if campaign.MinLifetimeSpend.IsPositive() || campaign.MinOrderCount > 0 {
		s, err := loadStats()
		if err != nil {
			return false, err
		}
		if campaign.MinLifetimeSpend.IsPositive() && s.LifetimeSpend.LessThan(campaign.MinLifetimeSpend) {
			return false, nil
		}
		if campaign.MinOrderCount > 0 && s.DeliveredCount < campaign.MinOrderCount {
			return false, nil
		}
	}

	return true, nil
}

// CheckEligibility 管理端檢視單一活動對指定用戶是否適用
func (d *DiscountService) CheckEligibility(ctx context.Context, campaign *model.Campaign, userID uint, now time.Time) error {
	if !campaign.IsRunning(now) {
		return fmt.Errorf("%w: campaign %d is not running", ErrCampaignNotEligible, campaign.ID)
	}
	var stats *model.UserOrderStats
	loadStats := func() (*model.UserOrderStats, error) {
		if stats != nil {
			return stats, nil
		}
		var err error
		stats, err = d.orderRepo.GetUserOrderStats(ctx, userID)
		return stats, err
	}
	ok, err := d.isEligible(ctx, campaign, userID, now, loadStats)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: campaign %d, user %d", ErrCampaignNotEligible, campaign.ID, userID)
	}
	return nil
}

// campaignDiscount 依規則類型計算單一活動的折扣，一律以remaining為上限
func campaignDiscount(campaign *model.Campaign, lines []PricedLine, remaining decimal.Decimal) decimal.Decimal {
	eligible := eligibleSubtotal(lines, campaign.AppliesTo)
	if eligible.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	base := decimal.Min(eligible, remaining)

	var discount decimal.Decimal
	switch campaign.RuleType {
	case model.CampaignRulePercentage:
		discount = base.Mul(campaign.DiscountValue).Div(percentBase).Round(2)

	case model.CampaignRuleFixed:
		discount = campaign.DiscountValue

	case model.CampaignRuleTiered:
		// 取金額門檻最高且已達標的級距
		var best *model.CampaignTier
		for i := range campaign.Tiers {
			tier := &campaign.Tiers[i]
			if eligible.GreaterThanOrEqual(tier.MinAmount) {
				if best == nil || tier.MinAmount.GreaterThan(best.MinAmount) {
					best = tier
				}
			}
		}
		if best == nil {
			return decimal.Zero
		}
		if best.DiscountType == model.DiscountTypePercentage {
			discount = base.Mul(best.DiscountValue).Div(percentBase).Round(2)
		} else {
			discount = best.DiscountValue
		}

	case model.CampaignRuleBuyXGetY:
		discount = buyXGetYDiscount(campaign, lines)

	case model.CampaignRuleBundle:
		// 車內同時包含全部bundle商品才折
		for _, productID := range campaign.BundleProducts {
			if !containsProduct(lines, productID) {
				return decimal.Zero
			}
		}
		discount = campaign.DiscountValue

	default:
		return decimal.Zero
	}

	return decimal.Min(discount, remaining)
}

// buyXGetYDiscount 買X送Y: 贈品折扣等於贈送數量×贈品折後單價
// 贈品必須在車內，贈送數量以車內數量為上限
func buyXGetYDiscount(campaign *model.Campaign, lines []PricedLine) decimal.Decimal {
	if campaign.BuyQuantity <= 0 || campaign.GetQuantity <= 0 {
		return decimal.Zero
	}

	var buyQty int
	var getLine *PricedLine
	for i := range lines {
		if lines[i].ProductID == campaign.BuyProductID {
			buyQty = lines[i].Quantity
		}
		if lines[i].ProductID == campaign.GetProductID {
			getLine = &lines[i]
		}
	}
	if buyQty < campaign.BuyQuantity || getLine == nil {
		return decimal.Zero
	}

	freeQty := (buyQty / campaign.BuyQuantity) * campaign.GetQuantity
	if freeQty > getLine.Quantity {
		freeQty = getLine.Quantity
	}
	return getLine.FinalPrice.Mul(decimal.NewFromInt(int64(freeQty))).Round(2)
}

func containsProduct(lines []PricedLine, productID string) bool {
	for _, line := range lines {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

// eligibleSubtotal 通過範圍過濾的各列扣除商品折扣後的金額合計
func eligibleSubtotal(lines []PricedLine, appliesTo func(productID, categoryID string) bool) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if appliesTo(line.ProductID, line.CategoryID) {
			total = total.Add(line.ItemTotal.Sub(line.ItemDiscount))
		}
	}
	return total
}

var _ IDiscountService = (*DiscountService)(nil)
