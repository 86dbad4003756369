package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IOrderRepository 訂單持久層
// 訂單建立後不可刪除，取消/退貨以狀態表示
type IOrderRepository interface {
	// CreateOrder 在單一交易內寫入訂單、明細、初始歷史與折扣使用紀錄
	CreateOrder(ctx context.Context, order *model.Order, usages []model.CouponUsage, campaignUsages []model.CampaignUsage) error
	GetOrderByID(ctx context.Context, id uint) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error)
	GetOrdersPaginated(ctx context.Context, page, pageSize int) ([]model.Order, int64, error)
	// UpdateStatus 更新狀態並附加歷史紀錄，同一交易
	UpdateStatus(ctx context.Context, order *model.Order, history *model.OrderStatusHistory) error
	// GetUserOrderStats 用戶分群用統計，只計入已送達訂單
	GetUserOrderStats(ctx context.Context, userID uint) (*model.UserOrderStats, error)
	// CountCouponUsageByUser 查詢用戶已使用某券的次數
	CountCouponUsageByUser(ctx context.Context, couponID, userID uint) (int64, error)
	// CountCampaignUsageByUser 查詢用戶已參與某活動的次數
	CountCampaignUsageByUser(ctx context.Context, campaignID, userID uint) (int64, error)
}

var ErrOrderNotFound = errors.New("order not found")

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrder 訂單與折扣使用紀錄同一交易落庫
// 使用紀錄以(券ID, 訂單ID)為冪等鍵，重試不會重複計數
func (s *OrderRepo) CreateOrder(ctx context.Context, order *model.Order, usages []model.CouponUsage, campaignUsages []model.CampaignUsage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for i := range usages {
			usages[i].OrderID = order.ID
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "coupon_id"}, {Name: "order_id"}},
				DoNothing: true,
			}).Create(&usages[i])
			if res.Error != nil {
				return res.Error
			}
			// 只有真的新增使用紀錄才遞增used_count
			if res.RowsAffected > 0 {
				if err := tx.Model(&model.Coupon{}).
					Where("id = ?", usages[i].CouponID).
					Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
					return err
				}
			}
		}

		for i := range campaignUsages {
			campaignUsages[i].OrderID = order.ID
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "order_id"}},
				DoNothing: true,
			}).Create(&campaignUsages[i])
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				if err := tx.Model(&model.Campaign{}).
					Where("id = ?", campaignUsages[i].CampaignID).
					Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func (s *OrderRepo) GetOrderByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").Preload("StatusHistory").Preload("Payments").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").Preload("StatusHistory").Preload("Payments").
		First(&order, "order_number = ?", orderNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// 分頁查詢訂單
func (s *OrderRepo) GetOrdersPaginated(ctx context.Context, page, pageSize int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	offset := (page - 1) * pageSize

	// 計算總數
	s.db.WithContext(ctx).Model(&model.Order{}).Count(&total)

	// 分頁查詢
	err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Order("created_at DESC").
		Offset(offset).Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}

// UpdateStatus 狀態與歷史同一交易寫入，歷史只增不改
func (s *OrderRepo) UpdateStatus(ctx context.Context, order *model.Order, history *model.OrderStatusHistory) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": order.Status}
		if order.DeliveredAt != nil {
			updates["delivered_at"] = order.DeliveredAt
		}
		if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(history).Error
	})
}

func (s *OrderRepo) GetUserOrderStats(ctx context.Context, userID uint) (*model.UserOrderStats, error) {
	var row struct {
		DeliveredCount  int64
		LifetimeSpend   string
		LastDeliveredAt *time.Time
	}

	// 金額欄位以text掃出再解析，避免經過float的精度漂移
	err := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ? AND status = ?", userID, model.OrderStatusDelivered).
		Select("COUNT(*) as delivered_count, COALESCE(SUM(total_amount), 0)::text as lifetime_spend, MAX(delivered_at) as last_delivered_at").
		Row().
		Scan(&row.DeliveredCount, &row.LifetimeSpend, &row.LastDeliveredAt)
	if err != nil {
		return nil, err
	}

	spend, err := decimal.NewFromString(row.LifetimeSpend)
	if err != nil {
		return nil, fmt.Errorf("invalid lifetime spend %q: %w", row.LifetimeSpend, err)
	}

	stats := &model.UserOrderStats{
		DeliveredCount:  int(row.DeliveredCount),
		LifetimeSpend:   spend,
		LastDeliveredAt: row.LastDeliveredAt,
	}
	return stats, nil
}

func (s *OrderRepo) CountCouponUsageByUser(ctx context.Context, couponID, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	return count, err
}

func (s *OrderRepo) CountCampaignUsageByUser(ctx context.Context, campaignID, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.CampaignUsage{}).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Count(&count).Error
	return count, err
}

var _ IOrderRepository = (*OrderRepo)(nil)
