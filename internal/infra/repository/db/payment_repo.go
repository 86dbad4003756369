package db

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var ErrPaymentNotFound = errors.New("payment not found")

// IPaymentRepository 付款嘗試持久層
type IPaymentRepository interface {
	CreatePayment(ctx context.Context, payment *model.Payment) error
	GetPaymentByAuthority(ctx context.Context, authority string) (*model.Payment, error)
	GetCompletedPaymentByOrderID(ctx context.Context, orderID uint) (*model.Payment, error)
	// MarkCompleted 標記完成並寫入gateway交易編號
	MarkCompleted(ctx context.Context, id uint, transactionID string, verifiedAt time.Time) error
	UpdatePaymentStatus(ctx context.Context, id uint, status model.PaymentStatus) error
}

type PaymentRepo struct {
	db *DbDao
}

func NewPaymentRepo(db *DbDao) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (s *PaymentRepo) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return s.db.WithContext(ctx).Create(payment).Error
}

func (s *PaymentRepo) GetPaymentByAuthority(ctx context.Context, authority string) (*model.Payment, error) {
	var payment model.Payment
	err := s.db.WithContext(ctx).First(&payment, "authority = ?", authority).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *PaymentRepo) GetCompletedPaymentByOrderID(ctx context.Context, orderID uint) (*model.Payment, error) {
	var payment model.Payment
	err := s.db.WithContext(ctx).
		First(&payment, "order_id = ? AND status = ?", orderID, model.PaymentStatusCompleted).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *PaymentRepo) MarkCompleted(ctx context.Context, id uint, transactionID string, verifiedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         model.PaymentStatusCompleted,
			"transaction_id": transactionID,
			"verified_at":    verifiedAt,
		}).Error
}

func (s *PaymentRepo) UpdatePaymentStatus(ctx context.Context, id uint, status model.PaymentStatus) error {
	return s.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

var _ IPaymentRepository = (*PaymentRepo)(nil)
