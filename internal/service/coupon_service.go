package service

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
)

type ICouponService interface {
	CreateCoupon(ctx context.Context, coupon *model.Coupon) error
	GetCoupon(ctx context.Context, code string) (*model.Coupon, error)
	ListCoupons(ctx context.Context) ([]model.Coupon, error)
	// DeactivateCoupon 停用而非刪除，被訂單引用的券必須保留
	DeactivateCoupon(ctx context.Context, code string) error
}

type CouponService struct {
	couponRepo db.ICouponRepository
}

func NewCouponService(couponRepo db.ICouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

func (s *CouponService) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	if err := coupon.Validate(); err != nil {
		return err
	}
	return s.couponRepo.CreateCoupon(ctx, coupon)
}

func (s *CouponService) GetCoupon(ctx context.Context, code string) (*model.Coupon, error) {
	return s.couponRepo.GetCouponByCode(ctx, code)
}

func (s *CouponService) ListCoupons(ctx context.Context) ([]model.Coupon, error) {
	return s.couponRepo.GetAllCoupons(ctx)
}

func (s *CouponService) DeactivateCoupon(ctx context.Context, code string) error {
	return s.couponRepo.DeactivateCoupon(ctx, code)
}

var _ ICouponService = (*CouponService)(nil)
