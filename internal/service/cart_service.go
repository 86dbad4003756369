package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
)

type CartError error

var (
	ErrCartEmpty          CartError = errors.New("cart is empty")
	ErrQuantityInvalid    CartError = errors.New("quantity must be at least 1")
	ErrProductUnavailable CartError = errors.New("product is not available")
)

type ICartService interface {
	GetCart(ctx context.Context, userID uint) (*model.Cart, error)
	// AddItem 加入商品，已存在則數量累加；數量不可超過現時可用庫存
	AddItem(ctx context.Context, userID uint, productID string, quantity int) (*model.Cart, error)
	// UpdateItem 覆寫商品數量
	UpdateItem(ctx context.Context, userID uint, productID string, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, userID uint, productID string) (*model.Cart, error)
	ClearCart(ctx context.Context, userID uint) error
	// ApplyCoupon 驗證並在車上掛券快照，結帳時仍會重新驗證
	ApplyCoupon(ctx context.Context, userID uint, code string) (*model.Cart, error)
	RemoveCoupon(ctx context.Context, userID uint) (*model.Cart, error)
	// Preview 購物車預覽計價，與結帳共用同一個計價器
	Preview(ctx context.Context, userID uint) (*CartPricing, error)
}

type CartService struct {
	cartRepo        redis_repo.ICartRepository
	productRepo     db.IProductRepository
	stockService    IStockService
	discountService IDiscountService
}

func NewCartService(cartRepo redis_repo.ICartRepository, productRepo db.IProductRepository, stockService IStockService, discountService IDiscountService) *CartService {
	return &CartService{
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		stockService:    stockService,
		discountService: discountService,
	}
}

// GetCart 購物車lazy創建: 不存在時回傳空車而不是錯誤
func (c *CartService) GetCart(ctx context.Context, userID uint) (*model.Cart, error) {
	cart, err := c.cartRepo.Get(ctx, userID)
	if errors.Is(err, redis_repo.ErrCartNotFound) {
		return &model.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (c *CartService) AddItem(ctx context.Context, userID uint, productID string, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, ErrQuantityInvalid
	}

	cart, err := c.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := quantity
	if idx := cart.FindItem(productID); idx >= 0 {
		total += cart.Items[idx].Quantity
	}

	return c.setItem(ctx, userID, productID, total)
}

func (c *CartService) UpdateItem(ctx context.Context, userID uint, productID string, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, ErrQuantityInvalid
	}
	return c.setItem(ctx, userID, productID, quantity)
}

// setItem 數量不可超過現時可用庫存（on_hand - reserved）
func (c *CartService) setItem(ctx context.Context, userID uint, productID string, quantity int) (*model.Cart, error) {
	product, err := c.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != model.ProductStatusActive {
		return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, productID)
	}

	stock, err := c.stockService.GetStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if stock.Available() < quantity {
		return nil, fmt.Errorf("%w: product %s has %d available", ErrInsufficientStock, productID, stock.Available())
	}

	item := model.CartItem{
		ProductID:           productID,
		Quantity:            quantity,
		UnitPrice:           product.Price,
		UnitDiscountPercent: product.DiscountPercent,
		AddedAt:             time.Now().UTC(),
	}
	if err := c.cartRepo.SetItem(ctx, userID, item); err != nil {
		return nil, err
	}

	return c.GetCart(ctx, userID)
}

func (c *CartService) RemoveItem(ctx context.Context, userID uint, productID string) (*model.Cart, error) {
	if err := c.cartRepo.RemoveItem(ctx, userID, productID); err != nil {
		return nil, err
	}
	return c.GetCart(ctx, userID)
}

func (c *CartService) ClearCart(ctx context.Context, userID uint) error {
	return c.cartRepo.Clear(ctx, userID)
}

func (c *CartService) ApplyCoupon(ctx context.Context, userID uint, code string) (*model.Cart, error) {
	cart, err := c.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	pricing, err := c.priceCart(ctx, cart)
	if err != nil {
		return nil, err
	}

	coupon, _, err := c.discountService.ResolveCoupon(ctx, userID, code, *pricing, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	applied := &model.AppliedCoupon{
		Code:          coupon.Code,
		DiscountType:  coupon.DiscountType,
		DiscountValue: coupon.DiscountValue,
	}
	if err := c.cartRepo.SetCoupon(ctx, userID, applied); err != nil {
		return nil, err
	}
	return c.GetCart(ctx, userID)
}

func (c *CartService) RemoveCoupon(ctx context.Context, userID uint) (*model.Cart, error) {
	if err := c.cartRepo.SetCoupon(ctx, userID, nil); err != nil {
		return nil, err
	}
	return c.GetCart(ctx, userID)
}

// Preview 以型錄現價計算展示用金額
// 和訂單成立走同一個純計價器，型錄不變的情況下結果必定一致
func (c *CartService) Preview(ctx context.Context, userID uint) (*CartPricing, error) {
	cart, err := c.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	pricing, err := c.priceCart(ctx, cart)
	if err != nil {
		return nil, err
	}

	if cart.Coupon != nil {
		adjusted := ApplyCouponAdjustment(*pricing, cart.Coupon.DiscountType, cart.Coupon.DiscountValue)
		pricing = &adjusted
	}
	return pricing, nil
}

func (c *CartService) priceCart(ctx context.Context, cart *model.Cart) (*CartPricing, error) {
	lines, err := buildPricingLines(ctx, c.productRepo, cart.Items)
	if err != nil {
		return nil, err
	}
	pricing := PriceLines(lines)
	return &pricing, nil
}

// buildPricingLines 以型錄現值組計價輸入，購物車內的快照價格只做展示
func buildPricingLines(ctx context.Context, productRepo db.IProductRepository, items []model.CartItem) ([]PricingLine, error) {
	lines := make([]PricingLine, 0, len(items))
	for _, item := range items {
		product, err := productRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, PricingLine{
			ProductID:       product.ProductID,
			Name:            product.Name,
			CategoryID:      product.CategoryID,
			Price:           product.Price,
			DiscountPercent: product.DiscountPercent,
			Quantity:        item.Quantity,
		})
	}
	return lines, nil
}

var _ ICartService = (*CartService)(nil)
