package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OrderServiceError error

var (
	ErrOrderNotCancellable OrderServiceError = errors.New("order can not be cancelled after shipment")
	ErrOrderNotFound       OrderServiceError = db.ErrOrderNotFound
)

// ShippingPolicy 運費規則：合格小計達到門檻免運，否則收固定運費
type ShippingPolicy struct {
	Fee           decimal.Decimal
	FreeThreshold decimal.Decimal
}

// Cost 以折扣後應付金額判斷免運門檻
func (p ShippingPolicy) Cost(payable decimal.Decimal) decimal.Decimal {
	if p.FreeThreshold.IsPositive() && payable.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.Fee
}

// CreateOrderRequest 結帳輸入，金額一律由伺服器重算
type CreateOrderRequest struct {
	UserID          uint
	ShippingAddress model.ShippingAddress
}

type IOrderService interface {
	// CreateOrder 由購物車結帳成立訂單
	// 流程: 重新計價 -> 折扣解析 -> 庫存預留 -> 落庫，落庫失敗補償釋放預留
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*model.Order, error)

	GetOrder(ctx context.Context, orderID uint) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	GetUserOrders(ctx context.Context, userID uint) ([]model.Order, error)
	ListOrders(ctx context.Context, page, pageSize int) ([]model.Order, int64, error)

	// AdvanceStatus 沿物流路徑推進狀態，非法轉移回傳ErrIllegalTransition
	AdvanceStatus(ctx context.Context, orderID uint, to model.OrderStatus, note, actor string) (*model.Order, error)

	// Cancel 出貨前取消
	// 未付款: 釋放預留；已付款: 回補庫存並標記退款
	Cancel(ctx context.Context, orderID uint, reason, actor string) (*model.Order, error)

	// Return 送達後7天內退貨，回補庫存並標記退款
	Return(ctx context.Context, orderID uint, reason, actor string) (*model.Order, error)
}

type OrderService struct {
	orderRepo       db.IOrderRepository
	productRepo     db.IProductRepository
	paymentRepo     db.IPaymentRepository
	cartRepo        redis_repo.ICartRepository
	sequenceRepo    redis_repo.ISequenceRepository
	stockService    IStockService
	discountService IDiscountService
	eventProducer   producer.IEventProducer
	shipping        ShippingPolicy
	logger          zerolog.Logger
}

func NewOrderService(
	orderRepo db.IOrderRepository,
	productRepo db.IProductRepository,
	paymentRepo db.IPaymentRepository,
	cartRepo redis_repo.ICartRepository,
	sequenceRepo redis_repo.ISequenceRepository,
	stockService IStockService,
	discountService IDiscountService,
	eventProducer producer.IEventProducer,
	shipping ShippingPolicy,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		paymentRepo:     paymentRepo,
		cartRepo:        cartRepo,
		sequenceRepo:    sequenceRepo,
		stockService:    stockService,
		discountService: discountService,
		eventProducer:   eventProducer,
		shipping:        shipping,
		logger:          logger,
	}
}

// CreateOrder 結帳saga
// 預留成功後任何一步失敗都要釋放預留，絕不留下孤兒預留
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*model.Order, error) {
	now := time.Now().UTC()

	cart, err := s.cartRepo.Get(ctx, req.UserID)
	if errors.Is(err, redis_repo.ErrCartNotFound) {
		return nil, ErrCartEmpty
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	// 以型錄現值重新計價，購物車內的快照價只做展示
	lines, err := buildPricingLines(ctx, s.productRepo, cart.Items)
	if err != nil {
		return nil, err
	}
	pricing := PriceLines(lines)

	couponCode := ""
	if cart.Coupon != nil {
		couponCode = cart.Coupon.Code
	}
	resolution, err := s.discountService.Resolve(ctx, req.UserID, pricing, couponCode, now)
	if err != nil {
		return nil, err
	}

	stockLines := make([]StockLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		stockLines = append(stockLines, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err := s.stockService.ReserveAll(ctx, stockLines); err != nil {
		return nil, err
	}

	order, usages, campaignUsages := s.buildOrder(req, pricing, resolution)

	seq, err := s.sequenceRepo.NextOrderSequence(ctx, now)
	if err != nil {
		s.stockService.ReleaseAll(ctx, stockLines)
		return nil, err
	}
	order.OrderNumber = util.FormatOrderNumber(now, seq)

	if err := s.orderRepo.CreateOrder(ctx, order, usages, campaignUsages); err != nil {
		// 補償: 落庫失敗釋放這張訂單的預留
		s.stockService.ReleaseAll(ctx, stockLines)
		return nil, err
	}

	s.publish(ctx, order.OrderNumber, &event.OrderCreatedEvent{
		BaseEvent:   newBaseEvent(now),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
	})

	return order, nil
}

// buildOrder 組訂單快照與折扣使用紀錄
// 不變量: TotalAmount = Subtotal - TotalDiscount + ShippingCost，下限為運費
func (s *OrderService) buildOrder(req CreateOrderRequest, pricing CartPricing, resolution *DiscountResolution) (*model.Order, []model.CouponUsage, []model.CampaignUsage) {
	totalDiscount := pricing.ProductDiscount.Add(resolution.TotalDiscount)

	payable := pricing.Subtotal.Sub(totalDiscount)
	if payable.IsNegative() {
		payable = decimal.Zero
	}
	shippingCost := s.shipping.Cost(payable)

	order := &model.Order{
		UserID:          req.UserID,
		Status:          model.OrderStatusPending,
		CouponCode:      resolution.CouponCode,
		Subtotal:        pricing.Subtotal,
		TotalDiscount:   totalDiscount,
		ShippingCost:    shippingCost,
		TotalAmount:     payable.Add(shippingCost),
		ShippingAddress: req.ShippingAddress,
	}

	for _, line := range pricing.Lines {
		order.OrderItems = append(order.OrderItems, model.OrderItem{
			ProductID:       line.ProductID,
			Name:            line.Name,
			Price:           line.Price,
			DiscountPercent: line.DiscountPercent,
			FinalPrice:      line.FinalPrice,
			Quantity:        line.Quantity,
		})
	}

	order.StatusHistory = append(order.StatusHistory, model.OrderStatusHistory{
		Status: model.OrderStatusPending,
		Note:   "order created",
		Actor:  "system",
	})

	var usages []model.CouponUsage
	if resolution.CouponID != 0 {
		usages = append(usages, model.CouponUsage{
			ID:       uuid.New().String(),
			CouponID: resolution.CouponID,
			UserID:   req.UserID,
			Discount: resolution.CouponDiscount,
		})
	}

	var campaignUsages []model.CampaignUsage
	for _, applied := range resolution.Campaigns {
		campaignUsages = append(campaignUsages, model.CampaignUsage{
			ID:         uuid.New().String(),
			CampaignID: applied.CampaignID,
			UserID:     req.UserID,
			Discount:   applied.Discount,
		})
	}

	return order, usages, campaignUsages
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*model.Order, error) {
	return s.orderRepo.GetOrderByID(ctx, orderID)
}

func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	return s.orderRepo.GetOrderByNumber(ctx, orderNumber)
}

func (s *OrderService) GetUserOrders(ctx context.Context, userID uint) ([]model.Order, error) {
	return s.orderRepo.GetOrdersByUserID(ctx, userID)
}

func (s *OrderService) ListOrders(ctx context.Context, page, pageSize int) ([]model.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.orderRepo.GetOrdersPaginated(ctx, page, pageSize)
}

func (s *OrderService) AdvanceStatus(ctx context.Context, orderID uint, to model.OrderStatus, note, actor string) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// 取消與退貨各有補償邏輯，不走一般推進
	switch to {
	case model.OrderStatusCancelled:
		return s.Cancel(ctx, orderID, note, actor)
	case model.OrderStatusReturned:
		return s.Return(ctx, orderID, note, actor)
	}

	from := order.Status
	now := time.Now().UTC()
	history, err := order.Transition(to, note, actor, now)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, order, history); err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, order, from, to, note, now)
	return order, nil
}

// Cancel 出貨前取消
// 庫存補償依付款狀態分流: 未付款釋放預留，已付款回補on_hand並標記退款
func (s *OrderService) Cancel(ctx context.Context, orderID uint, reason, actor string) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCancellable() {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotCancellable, order.Status)
	}

	from := order.Status
	now := time.Now().UTC()
	history, err := order.Transition(model.OrderStatusCancelled, reason, actor, now)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, order, history); err != nil {
		return nil, err
	}

	stockLines := orderStockLines(order)
	if payment := order.CompletedPayment(); payment != nil {
		// 已付款: 預留在付款時已轉銷售，取消要把庫存加回來
		if err := s.stockService.RestockAll(ctx, stockLines); err != nil {
			s.logger.Error().Uint("order_id", order.ID).Err(err).Msg("failed to restock cancelled order")
		}
		if err := s.paymentRepo.UpdatePaymentStatus(ctx, payment.ID, model.PaymentStatusRefunded); err != nil {
			s.logger.Error().Uint("payment_id", payment.ID).Err(err).Msg("failed to mark payment refunded")
		}
	} else {
		s.stockService.ReleaseAll(ctx, stockLines)
	}

	s.publishStatusChanged(ctx, order, from, model.OrderStatusCancelled, reason, now)
	return order, nil
}

// Return 退貨，Transition內會檢查7天退貨期限
func (s *OrderService) Return(ctx context.Context, orderID uint, reason, actor string) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	now := time.Now().UTC()
	history, err := order.Transition(model.OrderStatusReturned, reason, actor, now)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, order, history); err != nil {
		return nil, err
	}

	if err := s.stockService.RestockAll(ctx, orderStockLines(order)); err != nil {
		s.logger.Error().Uint("order_id", order.ID).Err(err).Msg("failed to restock returned order")
	}
	if payment := order.CompletedPayment(); payment != nil {
		if err := s.paymentRepo.UpdatePaymentStatus(ctx, payment.ID, model.PaymentStatusRefunded); err != nil {
			s.logger.Error().Uint("payment_id", payment.ID).Err(err).Msg("failed to mark payment refunded")
		}
	}

	s.publishStatusChanged(ctx, order, from, model.OrderStatusReturned, reason, now)
	return order, nil
}

func (s *OrderService) publishStatusChanged(ctx context.Context, order *model.Order, from, to model.OrderStatus, note string, now time.Time) {
	s.publish(ctx, order.OrderNumber, &event.OrderStatusChangedEvent{
		BaseEvent:   newBaseEvent(now),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		FromStatus:  string(from),
		ToStatus:    string(to),
		Note:        note,
	})
}

// publish 事件發佈失敗只記log，不讓通知問題擋下主流程
func (s *OrderService) publish(ctx context.Context, key string, evt event.Event) {
	if s.eventProducer == nil {
		return
	}
	if err := s.eventProducer.Publish(ctx, key, evt); err != nil {
		s.logger.Error().Str("event_type", string(evt.Type())).Err(err).Msg("failed to publish event")
	}
}

func newBaseEvent(now time.Time) event.BaseEvent {
	return event.BaseEvent{
		EventID:    uuid.New().String(),
		OccurredAt: now,
	}
}

func orderStockLines(order *model.Order) []StockLine {
	lines := make([]StockLine, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		lines = append(lines, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

var _ IOrderService = (*OrderService)(nil)
