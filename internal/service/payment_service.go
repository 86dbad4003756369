package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/infra/gateway"
	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type PaymentError error

var (
	ErrPaymentNotPayable         PaymentError = errors.New("order is not in a payable status")
	ErrPaymentAlreadyCompleted   PaymentError = errors.New("order already has a completed payment")
	ErrPaymentVerificationFailed PaymentError = errors.New("payment verification failed")
	ErrPaymentGatewayUnavailable PaymentError = gateway.ErrGatewayUnavailable
	ErrPaymentAttemptNotFound    PaymentError = db.ErrPaymentNotFound
)

// InitiateResult 發起付款的回覆，前端導轉到RedirectURL
type InitiateResult struct {
	PaymentID   uint   `json:"payment_id"`
	Authority   string `json:"authority"`
	RedirectURL string `json:"redirect_url"`
}

type IPaymentService interface {
	// Initiate 對pending訂單發起付款嘗試
	Initiate(ctx context.Context, orderID uint, callbackURL string) (*InitiateResult, error)

	// Verify 以authority向gateway確認付款結果，冪等
	// 成功: 標記completed、訂單轉processing、預留轉銷售、清空購物車
	// gateway網路失敗: 付款保持pending，回傳可重試錯誤
	Verify(ctx context.Context, authority string) (*model.Payment, error)
}

type PaymentService struct {
	paymentRepo   db.IPaymentRepository
	orderRepo     db.IOrderRepository
	cartRepo      redis_repo.ICartRepository
	gateway       gateway.IPaymentGateway
	stockService  IStockService
	eventProducer producer.IEventProducer
	logger        zerolog.Logger
}

func NewPaymentService(
	paymentRepo db.IPaymentRepository,
	orderRepo db.IOrderRepository,
	cartRepo redis_repo.ICartRepository,
	paymentGateway gateway.IPaymentGateway,
	stockService IStockService,
	eventProducer producer.IEventProducer,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:   paymentRepo,
		orderRepo:     orderRepo,
		cartRepo:      cartRepo,
		gateway:       paymentGateway,
		stockService:  stockService,
		eventProducer: eventProducer,
		logger:        logger,
	}
}

// Initiate 發起付款
// 同一張訂單允許多次嘗試（前次失敗/取消後重試），但已completed就拒絕
func (s *PaymentService) Initiate(ctx context.Context, orderID uint, callbackURL string) (*InitiateResult, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPending {
		return nil, fmt.Errorf("%w: status is %s", ErrPaymentNotPayable, order.Status)
	}
	if order.CompletedPayment() != nil {
		return nil, ErrPaymentAlreadyCompleted
	}

	result, err := s.gateway.RequestPayment(ctx, gateway.PaymentRequest{
		Amount:      order.TotalAmount,
		Description: fmt.Sprintf("order %s", order.OrderNumber),
		CallbackURL: callbackURL,
	})
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		AttemptID: uuid.New().String(),
		OrderID:   order.ID,
		Authority: result.Authority,
		Status:    model.PaymentStatusPending,
		Amount:    order.TotalAmount,
	}
	if err := s.paymentRepo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	return &InitiateResult{
		PaymentID:   payment.ID,
		Authority:   result.Authority,
		RedirectURL: result.RedirectURL,
	}, nil
}

// Verify 付款確認
// 冪等: 已completed的付款不再打gateway，但訂單側的對帳照走——
// 先前回調若在標記completed之後、訂單收斂之前中斷，重送的回調要能補完
func (s *PaymentService) Verify(ctx context.Context, authority string) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByAuthority(ctx, authority)
	if err != nil {
		return nil, err
	}
	if payment.Status != model.PaymentStatusCompleted && payment.Status != model.PaymentStatusPending {
		return nil, fmt.Errorf("%w: payment is %s", ErrPaymentVerificationFailed, payment.Status)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	if payment.Status == model.PaymentStatusPending {
		result, err := s.gateway.VerifyPayment(ctx, authority, payment.Amount)
		if errors.Is(err, gateway.ErrGatewayUnavailable) {
			// 網路失敗不代表付款失敗，保持pending讓呼叫端重試
			return nil, err
		}
		if err != nil || !result.Success {
			if markErr := s.paymentRepo.UpdatePaymentStatus(ctx, payment.ID, model.PaymentStatusFailed); markErr != nil {
				s.logger.Error().Uint("payment_id", payment.ID).Err(markErr).Msg("failed to mark payment failed")
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
			}
			return nil, ErrPaymentVerificationFailed
		}

		verifiedAt := time.Now().UTC()
		if err := s.paymentRepo.MarkCompleted(ctx, payment.ID, result.TransactionID, verifiedAt); err != nil {
			return nil, err
		}
		payment.Status = model.PaymentStatusCompleted
		payment.TransactionID = result.TransactionID
		payment.VerifiedAt = &verifiedAt
	}

	// 訂單轉processing，已經不是pending代表先前回調處理過，跳過後續動作
	now := time.Now().UTC()
	if order.Status == model.OrderStatusPending {
		history, err := order.Transition(model.OrderStatusProcessing, "payment completed", "system", now)
		if err != nil {
			return nil, err
		}
		if err := s.orderRepo.UpdateStatus(ctx, order, history); err != nil {
			return nil, err
		}

		// 預留轉銷售
		if err := s.stockService.CommitAll(ctx, orderStockLines(order)); err != nil {
			s.logger.Error().Uint("order_id", order.ID).Err(err).Msg("failed to commit reserved stock after payment")
		}

		// 付款成功才清空購物車，付款前取消的用戶保有原車
		if err := s.cartRepo.Clear(ctx, order.UserID); err != nil {
			s.logger.Error().Uint("user_id", order.UserID).Err(err).Msg("failed to clear cart after payment")
		}

		s.publishPaymentCompleted(ctx, order, payment, now)
	}

	return payment, nil
}

func (s *PaymentService) publishPaymentCompleted(ctx context.Context, order *model.Order, payment *model.Payment, now time.Time) {
	if s.eventProducer == nil {
		return
	}
	evt := &event.PaymentCompletedEvent{
		BaseEvent:     newBaseEvent(now),
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Amount:        payment.Amount,
		TransactionID: payment.TransactionID,
	}
	if err := s.eventProducer.Publish(ctx, order.OrderNumber, evt); err != nil {
		s.logger.Error().Str("event_type", string(evt.Type())).Err(err).Msg("failed to publish event")
	}
}

var _ IPaymentService = (*PaymentService)(nil)
