package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/infra/gateway"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/shopspring/decimal"
)

// ---- stock repo fake ----

type fakeStockRepo struct {
	mu     sync.Mutex
	stocks map[string]*model.StockInfo
	// 指定商品預留時強制失敗
	failReserve map[string]error
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{
		stocks:      make(map[string]*model.StockInfo),
		failReserve: make(map[string]error),
	}
}

func (f *fakeStockRepo) InitStock(ctx context.Context, productID string, onHand int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stocks[productID] = &model.StockInfo{ProductID: productID, OnHand: onHand}
	return nil
}

func (f *fakeStockRepo) GetStock(ctx context.Context, productID string) (*model.StockInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.stocks[productID]
	if !ok {
		return nil, redis_repo.ErrStockNotFound
	}
	copied := *info
	return &copied, nil
}

func (f *fakeStockRepo) Reserve(ctx context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failReserve[productID]; ok {
		return err
	}
	info, ok := f.stocks[productID]
	if !ok {
		return redis_repo.ErrStockNotFound
	}
	if info.OnHand-info.Reserved < qty {
		return redis_repo.ErrInsufficientStock
	}
	info.Reserved += qty
	return nil
}

func (f *fakeStockRepo) Release(ctx context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.stocks[productID]
	if !ok {
		return redis_repo.ErrStockNotFound
	}
	if qty > info.Reserved {
		qty = info.Reserved
	}
	info.Reserved -= qty
	return nil
}

func (f *fakeStockRepo) CommitSale(ctx context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.stocks[productID]
	if !ok {
		return redis_repo.ErrStockNotFound
	}
	if info.OnHand < qty {
		return redis_repo.ErrInsufficientStock
	}
	info.OnHand -= qty
	info.Sold += qty
	if qty > info.Reserved {
		info.Reserved = 0
	} else {
		info.Reserved -= qty
	}
	return nil
}

func (f *fakeStockRepo) Restock(ctx context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.stocks[productID]
	if !ok {
		return redis_repo.ErrStockNotFound
	}
	info.OnHand += qty
	if qty > info.Sold {
		info.Sold = 0
	} else {
		info.Sold -= qty
	}
	return nil
}

var _ redis_repo.IStockRepository = (*fakeStockRepo)(nil)

// ---- product repo fake ----

type fakeProductRepo struct {
	products map[string]*model.Product
}

func newFakeProductRepo(products ...*model.Product) *fakeProductRepo {
	m := make(map[string]*model.Product, len(products))
	for _, p := range products {
		m[p.ProductID] = p
	}
	return &fakeProductRepo{products: m}
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, productID string) (*model.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, db.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) GetProductsByIDs(ctx context.Context, productIDs []string) ([]model.Product, error) {
	var result []model.Product
	for _, id := range productIDs {
		if p, ok := f.products[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

var _ db.IProductRepository = (*fakeProductRepo)(nil)

// ---- order repo fake ----

type fakeOrderRepo struct {
	mu             sync.Mutex
	nextID         uint
	orders         map[uint]*model.Order
	couponUsages   []model.CouponUsage
	campaignUsages []model.CampaignUsage
	stats          map[uint]*model.UserOrderStats
	createErr      error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[uint]*model.Order),
		stats:  make(map[uint]*model.UserOrderStats),
	}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *model.Order, usages []model.CouponUsage, campaignUsages []model.CampaignUsage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	order.ID = f.nextID
	f.orders[order.ID] = order
	for i := range usages {
		usages[i].OrderID = order.ID
	}
	for i := range campaignUsages {
		campaignUsages[i].OrderID = order.ID
	}
	f.couponUsages = append(f.couponUsages, usages...)
	f.campaignUsages = append(f.campaignUsages, campaignUsages...)
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id uint) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, db.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, db.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID uint) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (f *fakeOrderRepo) GetOrdersPaginated(ctx context.Context, page, pageSize int) ([]model.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Order
	for _, order := range f.orders {
		result = append(result, *order)
	}
	return result, int64(len(f.orders)), nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, order *model.Order, history *model.OrderStatusHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok {
		return db.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.DeliveredAt = order.DeliveredAt
	stored.StatusHistory = append(stored.StatusHistory, *history)
	return nil
}

func (f *fakeOrderRepo) GetUserOrderStats(ctx context.Context, userID uint) (*model.UserOrderStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stats[userID]; ok {
		return s, nil
	}
	return &model.UserOrderStats{LifetimeSpend: decimal.Zero}, nil
}

func (f *fakeOrderRepo) CountCouponUsageByUser(ctx context.Context, couponID, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, u := range f.couponUsages {
		if u.CouponID == couponID && u.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeOrderRepo) CountCampaignUsageByUser(ctx context.Context, campaignID, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, u := range f.campaignUsages {
		if u.CampaignID == campaignID && u.UserID == userID {
			count++
		}
	}
	return count, nil
}

var _ db.IOrderRepository = (*fakeOrderRepo)(nil)

// ---- coupon repo fake ----

type fakeCouponRepo struct {
	coupons map[string]*model.Coupon
}

func newFakeCouponRepo(coupons ...*model.Coupon) *fakeCouponRepo {
	m := make(map[string]*model.Coupon, len(coupons))
	for _, c := range coupons {
		m[c.Code] = c
	}
	return &fakeCouponRepo{coupons: m}
}

func (f *fakeCouponRepo) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	f.coupons[coupon.Code] = coupon
	return nil
}

func (f *fakeCouponRepo) GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, db.ErrCouponNotFound
	}
	return c, nil
}

func (f *fakeCouponRepo) GetAllCoupons(ctx context.Context) ([]model.Coupon, error) {
	var result []model.Coupon
	for _, c := range f.coupons {
		result = append(result, *c)
	}
	return result, nil
}

func (f *fakeCouponRepo) DeactivateCoupon(ctx context.Context, code string) error {
	c, ok := f.coupons[code]
	if !ok {
		return db.ErrCouponNotFound
	}
	c.IsActive = false
	return nil
}

var _ db.ICouponRepository = (*fakeCouponRepo)(nil)

// ---- campaign repo fake ----

type fakeCampaignRepo struct {
	campaigns []*model.Campaign
}

func newFakeCampaignRepo(campaigns ...*model.Campaign) *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: campaigns}
}

func (f *fakeCampaignRepo) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	campaign.ID = uint(len(f.campaigns) + 1)
	f.campaigns = append(f.campaigns, campaign)
	return nil
}

func (f *fakeCampaignRepo) GetCampaignByID(ctx context.Context, id uint) (*model.Campaign, error) {
	for _, c := range f.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, db.ErrCampaignNotFound
}

// priority遞減，與真實repo的排序一致
func (f *fakeCampaignRepo) GetRunningCampaigns(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	var result []model.Campaign
	for _, c := range f.campaigns {
		if c.IsRunning(now) {
			result = append(result, *c)
		}
	}
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].Priority > result[i].Priority {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (f *fakeCampaignRepo) GetCampaignsByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	var result []model.Campaign
	for _, c := range f.campaigns {
		if c.Status == status {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (f *fakeCampaignRepo) UpdateCampaignStatus(ctx context.Context, id uint, status model.CampaignStatus) error {
	for _, c := range f.campaigns {
		if c.ID == id {
			c.Status = status
			return nil
		}
	}
	return db.ErrCampaignNotFound
}

func (f *fakeCampaignRepo) UpdateCampaign(ctx context.Context, campaign *model.Campaign) error {
	for i, c := range f.campaigns {
		if c.ID == campaign.ID {
			f.campaigns[i] = campaign
			return nil
		}
	}
	return db.ErrCampaignNotFound
}

var _ db.ICampaignRepository = (*fakeCampaignRepo)(nil)

// ---- payment repo fake ----

type fakePaymentRepo struct {
	mu       sync.Mutex
	nextID   uint
	payments map[uint]*model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uint]*model.Payment)}
}

func (f *fakePaymentRepo) CreatePayment(ctx context.Context, payment *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	payment.ID = f.nextID
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakePaymentRepo) GetPaymentByAuthority(ctx context.Context, authority string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.Authority == authority {
			copied := *p
			return &copied, nil
		}
	}
	return nil, db.ErrPaymentNotFound
}

func (f *fakePaymentRepo) GetCompletedPaymentByOrderID(ctx context.Context, orderID uint) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.OrderID == orderID && p.Status == model.PaymentStatusCompleted {
			copied := *p
			return &copied, nil
		}
	}
	return nil, db.ErrPaymentNotFound
}

func (f *fakePaymentRepo) MarkCompleted(ctx context.Context, id uint, transactionID string, verifiedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return db.ErrPaymentNotFound
	}
	p.Status = model.PaymentStatusCompleted
	p.TransactionID = transactionID
	p.VerifiedAt = &verifiedAt
	return nil
}

func (f *fakePaymentRepo) UpdatePaymentStatus(ctx context.Context, id uint, status model.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return db.ErrPaymentNotFound
	}
	p.Status = status
	return nil
}

var _ db.IPaymentRepository = (*fakePaymentRepo)(nil)

// ---- cart repo fake ----

type fakeCartRepo struct {
	mu     sync.Mutex
	carts  map[uint]*model.Cart
	clears int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[uint]*model.Cart)}
}

func (f *fakeCartRepo) Get(ctx context.Context, userID uint) (*model.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		return nil, redis_repo.ErrCartNotFound
	}
	copied := *cart
	copied.Items = append([]model.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (f *fakeCartRepo) SetItem(ctx context.Context, userID uint, item model.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		cart = &model.Cart{UserID: userID}
		f.carts[userID] = cart
	}
	if idx := cart.FindItem(item.ProductID); idx >= 0 {
		cart.Items[idx] = item
	} else {
		cart.Items = append(cart.Items, item)
	}
	return nil
}

func (f *fakeCartRepo) RemoveItem(ctx context.Context, userID uint, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		return nil
	}
	if idx := cart.FindItem(productID); idx >= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	}
	return nil
}

func (f *fakeCartRepo) SetCoupon(ctx context.Context, userID uint, coupon *model.AppliedCoupon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart, ok := f.carts[userID]
	if !ok {
		cart = &model.Cart{UserID: userID}
		f.carts[userID] = cart
	}
	cart.Coupon = coupon
	return nil
}

func (f *fakeCartRepo) Clear(ctx context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	f.clears++
	return nil
}

var _ redis_repo.ICartRepository = (*fakeCartRepo)(nil)

// ---- sequence repo fake ----

type fakeSequenceRepo struct {
	mu   sync.Mutex
	seqs map[string]int64
	err  error
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{seqs: make(map[string]int64)}
}

func (f *fakeSequenceRepo) NextOrderSequence(ctx context.Context, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	key := day.Format("20060102")
	f.seqs[key]++
	return f.seqs[key], nil
}

var _ redis_repo.ISequenceRepository = (*fakeSequenceRepo)(nil)

// ---- payment gateway fake ----

type fakeGateway struct {
	requestErr    error
	verifyErr     error
	verifySuccess bool
	transactionID string
	verifyCalls   int
}

func (f *fakeGateway) RequestPayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentRequestResult, error) {
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &gateway.PaymentRequestResult{
		RedirectURL: "https://pay.example.com/redirect",
		Authority:   fmt.Sprintf("authority-%d", time.Now().UnixNano()),
	}, nil
}

func (f *fakeGateway) VerifyPayment(ctx context.Context, authority string, amount decimal.Decimal) (*gateway.VerifyResult, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &gateway.VerifyResult{Success: f.verifySuccess, TransactionID: f.transactionID}, nil
}

var _ gateway.IPaymentGateway = (*fakeGateway)(nil)

// ---- event producer fake ----

type fakeProducer struct {
	mu     sync.Mutex
	events []event.Event
}

func (f *fakeProducer) Publish(ctx context.Context, key string, evt event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func (f *fakeProducer) eventsOfType(t event.EventType) []event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []event.Event
	for _, e := range f.events {
		if e.Type() == t {
			result = append(result, e)
		}
	}
	return result
}
