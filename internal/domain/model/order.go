package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // 待付款
	OrderStatusProcessing OrderStatus = "processing" // 處理中
	OrderStatusPackaged   OrderStatus = "packaged"   // 已包裝
	OrderStatusShipped    OrderStatus = "shipped"    // 已出貨
	OrderStatusDelivered  OrderStatus = "delivered"  // 已送達
	OrderStatusCancelled  OrderStatus = "cancelled"  // 已取消
	OrderStatusReturned   OrderStatus = "returned"   // 已退貨
)

// ReturnWindow 退貨期限，從送達時間起算
const ReturnWindow = 7 * 24 * time.Hour

type OrderError error

var (
	ErrIllegalTransition   OrderError = errors.New("illegal order status transition")
	ErrReturnWindowExpired OrderError = errors.New("return window expired")
)

// 狀態機轉移表，不在表內的轉移一律拒絕
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusPackaged, OrderStatusCancelled},
	OrderStatusPackaged:   {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusReturned},
	OrderStatusDelivered:  {OrderStatusReturned},
}

// CanTransition 檢查狀態轉移是否合法
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	OrderNumber   string      `gorm:"not null;type:varchar(50);uniqueIndex" json:"order_number"`
	UserID        uint        `gorm:"not null;index" json:"user_id"`
	Status        OrderStatus `gorm:"not null;type:varchar(20);default:'pending'" json:"status"`
	OrderItems    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	CouponCode    string      `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	// 金額一律由伺服器端重算，不信任client
	Subtotal      decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"subtotal"`
	TotalDiscount decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"total_discount"`
	ShippingCost  decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"shipping_cost"`
	TotalAmount   decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"total_amount"`

	ShippingAddress ShippingAddress      `gorm:"serializer:json;type:text" json:"shipping_address"`
	StatusHistory   []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_history"`
	Payments        []Payment            `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	DeliveredAt     *time.Time           `json:"delivered_at,omitempty"`
	BaseModel
}

// OrderItem 下單當下的商品快照，建立後不再變動
// 型錄商品之後的改價不會影響已成立的訂單
type OrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	ProductID       string          `gorm:"not null;type:varchar(50)" json:"product_id"`
	Name            string          `gorm:"not null;type:varchar(100)" json:"name"`
	Price           decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"price"`
	DiscountPercent decimal.Decimal `gorm:"not null;type:decimal(5,2)" json:"discount_percent"`
	FinalPrice      decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"final_price"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	BaseModel
}

// OrderStatusHistory 狀態異動紀錄，只增不改
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null;type:varchar(20)" json:"status"`
	Note      string      `gorm:"type:varchar(255)" json:"note"`
	Actor     string      `gorm:"not null;type:varchar(50)" json:"actor"`
	CreatedAt time.Time   `gorm:"not null;default:now()" json:"created_at"`
}

type ShippingAddress struct {
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	District   string `json:"district"`
	AddressLn  string `json:"address"`
	PostalCode string `json:"postal_code"`
}

// Transition 驗證並套用狀態轉移，回傳要附加的歷史紀錄
// 退貨另走 TransitionToReturned，因為需要檢查退貨期限
func (o *Order) Transition(to OrderStatus, note, actor string, now time.Time) (*OrderStatusHistory, error) {
	if !CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, to)
	}

	if to == OrderStatusReturned {
		if o.DeliveredAt != nil && now.Sub(*o.DeliveredAt) > ReturnWindow {
			return nil, fmt.Errorf("%w: delivered at %s", ErrReturnWindowExpired, o.DeliveredAt.Format(time.RFC3339))
		}
	}

	o.Status = to
	if to == OrderStatusDelivered {
		o.DeliveredAt = &now
	}

	return &OrderStatusHistory{
		OrderID:   o.ID,
		Status:    to,
		Note:      note,
		Actor:     actor,
		CreatedAt: now,
	}, nil
}

// IsCancellable 取消只允許在出貨前
func (o *Order) IsCancellable() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusPackaged:
		return true
	}
	return false
}

// CompletedPayment 回傳已完成的付款嘗試，一張訂單最多一筆
func (o *Order) CompletedPayment() *Payment {
	for i := range o.Payments {
		if o.Payments[i].Status == PaymentStatusCompleted {
			return &o.Payments[i]
		}
	}
	return nil
}
