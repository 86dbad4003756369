package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // 已建立，等待gateway回調
	PaymentStatusCompleted PaymentStatus = "completed" // gateway確認成功
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled" // 用戶在gateway端取消
	PaymentStatusRefunded  PaymentStatus = "refunded"  // completed之後退款
)

// Payment 單次付款嘗試，與訂單一對多
// 同一張訂單可以重試多次，但最多只有一筆completed
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	AttemptID     string          `gorm:"not null;type:varchar(50);uniqueIndex" json:"attempt_id"`
	OrderID       uint            `gorm:"not null;index" json:"order_id"`
	Authority     string          `gorm:"not null;type:varchar(100);uniqueIndex" json:"authority"`
	TransactionID string          `gorm:"type:varchar(100)" json:"transaction_id,omitempty"`
	Status        PaymentStatus   `gorm:"not null;type:varchar(20);default:'pending'" json:"status"`
	Amount        decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"amount"`
	VerifiedAt    *time.Time      `json:"verified_at,omitempty"`
	BaseModel
}
