package model

import (
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product 型錄商品的讀取模型
// 本引擎只讀取商品內容，不做任何型錄寫入；庫存計數另由redis stock ledger管理
type Product struct {
	ProductID       string          `gorm:"primaryKey;type:varchar(50)" json:"product_id"`
	Name            string          `gorm:"not null;type:varchar(100)" json:"name"`
	Price           decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"price"`
	DiscountPercent decimal.Decimal `gorm:"not null;type:decimal(5,2);default:0" json:"discount_percent"`
	CategoryID      string          `gorm:"not null;type:varchar(50);index" json:"category_id"`
	Brand           string          `gorm:"type:varchar(50)" json:"brand"`
	Status          ProductStatus   `gorm:"not null;type:varchar(20);default:'active'" json:"status"`
	BaseModel
}

// StockInfo 單一商品的庫存計數器
// 不變量: 0 <= reserved <= on_hand，available = on_hand - reserved
type StockInfo struct {
	ProductID string `json:"product_id"`
	OnHand    int    `json:"on_hand"`
	Reserved  int    `json:"reserved"`
	Sold      int    `json:"sold"`
}

// Available 可再預留的數量
func (s StockInfo) Available() int {
	return s.OnHand - s.Reserved
}
