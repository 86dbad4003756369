package model

import (
	"time"
)

// BaseModel 共用的時間戳欄位
// 本引擎的紀錄不做實體刪除: 訂單以狀態表示取消/退貨，券以is_active停用
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"null"`
}
