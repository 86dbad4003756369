package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserCohort string

const (
	CohortNew      UserCohort = "new"      // 沒有任何已送達訂單
	CohortVIP      UserCohort = "vip"      // 累積消費達門檻
	CohortInactive UserCohort = "inactive" // 90天內沒有已送達訂單
	CohortRegular  UserCohort = "regular"
)

// VIPSpendThreshold 累積消費達此金額歸類為vip
var VIPSpendThreshold = decimal.NewFromInt(1_000_000)

// InactiveWindow 超過此期間沒有已送達訂單歸類為inactive
const InactiveWindow = 90 * 24 * time.Hour

// UserOrderStats 用戶訂單統計，只計入已送達的訂單
type UserOrderStats struct {
	DeliveredCount  int
	LifetimeSpend   decimal.Decimal
	LastDeliveredAt *time.Time
}

// DeriveCohort 由訂單歷史推導用戶分群，判斷順序: new > vip > inactive > regular
func DeriveCohort(stats UserOrderStats, now time.Time) UserCohort {
	if stats.DeliveredCount == 0 {
		return CohortNew
	}
	if stats.LifetimeSpend.GreaterThanOrEqual(VIPSpendThreshold) {
		return CohortVIP
	}
	if stats.LastDeliveredAt == nil || now.Sub(*stats.LastDeliveredAt) > InactiveWindow {
		return CohortInactive
	}
	return CohortRegular
}
