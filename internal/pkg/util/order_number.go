package util

import (
	"fmt"
	"time"
)

// FormatOrderNumber 訂單編號: ORD-YYYYMMDD-六位流水號
// 流水號以日為範圍，由redis計數器發放
func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("ORD-%s-%06d", day.Format("20060102"), seq)
}
