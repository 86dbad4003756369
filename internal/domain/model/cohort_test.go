package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDeriveCohort(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-10 * 24 * time.Hour)
	old := now.Add(-120 * 24 * time.Hour)

	testCases := []struct {
		name   string
		stats  UserOrderStats
		expect UserCohort
	}{
		{
			name:   "no delivered orders is new",
			stats:  UserOrderStats{DeliveredCount: 0},
			expect: CohortNew,
		},
		{
			name: "spend threshold reached is vip",
			stats: UserOrderStats{
				DeliveredCount:  3,
				LifetimeSpend:   decimal.NewFromInt(1_000_000),
				LastDeliveredAt: &old,
			},
			expect: CohortVIP,
		},
		{
			// vip判斷在inactive之前，久未消費的大戶仍是vip
			name: "vip beats inactive",
			stats: UserOrderStats{
				DeliveredCount:  10,
				LifetimeSpend:   decimal.NewFromInt(2_000_000),
				LastDeliveredAt: &old,
			},
			expect: CohortVIP,
		},
		{
			name: "stale last delivery is inactive",
			stats: UserOrderStats{
				DeliveredCount:  2,
				LifetimeSpend:   decimal.NewFromInt(5000),
				LastDeliveredAt: &old,
			},
			expect: CohortInactive,
		},
		{
			name: "recent delivery is regular",
			stats: UserOrderStats{
				DeliveredCount:  2,
				LifetimeSpend:   decimal.NewFromInt(5000),
				LastDeliveredAt: &recent,
			},
			expect: CohortRegular,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, DeriveCohort(tc.stats, now))
		})
	}
}
