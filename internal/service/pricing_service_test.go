package service

import (
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	result, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return result
}

func TestPriceLines(t *testing.T) {
	lines := []PricingLine{
		{ProductID: "p1", Price: d("100"), DiscountPercent: d("10"), Quantity: 2},
		{ProductID: "p2", Price: d("50"), DiscountPercent: d("0"), Quantity: 1},
	}

	pricing := PriceLines(lines)

	require.True(t, d("250").Equal(pricing.Subtotal), "subtotal = %s", pricing.Subtotal)
	require.True(t, d("20").Equal(pricing.ProductDiscount), "product discount = %s", pricing.ProductDiscount)
	require.True(t, d("230").Equal(pricing.Total), "total = %s", pricing.Total)

	require.Len(t, pricing.Lines, 2)
	require.True(t, d("200").Equal(pricing.Lines[0].ItemTotal))
	require.True(t, d("20").Equal(pricing.Lines[0].ItemDiscount))
	require.True(t, d("90").Equal(pricing.Lines[0].FinalPrice))
	require.True(t, d("50").Equal(pricing.Lines[1].FinalPrice))
}

func TestPriceLines_RoundsToTwoDecimals(t *testing.T) {
	lines := []PricingLine{
		{ProductID: "p1", Price: d("99.99"), DiscountPercent: d("33"), Quantity: 3},
	}

	pricing := PriceLines(lines)

	// 99.99 * 0.33 = 32.9967 -> 每項計算後四捨五入到分
	require.True(t, d("299.97").Equal(pricing.Subtotal), "subtotal = %s", pricing.Subtotal)
	require.True(t, d("99").Equal(pricing.ProductDiscount), "product discount = %s", pricing.ProductDiscount)
	require.True(t, d("67").Equal(pricing.Lines[0].FinalPrice), "final price = %s", pricing.Lines[0].FinalPrice)
}

// 相同輸入必須產生完全一致的結果，預覽與結帳共用此性質
func TestPriceLines_Deterministic(t *testing.T) {
	lines := []PricingLine{
		{ProductID: "p1", Price: d("123.45"), DiscountPercent: d("7.5"), Quantity: 4},
		{ProductID: "p2", Price: d("9.99"), DiscountPercent: d("15"), Quantity: 11},
	}

	first := PriceLines(lines)
	second := PriceLines(lines)

	require.True(t, first.Subtotal.Equal(second.Subtotal))
	require.True(t, first.ProductDiscount.Equal(second.ProductDiscount))
	require.True(t, first.Total.Equal(second.Total))
}

func TestPriceLines_Empty(t *testing.T) {
	pricing := PriceLines(nil)
	require.True(t, pricing.Subtotal.IsZero())
	require.True(t, pricing.Total.IsZero())
	require.Empty(t, pricing.Lines)
}

func TestApplyCouponAdjustment_Percentage(t *testing.T) {
	pricing := PriceLines([]PricingLine{
		{ProductID: "p1", Price: d("100"), DiscountPercent: d("10"), Quantity: 2},
	})

	// payable = 180, 10% = 18
	adjusted := ApplyCouponAdjustment(pricing, model.DiscountTypePercentage, d("10"))
	require.True(t, d("18").Equal(adjusted.CouponDiscount), "coupon discount = %s", adjusted.CouponDiscount)
	require.True(t, d("162").Equal(adjusted.Total), "total = %s", adjusted.Total)
}

func TestApplyCouponAdjustment_FixedCappedAtPayable(t *testing.T) {
	pricing := PriceLines([]PricingLine{
		{ProductID: "p1", Price: d("30"), DiscountPercent: d("0"), Quantity: 1},
	})

	// 固定折抵超過應付金額時夾在應付金額，總額不為負
	adjusted := ApplyCouponAdjustment(pricing, model.DiscountTypeFixed, d("100"))
	require.True(t, d("30").Equal(adjusted.CouponDiscount))
	require.True(t, adjusted.Total.IsZero())
}
