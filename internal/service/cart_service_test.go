package service

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartServiceTestSuite struct {
	suite.Suite
	cartRepo    *fakeCartRepo
	productRepo *fakeProductRepo
	stockRepo   *fakeStockRepo
	cartService *CartService
}

func (suite *CartServiceTestSuite) SetupTest() {
	suite.cartRepo = newFakeCartRepo()
	suite.productRepo = newFakeProductRepo(
		&model.Product{ProductID: "p1", Name: "widget", Price: d("100"), DiscountPercent: d("10"), CategoryID: "c1", Status: model.ProductStatusActive},
		&model.Product{ProductID: "p2", Name: "legacy", Price: d("50"), CategoryID: "c1", Status: model.ProductStatusInactive},
	)
	suite.stockRepo = newFakeStockRepo()
	suite.stockRepo.InitStock(context.Background(), "p1", 5)

	now := time.Now().UTC()
	coupon := &model.Coupon{
		ID: 1, Code: "SAVE10", DiscountType: model.DiscountTypePercentage,
		DiscountValue: d("10"),
		ValidFrom:     now.Add(-time.Hour), ValidUntil: now.Add(time.Hour), IsActive: true,
	}

	stockService := NewStockService(suite.stockRepo, zerolog.Nop())
	discountService := NewDiscountService(newFakeCouponRepo(coupon), newFakeCampaignRepo(), newFakeOrderRepo())
	suite.cartService = NewCartService(suite.cartRepo, suite.productRepo, stockService, discountService)
}

func (suite *CartServiceTestSuite) TestGetCart_LazyEmpty() {
	cart, err := suite.cartService.GetCart(context.Background(), 1)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), uint(1), cart.UserID)
	require.Empty(suite.T(), cart.Items)
}

func (suite *CartServiceTestSuite) TestAddItem_SnapshotsCatalogValues() {
	cart, err := suite.cartService.AddItem(context.Background(), 1, "p1", 2)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), cart.Items, 1)
	require.Equal(suite.T(), 2, cart.Items[0].Quantity)
	require.True(suite.T(), d("100").Equal(cart.Items[0].UnitPrice))
	require.True(suite.T(), d("10").Equal(cart.Items[0].UnitDiscountPercent))
}

func (suite *CartServiceTestSuite) TestAddItem_AccumulatesQuantity() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, 1, "p1", 2)
	require.NoError(suite.T(), err)
	cart, err := suite.cartService.AddItem(ctx, 1, "p1", 1)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), cart.Items, 1)
	require.Equal(suite.T(), 3, cart.Items[0].Quantity)
}

// 累加超過可用庫存要擋，既有數量不變
func (suite *CartServiceTestSuite) TestAddItem_AccumulationExceedsStock() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, 1, "p1", 4)
	require.NoError(suite.T(), err)

	_, err = suite.cartService.AddItem(ctx, 1, "p1", 3)
	require.ErrorIs(suite.T(), err, ErrInsufficientStock)

	cart, _ := suite.cartService.GetCart(ctx, 1)
	require.Equal(suite.T(), 4, cart.Items[0].Quantity)
}

func (suite *CartServiceTestSuite) TestAddItem_InactiveProduct() {
	_, err := suite.cartService.AddItem(context.Background(), 1, "p2", 1)
	require.ErrorIs(suite.T(), err, ErrProductUnavailable)
}

func (suite *CartServiceTestSuite) TestAddItem_QuantityInvalid() {
	_, err := suite.cartService.AddItem(context.Background(), 1, "p1", 0)
	require.ErrorIs(suite.T(), err, ErrQuantityInvalid)
}

func (suite *CartServiceTestSuite) TestUpdateItem_OverwritesQuantity() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, 1, "p1", 4)
	require.NoError(suite.T(), err)

	cart, err := suite.cartService.UpdateItem(ctx, 1, "p1", 2)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 2, cart.Items[0].Quantity)
}

func (suite *CartServiceTestSuite) TestRemoveItem() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, 1, "p1", 2)
	require.NoError(suite.T(), err)

	cart, err := suite.cartService.RemoveItem(ctx, 1, "p1")
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), cart.Items)
}

func (suite *CartServiceTestSuite) TestApplyCoupon() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, 1, "p1", 2)
	require.NoError(suite.T(), err)

	cart, err := suite.cartService.ApplyCoupon(ctx, 1, "SAVE10")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cart.Coupon)
	require.Equal(suite.T(), "SAVE10", cart.Coupon.Code)
	require.Equal(suite.T(), model.DiscountTypePercentage, cart.Coupon.DiscountType)
}

func (suite *CartServiceTestSuite) TestApplyCoupon_EmptyCart() {
	_, err := suite.cartService.ApplyCoupon(context.Background(), 1, "SAVE10")
	require.ErrorIs(suite.T(), err, ErrCartEmpty)
}

func (suite *CartServiceTestSuite) TestApplyCoupon_UnknownCode() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, 1, "p1", 1)
	require.NoError(suite.T(), err)

	_, err = suite.cartService.ApplyCoupon(ctx, 1, "NOPE")
	require.ErrorIs(suite.T(), err, ErrCouponInvalid)
}

func (suite *CartServiceTestSuite) TestPreview_WithCoupon() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, 1, "p1", 2)
	require.NoError(suite.T(), err)
	_, err = suite.cartService.ApplyCoupon(ctx, 1, "SAVE10")
	require.NoError(suite.T(), err)

	pricing, err := suite.cartService.Preview(ctx, 1)
	require.NoError(suite.T(), err)

	// subtotal 200, 商品折扣20, 券折10% = 18, total 162
	require.True(suite.T(), d("200").Equal(pricing.Subtotal))
	require.True(suite.T(), d("20").Equal(pricing.ProductDiscount))
	require.True(suite.T(), d("18").Equal(pricing.CouponDiscount), "coupon discount = %s", pricing.CouponDiscount)
	require.True(suite.T(), d("162").Equal(pricing.Total), "total = %s", pricing.Total)
}

// 預覽永遠用型錄現價，不用加入當下的快照價
func (suite *CartServiceTestSuite) TestPreview_ReflectsCatalogPriceChange() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, 1, "p1", 1)
	require.NoError(suite.T(), err)

	suite.productRepo.products["p1"].Price = d("200")

	pricing, err := suite.cartService.Preview(ctx, 1)
	require.NoError(suite.T(), err)
	require.True(suite.T(), d("200").Equal(pricing.Subtotal))
}

func (suite *CartServiceTestSuite) TestRemoveCoupon() {
	ctx := context.Background()
	_, err := suite.cartService.AddItem(ctx, 1, "p1", 1)
	require.NoError(suite.T(), err)
	_, err = suite.cartService.ApplyCoupon(ctx, 1, "SAVE10")
	require.NoError(suite.T(), err)

	cart, err := suite.cartService.RemoveCoupon(ctx, 1)
	require.NoError(suite.T(), err)
	require.Nil(suite.T(), cart.Coupon)
}

func TestCartServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}
