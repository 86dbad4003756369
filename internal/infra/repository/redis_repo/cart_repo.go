package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

type CartRepoError error

var ErrCartNotFound CartRepoError = errors.New("cart not found")

// ICartRepository 定義 Redis 購物車操作的介面
type ICartRepository interface {
	// Get 取得購物車，不存在回傳ErrCartNotFound
	Get(ctx context.Context, userID uint) (*model.Cart, error)

	// SetItem 寫入/覆蓋單一商品項，並刷新TTL
	SetItem(ctx context.Context, userID uint, item model.CartItem) error

	// RemoveItem 移除單一商品項
	RemoveItem(ctx context.Context, userID uint, productID string) error

	// SetCoupon 寫入套用中的折價券快照，nil表示移除
	SetCoupon(ctx context.Context, userID uint, coupon *model.AppliedCoupon) error

	// Clear 清空整台購物車
	Clear(ctx context.Context, userID uint) error
}

/*	redis 購物車
	結構:
	cart:{userID}:items: { productID: <json CartItem> }
	cart:{userID}:meta:  { coupon: <json AppliedCoupon> }
	兩個key共用30天TTL，每次變動刷新*/

type CartRepo struct {
	cartCache *redis.Client
}

func NewCartRepo(cartCache *redis.Client) *CartRepo {
	return &CartRepo{cartCache: cartCache}
}

func generateCartItemKey(userID uint) string {
	return fmt.Sprintf("cart:%d:items", userID)
}

func generateCartMetaKey(userID uint) string {
	return fmt.Sprintf("cart:%d:meta", userID)
}

// 寫入hash欄位並刷新兩個cart key的TTL，單一Lua腳本保證原子性
const cartHSetScript = `
redis.call('HSET', KEYS[1], ARGV[2], ARGV[3])
redis.call('EXPIRE', KEYS[1], ARGV[1])
redis.call('EXPIRE', KEYS[2], ARGV[1])
return 1
`

const cartHDelScript = `
redis.call('HDEL', KEYS[1], ARGV[2])
redis.call('EXPIRE', KEYS[1], ARGV[1])
redis.call('EXPIRE', KEYS[2], ARGV[1])
return 1
`

func (r *CartRepo) Get(ctx context.Context, userID uint) (*model.Cart, error) {
	itemsKey := generateCartItemKey(userID)
	metaKey := generateCartMetaKey(userID)

	items, err := r.cartCache.HGetAll(ctx, itemsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}

	meta, err := r.cartCache.HGetAll(ctx, metaKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get cart meta: %w", err)
	}

	if len(items) == 0 && len(meta) == 0 {
		return nil, fmt.Errorf("%w: user %d", ErrCartNotFound, userID)
	}

	cart := &model.Cart{UserID: userID}
	for productID, raw := range items {
		var item model.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("invalid cart item for product %s: %w", productID, err)
		}
		cart.Items = append(cart.Items, item)
	}
	// hash欄位沒有順序，以加入時間排序讓每次讀取的列順序穩定
	sort.Slice(cart.Items, func(i, j int) bool {
		if cart.Items[i].AddedAt.Equal(cart.Items[j].AddedAt) {
			return cart.Items[i].ProductID < cart.Items[j].ProductID
		}
		return cart.Items[i].AddedAt.Before(cart.Items[j].AddedAt)
	})

	if raw, ok := meta["coupon"]; ok && raw != "" {
		var coupon model.AppliedCoupon
		if err := json.Unmarshal([]byte(raw), &coupon); err != nil {
			return nil, fmt.Errorf("invalid applied coupon: %w", err)
		}
		cart.Coupon = &coupon
	}

	return cart, nil
}

func (r *CartRepo) SetItem(ctx context.Context, userID uint, item model.CartItem) error {
	itemsKey := generateCartItemKey(userID)
	metaKey := generateCartMetaKey(userID)

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal cart item: %w", err)
	}

	ttl := int(model.CartTTL.Seconds())
	err = r.cartCache.Eval(ctx, cartHSetScript, []string{itemsKey, metaKey}, ttl, item.ProductID, string(raw)).Err()
	if err != nil {
		return fmt.Errorf("failed to set cart item: %w", err)
	}
	return nil
}

func (r *CartRepo) RemoveItem(ctx context.Context, userID uint, productID string) error {
	itemsKey := generateCartItemKey(userID)
	metaKey := generateCartMetaKey(userID)

	ttl := int(model.CartTTL.Seconds())
	err := r.cartCache.Eval(ctx, cartHDelScript, []string{itemsKey, metaKey}, ttl, productID).Err()
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (r *CartRepo) SetCoupon(ctx context.Context, userID uint, coupon *model.AppliedCoupon) error {
	itemsKey := generateCartItemKey(userID)
	metaKey := generateCartMetaKey(userID)
	ttl := int(model.CartTTL.Seconds())

	if coupon == nil {
		err := r.cartCache.Eval(ctx, cartHDelScript, []string{metaKey, itemsKey}, ttl, "coupon").Err()
		if err != nil {
			return fmt.Errorf("failed to remove applied coupon: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(coupon)
	if err != nil {
		return fmt.Errorf("failed to marshal applied coupon: %w", err)
	}
	err = r.cartCache.Eval(ctx, cartHSetScript, []string{metaKey, itemsKey}, ttl, "coupon", string(raw)).Err()
	if err != nil {
		return fmt.Errorf("failed to set applied coupon: %w", err)
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, userID uint) error {
	itemsKey := generateCartItemKey(userID)
	metaKey := generateCartMetaKey(userID)

	err := r.cartCache.Del(ctx, itemsKey, metaKey).Err()
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// 確保 CartRepo 實現了 ICartRepository 介面
var _ ICartRepository = (*CartRepo)(nil)
