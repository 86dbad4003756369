package redis_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

// IStockRepository 定義 Redis 庫存帳本的介面
// 所有寫入操作皆以單一Lua腳本執行，對同一商品天然序列化
type IStockRepository interface {
	// InitStock 建立或重設商品庫存計數器
	InitStock(ctx context.Context, productID string, onHand int) error

	// GetStock 取得商品庫存計數器
	GetStock(ctx context.Context, productID string) (*model.StockInfo, error)

	// Reserve 預留庫存，可預留量不足回傳ErrInsufficientStock
	Reserve(ctx context.Context, productID string, qty int) error

	// Release 釋放預留，超量釋放會被夾在0，冪等
	Release(ctx context.Context, productID string, qty int) error

	// CommitSale 把預留轉為實際銷售
	CommitSale(ctx context.Context, productID string, qty int) error

	// Restock 取消/退貨時回補庫存
	Restock(ctx context.Context, productID string, qty int) error
}

type StockRepoError error

var (
	ErrStockNotFound      StockRepoError = errors.New("product stock not found")
	ErrInsufficientStock  StockRepoError = errors.New("insufficient stock")
	ErrUnexpectedEvalType StockRepoError = errors.New("unexpected lua result type")
)

/*	redis 庫存帳本
	結構:
	stock:{productID}: {
		on_hand: 100,
		reserved: 3,
		sold: 7,
	}*/

type StockRepo struct {
	stockCache *redis.Client
}

func NewStockRepo(stockCache *redis.Client) *StockRepo {
	return &StockRepo{stockCache: stockCache}
}

func generateStockKey(productID string) string {
	return fmt.Sprintf("stock:%s", productID)
}

// 預留庫存
// 不變量: reserved <= on_hand 由腳本內檢查保證
const reserveScript = `
local key = KEYS[1]
local qty = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 0 then
	return -1
end

local on_hand = tonumber(redis.call('HGET', key, 'on_hand') or "0")
local reserved = tonumber(redis.call('HGET', key, 'reserved') or "0")

if on_hand - reserved < qty then
	return -2  -- 可預留量不足
end

return redis.call('HINCRBY', key, 'reserved', qty)
`

// 釋放預留，夾在0避免超量釋放
const releaseScript = `
local key = KEYS[1]
local qty = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 0 then
	return -1
end

local reserved = tonumber(redis.call('HGET', key, 'reserved') or "0")
local dec = math.min(reserved, qty)
if dec > 0 then
	redis.call('HINCRBY', key, 'reserved', -dec)
end
return reserved - dec
`

// 預留轉銷售: on_hand減少、sold增加、reserved同步扣回
const commitSaleScript = `
local key = KEYS[1]
local qty = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 0 then
	return -1
end

local on_hand = tonumber(redis.call('HGET', key, 'on_hand') or "0")
if on_hand < qty then
	return -2
end

redis.call('HINCRBY', key, 'on_hand', -qty)
redis.call('HINCRBY', key, 'sold', qty)

local reserved = tonumber(redis.call('HGET', key, 'reserved') or "0")
local dec = math.min(reserved, qty)
if dec > 0 then
	redis.call('HINCRBY', key, 'reserved', -dec)
end
return on_hand - qty
`

// 回補庫存: on_hand增加、sold扣回夾在0
const restockScript = `
local key = KEYS[1]
local qty = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 0 then
	return -1
end

redis.call('HINCRBY', key, 'on_hand', qty)

local sold = tonumber(redis.call('HGET', key, 'sold') or "0")
local dec = math.min(sold, qty)
if dec > 0 then
	redis.call('HINCRBY', key, 'sold', -dec)
end
return redis.call('HGET', key, 'on_hand')
`

func (s *StockRepo) InitStock(ctx context.Context, productID string, onHand int) error {
	redisKey := generateStockKey(productID)
	err := s.stockCache.HSet(ctx, redisKey, "on_hand", onHand, "reserved", 0, "sold", 0).Err()
	if err != nil {
		return fmt.Errorf("failed to init stock: %w", err)
	}
	return nil
}

func (s *StockRepo) GetStock(ctx context.Context, productID string) (*model.StockInfo, error) {
	redisKey := generateStockKey(productID)
	values, err := s.stockCache.HGetAll(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: product %s", ErrStockNotFound, productID)
	}

	info := &model.StockInfo{ProductID: productID}
	if _, err := fmt.Sscan(values["on_hand"], &info.OnHand); err != nil {
		return nil, fmt.Errorf("invalid on_hand for product %s: %w", productID, err)
	}
	fmt.Sscan(values["reserved"], &info.Reserved)
	fmt.Sscan(values["sold"], &info.Sold)
	return info, nil
}

func (s *StockRepo) Reserve(ctx context.Context, productID string, qty int) error {
	return s.eval(ctx, reserveScript, productID, qty, "reserve")
}

func (s *StockRepo) Release(ctx context.Context, productID string, qty int) error {
	return s.eval(ctx, releaseScript, productID, qty, "release")
}

func (s *StockRepo) CommitSale(ctx context.Context, productID string, qty int) error {
	return s.eval(ctx, commitSaleScript, productID, qty, "commit_sale")
}

func (s *StockRepo) Restock(ctx context.Context, productID string, qty int) error {
	return s.eval(ctx, restockScript, productID, qty, "restock")
}

func (s *StockRepo) eval(ctx context.Context, script, productID string, qty int, op string) error {
	redisKey := generateStockKey(productID)
	result, err := s.stockCache.Eval(ctx, script, []string{redisKey}, qty).Result()
	if err != nil {
		return fmt.Errorf("failed to %s stock: %w", op, err)
	}

	resultInt, ok := result.(int64)
	if !ok {
		// restock腳本最後回傳HGET字串
		if _, isStr := result.(string); isStr {
			return nil
		}
		return fmt.Errorf("%w: %T", ErrUnexpectedEvalType, result)
	}

	switch resultInt {
	case -1:
		return fmt.Errorf("%w: product %s", ErrStockNotFound, productID)
	case -2:
		return fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
	default:
		return nil
	}
}

// 確保 StockRepo 實現了 IStockRepository 介面
var _ IStockRepository = (*StockRepo)(nil)
