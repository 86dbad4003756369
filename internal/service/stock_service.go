package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog"
)

var (
	ErrInsufficientStock = redis_repo.ErrInsufficientStock
	ErrStockNotFound     = redis_repo.ErrStockNotFound
)

// StockLine 多商品庫存操作的單列輸入
type StockLine struct {
	ProductID string
	Quantity  int
}

type IStockService interface {
	GetStock(ctx context.Context, productID string) (*model.StockInfo, error)
	InitStock(ctx context.Context, productID string, onHand int) error
	// ReserveAll 逐列預留，任何一列失敗就補償釋放已預留的列後回傳錯誤
	ReserveAll(ctx context.Context, lines []StockLine) error
	// ReleaseAll 釋放預留，用於取消未付款訂單的補償
	ReleaseAll(ctx context.Context, lines []StockLine)
	// CommitAll 付款確認後把預留轉為銷售
	CommitAll(ctx context.Context, lines []StockLine) error
	// RestockAll 已付款訂單取消/退貨時回補庫存
	RestockAll(ctx context.Context, lines []StockLine) error
}

type StockService struct {
	stockRepo redis_repo.IStockRepository
	logger    zerolog.Logger
}

func NewStockService(stockRepo redis_repo.IStockRepository, logger zerolog.Logger) *StockService {
	return &StockService{stockRepo: stockRepo, logger: logger}
}

func (s *StockService) GetStock(ctx context.Context, productID string) (*model.StockInfo, error) {
	return s.stockRepo.GetStock(ctx, productID)
}

func (s *StockService) InitStock(ctx context.Context, productID string, onHand int) error {
	return s.stockRepo.InitStock(ctx, productID, onHand)
}

// ReserveAll saga式預留: 單列原子，跨列用補償而非交易
// 失敗時回傳的錯誤會帶出是哪個商品不足
func (s *StockService) ReserveAll(ctx context.Context, lines []StockLine) error {
	reserved := make([]StockLine, 0, len(lines))
	for _, line := range lines {
		if err := s.stockRepo.Reserve(ctx, line.ProductID, line.Quantity); err != nil {
			// 補償: 釋放這次已預留的部分，絕不留下半預留的訂單
			s.ReleaseAll(ctx, reserved)
			return err
		}
		reserved = append(reserved, line)
	}
	return nil
}

// ReleaseAll 補償用釋放，單列失敗只記log不中斷
// Release本身冪等，超量釋放會被夾在0
func (s *StockService) ReleaseAll(ctx context.Context, lines []StockLine) {
	for _, line := range lines {
		if err := s.stockRepo.Release(ctx, line.ProductID, line.Quantity); err != nil {
			s.logger.Error().
				Str("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Err(err).
				Msg("failed to release reserved stock")
		}
	}
}

func (s *StockService) CommitAll(ctx context.Context, lines []StockLine) error {
	for _, line := range lines {
		if err := s.stockRepo.CommitSale(ctx, line.ProductID, line.Quantity); err != nil {
			// 預留已保證額度，commit失敗代表ledger有bug，視為致命
			if errors.Is(err, redis_repo.ErrInsufficientStock) {
				s.logger.Error().
					Str("product_id", line.ProductID).
					Int("quantity", line.Quantity).
					Msg("commit exceeded on-hand despite reservation, ledger is inconsistent")
			}
			return err
		}
	}
	return nil
}

func (s *StockService) RestockAll(ctx context.Context, lines []StockLine) error {
	for _, line := range lines {
		if err := s.stockRepo.Restock(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

var _ IStockService = (*StockService)(nil)
