package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/rs/zerolog"
)

var ErrCampaignTransition = model.ErrCampaignIllegalTransition

type ICampaignService interface {
	CreateCampaign(ctx context.Context, campaign *model.Campaign) error
	GetCampaign(ctx context.Context, id uint) (*model.Campaign, error)
	ListByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error)
	// TransitionStatus 管理端操作活動生命週期，非法轉移拒絕
	TransitionStatus(ctx context.Context, id uint, to model.CampaignStatus) (*model.Campaign, error)
	// CheckUserEligibility 管理端檢視指定用戶對活動的資格
	CheckUserEligibility(ctx context.Context, campaignID, userID uint) error
}

type CampaignService struct {
	campaignRepo    db.ICampaignRepository
	discountService *DiscountService
}

func NewCampaignService(campaignRepo db.ICampaignRepository, discountService *DiscountService) *CampaignService {
	return &CampaignService{
		campaignRepo:    campaignRepo,
		discountService: discountService,
	}
}

func (s *CampaignService) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	if err := campaign.Validate(); err != nil {
		return err
	}
	if campaign.Status == "" {
		campaign.Status = model.CampaignStatusDraft
	}
	return s.campaignRepo.CreateCampaign(ctx, campaign)
}

func (s *CampaignService) GetCampaign(ctx context.Context, id uint) (*model.Campaign, error) {
	return s.campaignRepo.GetCampaignByID(ctx, id)
}

func (s *CampaignService) ListByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	return s.campaignRepo.GetCampaignsByStatus(ctx, status)
}

func (s *CampaignService) TransitionStatus(ctx context.Context, id uint, to model.CampaignStatus) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.GetCampaignByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !campaign.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrCampaignTransition, campaign.Status, to)
	}
	if err := s.campaignRepo.UpdateCampaignStatus(ctx, id, to); err != nil {
		return nil, err
	}
	campaign.Status = to
	return campaign, nil
}

func (s *CampaignService) CheckUserEligibility(ctx context.Context, campaignID, userID uint) error {
	campaign, err := s.campaignRepo.GetCampaignByID(ctx, campaignID)
	if err != nil {
		return err
	}
	return s.discountService.CheckEligibility(ctx, campaign, userID, time.Now().UTC())
}

var _ ICampaignService = (*CampaignService)(nil)

// CampaignSweeper 定期掃描活動生命週期
// scheduled且開始時間已到 -> active；active且結束時間已過 -> ended
type CampaignSweeper struct {
	campaignRepo db.ICampaignRepository
	interval     time.Duration
	logger       zerolog.Logger
}

func NewCampaignSweeper(campaignRepo db.ICampaignRepository, interval time.Duration, logger zerolog.Logger) *CampaignSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CampaignSweeper{
		campaignRepo: campaignRepo,
		interval:     interval,
		logger:       logger,
	}
}

// Run blocking，context取消後結束
func (w *CampaignSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.SweepOnce(ctx, time.Now().UTC())
		}
	}
}

// SweepOnce 單次掃描，單筆失敗只記log繼續掃下一筆
func (w *CampaignSweeper) SweepOnce(ctx context.Context, now time.Time) {
	scheduled, err := w.campaignRepo.GetCampaignsByStatus(ctx, model.CampaignStatusScheduled)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to load scheduled campaigns")
	}
	for _, campaign := range scheduled {
		if now.Before(campaign.StartDate) {
			continue
		}
		if err := w.campaignRepo.UpdateCampaignStatus(ctx, campaign.ID, model.CampaignStatusActive); err != nil && !errors.Is(err, db.ErrCampaignNotFound) {
			w.logger.Error().Uint("campaign_id", campaign.ID).Err(err).Msg("failed to activate campaign")
			continue
		}
		w.logger.Info().Uint("campaign_id", campaign.ID).Str("name", campaign.Name).Msg("campaign activated")
	}

	active, err := w.campaignRepo.GetCampaignsByStatus(ctx, model.CampaignStatusActive)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to load active campaigns")
	}
	for _, campaign := range active {
		if now.Before(campaign.EndDate) {
			continue
		}
		if err := w.campaignRepo.UpdateCampaignStatus(ctx, campaign.ID, model.CampaignStatusEnded); err != nil && !errors.Is(err, db.ErrCampaignNotFound) {
			w.logger.Error().Uint("campaign_id", campaign.ID).Err(err).Msg("failed to end campaign")
			continue
		}
		w.logger.Info().Uint("campaign_id", campaign.ID).Str("name", campaign.Name).Msg("campaign ended")
	}
}
