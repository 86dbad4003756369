package db

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var ErrCampaignNotFound = errors.New("campaign not found")

// ICampaignRepository 促銷活動持久層
type ICampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign *model.Campaign) error
	GetCampaignByID(ctx context.Context, id uint) (*model.Campaign, error)
	// GetRunningCampaigns 取得status=active且時間窗內的活動，依priority遞減排序
	GetRunningCampaigns(ctx context.Context, now time.Time) ([]model.Campaign, error)
	// GetCampaignsByStatus 管理端/清掃器用
	GetCampaignsByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, id uint, status model.CampaignStatus) error
	UpdateCampaign(ctx context.Context, campaign *model.Campaign) error
}

type CampaignRepo struct {
	db *DbDao
}

func NewCampaignRepo(db *DbDao) *CampaignRepo {
	return &CampaignRepo{db: db}
}

func (s *CampaignRepo) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	return s.db.WithContext(ctx).Create(campaign).Error
}

func (s *CampaignRepo) GetCampaignByID(ctx context.Context, id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	err := s.db.WithContext(ctx).First(&campaign, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// 啟用狀態是衍生的: status=active還要落在時間窗內才算執行中
func (s *CampaignRepo) GetRunningCampaigns(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := s.db.WithContext(ctx).
		Where("status = ? AND start_date <= ? AND end_date >= ?", model.CampaignStatusActive, now, now).
		Order("priority DESC").
		Find(&campaigns).Error
	return campaigns, err
}

func (s *CampaignRepo) GetCampaignsByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := s.db.WithContext(ctx).Where("status = ?", status).Find(&campaigns).Error
	return campaigns, err
}

func (s *CampaignRepo) UpdateCampaignStatus(ctx context.Context, id uint, status model.CampaignStatus) error {
	res := s.db.WithContext(ctx).Model(&model.Campaign{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

func (s *CampaignRepo) UpdateCampaign(ctx context.Context, campaign *model.Campaign) error {
	return s.db.WithContext(ctx).Save(campaign).Error
}

var _ ICampaignRepository = (*CampaignRepo)(nil)
