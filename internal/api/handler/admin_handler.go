package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

// AdminHandler 管理端: 折價券、活動與庫存維護
type AdminHandler struct {
	couponService   service.ICouponService
	campaignService service.ICampaignService
	stockService    service.IStockService
}

func NewAdminHandler(couponService service.ICouponService, campaignService service.ICampaignService, stockService service.IStockService) *AdminHandler {
	if couponService == nil || campaignService == nil || stockService == nil {
		panic("admin handler services cannot be nil")
	}
	return &AdminHandler{
		couponService:   couponService,
		campaignService: campaignService,
		stockService:    stockService,
	}
}

func (h *AdminHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var coupon model.Coupon
	if err := json.NewDecoder(r.Body).Decode(&coupon); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	if err := h.couponService.CreateCoupon(r.Context(), &coupon); err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, coupon)
}

func (h *AdminHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.couponService.ListCoupons(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, coupons)
}

func (h *AdminHandler) DeactivateCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.couponService.DeactivateCoupon(r.Context(), code); err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, nil)
}

func (h *AdminHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var campaign model.Campaign
	if err := json.NewDecoder(r.Body).Decode(&campaign); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	if err := h.campaignService.CreateCampaign(r.Context(), &campaign); err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, campaign)
}

func (h *AdminHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "campaignID")
	if err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	campaign, err := h.campaignService.GetCampaign(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, campaign)
}

func (h *AdminHandler) ListCampaignsByStatus(w http.ResponseWriter, r *http.Request) {
	status := model.CampaignStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.CampaignStatusActive
	}

	campaigns, err := h.campaignService.ListByStatus(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, campaigns)
}

// TransitionCampaign 操作活動生命週期（排程/啟用/暫停/結束/取消）
func (h *AdminHandler) TransitionCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "campaignID")
	if err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	campaign, err := h.campaignService.TransitionStatus(r.Context(), id, model.CampaignStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, campaign)
}

// CheckCampaignEligibility 檢視指定用戶對活動的資格
func (h *AdminHandler) CheckCampaignEligibility(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uintParam(r, "campaignID")
	if err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}
	userID, err := uintParam(r, "userID")
	if err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	if err := h.campaignService.CheckUserEligibility(r.Context(), campaignID, userID); err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, map[string]bool{"eligible": true})
}

func (h *AdminHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.stockService.GetStock(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, stock)
}

func (h *AdminHandler) InitStock(w http.ResponseWriter, r *http.Request) {
	var req dto.InitStockDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	if err := h.stockService.InitStock(r.Context(), req.ProductID, req.OnHand); err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, nil)
}

func (h *AdminHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req dto.RestockDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	productID := chi.URLParam(r, "productID")
	if err := h.stockService.RestockAll(r.Context(), []service.StockLine{{ProductID: productID, Quantity: req.Quantity}}); err != nil {
		writeServiceError(w, err)
		return
	}

	stock, err := h.stockService.GetStock(r.Context(), productID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, stock)
}
