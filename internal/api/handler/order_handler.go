package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type OrderHandler struct {
	orderService service.IOrderService
}

func NewOrderHandler(orderService service.IOrderService) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{orderService: orderService}
}

// CreateOrder 由購物車結帳
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	var req dto.CreateOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), service.CreateOrderRequest{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, order)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uintParam(r, "orderID")
	if err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, order)
}

func (h *OrderHandler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	orders, err := h.orderService.GetUserOrders(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, orders)
}

// ListOrders 管理端分頁列表
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)

	orders, total, err := h.orderService.ListOrders(r.Context(), page, pageSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.PagedJSON(w, orders, total, page, pageSize)
}

// UpdateStatus 管理端推進訂單狀態
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uintParam(r, "orderID")
	if err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	var req dto.UpdateOrderStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	order, err := h.orderService.AdvanceStatus(r.Context(), orderID, model.OrderStatus(req.Status), req.Note, "admin")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, order)
}

// CancelOrder 用戶出貨前取消
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if _, err := userIDFromHeader(r); err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	orderID, err := uintParam(r, "orderID")
	if err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	var req dto.CancelOrderDTO
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	order, err := h.orderService.Cancel(r.Context(), orderID, req.Reason, "user")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, order)
}

// ReturnOrder 送達後7天內退貨
func (h *OrderHandler) ReturnOrder(w http.ResponseWriter, r *http.Request) {
	if _, err := userIDFromHeader(r); err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	orderID, err := uintParam(r, "orderID")
	if err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	var req dto.CancelOrderDTO
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	order, err := h.orderService.Return(r.Context(), orderID, req.Reason, "user")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, order)
}
