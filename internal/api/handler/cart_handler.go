package handler

import (
	"encoding/json"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cartService service.ICartService
}

func NewCartHandler(cartService service.ICartService) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	cart, err := h.cartService.GetCart(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCartToDTO(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	var req dto.AddCartItemDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	cart, err := h.cartService.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCartToDTO(cart))
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	var req dto.UpdateCartItemDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	cart, err := h.cartService.UpdateItem(r.Context(), userID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCartToDTO(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	cart, err := h.cartService.RemoveItem(r.Context(), userID, chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCartToDTO(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	if err := h.cartService.ClearCart(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, nil)
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	var req dto.ApplyCouponDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	cart, err := h.cartService.ApplyCoupon(r.Context(), userID, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCartToDTO(cart))
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	cart, err := h.cartService.RemoveCoupon(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertCartToDTO(cart))
}

// Preview 購物車結帳前預覽計價
func (h *CartHandler) Preview(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	pricing, err := h.cartService.Preview(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, dto.ConvertPricingToDTO(pricing))
}
