package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/service"
)

type PaymentHandler struct {
	paymentService service.IPaymentService
	cf             *config.Config
}

func NewPaymentHandler(paymentService service.IPaymentService, cf *config.Config) *PaymentHandler {
	if paymentService == nil {
		panic("paymentService cannot be nil")
	}
	return &PaymentHandler{paymentService: paymentService, cf: cf}
}

// Initiate 發起付款，回傳gateway導轉網址
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	if _, err := userIDFromHeader(r); err != nil {
		api.ErrorJSON(w, http.StatusUnauthorized, err)
		return
	}

	var req dto.InitiatePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.paymentService.Initiate(r.Context(), req.OrderID, h.cf.PaymentCallback)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, result)
}

// Callback gateway付款完成後的回調，以authority確認付款結果
// 冪等，gateway重送同一authority不會重複處理
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	authority := r.URL.Query().Get("authority")
	if authority == "" {
		api.ErrorJSON(w, http.StatusBadRequest, errors.New("missing authority"))
		return
	}

	payment, err := h.paymentService.Verify(r.Context(), authority)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.SuccessJSON(w, payment)
}
