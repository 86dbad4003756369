package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/gateway"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

var errMissingUserID = errors.New("missing or invalid X-User-ID header")

// userIDFromHeader 用戶識別由上游閘道驗證後以header傳入
func userIDFromHeader(r *http.Request) (uint, error) {
	raw := r.Header.Get("X-User-ID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errMissingUserID
	}
	return uint(id), nil
}

func uintParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// writeServiceError 把service層的sentinel error對應到HTTP狀態碼
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrOrderNotFound),
		errors.Is(err, db.ErrCouponNotFound),
		errors.Is(err, db.ErrCampaignNotFound),
		errors.Is(err, db.ErrPaymentNotFound),
		errors.Is(err, db.ErrProductNotFound),
		errors.Is(err, service.ErrStockNotFound):
		api.ErrorJSON(w, http.StatusNotFound, err)

	case errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrQuantityInvalid),
		errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrCouponInvalid),
		errors.Is(err, service.ErrCouponBelowMinimum),
		errors.Is(err, service.ErrCampaignNotEligible),
		errors.Is(err, model.ErrCouponPercentTooLarge),
		errors.Is(err, model.ErrCouponWindowInvalid),
		errors.Is(err, model.ErrCampaignWindowInvalid):
		api.ErrorJSON(w, http.StatusBadRequest, err)

	case errors.Is(err, service.ErrInsufficientStock):
		api.ErrorJSON(w, http.StatusConflict, err)

	case errors.Is(err, model.ErrIllegalTransition),
		errors.Is(err, model.ErrReturnWindowExpired),
		errors.Is(err, model.ErrCampaignIllegalTransition),
		errors.Is(err, service.ErrOrderNotCancellable),
		errors.Is(err, service.ErrPaymentNotPayable),
		errors.Is(err, service.ErrPaymentAlreadyCompleted):
		api.ErrorJSON(w, http.StatusConflict, err)

	case errors.Is(err, service.ErrPaymentVerificationFailed):
		api.ErrorJSON(w, http.StatusPaymentRequired, err)

	case errors.Is(err, gateway.ErrGatewayUnavailable):
		api.ErrorJSON(w, http.StatusBadGateway, err)

	default:
		api.ErrorJSON(w, http.StatusInternalServerError, err)
	}
}
