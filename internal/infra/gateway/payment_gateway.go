package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

type GatewayError error

var (
	// ErrGatewayUnavailable 網路層失敗，呼叫端可重試，不代表付款失敗
	ErrGatewayUnavailable GatewayError = errors.New("payment gateway unavailable")
	// ErrVerificationRejected gateway明確回覆付款未成功
	ErrVerificationRejected GatewayError = errors.New("payment verification rejected")
)

// IPaymentGateway 外部金流的兩段式契約
type IPaymentGateway interface {
	// RequestPayment 發起付款，取得導轉網址與authority token
	RequestPayment(ctx context.Context, req PaymentRequest) (*PaymentRequestResult, error)

	// VerifyPayment 以authority向gateway確認付款結果
	VerifyPayment(ctx context.Context, authority string, amount decimal.Decimal) (*VerifyResult, error)
}

type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CallbackURL string          `json:"callback_url"`
}

type PaymentRequestResult struct {
	RedirectURL string `json:"redirect_url"`
	Authority   string `json:"authority"`
}

type VerifyResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
}

// HTTPPaymentGateway 泛用HTTP gateway client
// 實際wire格式依gateway而異，這裡只承諾兩個操作的語意
type HTTPPaymentGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPPaymentGateway(baseURL string, client *http.Client) *HTTPPaymentGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPaymentGateway{
		baseURL: baseURL,
		client:  client,
	}
}

func (g *HTTPPaymentGateway) RequestPayment(ctx context.Context, req PaymentRequest) (*PaymentRequestResult, error) {
	var result PaymentRequestResult
	if err := g.post(ctx, "/payment/request", req, &result); err != nil {
		return nil, err
	}
	if result.Authority == "" {
		return nil, fmt.Errorf("%w: empty authority", ErrVerificationRejected)
	}
	return &result, nil
}

func (g *HTTPPaymentGateway) VerifyPayment(ctx context.Context, authority string, amount decimal.Decimal) (*VerifyResult, error) {
	body := map[string]interface{}{
		"authority": authority,
		"amount":    amount,
	}
	var result VerifyResult
	if err := g.post(ctx, "/payment/verify", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *HTTPPaymentGateway) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		// 網路失敗不等於付款失敗，呼叫端保持pending可重試
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: gateway returned %d", ErrVerificationRejected, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

var _ IPaymentGateway = (*HTTPPaymentGateway)(nil)
