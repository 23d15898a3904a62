package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"writing_marketplace/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var ErrAlreadyCaptured = errors.New("paypal order already captured")

type PaypalClient interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error)
	CaptureOrder(ctx context.Context, paypalOrderID, requestID string) (*CaptureResult, error)
	GetOrder(ctx context.Context, paypalOrderID string) (*CaptureResult, error)
	VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error
}

type CreateOrderRequest struct {
	OrderID     string
	PaymentID   string
	Description string
	Amount      string
	ReturnURL   string
	CancelURL   string
}

type CreateOrderResponse struct {
	OrderID    string
	ApproveURL string
}

type CaptureResult struct {
	PaypalOrderID string
	Status        string
	CaptureID     string
	CustomID      string
	Amount        string
}

func (r *CaptureResult) Completed() bool {
	return r != nil && r.Status == "COMPLETED"
}

type PaypalLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type paypalOrderResult struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Links         []PaypalLink `json:"links"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		CustomID    string `json:"custom_id"`
		Payments    struct {
			Captures []struct {
				ID       string `json:"id"`
				Status   string `json:"status"`
				CustomID string `json:"custom_id"`
				Amount   struct {
					Value string `json:"value"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// PaypalWebhookEvent is the subset of a PayPal webhook body this service
// reads.
type PaypalWebhookEvent struct {
	ID         string `json:"id"`
	EventType  string `json:"event_type"`
	CreateTime string `json:"create_time"`
	Resource   struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		CustomID string `json:"custom_id"`
		Amount   struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// providerError keeps the upstream status so retries can skip 4xx.
type providerError struct {
	status int
	body   string
}

func (e *providerError) Error() string {
	return fmt.Sprintf("paypal error %d: %s", e.status, e.body)
}

type paypalClientImpl struct {
	httpClient   *http.Client
	baseApiURL   string
	clientID     string
	clientSecret string
	webhookID    string
	currency     string
	maxRetries   uint64
	retryWait    time.Duration
	log          *zap.Logger
}

func NewPaypalClient(cfg config.Paypal, log *zap.Logger) PaypalClient {
	return &paypalClientImpl{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseApiURL:   strings.TrimRight(cfg.BaseApiURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		webhookID:    cfg.WebhookID,
		currency:     cfg.Currency,
		maxRetries:   3,
		retryWait:    500 * time.Millisecond,
		log:          log,
	}
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	form := url.Values{"grant_type": {"client_credentials"}}.Encode()

	var res struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/oauth2/token", []byte(form), map[string]string{
		"Authorization": "Basic " + auth,
		"Content-Type":  "application/x-www-form-urlencoded",
	}, &res)
	if err != nil {
		return "", fmt.Errorf("get paypal access token: %w", err)
	}
	if res.AccessToken == "" {
		return "", errors.New("paypal returned an empty access token")
	}
	return res.AccessToken, nil
}

func (c *paypalClientImpl) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": req.OrderID,
				"custom_id":    req.OrderID,
				"description":  req.Description,
				"amount": map[string]string{
					"currency_code": c.currency,
					"value":         req.Amount,
				},
			},
		},
		"application_context": map[string]string{
			"return_url":  req.ReturnURL,
			"cancel_url":  req.CancelURL,
			"user_action": "PAY_NOW",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	var result paypalOrderResult
	err = c.do(ctx, http.MethodPost, "/v2/checkout/orders", body, map[string]string{
		"Authorization":     "Bearer " + accessToken,
		"Content-Type":      "application/json",
		"PayPal-Request-Id": req.PaymentID,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}

	approveURL := extractApproveURL(result.Links)
	if approveURL == "" {
		return nil, fmt.Errorf("paypal order %s has no approve link", result.ID)
	}
	return &CreateOrderResponse{OrderID: result.ID, ApproveURL: approveURL}, nil
}

func (c *paypalClientImpl) CaptureOrder(ctx context.Context, paypalOrderID, requestID string) (*CaptureResult, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var result paypalOrderResult
	err = c.do(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(paypalOrderID)+"/capture", nil, map[string]string{
		"Authorization":     "Bearer " + accessToken,
		"Content-Type":      "application/json",
		"PayPal-Request-Id": requestID,
	}, &result)
	if err != nil {
		var pe *providerError
		if errors.As(err, &pe) && pe.status == http.StatusUnprocessableEntity && strings.Contains(pe.body, "ORDER_ALREADY_CAPTURED") {
			return nil, ErrAlreadyCaptured
		}
		return nil, fmt.Errorf("capture paypal order: %w", err)
	}
	return result.toCapture(), nil
}

func (c *paypalClientImpl) GetOrder(ctx context.Context, paypalOrderID string) (*CaptureResult, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	var result paypalOrderResult
	err = c.do(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(paypalOrderID), nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("get paypal order: %w", err)
	}
	return result.toCapture(), nil
}

func (c *paypalClientImpl) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error {
	if c.webhookID == "" {
		return errors.New("PAYPAL_WEBHOOK_ID is not configured")
	}
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"auth_algo":         headers.Get("PAYPAL-AUTH-ALGO"),
		"cert_url":          headers.Get("PAYPAL-CERT-URL"),
		"transmission_id":   headers.Get("PAYPAL-TRANSMISSION-ID"),
		"transmission_sig":  headers.Get("PAYPAL-TRANSMISSION-SIG"),
		"transmission_time": headers.Get("PAYPAL-TRANSMISSION-TIME"),
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(body),
	})
	if err != nil {
		return fmt.Errorf("marshal verify payload: %w", err)
	}

	var res struct {
		VerificationStatus string `json:"verification_status"`
	}
	err = c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", payload, map[string]string{
		"Authorization": "Bearer " + accessToken,
		"Content-Type":  "application/json",
	}, &res)
	if err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}
	if res.VerificationStatus != "SUCCESS" {
		return fmt.Errorf("webhook signature status %q", res.VerificationStatus)
	}
	return nil
}

// do sends one request, retrying network failures and 5xx/429 responses
// with exponential backoff. Other 4xx responses are returned immediately.
func (c *paypalClientImpl) do(ctx context.Context, method, path string, body []byte, headers map[string]string, out interface{}) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryWait
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, c.maxRetries), ctx)

	op := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("http new request: %w", err))
		}
		for k, v := range headers {
			if v != "" {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http client do: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read paypal response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			pe := &providerError{status: resp.StatusCode, body: string(raw)}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				c.log.Warn("paypal transient error, retrying", zap.String("path", path), zap.Int("status", resp.StatusCode))
				return pe
			}
			return backoff.Permanent(pe)
		}
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode paypal response: %w", err))
		}
		return nil
	}

	return backoff.Retry(op, policy)
}

func (r *paypalOrderResult) toCapture() *CaptureResult {
	out := &CaptureResult{PaypalOrderID: r.ID, Status: r.Status}
	for _, pu := range r.PurchaseUnits {
		out.CustomID = pu.CustomID
		for _, capture := range pu.Payments.Captures {
			out.CaptureID = capture.ID
			out.Amount = capture.Amount.Value
			if capture.CustomID != "" {
				out.CustomID = capture.CustomID
			}
		}
	}
	return out
}

func extractApproveURL(links []PaypalLink) string {
	for _, link := range links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return link.Href
		}
	}
	return ""
}
