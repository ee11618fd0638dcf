package sslcommerz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/bonikcommerce/bonik-backend/pkg/config"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
)

const validationPath = "/validator/api/validationserverAPI.php"

// Statuses the validation API reports. VALID and VALIDATED are the only
// settled-positive outcomes; PENDING is explicitly not terminal.
const (
	StatusValid     = "VALID"
	StatusValidated = "VALIDATED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
	StatusPending   = "PENDING"
)

var errNotConfigured = errors.New("sslcommerz store credentials are not configured")

// ValidationResponse is the subset of the validation API payload the
// pipeline consumes. Amount fields are major-unit decimal strings.
type ValidationResponse struct {
	Status         string `json:"status"`
	TranID         string `json:"tran_id"`
	ValID          string `json:"val_id"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	CurrencyAmount string `json:"currency_amount"`
	CurrencyType   string `json:"currency_type"`
	CardType       string `json:"card_type"`
	BankTranID     string `json:"bank_tran_id"`
	RiskLevel      string `json:"risk_level"`
	RiskTitle      string `json:"risk_title"`
}

// Settled reports whether the validation outcome is a confirmed payment.
func (r ValidationResponse) Settled() bool {
	return r.Status == StatusValid || r.Status == StatusValidated
}

// TerminalFailure reports whether the outcome is a settled negative.
func (r ValidationResponse) TerminalFailure() bool {
	return r.Status == StatusFailed || r.Status == StatusCancelled
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the SSLCommerz order validation API. IPN payloads are
// never trusted on their own; every delivery is confirmed against this
// API before any event is enqueued.
type Client struct {
	baseURL       string
	storeID       string
	storePassword string
	httpClient    httpDoer
	logg          *logger.Logger
}

// NewClient builds a validation client with the configured credentials.
func NewClient(cfg config.SSLCommerzConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, errNotConfigured
	}
	timeout := cfg.ValidationTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.ValidationBaseURL, "/"),
		storeID:       cfg.StoreID,
		storePassword: cfg.StorePassword,
		httpClient:    &http.Client{Timeout: timeout},
		logg:          logg,
	}, nil
}

// Validate confirms a val_id against the validation API. Transient
// transport failures get one constant-backoff retry; the caller treats a
// final error the same as a PENDING outcome.
func (c *Client) Validate(ctx context.Context, valID string) (*ValidationResponse, error) {
	if strings.TrimSpace(valID) == "" {
		return nil, errors.New("val_id is required")
	}

	var resp *ValidationResponse
	backoff := retry.WithMaxRetries(1, retry.NewConstant(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := c.fetch(ctx, valID)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, valID string) (*ValidationResponse, error) {
	query := url.Values{}
	query.Set("val_id", valID)
	query.Set("store_id", c.storeID)
	query.Set("store_passwd", c.storePassword)
	query.Set("format", "json")

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, validationPath, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validation request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("validation API returned status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read validation response: %w", err)
	}

	var parsed ValidationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode validation response: %w", err)
	}
	return &parsed, nil
}
