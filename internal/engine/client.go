package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bond-lifecycle-demo/internal/domain"
)

// Options parameterise the bond engine client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client is the typed request/response wrapper around the bond engine. It
// carries no state and performs no retries; retry policy belongs to the
// caller.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// New constructs a bond engine client.
func New(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:3001/api"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "engine_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// CreateBondParams carry the issuance inputs.
type CreateBondParams struct {
	Principal       decimal.Decimal
	Currency        string
	CouponRate      decimal.Decimal
	MaturityYears   int
	ConversionPrice decimal.Decimal
	ConversionRatio int64
}

func (p CreateBondParams) validate() error {
	if p.Principal.LessThanOrEqual(decimal.Zero) {
		return errors.New("principal must be greater than zero")
	}
	if p.Currency == "" {
		return errors.New("currency is required")
	}
	if p.CouponRate.IsNegative() {
		return errors.New("coupon rate cannot be negative")
	}
	if p.MaturityYears <= 0 {
		return errors.New("maturity years must be greater than zero")
	}
	if p.ConversionPrice.LessThanOrEqual(decimal.Zero) {
		return errors.New("conversion price must be greater than zero")
	}
	if p.ConversionRatio <= 0 {
		return errors.New("conversion ratio must be greater than zero")
	}
	return nil
}

// CreateBond issues a new convertible bond and returns its id.
func (c *Client) CreateBond(ctx context.Context, p CreateBondParams) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}

	req := createBondRequest{
		Principal:       p.Principal.InexactFloat64(),
		Currency:        p.Currency,
		CouponRate:      p.CouponRate.InexactFloat64(),
		MaturityYears:   p.MaturityYears,
		ConversionPrice: p.ConversionPrice.InexactFloat64(),
		ConversionRatio: p.ConversionRatio,
	}

	var res createBondResponse
	if err := c.do(ctx, http.MethodPost, "/bonds", req, &res); err != nil {
		// The engine has no lifecycle rules for issuance; any rejection
		// here is a service-level failure.
		if errors.Is(err, domain.ErrInvalidState) {
			return "", fmt.Errorf("create bond: %w", domain.ErrService)
		}
		return "", err
	}
	if res.ID == "" {
		return "", fmt.Errorf("create bond: empty id in response: %w", domain.ErrService)
	}
	return res.ID, nil
}

// GetBond fetches the bond snapshot together with the engine-computed accrued
// interest and present value.
func (c *Client) GetBond(ctx context.Context, id string) (domain.BondDetail, error) {
	var res bondResponse
	if err := c.do(ctx, http.MethodGet, "/bonds/"+url.PathEscape(id), nil, &res); err != nil {
		return domain.BondDetail{}, err
	}
	return res.detail(), nil
}

// PayCoupon asks the engine to pay the next coupon and returns the updated
// bond detail.
func (c *Client) PayCoupon(ctx context.Context, id string) (domain.BondDetail, error) {
	var res bondResponse
	if err := c.do(ctx, http.MethodPost, "/bonds/"+url.PathEscape(id)+"/coupon", nil, &res); err != nil {
		return domain.BondDetail{}, err
	}
	return res.detail(), nil
}

// Convert converts the bond at the observed share price.
func (c *Client) Convert(ctx context.Context, id string, observed domain.Money) (domain.BondDetail, error) {
	req := convertRequest{
		StockPrice: observed.Amount.InexactFloat64(),
		Currency:   observed.Currency,
	}

	var res bondResponse
	if err := c.do(ctx, http.MethodPost, "/bonds/"+url.PathEscape(id)+"/convert", req, &res); err != nil {
		return domain.BondDetail{}, err
	}
	return res.detail(), nil
}

// ConversionValue fetches the engine-computed value of converting now.
func (c *Client) ConversionValue(ctx context.Context, id string) (domain.Money, error) {
	var res valueResponse
	if err := c.do(ctx, http.MethodGet, "/bonds/"+url.PathEscape(id)+"/value", nil, &res); err != nil {
		return domain.Money{}, err
	}
	return res.ConversionValue, nil
}

// ListEvents fetches the full engine event log in server order. An empty log
// is a valid result, not an error.
func (c *Client) ListEvents(ctx context.Context) ([]domain.BondEvent, error) {
	var events []domain.BondEvent
	if err := c.do(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []domain.BondEvent{}
	}
	return events, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	timeout := c.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "bonddemo/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransportError(method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, domain.ErrService)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatusError(method, path, resp.StatusCode, payload)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %v: %w", method, path, err, domain.ErrService)
	}
	return nil
}

func classifyTransportError(method, path string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrTimeout)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrTimeout)
	}
	return fmt.Errorf("%s %s: %v: %w", method, path, err, domain.ErrService)
}

func classifyStatusError(method, path string, status int, payload []byte) error {
	msg := decodeErrorMessage(payload)

	switch status {
	case http.StatusNotFound:
		if msg != "" {
			return fmt.Errorf("%s %s: %s: %w", method, path, msg, domain.ErrNotFound)
		}
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrNotFound)
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		if msg != "" {
			return fmt.Errorf("%s %s: %s: %w", method, path, msg, domain.ErrInvalidState)
		}
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrInvalidState)
	}

	if msg != "" {
		return fmt.Errorf("%s %s (%d): %s: %w", method, path, status, msg, domain.ErrService)
	}
	return fmt.Errorf("%s %s (%d): %w", method, path, status, domain.ErrService)
}

func decodeErrorMessage(payload []byte) string {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return strings.TrimSpace(string(payload))
}

type createBondRequest struct {
	Principal       float64 `json:"principal"`
	Currency        string  `json:"currency"`
	CouponRate      float64 `json:"coupon_rate"`
	MaturityYears   int     `json:"maturity_years"`
	ConversionPrice float64 `json:"conversion_price"`
	ConversionRatio int64   `json:"conversion_ratio"`
}

type createBondResponse struct {
	ID string `json:"id"`
}

type convertRequest struct {
	StockPrice float64 `json:"stock_price"`
	Currency   string  `json:"currency"`
}

type bondResponse struct {
	Bond            domain.Bond  `json:"bond"`
	AccruedInterest domain.Money `json:"accrued_interest"`
	PresentValue    domain.Money `json:"present_value"`
}

func (r bondResponse) detail() domain.BondDetail {
	return domain.BondDetail{
		Bond:            r.Bond,
		AccruedInterest: r.AccruedInterest,
		PresentValue:    r.PresentValue,
	}
}

type valueResponse struct {
	ConversionValue domain.Money `json:"conversion_value"`
}

type errorResponse struct {
	Error string `json:"error"`
}
