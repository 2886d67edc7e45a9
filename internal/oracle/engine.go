package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bond-lifecycle-demo/internal/domain"
)

const mockPricePath = "/mock-stock-price"

// EngineFeedOptions parameterise the engine-hosted price feed.
type EngineFeedOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// EngineFeed reads the simulated oracle quote exposed by the bond engine
// itself.
type EngineFeed struct {
	opts    EngineFeedOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewEngineFeed constructs the engine-backed feed.
func NewEngineFeed(opts EngineFeedOptions, logger zerolog.Logger) *EngineFeed {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:3001/api"
	}

	return &EngineFeed{
		opts:    opts,
		logger:  logger.With().Str("component", "oracle_engine").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchPrice retrieves the current simulated quote.
func (f *EngineFeed) FetchPrice(ctx context.Context) (domain.PriceQuote, error) {
	timeout := f.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+mockPricePath, nil)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(f.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("fetch price: %v: %w", err, domain.ErrService)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("read price response: %w", domain.ErrService)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.PriceQuote{}, fmt.Errorf("price feed status %d: %w", resp.StatusCode, domain.ErrService)
	}

	var quote domain.PriceQuote
	if err := json.Unmarshal(payload, &quote); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("decode price response: %v: %w", err, domain.ErrService)
	}
	if quote.Price.Currency == "" {
		return domain.PriceQuote{}, fmt.Errorf("price quote missing currency: %w", domain.ErrService)
	}

	return quote, nil
}

var _ PriceFetcher = (*EngineFeed)(nil)
