package pricefeed

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"neontrade-go/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// marketEntry mirrors one element of the /coins/markets response.
type marketEntry struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"current_price"`
	Change24h float64 `json:"price_change_percentage_24h"`
}

// CoinGeckoClient polls the CoinGecko REST API for market data.
type CoinGeckoClient struct {
	client     *resty.Client
	vsCurrency string
	coinIDs    []string
	logger     *zap.Logger
	limiter    *rate.Limiter
}

var _ Source = (*CoinGeckoClient)(nil)

// NewCoinGeckoClient creates a client tracking the given coin ids.
func NewCoinGeckoClient(cfg *config.PriceFeed, coinIDs []string, logger *zap.Logger) *CoinGeckoClient {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// Initialize the rate limiter
	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &CoinGeckoClient{
		client:     client,
		vsCurrency: cfg.VsCurrency,
		coinIDs:    coinIDs,
		logger:     logger,
		limiter:    limiter,
	}
}

func (c *CoinGeckoClient) Name() string {
	return "coingecko"
}

// Quotes fetches the latest price and 24h change for all tracked coins.
func (c *CoinGeckoClient) Quotes(ctx context.Context) ([]Quote, error) {
	var entries []marketEntry

	req := c.client.R().
		SetResult(&entries).
		SetQueryParam("vs_currency", c.vsCurrency).
		SetQueryParam("ids", strings.Join(c.coinIDs, ","))

	resp, err := c.doRequest(ctx, "GET", "/coins/markets", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get market data: %w", err)
	}

	result := resp.Result().(*[]marketEntry)
	quotes := make([]Quote, 0, len(*result))
	for _, e := range *result {
		quotes = append(quotes, Quote{
			CoinID:    e.ID,
			Symbol:    strings.ToUpper(e.Symbol),
			Price:     decimal.NewFromFloat(e.Price),
			Change24h: decimal.NewFromFloat(e.Change24h),
		})
	}

	return quotes, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *CoinGeckoClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
