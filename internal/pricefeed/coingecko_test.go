package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a test server and a client configured to use it.
func setupTestServer(handler http.Handler) (*CoinGeckoClient, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &CoinGeckoClient{
		client:     resty.New().SetBaseURL(server.URL),
		vsCurrency: "usd",
		coinIDs:    []string{"bitcoin", "ethereum"},
		logger:     zap.NewNop(), // Use a no-op logger for tests
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	return c, server
}

func TestCoinGeckoQuotes(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockResponse := `[
			{"id": "bitcoin", "symbol": "btc", "current_price": 65000.5, "price_change_percentage_24h": -1.2},
			{"id": "ethereum", "symbol": "eth", "current_price": 3400, "price_change_percentage_24h": 2.7}
		]`
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/coins/markets", r.URL.Path)
			assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
			assert.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(mockResponse))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		quotes, err := c.Quotes(context.Background())

		// Assert
		assert.NoError(t, err)
		assert.Len(t, quotes, 2)
		assert.Equal(t, "bitcoin", quotes[0].CoinID)
		assert.Equal(t, "BTC", quotes[0].Symbol)
		assert.True(t, quotes[0].Price.Equal(decimal.NewFromFloat(65000.5)))
		assert.True(t, quotes[0].Change24h.Equal(decimal.NewFromFloat(-1.2)))
	})

	t.Run("ClientError", func(t *testing.T) {
		// Arrange: 4xx responses are not retried
		calls := 0
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "invalid request"}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		_, err := c.Quotes(context.Background())

		// Assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get market data")
		assert.Equal(t, 1, calls)
	})

	t.Run("ServerErrorRetries", func(t *testing.T) {
		// Arrange: the first attempt fails, the second succeeds
		calls := 0
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id": "bitcoin", "symbol": "btc", "current_price": 64000}]`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		quotes, err := c.Quotes(context.Background())

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Len(t, quotes, 1)
	})
}
