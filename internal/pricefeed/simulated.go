package pricefeed

import (
	"context"
	"math/rand"
	"sync"

	"neontrade-go/internal/config"
	"github.com/shopspring/decimal"
)

// SimulatedSource drives the ticker with a random walk instead of a
// live API. It seeds each coin at a fixed base price and moves it up to
// ±1% per poll, tracking a rolling 24h-style change figure.
type SimulatedSource struct {
	mu     sync.Mutex
	rng    *rand.Rand
	coins  []config.CoinSeed
	prices map[string]float64
	bases  map[string]float64
}

var _ Source = (*SimulatedSource)(nil)

// Base prices for well-known coins so the demo ticker looks plausible.
// Anything not listed starts at 1.0.
var defaultBasePrices = map[string]float64{
	"bitcoin":       65000,
	"ethereum":      3400,
	"binancecoin":   580,
	"solana":        150,
	"ripple":        0.52,
	"dogecoin":      0.12,
	"tron":          0.13,
	"cardano":       0.45,
	"avalanche-2":   29,
	"matic-network": 0.55,
	"chainlink":     14.5,
	"litecoin":      84,
}

// NewSimulatedSource creates a random-walk source for the given coins.
func NewSimulatedSource(coins []config.CoinSeed, seed int64) *SimulatedSource {
	s := &SimulatedSource{
		rng:    rand.New(rand.NewSource(seed)),
		coins:  coins,
		prices: make(map[string]float64, len(coins)),
		bases:  make(map[string]float64, len(coins)),
	}
	for _, c := range coins {
		base, ok := defaultBasePrices[c.ID]
		if !ok {
			base = 1.0
		}
		s.prices[c.ID] = base
		s.bases[c.ID] = base
	}
	return s
}

func (s *SimulatedSource) Name() string {
	return "simulated"
}

// Quotes advances the random walk one step and returns the new prices.
func (s *SimulatedSource) Quotes(_ context.Context) ([]Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes := make([]Quote, 0, len(s.coins))
	for _, c := range s.coins {
		price := s.prices[c.ID]
		change := (s.rng.Float64() - 0.5) * 0.02 // +/- 1%
		price = price * (1 + change)
		if price <= 0 {
			price = s.bases[c.ID]
		}
		s.prices[c.ID] = price

		pct := (price/s.bases[c.ID] - 1) * 100
		quotes = append(quotes, Quote{
			CoinID:    c.ID,
			Symbol:    c.Symbol,
			Price:     decimal.NewFromFloat(price),
			Change24h: decimal.NewFromFloat(pct),
		})
	}
	return quotes, nil
}

// SetPrice pins a coin's price. Test helper.
func (s *SimulatedSource) SetPrice(coinID string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[coinID] = price
}
