package engine

import (
	"fmt"
	"math/rand"
	"sync"

	"neontrade-go/internal/config"
	"neontrade-go/internal/models"
	"github.com/shopspring/decimal"
)

// OutcomePolicy decides whether an expiring trade won or lost. The
// demo product settles trades independent of real price movement, so
// the decision is kept behind this interface rather than baked into
// the engine.
type OutcomePolicy interface {
	// Name returns the unique name of the policy.
	Name() string

	// Outcome decides the result for a trade expiring at closePrice.
	Outcome(trade *models.ActiveTrade, closePrice decimal.Decimal) models.TradeOutcome
}

// CoinFlipPolicy settles every trade by weighted coin flip, ignoring
// direction and price movement. A win_probability below 0.5 gives the
// house an edge.
type CoinFlipPolicy struct {
	mu      sync.Mutex
	rng     *rand.Rand
	winProb float64
}

// NewCoinFlipPolicy creates a coin-flip policy with its own seeded
// random source, so tests can fix the seed and assert exact outcomes.
func NewCoinFlipPolicy(winProbability float64, seed int64) *CoinFlipPolicy {
	return &CoinFlipPolicy{
		rng:     rand.New(rand.NewSource(seed)),
		winProb: winProbability,
	}
}

func (p *CoinFlipPolicy) Name() string {
	return "coinflip"
}

func (p *CoinFlipPolicy) Outcome(_ *models.ActiveTrade, _ decimal.Decimal) models.TradeOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rng.Float64() < p.winProb {
		return models.OutcomeWin
	}
	return models.OutcomeLoss
}

// PriceDeltaPolicy settles against actual price movement: a Buy wins
// when the close price is above the open price, a Sell when below. An
// unchanged price loses either way.
type PriceDeltaPolicy struct{}

func (PriceDeltaPolicy) Name() string {
	return "pricedelta"
}

func (PriceDeltaPolicy) Outcome(trade *models.ActiveTrade, closePrice decimal.Decimal) models.TradeOutcome {
	var won bool
	switch trade.Direction {
	case models.DirectionBuy:
		won = closePrice.GreaterThan(trade.OpenPrice)
	case models.DirectionSell:
		won = closePrice.LessThan(trade.OpenPrice)
	}
	if won {
		return models.OutcomeWin
	}
	return models.OutcomeLoss
}

// PolicyFromConfig builds the outcome policy named in config.
func PolicyFromConfig(cfg *config.Trading, seed int64) (OutcomePolicy, error) {
	switch cfg.OutcomePolicy {
	case "", "coinflip":
		return NewCoinFlipPolicy(cfg.WinProbability, seed), nil
	case "pricedelta":
		return PriceDeltaPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown outcome policy %q", cfg.OutcomePolicy)
	}
}
