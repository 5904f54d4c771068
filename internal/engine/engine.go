package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"neontrade-go/internal/config"
	"neontrade-go/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrInvalidStake is returned when the stake is zero or negative.
	ErrInvalidStake = errors.New("stake must be positive")

	// ErrInvalidDuration is returned when the duration is not in the
	// configured payout table.
	ErrInvalidDuration = errors.New("unsupported trade duration")

	// ErrInvalidDirection is returned for a direction other than Buy or Sell.
	ErrInvalidDirection = errors.New("direction must be Buy or Sell")

	// ErrUnknownCoin is returned when the coin id is not listed.
	ErrUnknownCoin = errors.New("unknown coin")
)

// Ledger is the balance store contract the engine settles against.
// Freeze/ReleaseWin/ReleaseLoss must each be atomic for a single user.
type Ledger interface {
	Freeze(userID uint, amount decimal.Decimal) error
	ReleaseWin(userID uint, stake, profit decimal.Decimal) error
	ReleaseLoss(userID uint, stake decimal.Decimal) error
	AppendTradeRecord(rec *models.TradeRecord) error
}

// PriceSource supplies the current price for a coin. The engine reads
// it at trade open and again at settlement.
type PriceSource interface {
	CurrentPrice(coinID string) (decimal.Decimal, bool)
}

// Engine owns the active-trade set, runs each trade's countdown and
// settles expired trades into records and balance mutations. All
// public methods share one mutex, so open/tick/settle never interleave.
type Engine struct {
	logger       *zap.Logger
	ledger       Ledger
	prices       PriceSource
	policy       OutcomePolicy
	now          func() time.Time
	tickInterval time.Duration

	// Bound at construction; later config changes never reach
	// in-flight trades because the rate is copied onto the trade at open.
	rates map[int]decimal.Decimal
	coins map[string]string // coin id -> display symbol

	mu     sync.Mutex
	active []*models.ActiveTrade // insertion order
}

// NewEngine creates a new trade engine with injected collaborators.
func NewEngine(logger *zap.Logger, cfg *config.Trading, ledger Ledger, prices PriceSource, policy OutcomePolicy) *Engine {
	rates := make(map[int]decimal.Decimal, len(cfg.Payouts))
	for _, p := range cfg.Payouts {
		rates[p.Seconds] = decimal.NewFromFloat(p.Rate)
	}
	coins := make(map[string]string, len(cfg.Coins))
	for _, c := range cfg.Coins {
		coins[c.ID] = c.Symbol
	}
	return &Engine{
		logger:       logger.Named("engine"),
		ledger:       ledger,
		prices:       prices,
		policy:       policy,
		now:          time.Now,
		tickInterval: time.Duration(cfg.TickInterval) * time.Second,
		rates:        rates,
		coins:        coins,
	}
}

// SetClock overrides the engine's time source. Test helper.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Open validates and opens a trade: it freezes the stake, binds the
// profit rate for the chosen duration, records the price at open and
// inserts the trade into the active set. All-or-nothing: on any error
// no state has changed.
func (e *Engine) Open(userID uint, coinID string, stake decimal.Decimal, durationSeconds int, direction models.TradeDirection) (*models.ActiveTrade, error) {
	if stake.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidStake
	}
	rate, ok := e.rates[durationSeconds]
	if !ok {
		return nil, ErrInvalidDuration
	}
	symbol, ok := e.coins[coinID]
	if !ok {
		return nil, ErrUnknownCoin
	}
	if direction != models.DirectionBuy && direction != models.DirectionSell {
		return nil, ErrInvalidDirection
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.Freeze(userID, stake); err != nil {
		return nil, fmt.Errorf("could not freeze stake: %w", err)
	}

	openPrice, _ := e.prices.CurrentPrice(coinID)
	trade := &models.ActiveTrade{
		ID:               uuid.NewString(),
		UserID:           userID,
		CoinID:           coinID,
		CoinSymbol:       symbol,
		Amount:           stake,
		Duration:         durationSeconds,
		RemainingSeconds: durationSeconds,
		Direction:        direction,
		ProfitRate:       rate,
		OpenPrice:        openPrice,
		OpenedAt:         e.now().Unix(),
	}
	e.active = append(e.active, trade)

	e.logger.Info("Opened trade",
		zap.String("trade_id", trade.ID),
		zap.Uint("user_id", userID),
		zap.String("coin", symbol),
		zap.String("stake", stake.String()),
		zap.Int("duration", durationSeconds),
		zap.String("direction", string(direction)))

	copied := *trade
	return &copied, nil
}

// Tick advances every countdown by elapsed seconds and settles trades
// reaching zero, synchronously and in the order they were opened.
// Tick(0) mutates nothing.
func (e *Engine) Tick(elapsedSeconds int) {
	if elapsedSeconds <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	remaining := e.active[:0]
	for _, trade := range e.active {
		trade.RemainingSeconds -= elapsedSeconds
		if trade.RemainingSeconds > 0 {
			remaining = append(remaining, trade)
			continue
		}
		trade.RemainingSeconds = 0
		e.settle(trade)
	}
	e.active = remaining
}

// settle determines the outcome, applies the balance effect and writes
// the permanent record. Called with the engine lock held, only from
// Tick, exactly once per trade.
func (e *Engine) settle(trade *models.ActiveTrade) {
	closePrice, _ := e.prices.CurrentPrice(trade.CoinID)
	outcome := e.policy.Outcome(trade, closePrice)

	var profit decimal.Decimal
	if outcome == models.OutcomeWin {
		profit = trade.Amount.Mul(trade.ProfitRate)
		if err := e.ledger.ReleaseWin(trade.UserID, trade.Amount, profit); err != nil {
			e.logger.Error("Failed to credit winning trade",
				zap.String("trade_id", trade.ID), zap.Error(err))
		}
	} else {
		profit = trade.Amount.Neg()
		if err := e.ledger.ReleaseLoss(trade.UserID, trade.Amount); err != nil {
			e.logger.Error("Failed to settle losing trade",
				zap.String("trade_id", trade.ID), zap.Error(err))
		}
	}

	rec := &models.TradeRecord{
		TradeID:    trade.ID,
		UserID:     trade.UserID,
		CoinID:     trade.CoinID,
		CoinSymbol: trade.CoinSymbol,
		Amount:     trade.Amount,
		Duration:   trade.Duration,
		Direction:  trade.Direction,
		Profit:     profit,
		Outcome:    outcome,
		SettledAt:  e.now().Unix(),
	}
	if err := e.ledger.AppendTradeRecord(rec); err != nil {
		e.logger.Error("Failed to save trade record",
			zap.String("trade_id", trade.ID), zap.Error(err))
	}

	e.logger.Info("Settled trade",
		zap.String("trade_id", trade.ID),
		zap.String("outcome", string(outcome)),
		zap.String("profit", profit.String()))
}

// ActiveTrades returns a copy of the active set in open order.
func (e *Engine) ActiveTrades() []models.ActiveTrade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.ActiveTrade, 0, len(e.active))
	for _, t := range e.active {
		out = append(out, *t)
	}
	return out
}

// ActiveTradesFor returns one user's active trades in open order.
func (e *Engine) ActiveTradesFor(userID uint) []models.ActiveTrade {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []models.ActiveTrade
	for _, t := range e.active {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out
}

// Run drives the countdown from a periodic ticker until the context is
// cancelled. Ticks execute on this single goroutine, so they never
// overlap. Trades still active at shutdown are discarded unsettled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	e.logger.Info("Starting settlement loop",
		zap.Duration("interval", e.tickInterval),
		zap.String("policy", e.policy.Name()))

	seconds := int(e.tickInterval / time.Second)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping trade engine...",
				zap.Int("discarded_trades", len(e.ActiveTrades())))
			return
		case <-ticker.C:
			e.Tick(seconds)
		}
	}
}
