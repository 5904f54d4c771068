package pricefeed

import (
	"context"
	"sync"
	"time"

	"neontrade-go/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feed polls a Source on a fixed interval, caches the latest snapshot
// for the engine, and mirrors it into the coins table for the ticker.
type Feed struct {
	source   Source
	db       *gorm.DB
	logger   *zap.Logger
	interval time.Duration

	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewFeed creates a feed polling the given source.
func NewFeed(source Source, db *gorm.DB, logger *zap.Logger, interval time.Duration) *Feed {
	return &Feed{
		source:   source,
		db:       db,
		logger:   logger.Named("pricefeed"),
		interval: interval,
		quotes:   make(map[string]Quote),
	}
}

// Run starts the polling loop. It performs one poll immediately so the
// engine has prices before the first trade can open.
func (f *Feed) Run(ctx context.Context) {
	f.logger.Info("Starting price feed",
		zap.String("source", f.source.Name()),
		zap.Duration("interval", f.interval))

	if err := f.poll(ctx); err != nil {
		f.logger.Error("Initial poll failed", zap.Error(err))
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Stopping price feed...")
			return
		case <-ticker.C:
			if err := f.poll(ctx); err != nil {
				f.logger.Error("Poll failed", zap.Error(err))
			}
		}
	}
}

func (f *Feed) poll(ctx context.Context) error {
	quotes, err := f.source.Quotes(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	for _, q := range quotes {
		f.quotes[q.CoinID] = q
	}
	f.mu.Unlock()

	for _, q := range quotes {
		err := f.db.Model(&models.Coin{}).
			Where("coin_id = ?", q.CoinID).
			Updates(map[string]interface{}{"price": q.Price, "change_24h": q.Change24h}).Error
		if err != nil {
			f.logger.Warn("Failed to update coin price",
				zap.String("coin_id", q.CoinID), zap.Error(err))
		}
	}

	f.logger.Debug("Poll complete", zap.Int("quotes", len(quotes)))
	return nil
}

// CurrentPrice returns the cached price for a coin, if known.
func (f *Feed) CurrentPrice(coinID string) (decimal.Decimal, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.quotes[coinID]
	if !ok {
		return decimal.Zero, false
	}
	return q.Price, true
}

// Snapshot returns the latest quote for every coin seen so far.
func (f *Feed) Snapshot() []Quote {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Quote, 0, len(f.quotes))
	for _, q := range f.quotes {
		out = append(out, q)
	}
	return out
}
