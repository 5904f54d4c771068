package pricefeed

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is one coin's latest market data.
type Quote struct {
	CoinID    string          `json:"coin_id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change_24h"`
}

// Source supplies current quotes for a fixed coin list.
type Source interface {
	// Name returns the unique name of the source.
	Name() string

	// Quotes fetches the latest quote for every tracked coin.
	Quotes(ctx context.Context) ([]Quote, error)
}
