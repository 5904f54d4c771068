package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeDirection is the side the user bets on: Buy means "price will
// rise", Sell means "price will fall".
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "Buy"
	DirectionSell TradeDirection = "Sell"
)

// TradeOutcome is the terminal result of a settled trade.
type TradeOutcome string

const (
	OutcomeWin  TradeOutcome = "Win"
	OutcomeLoss TradeOutcome = "Loss"
)

// ActiveTrade is a wagered trade whose countdown is still running. It
// lives only in the engine's in-memory active set and is never
// persisted; on expiry it becomes a TradeRecord.
type ActiveTrade struct {
	ID               string          `json:"id"`
	UserID           uint            `json:"user_id"`
	CoinID           string          `json:"coin_id"`
	CoinSymbol       string          `json:"coin_symbol"`
	Amount           decimal.Decimal `json:"amount"`
	Duration         int             `json:"duration"`
	RemainingSeconds int             `json:"remaining_seconds"`
	Direction        TradeDirection  `json:"direction"`
	ProfitRate       decimal.Decimal `json:"profit_rate"`
	OpenPrice        decimal.Decimal `json:"open_price"`
	OpenedAt         int64           `json:"timestamp"`
}

// TradeRecord is a settled trade. Immutable once written.
type TradeRecord struct {
	gorm.Model
	TradeID    string          `gorm:"uniqueIndex;not null" json:"id"`
	UserID     uint            `gorm:"index" json:"user_id"`
	CoinID     string          `json:"coin_id"`
	CoinSymbol string          `json:"coin_symbol"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,8)" json:"amount"`
	Duration   int             `json:"duration"`
	Direction  TradeDirection  `json:"type"`
	Profit     decimal.Decimal `gorm:"type:decimal(20,8)" json:"profit"`
	Outcome    TradeOutcome    `json:"status"`
	SettledAt  int64           `gorm:"index" json:"timestamp"`
}
