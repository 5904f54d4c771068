package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Coin represents a tradable coin on the ticker.
// Identity fields are seeded from config; price and 24h change are
// overwritten by the price feed on every poll.
type Coin struct {
	gorm.Model
	CoinID    string          `gorm:"uniqueIndex;not null" json:"coin_id"`
	Symbol    string          `gorm:"not null" json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(20,8)" json:"price"`
	Change24h decimal.Decimal `gorm:"column:change_24h;type:decimal(10,4)" json:"change_24h"`
	Icon      string          `json:"icon"`
	Enabled   bool            `gorm:"default:true" json:"enabled"`
}
