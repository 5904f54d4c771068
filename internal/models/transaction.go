package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType distinguishes deposits from withdrawal requests.
type TransactionType string

const (
	TxRecharge TransactionType = "Recharge"
	TxWithdraw TransactionType = "Withdraw"
)

// TransactionStatus tracks the admin approval flow.
type TransactionStatus string

const (
	TxPending  TransactionStatus = "Pending"
	TxApproved TransactionStatus = "Approved"
	TxRejected TransactionStatus = "Rejected"
)

// Transaction is a recharge or withdrawal request. It is created
// Pending and only moves balance when an admin approves it.
type Transaction struct {
	gorm.Model
	TxID      string            `gorm:"uniqueIndex;not null" json:"id"`
	UserID    uint              `gorm:"index" json:"user_id"`
	Type      TransactionType   `json:"type"`
	Amount    decimal.Decimal   `gorm:"type:decimal(20,8)" json:"amount"`
	Status    TransactionStatus `gorm:"index" json:"status"`
	Timestamp int64             `json:"timestamp"`
}
