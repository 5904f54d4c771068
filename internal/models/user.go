package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a registered trading account.
type User struct {
	gorm.Model
	Mobile        string          `gorm:"uniqueIndex;not null" json:"mobile"`
	Username      string          `json:"username"`
	PasswordHash  string          `json:"-"`
	Balance       decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"balance"`
	FrozenBalance decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"frozen_balance"`
	CreditScore   int             `gorm:"default:100" json:"credit_score"`
	VipLevel      int             `gorm:"default:1" json:"vip_level"`
	ReferralCode  string          `json:"referral_code"`
	BankAccount   BankAccount     `gorm:"embedded;embeddedPrefix:bank_" json:"bank_account"`
}

// Available returns the balance not committed to active trades.
func (u *User) Available() decimal.Decimal {
	return u.Balance.Sub(u.FrozenBalance)
}

// BankAccount holds the payout details a user registers for withdrawals.
type BankAccount struct {
	HolderName    string `json:"holder_name"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
}
