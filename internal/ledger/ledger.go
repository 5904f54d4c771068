package ledger

import (
	"errors"
	"fmt"
	"time"

	"neontrade-go/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientBalance is returned when available balance
	// (balance minus frozen) does not cover the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUserNotFound is returned when the user row does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrTransactionNotFound is returned for an unknown transaction id.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTransactionDecided is returned when approving or rejecting a
	// transaction that is no longer pending.
	ErrTransactionDecided = errors.New("transaction already decided")
)

// Ledger owns balances, settled trade records and the recharge/withdraw
// transaction flow. Every balance mutation runs inside a database
// transaction over the user row, so freeze/release pairs stay atomic
// per user.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewLedger creates a new ledger over the given database.
func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, logger: logger.Named("ledger")}
}

// Freeze commits part of the user's balance to an opening trade. The
// balance itself is untouched; only the frozen figure grows.
func (l *Ledger) Freeze(userID uint, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return l.db.Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}
		if user.Available().LessThan(amount) {
			return ErrInsufficientBalance
		}
		frozen := user.FrozenBalance.Add(amount)
		return tx.Model(user).Update("frozen_balance", frozen).Error
	})
}

// ReleaseWin settles a winning trade: the frozen stake returns to the
// available pool and the profit is credited on top.
func (l *Ledger) ReleaseWin(userID uint, stake, profit decimal.Decimal) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}
		if user.FrozenBalance.LessThan(stake) {
			return fmt.Errorf("frozen balance %s below stake %s for user %d",
				user.FrozenBalance, stake, userID)
		}
		return tx.Model(user).Updates(map[string]interface{}{
			"frozen_balance": user.FrozenBalance.Sub(stake),
			"balance":        user.Balance.Add(profit),
		}).Error
	})
}

// ReleaseLoss settles a losing trade: the frozen stake is forfeited,
// leaving the balance permanently reduced by the stake.
func (l *Ledger) ReleaseLoss(userID uint, stake decimal.Decimal) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}
		if user.FrozenBalance.LessThan(stake) {
			return fmt.Errorf("frozen balance %s below stake %s for user %d",
				user.FrozenBalance, stake, userID)
		}
		return tx.Model(user).Updates(map[string]interface{}{
			"frozen_balance": user.FrozenBalance.Sub(stake),
			"balance":        user.Balance.Sub(stake),
		}).Error
	})
}

// AppendTradeRecord stores a settled trade. Records are append-only.
func (l *Ledger) AppendTradeRecord(rec *models.TradeRecord) error {
	if err := l.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save trade record: %w", err)
	}
	l.logger.Info("Saved trade record",
		zap.String("trade_id", rec.TradeID),
		zap.String("outcome", string(rec.Outcome)),
		zap.String("profit", rec.Profit.String()))
	return nil
}

// TradeRecords returns a user's settled trades, newest first.
func (l *Ledger) TradeRecords(userID uint) ([]models.TradeRecord, error) {
	var records []models.TradeRecord
	err := l.db.Where("user_id = ?", userID).
		Order("settled_at desc").Find(&records).Error
	return records, err
}

// CreateTransaction appends a pending recharge or withdraw request.
// Balance is untouched until an admin approves it.
func (l *Ledger) CreateTransaction(userID uint, txType models.TransactionType, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if err := l.db.First(&models.User{}, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	txn := models.Transaction{
		TxID:      uuid.NewString(),
		UserID:    userID,
		Type:      txType,
		Amount:    amount,
		Status:    models.TxPending,
		Timestamp: time.Now().Unix(),
	}
	if err := l.db.Create(&txn).Error; err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return &txn, nil
}

// Transactions returns a user's recharge/withdraw history, newest first.
func (l *Ledger) Transactions(userID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := l.db.Where("user_id = ?", userID).
		Order("timestamp desc").Find(&txns).Error
	return txns, err
}

// AllTransactions returns every transaction, newest first. Admin view.
func (l *Ledger) AllTransactions() ([]models.Transaction, error) {
	var txns []models.Transaction
	err := l.db.Order("timestamp desc").Find(&txns).Error
	return txns, err
}

// SetTransactionStatus approves or rejects a pending transaction. An
// approved recharge credits the balance; an approved withdraw debits
// it, re-checked against available funds at approval time.
func (l *Ledger) SetTransactionStatus(txID string, status models.TransactionStatus) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.Where("tx_id = ?", txID).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if txn.Status != models.TxPending {
			return ErrTransactionDecided
		}

		if status == models.TxApproved {
			user, err := findUser(tx, txn.UserID)
			if err != nil {
				return err
			}
			switch txn.Type {
			case models.TxRecharge:
				if err := tx.Model(user).Update("balance", user.Balance.Add(txn.Amount)).Error; err != nil {
					return err
				}
			case models.TxWithdraw:
				if user.Available().LessThan(txn.Amount) {
					return ErrInsufficientBalance
				}
				if err := tx.Model(user).Update("balance", user.Balance.Sub(txn.Amount)).Error; err != nil {
					return err
				}
			}
		}

		return tx.Model(&txn).Update("status", status).Error
	})
}

// AdjustBalance applies an admin correction. The delta may be negative
// but must not take the balance below the frozen pool.
func (l *Ledger) AdjustBalance(userID uint, delta decimal.Decimal) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}
		balance := user.Balance.Add(delta)
		if balance.LessThan(user.FrozenBalance) {
			return ErrInsufficientBalance
		}
		return tx.Model(user).Update("balance", balance).Error
	})
}

// User returns a single user row.
func (l *Ledger) User(userID uint) (*models.User, error) {
	var user models.User
	if err := l.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Users returns all registered users. Admin view.
func (l *Ledger) Users() ([]models.User, error) {
	var users []models.User
	err := l.db.Order("id").Find(&users).Error
	return users, err
}

// UpdateBankAccount saves the user's withdrawal details.
func (l *Ledger) UpdateBankAccount(userID uint, account models.BankAccount) error {
	res := l.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"bank_holder_name":    account.HolderName,
		"bank_bank_name":      account.BankName,
		"bank_account_number": account.AccountNumber,
		"bank_ifsc":           account.IFSC,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func findUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
