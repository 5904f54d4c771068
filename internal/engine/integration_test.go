package engine

import (
	"testing"

	"neontrade-go/internal/ledger"
	"neontrade-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupLedger creates a real ledger over an in-memory database with a
// single funded user.
func setupLedger(t *testing.T, balance int64) (*ledger.Ledger, *gorm.DB, uint) {
	// Use a new, non-shared in-memory database for each test to ensure isolation.
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.TradeRecord{})
	assert.NoError(t, err)

	user := models.User{
		Mobile:        "9990001111",
		Username:      "trader",
		Balance:       decimal.NewFromInt(balance),
		FrozenBalance: decimal.Zero,
	}
	assert.NoError(t, db.Create(&user).Error)

	return ledger.NewLedger(db, zap.NewNop()), db, user.ID
}

func loadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	var user models.User
	assert.NoError(t, db.First(&user, id).Error)
	return user
}

func TestLifecycle_WinAgainstRealLedger(t *testing.T) {
	// Arrange: balance 100, stake 10 at 60s (rate 0.5)
	led, db, userID := setupLedger(t, 100)
	e := newTestEngine(led, fixedPolicy{models.OutcomeWin}, nil)

	// Act
	trade, err := e.Open(userID, "bitcoin", decimal.NewFromInt(10), 60, models.DirectionBuy)
	assert.NoError(t, err)

	// Immediately after open the stake is frozen, not lost.
	user := loadUser(t, db, userID)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(100)), "balance %s", user.Balance)
	assert.True(t, user.FrozenBalance.Equal(decimal.NewFromInt(10)))
	assert.True(t, user.Available().Equal(decimal.NewFromInt(90)))

	for i := 0; i < 60; i++ {
		e.Tick(1)
	}

	// Assert: stake returned plus 5 profit
	user = loadUser(t, db, userID)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(105)), "balance %s", user.Balance)
	assert.True(t, user.FrozenBalance.Equal(decimal.Zero))
	assert.Empty(t, e.ActiveTrades())

	records, err := led.TradeRecords(userID)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, trade.ID, records[0].TradeID)
	assert.Equal(t, models.OutcomeWin, records[0].Outcome)
	assert.True(t, records[0].Profit.Equal(decimal.NewFromInt(5)))
}

func TestLifecycle_LossAgainstRealLedger(t *testing.T) {
	// Arrange
	led, db, userID := setupLedger(t, 100)
	e := newTestEngine(led, fixedPolicy{models.OutcomeLoss}, nil)

	// Act
	_, err := e.Open(userID, "bitcoin", decimal.NewFromInt(10), 60, models.DirectionBuy)
	assert.NoError(t, err)
	e.Tick(60)

	// Assert: stake forfeited
	user := loadUser(t, db, userID)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(90)), "balance %s", user.Balance)
	assert.True(t, user.FrozenBalance.Equal(decimal.Zero))

	records, err := led.TradeRecords(userID)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, models.OutcomeLoss, records[0].Outcome)
	assert.True(t, records[0].Profit.Equal(decimal.NewFromInt(-10)))
}

func TestLifecycle_OpenBeyondAvailableBalance(t *testing.T) {
	// Arrange: 100 total, 60 already frozen by a first trade
	led, db, userID := setupLedger(t, 100)
	e := newTestEngine(led, fixedPolicy{models.OutcomeWin}, nil)
	_, err := e.Open(userID, "bitcoin", decimal.NewFromInt(60), 60, models.DirectionBuy)
	assert.NoError(t, err)

	// Act: only 40 available now
	_, err = e.Open(userID, "ethereum", decimal.NewFromInt(50), 120, models.DirectionSell)

	// Assert
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.Len(t, e.ActiveTrades(), 1)
	user := loadUser(t, db, userID)
	assert.True(t, user.FrozenBalance.Equal(decimal.NewFromInt(60)))
}
