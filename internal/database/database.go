package database

import (
	"fmt"

	"neontrade-go/internal/config"
	"neontrade-go/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase creates a new database connection and performs auto-migration.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema and seeds the coin list from config.
// Existing rows are kept: trade records, transactions and balances
// must survive a restart of the demo process.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Coin{},
		&models.TradeRecord{},
		&models.Transaction{},
		&models.Notification{},
		&models.InvitationCode{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Populate the 'coins' table from the config
	for _, seed := range cfg.Trading.Coins {
		coin := models.Coin{
			CoinID:  seed.ID,
			Symbol:  seed.Symbol,
			Name:    seed.Name,
			Icon:    seed.Icon,
			Enabled: true,
		}
		if err := db.FirstOrCreate(&coin, models.Coin{CoinID: seed.ID}).Error; err != nil {
			return fmt.Errorf("failed to populate coin '%s': %w", seed.ID, err)
		}
	}

	return nil
}
