package auth

import (
	"testing"

	"neontrade-go/internal/config"
	"neontrade-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (*Service, *gorm.DB) {
	// Use a new, non-shared in-memory database for each test to ensure isolation.
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.InvitationCode{})
	assert.NoError(t, err)

	cfg := &config.Auth{
		JWTSecret:       "test-secret",
		TokenTTLMinutes: 60,
		StartingBalance: 100,
	}
	return NewService(db, cfg, zap.NewNop()), db
}

func seedCode(t *testing.T, db *gorm.DB, code string) {
	assert.NoError(t, db.Create(&models.InvitationCode{Code: code}).Error)
}

func TestRegister(t *testing.T) {
	svc, db := setupTest(t)
	seedCode(t, db, "WELCOME1")

	user, err := svc.Register("9876543210", "trader", "s3cret", "WELCOME1")
	assert.NoError(t, err)
	assert.Equal(t, "9876543210", user.Mobile)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(100)))
	assert.True(t, user.FrozenBalance.Equal(decimal.Zero))
	assert.NotEmpty(t, user.ReferralCode)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	// The invitation code is consumed by registration.
	var count int64
	db.Model(&models.InvitationCode{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRegister_InvalidInvitation(t *testing.T) {
	svc, db := setupTest(t)

	_, err := svc.Register("9876543210", "trader", "s3cret", "NOPE")
	assert.ErrorIs(t, err, ErrInvalidInvitation)

	// No user row was created.
	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRegister_MobileTaken(t *testing.T) {
	svc, db := setupTest(t)
	seedCode(t, db, "CODE1")
	seedCode(t, db, "CODE2")

	_, err := svc.Register("9876543210", "first", "pw", "CODE1")
	assert.NoError(t, err)

	_, err = svc.Register("9876543210", "second", "pw", "CODE2")
	assert.ErrorIs(t, err, ErrMobileTaken)
}

func TestLogin(t *testing.T) {
	svc, db := setupTest(t)
	seedCode(t, db, "CODE1")
	registered, err := svc.Register("9876543210", "trader", "s3cret", "CODE1")
	assert.NoError(t, err)

	user, token, err := svc.Login("9876543210", "s3cret")
	assert.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	// The token round-trips back to the user id.
	userID, err := svc.VerifyToken(token)
	assert.NoError(t, err)
	assert.Equal(t, registered.ID, userID)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, db := setupTest(t)
	seedCode(t, db, "CODE1")
	_, err := svc.Register("9876543210", "trader", "s3cret", "CODE1")
	assert.NoError(t, err)

	_, _, err = svc.Login("9876543210", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("0000000000", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken_Invalid(t *testing.T) {
	svc, _ := setupTest(t)

	_, err := svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A token signed with a different secret is rejected.
	other := NewService(nil, &config.Auth{JWTSecret: "other", TokenTTLMinutes: 60}, zap.NewNop())
	token, err := other.generateToken(42)
	assert.NoError(t, err)
	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
