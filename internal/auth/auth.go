package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"neontrade-go/internal/config"
	"neontrade-go/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials is returned for a bad mobile/password pair.
	ErrInvalidCredentials = errors.New("invalid mobile number or password")

	// ErrMobileTaken is returned when the mobile number is registered.
	ErrMobileTaken = errors.New("mobile number already registered")

	// ErrInvalidInvitation is returned for an unknown invitation code.
	ErrInvalidInvitation = errors.New("invalid invitation code")

	// ErrInvalidToken is returned for an expired or malformed session token.
	ErrInvalidToken = errors.New("invalid session token")
)

// Service handles registration, login and session tokens.
type Service struct {
	db     *gorm.DB
	cfg    *config.Auth
	logger *zap.Logger
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg *config.Auth, logger *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, logger: logger.Named("auth")}
}

// Register creates a user account. The invitation code must exist and
// is consumed by the registration. The new account starts with the
// configured demo balance.
func (s *Service) Register(mobile, username, password, invitationCode string) (*models.User, error) {
	var existing models.User
	err := s.db.Where("mobile = ?", mobile).First(&existing).Error
	if err == nil {
		return nil, ErrMobileTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	user := models.User{
		Mobile:        mobile,
		Username:      username,
		PasswordHash:  string(hashed),
		Balance:       decimal.NewFromFloat(s.cfg.StartingBalance),
		FrozenBalance: decimal.Zero,
		CreditScore:   100,
		VipLevel:      1,
		ReferralCode:  strings.ToUpper(uuid.NewString()[:8]),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var code models.InvitationCode
		if err := tx.Where("code = ?", invitationCode).First(&code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidInvitation
			}
			return err
		}
		if err := tx.Delete(&code).Error; err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Registered user",
		zap.Uint("user_id", user.ID), zap.String("mobile", mobile))
	return &user, nil
}

// Login verifies the credentials and returns the user with a signed
// session token.
func (s *Service) Login(mobile, password string) (*models.User, string, error) {
	var user models.User
	if err := s.db.Where("mobile = ?", mobile).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password verification failed", zap.Error(err))
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *Service) generateToken(userID uint) (string, error) {
	ttl := time.Duration(s.cfg.TokenTTLMinutes) * time.Minute
	claims := jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", userID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// VerifyToken validates a session token and returns the user id it
// was issued for.
func (s *Service) VerifyToken(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	var userID uint
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
