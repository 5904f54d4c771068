package admin

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"neontrade-go/internal/config"
	"neontrade-go/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrCodeNotFound is returned when removing an unknown invitation code.
var ErrCodeNotFound = errors.New("invitation code not found")

// Service backs the admin console: credential check, invitation codes
// and broadcast notifications. Transaction approval and balance
// adjustments go through the ledger.
type Service struct {
	db     *gorm.DB
	cfg    *config.Admin
	logger *zap.Logger
}

// NewService creates a new admin service.
func NewService(db *gorm.DB, cfg *config.Admin, logger *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, logger: logger.Named("admin")}
}

// Authenticate checks the console credentials in constant time.
func (s *Service) Authenticate(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1
	return userOK && passOK
}

// GenerateInvitationCode mints a new single-use registration code.
func (s *Service) GenerateInvitationCode() (*models.InvitationCode, error) {
	code := models.InvitationCode{
		Code: strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]),
	}
	if err := s.db.Create(&code).Error; err != nil {
		return nil, err
	}
	s.logger.Info("Generated invitation code", zap.String("code", code.Code))
	return &code, nil
}

// RemoveInvitationCode revokes an unused code.
func (s *Service) RemoveInvitationCode(code string) error {
	res := s.db.Where("code = ?", code).Delete(&models.InvitationCode{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// InvitationCodes lists the codes still available for registration.
func (s *Service) InvitationCodes() ([]models.InvitationCode, error) {
	var codes []models.InvitationCode
	err := s.db.Order("id").Find(&codes).Error
	return codes, err
}

// SendNotification broadcasts an announcement to all users.
func (s *Service) SendNotification(title, content string) (*models.Notification, error) {
	notice := models.Notification{
		NoticeID:  uuid.NewString(),
		Title:     title,
		Content:   content,
		Timestamp: time.Now().Unix(),
	}
	if err := s.db.Create(&notice).Error; err != nil {
		return nil, err
	}
	s.logger.Info("Sent notification", zap.String("title", title))
	return &notice, nil
}

// Notifications lists announcements, newest first.
func (s *Service) Notifications() ([]models.Notification, error) {
	var notices []models.Notification
	err := s.db.Order("timestamp desc").Find(&notices).Error
	return notices, err
}

// MarkNotificationRead flags an announcement as read.
func (s *Service) MarkNotificationRead(noticeID string) error {
	return s.db.Model(&models.Notification{}).
		Where("notice_id = ?", noticeID).
		Update("is_read", true).Error
}
