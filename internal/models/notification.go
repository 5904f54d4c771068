package models

import "gorm.io/gorm"

// Notification is an announcement pushed by the admin console.
type Notification struct {
	gorm.Model
	NoticeID  string `gorm:"uniqueIndex;not null" json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	IsRead    bool   `gorm:"default:false" json:"is_read"`
}

// InvitationCode gates registration. A code is deleted when consumed.
type InvitationCode struct {
	gorm.Model
	Code string `gorm:"uniqueIndex;not null" json:"code"`
}
