package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Application statuses. Status is always one of these six values.
const (
	StatusInterested = "interested"
	StatusApplied    = "applied"
	StatusInterview  = "interview"
	StatusOffer      = "offer"
	StatusRejected   = "rejected"
	StatusGhosted    = "ghosted"
)

// Document types accepted by the generator.
const (
	DocumentTypeCoverLetter = "cover_letter"
	DocumentTypeColdMessage = "cold_message"
)

// ValidStatus reports whether s is a member of the fixed status set.
func ValidStatus(s string) bool {
	switch s {
	case StatusInterested, StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusGhosted:
		return true
	}
	return false
}

// ValidDocumentType reports whether t is a supported document type.
func ValidDocumentType(t string) bool {
	return t == DocumentTypeCoverLetter || t == DocumentTypeColdMessage
}

// User 表示通过 Google 登录的账号信息。
type User struct {
	gorm.Model
	Email        string        `gorm:"uniqueIndex;size:255"`
	Name         string        `gorm:"size:255"`
	Picture      string        `gorm:"size:512"`
	Applications []Application `gorm:"constraint:OnDelete:CASCADE"`
}

// Profile 保存求职者的背景信息，用于丰富文书生成的提示词。
// 每个用户至多一条，按需 upsert。
type Profile struct {
	gorm.Model
	UserID            uint           `gorm:"uniqueIndex"`
	User              User           `gorm:"constraint:OnDelete:CASCADE"`
	Experience        string         `gorm:"type:text"`
	Skills            datatypes.JSON `gorm:"type:jsonb"` // JSON array of strings
	Education         string         `gorm:"size:512"`
	PreferredSalary   string         `gorm:"size:128"`
	PreferredLocation string         `gorm:"size:255"`
	WorkMode          string         `gorm:"size:32"` // remote, hybrid, onsite
}

// Application 表示一条求职记录，贯穿看板的六个状态列。
type Application struct {
	gorm.Model
	UserID      uint   `gorm:"index"`
	User        User   `gorm:"constraint:OnDelete:CASCADE"`
	Company     string `gorm:"size:255"`
	Position    string `gorm:"size:255"`
	Status      string `gorm:"size:32;default:interested"`
	JobURL      string `gorm:"size:512"`
	SalaryRange string `gorm:"size:128"`
	Location    string `gorm:"size:255"`
	Notes       string `gorm:"type:text"`
	// AppliedDate is stamped the first time the status becomes "applied".
	AppliedDate *time.Time
	Documents   []Document `gorm:"constraint:OnDelete:CASCADE"`
}

// Document 表示为某条求职记录生成的文书。只增不改，多次生成形成历史。
type Document struct {
	gorm.Model
	ApplicationID uint   `gorm:"index"`
	UserID        uint   `gorm:"index"`
	Type          string `gorm:"size:32"`
	Tone          string `gorm:"size:32"`
	Content       string `gorm:"type:text"`
}
