package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.

type ProfileModel struct {
	UserEmail string    `gorm:"primaryKey"`
	Platform  string    `gorm:"not null"`
	AdType    string    `gorm:"not null"`
	Tone      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (ProfileModel) TableName() string { return "user_profiles" }

type SessionModel struct {
	ID          string         `gorm:"primaryKey"`
	UserEmail   string         `gorm:"not null;index"`
	Personality string         `gorm:"not null"`
	Title       string         `gorm:"not null"`
	Messages    datatypes.JSON `gorm:"type:jsonb;not null"`
	ProjectID   string         `gorm:"index"`
	CreatedAt   time.Time      `gorm:"not null;index"`
}

func (SessionModel) TableName() string { return "chat_history" }

type ProjectModel struct {
	ID        string    `gorm:"primaryKey"`
	UserEmail string    `gorm:"not null;index"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ProjectModel) TableName() string { return "projects" }

type SubscriptionModel struct {
	UserEmail          string    `gorm:"primaryKey"`
	StripeCustomer     string    `gorm:"column:stripe_customer"`
	StripeSubscription string    `gorm:"column:stripe_subscription"`
	Active             bool      `gorm:"column:is_active;not null"`
	ProSince           time.Time `gorm:"column:pro_since"`
}

func (SubscriptionModel) TableName() string { return "pro_users" }

type AssetModel struct {
	ID              string    `gorm:"primaryKey"`
	UserEmail       string    `gorm:"not null;index"`
	FileName        string    `gorm:"not null"`
	ObjectKey       string    `gorm:"not null"`
	Kind            string    `gorm:"not null"`
	DurationSeconds float64   `gorm:"column:duration_seconds"`
	Transcript      string
	PreviewURL      string    `gorm:"column:preview_url"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (AssetModel) TableName() string { return "ad_assets" }

type FeedbackModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	UserEmail   string    `gorm:"not null;index"`
	Message     string    `gorm:"not null"`
	Personality string    `gorm:"not null"`
	Feedback    string    `gorm:"not null"`
	Title       string
	CreatedAt   time.Time `gorm:"not null"`
}

func (FeedbackModel) TableName() string { return "chat_feedback" }

type WaitlistModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Email     string    `gorm:"not null;index"`
	UserID    string
	CreatedAt time.Time `gorm:"not null"`
}

func (WaitlistModel) TableName() string { return "waitlist" }

type PublicWaitlistModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Email     string    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

func (PublicWaitlistModel) TableName() string { return "public_waitlist" }
