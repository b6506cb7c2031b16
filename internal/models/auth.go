package models

import "time"

// Login outcomes stored in LoginHistory.Status.
const (
	LoginSuccess = "SUCCESS"
	LoginFailed  = "FAILED"
)

// RefreshToken is the single live refresh token of a user. Rotation overwrites it.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	JTI       string    `gorm:"column:jti;size:64;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// LoginHistory records a login attempt and, for successful ones, the matching logout.
type LoginHistory struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    *uint      `gorm:"index" json:"user_id,omitempty"`
	Email     string     `gorm:"size:255" json:"email"`
	Status    string     `gorm:"size:16;not null" json:"status"`
	Reason    string     `gorm:"size:255" json:"reason,omitempty"`
	IP        string     `gorm:"size:64" json:"ip"`
	UserAgent string     `gorm:"size:512" json:"user_agent"`
	LoginAt   time.Time  `gorm:"not null" json:"login_at"`
	LogoutAt  *time.Time `json:"logout_at,omitempty"`
}

func (LoginHistory) TableName() string {
	return "login_histories"
}
