package models

import "time"

// User is the admin identity allowed into the case-management area.
type User struct {
	BaseModel

	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name     string `gorm:"type:varchar(255)" json:"name"`
	Password string `gorm:"not null" json:"-"`

	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	FailedAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`
}

// IsLocked reports whether the account is locked at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
