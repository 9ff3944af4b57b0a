package model

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Roles recognised by the role guard.
const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleUser   = "user"
)

// User account statuses.
const (
	UserStatusRegistered = "REGISTERED"
	UserStatusReviewed   = "REVIEWED"
	UserStatusConfirmed  = "CONFIRMED"
	UserStatusBanned     = "BANNED"
)

// User is an API account. Doctors own exactly one User with role doctor.
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid"`
	Username  string     `json:"username" gorm:"type:text;uniqueIndex;not null"`
	Email     string     `json:"email" gorm:"type:text;uniqueIndex;not null"`
	Phone     string     `json:"phone,omitempty" gorm:"type:text;index"`
	Password  string     `json:"-" gorm:"type:text;not null"`
	Role      string     `json:"role" gorm:"type:text;not null;default:user"`
	Status    string     `json:"status" gorm:"type:text;not null;default:REGISTERED"`
	Avatar    string     `json:"avatar,omitempty" gorm:"type:text"`
	CreatedAt time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" gorm:"index"`
}

func (User) TableName(namer schema.Namer) string {
	return namer.TableName("users")
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// RefreshToken is an opaque, rotating token bound to one user.
type RefreshToken struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Token     string    `json:"-" gorm:"type:text;uniqueIndex;not null"`
	UserID    string    `json:"userId" gorm:"type:uuid;index;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (RefreshToken) TableName(namer schema.Namer) string {
	return namer.TableName("refresh_tokens")
}

func (t *RefreshToken) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// Expired reports whether the token is no longer usable at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
