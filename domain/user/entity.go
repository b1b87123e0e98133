package user

import (
	"time"
)

// User is an identity that can authenticate and act on tasks.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"column:hashed_password;not null" json:"-"`
	FullName     *string   `gorm:"size:255" json:"full_name"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// Brief is the subset of a user embedded in other resources.
type Brief struct {
	ID       uint    `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
}

// Brief returns the embeddable view of the user.
func (u *User) Brief() *Brief {
	if u == nil {
		return nil
	}
	return &Brief{ID: u.ID, Email: u.Email, FullName: u.FullName}
}

// TokenPair represents a pair of access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Identity is the authenticated actor attached to a request after its access
// token and account state have been checked.
type Identity struct {
	ID       uint    `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name,omitempty"`
	IsActive bool    `json:"is_active"`
}
