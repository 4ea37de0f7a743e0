package model

import (
	"time"

	"backend/internal/approval"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Division is an organizational unit. Team leads and division managers
// only approve requests raised inside their own division.
type Division struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// User represents the central user entity for logic and database structure
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName    string         `gorm:"type:varchar(255)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(255)" json:"last_name"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"` // Omit hash from JSON requests/responses
	Role         approval.Role  `gorm:"type:varchar(50);not null" json:"role"`
	DivisionID   *uuid.UUID     `gorm:"type:uuid;index" json:"division_id"` // Nullable for admin and sales_director
	Division     *Division      `gorm:"foreignKey:DivisionID" json:"division,omitempty"`
	PDANumber    string         `gorm:"type:varchar(50)" json:"pda_number"`
	LastLogin    *time.Time     `json:"last_login"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// FullName joins first and last name for emails and PDF output.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
