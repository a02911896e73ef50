package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Program is an offering an organization publishes for enrollment. Price is
// stored in øre.
type Program struct {
	ID             int64          `gorm:"primaryKey" json:"id"`
	OrganizationID int64          `gorm:"not null;index" json:"organization_id"`
	Name           string         `gorm:"type:text;not null" json:"name"`
	Description    *string        `gorm:"type:text" json:"description,omitempty"`
	Price          int64          `gorm:"not null" json:"price"`
	StartDate      time.Time      `gorm:"not null" json:"start_date"`
	EndDate        time.Time      `gorm:"not null" json:"end_date"`
	Capacity       *int           `json:"capacity,omitempty"`
	Published      bool           `gorm:"not null" json:"published"`
	Tags           datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	ArchivedAt     *time.Time     `json:"archived_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Program) TableName() string { return "programs" }

// ProgramRow is a program read together with its enrollment count.
type ProgramRow struct {
	Program
	EnrollmentCount int64 `gorm:"column:enrollment_count"`
}
