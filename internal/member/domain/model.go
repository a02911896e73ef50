package domain

import (
	"strings"
	"time"
)

const (
	RelationshipSelf     = "SELF"
	RelationshipChild    = "CHILD"
	RelationshipPartner  = "PARTNER"
	RelationshipGuardian = "GUARDIAN"
	RelationshipOther    = "OTHER"
)

// MemberRecord is a person an account holder can enroll, such as themselves
// or a child.
type MemberRecord struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"type:text;not null;index" json:"user_id"`
	FirstName    string    `gorm:"type:text;not null" json:"first_name"`
	LastName     string    `gorm:"type:text;not null" json:"last_name"`
	BirthDate    time.Time `gorm:"not null" json:"birth_date"`
	Gender       *string   `gorm:"type:text" json:"gender,omitempty"`
	Address      string    `gorm:"type:text;not null" json:"address"`
	City         string    `gorm:"type:text;not null" json:"city"`
	PostalCode   string    `gorm:"type:text;not null" json:"postal_code"`
	Country      string    `gorm:"type:text;not null" json:"country"`
	Relationship string    `gorm:"type:text;not null;default:OTHER" json:"relationship"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MemberRecord) TableName() string { return "member_records" }

func (m MemberRecord) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// UserEnrollmentRow is an enrollment of one of the user's members joined with
// its program.
type UserEnrollmentRow struct {
	EnrollmentID     int64     `gorm:"column:enrollment_id"`
	MemberRecordID   int64     `gorm:"column:member_record_id"`
	ProgramID        int64     `gorm:"column:program_id"`
	MemberFirstName  string    `gorm:"column:member_first_name"`
	MemberLastName   string    `gorm:"column:member_last_name"`
	ProgramName      string    `gorm:"column:program_name"`
	ProgramPrice     int64     `gorm:"column:program_price"`
	EnrollmentStatus string    `gorm:"column:enrollment_status"`
	PaymentStatus    string    `gorm:"column:payment_status"`
	SignedUpAt       time.Time `gorm:"column:signed_up_at"`
	StartDate        time.Time `gorm:"column:start_date"`
	EndDate          time.Time `gorm:"column:end_date"`
}
