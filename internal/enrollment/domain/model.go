package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Participation state.
const (
	StatusConfirmed  = "CONFIRMED"
	StatusWaitlisted = "WAITLISTED"
	StatusCancelled  = "CANCELLED"
)

const (
	PaymentStatusNone     = "NONE"
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// Invoice states mirror the provider's invoice lifecycle.
const (
	InvoiceStatusCreated    = "CREATED"
	InvoiceStatusPending    = "PENDING"
	InvoiceStatusDunning    = "DUNNING"
	InvoiceStatusSettled    = "SETTLED"
	InvoiceStatusCancelled  = "CANCELLED"
	InvoiceStatusAuthorized = "AUTHORIZED"
	InvoiceStatusFailed     = "FAILED"
)

// Enrollment joins a member record to a program.
type Enrollment struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	ProgramID     int64     `gorm:"not null;uniqueIndex:ux_enrollments_program_member,priority:1" json:"program_id"`
	MemberID      int64     `gorm:"not null;uniqueIndex:ux_enrollments_program_member,priority:2" json:"member_id"`
	Status        string    `gorm:"type:text;not null;default:CONFIRMED" json:"status"`
	PaymentStatus string    `gorm:"type:text;not null;default:NONE" json:"payment_status"`
	InvoiceStatus *string   `gorm:"type:text" json:"invoice_status,omitempty"`
	InvoiceHandle *string   `gorm:"type:text;uniqueIndex:ux_enrollments_invoice_handle" json:"invoice_handle,omitempty"`
	SignedUpAt    time.Time `gorm:"not null" json:"signed_up_at"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollments" }

// MemberOwner is a member record with the account that owns it.
type MemberOwner struct {
	MemberID  int64  `gorm:"column:member_id"`
	UserID    string `gorm:"column:user_id"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
}

// ProgramRef is a program with the organization fields checkout needs.
type ProgramRef struct {
	ProgramID        int64     `gorm:"column:program_id"`
	ProgramName      string    `gorm:"column:program_name"`
	Price            int64     `gorm:"column:price"`
	StartDate        time.Time `gorm:"column:start_date"`
	EndDate          time.Time `gorm:"column:end_date"`
	OrganizationID   int64     `gorm:"column:organization_id"`
	OrganizationName string    `gorm:"column:organization_name"`
	OrganizationSlug string    `gorm:"column:organization_slug"`
	Subdomain        string    `gorm:"column:subdomain"`
	PaymentAPIKey    *string   `gorm:"column:payment_api_key"`
}

func (p ProgramRef) APIKey() string {
	if p.PaymentAPIKey == nil {
		return ""
	}
	return strings.TrimSpace(*p.PaymentAPIKey)
}

// Detail is an enrollment joined with its member, program and organization.
type Detail struct {
	Enrollment
	MemberFirstName   string    `gorm:"column:member_first_name"`
	MemberLastName    string    `gorm:"column:member_last_name"`
	OwnerUserID       string    `gorm:"column:owner_user_id"`
	ProgramName       string    `gorm:"column:program_name"`
	ProgramPrice      int64     `gorm:"column:program_price"`
	ProgramStartDate  time.Time `gorm:"column:program_start_date"`
	ProgramEndDate    time.Time `gorm:"column:program_end_date"`
	OrganizationID    int64     `gorm:"column:organization_id"`
	OrganizationName  string    `gorm:"column:organization_name"`
	OrganizationSlug  string    `gorm:"column:organization_slug"`
	OrganizationEmail string    `gorm:"column:organization_email"`
	OrganizationAddr  *string   `gorm:"column:organization_address"`
	Subdomain         string    `gorm:"column:subdomain"`
	PaymentAPIKey     *string   `gorm:"column:payment_api_key"`
}

func (d Detail) MemberName() string {
	return strings.TrimSpace(d.MemberFirstName + " " + d.MemberLastName)
}

func (d Detail) APIKey() string {
	if d.PaymentAPIKey == nil {
		return ""
	}
	return strings.TrimSpace(*d.PaymentAPIKey)
}

// InvoiceRef resolves a provider invoice handle to the enrollment and the
// secret its organization signs webhooks with.
type InvoiceRef struct {
	EnrollmentID   int64   `gorm:"column:enrollment_id"`
	OrganizationID int64   `gorm:"column:organization_id"`
	WebhookSecret  *string `gorm:"column:payment_webhook_secret"`
}

func (r InvoiceRef) Secret() string {
	if r.WebhookSecret == nil {
		return ""
	}
	return strings.TrimSpace(*r.WebhookSecret)
}

// NewInvoiceHandle returns a fresh correlation handle for a program checkout.
func NewInvoiceHandle(programID int64) string {
	return fmt.Sprintf("program-%d-%s", programID, uuid.NewString())
}

// OrderText is the line shown on the hosted checkout page.
func OrderText(programName, firstName, lastName string) string {
	return strings.TrimSpace(fmt.Sprintf("%s - %s %s", programName, firstName, lastName))
}
