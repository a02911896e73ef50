package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending   = "PENDING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusRefunded  = "REFUNDED"
)

// Payment is one checkout attempt for an enrollment.
type Payment struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	OrganizationID int64     `json:"organization_id" gorm:"not null"`
	EnrollmentID   int64     `json:"enrollment_id" gorm:"not null;index"`
	Handle         string    `json:"handle" gorm:"type:text;not null;uniqueIndex"`
	Amount         int64     `json:"amount" gorm:"not null"`
	Currency       string    `json:"currency" gorm:"type:text;not null"`
	Status         string    `json:"status" gorm:"type:text;not null"`
	SessionID      *string   `json:"session_id"`
	ChargeID       *string   `json:"charge_id"`
	InvoiceHandle  *string   `json:"invoice_handle"`
	TransactionID  *string   `json:"transaction_id"`
	DirectSettle   bool      `json:"direct_settle" gorm:"not null"`
	AcceptURL      *string   `json:"accept_url"`
	CancelURL      *string   `json:"cancel_url"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// StatusRow is a payment joined with its enrollment's payment status, the
// account that owns the enrolled member and the organization's API key.
type StatusRow struct {
	Payment
	EnrollmentPaymentStatus string  `gorm:"column:enrollment_payment_status"`
	OwnerUserID             string  `gorm:"column:owner_user_id"`
	PaymentAPIKey           *string `gorm:"column:payment_api_key"`
}

func (r StatusRow) APIKey() string {
	if r.PaymentAPIKey == nil {
		return ""
	}
	return strings.TrimSpace(*r.PaymentAPIKey)
}

// WebhookEvent is the idempotency ledger for provider notifications. The
// webhook id is unique; a second insert of the same id is a replay.
type WebhookEvent struct {
	ID              int64          `json:"id" gorm:"primaryKey"`
	WebhookID       string         `json:"webhook_id" gorm:"type:text;not null;uniqueIndex"`
	EventID         string         `json:"event_id" gorm:"type:text;not null"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	OrganizationID  *int64         `json:"organization_id"`
	InvoiceHandle   *string        `json:"invoice_handle"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
	ProcessingError *string        `json:"processing_error"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }

// ProviderRefs are the provider identifiers learned after the session was
// opened. Nil fields are left untouched.
type ProviderRefs struct {
	ChargeID      *string
	InvoiceHandle *string
	TransactionID *string
}

func (r ProviderRefs) Empty() bool {
	return r.ChargeID == nil && r.InvoiceHandle == nil && r.TransactionID == nil
}
