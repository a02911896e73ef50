package domain

import (
	"context"
	"errors"
	"time"

	"github.com/limaskap/limaskap/internal/currency"
	"github.com/limaskap/limaskap/internal/viewer"
)

// WebhookProcessor reconciles provider notifications into enrollment and
// payment state.
type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte) error
}

type Service interface {
	CreateChargeSession(ctx context.Context, v *viewer.Viewer, req CreateChargeSessionRequest) (*ChargeSessionResponse, error)
	GetStatusByHandle(ctx context.Context, handle string) (*StatusResponse, error)
	RefreshFromProvider(ctx context.Context, v *viewer.Viewer, handle string) (*StatusResponse, error)
}

// CreateChargeSessionRequest opens a checkout for an existing enrollment.
// Empty optional fields take the checkout config defaults.
type CreateChargeSessionRequest struct {
	EnrollmentID int64  `json:"enrollmentId" validate:"required,gt=0"`
	Currency     string `json:"currency" validate:"omitempty,len=3,alpha"`
	AcceptPath   string `json:"acceptPath" validate:"omitempty,startswith=/,max=255"`
	CancelPath   string `json:"cancelPath" validate:"omitempty,startswith=/,max=255"`
}

type ChargeSessionResponse struct {
	SessionID     string `json:"sessionId"`
	CheckoutURL   string `json:"checkoutUrl"`
	PaymentHandle string `json:"paymentHandle"`
}

type ProviderRefsResponse struct {
	SessionID     *string `json:"sessionId"`
	ChargeID      *string `json:"chargeId"`
	InvoiceHandle *string `json:"invoiceHandle"`
	TransactionID *string `json:"transactionId"`
}

type StatusResponse struct {
	Handle                  string               `json:"handle"`
	Status                  string               `json:"status"`
	EnrollmentPaymentStatus string               `json:"enrollmentPaymentStatus"`
	Amount                  currency.Kroner      `json:"amount"`
	Currency                string               `json:"currency"`
	FrisbiiRefs             ProviderRefsResponse `json:"frisbiiRefs"`
	CreatedAt               time.Time            `json:"createdAt"`
	UpdatedAt               time.Time            `json:"updatedAt"`
}

func ToStatusResponse(row StatusRow) StatusResponse {
	return StatusResponse{
		Handle:                  row.Handle,
		Status:                  row.Status,
		EnrollmentPaymentStatus: row.EnrollmentPaymentStatus,
		Amount:                  currency.NewKroner(row.Amount),
		Currency:                row.Currency,
		FrisbiiRefs: ProviderRefsResponse{
			SessionID:     row.SessionID,
			ChargeID:      row.ChargeID,
			InvoiceHandle: row.InvoiceHandle,
			TransactionID: row.TransactionID,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

var (
	ErrNotFound           = errors.New("payment_not_found")
	ErrEnrollmentNotFound = errors.New("enrollment_not_found")
	ErrNotOwner           = errors.New("enrollment_not_owned")
	ErrNotConfigured      = errors.New("payment_not_configured")
	ErrInvalidPayload     = errors.New("invalid_webhook_payload")
	ErrInvalidSignature   = errors.New("invalid_webhook_signature")
)
