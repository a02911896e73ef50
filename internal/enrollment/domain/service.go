package domain

import (
	"context"
	"errors"
	"time"

	"github.com/limaskap/limaskap/internal/currency"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/limaskap/limaskap/pkg/db/pagination"
)

type Service interface {
	CreateWithCheckout(ctx context.Context, v *viewer.Viewer, req CreateRequest) (*CheckoutResponse, error)
	GetByInvoiceHandle(ctx context.Context, invoiceHandle string) (*Response, error)
	GetByID(ctx context.Context, v *viewer.Viewer, id int64) (*Response, error)
	ListByOrganization(ctx context.Context, v *viewer.Viewer, orgID int64, page pagination.Pagination) (*ListResponse, error)
	Cancel(ctx context.Context, v *viewer.Viewer, id int64) (*Response, error)
	Receipt(ctx context.Context, v *viewer.Viewer, id int64) ([]byte, error)
}

type CreateRequest struct {
	ProgramID int64 `json:"programId" validate:"required,gt=0"`
	MemberID  int64 `json:"memberId" validate:"required,gt=0"`
}

type CheckoutResponse struct {
	OrderID       string `json:"orderId"`
	SessionID     string `json:"sessionId"`
	CheckoutURL   string `json:"checkoutUrl"`
	PaymentHandle string `json:"paymentHandle"`
	InvoiceHandle string `json:"invoiceHandle"`
}

type Response struct {
	ID            int64            `json:"id"`
	ProgramID     int64            `json:"programId"`
	MemberID      int64            `json:"memberId"`
	Status        string           `json:"status"`
	PaymentStatus string           `json:"paymentStatus"`
	InvoiceStatus *string          `json:"invoiceStatus"`
	InvoiceHandle *string          `json:"invoiceHandle"`
	SignedUpAt    time.Time        `json:"signedUpAt"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	ProgramName   string           `json:"programName,omitempty"`
	ProgramPrice  *currency.Kroner `json:"programPrice,omitempty"`
	MemberName    string           `json:"memberName,omitempty"`
}

type ListResponse struct {
	Enrollments []Response          `json:"enrollments"`
	PageInfo    pagination.PageInfo `json:"pageInfo"`
}

func ToResponse(e Enrollment) Response {
	return Response{
		ID:            e.ID,
		ProgramID:     e.ProgramID,
		MemberID:      e.MemberID,
		Status:        e.Status,
		PaymentStatus: e.PaymentStatus,
		InvoiceStatus: e.InvoiceStatus,
		InvoiceHandle: e.InvoiceHandle,
		SignedUpAt:    e.SignedUpAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func DetailResponse(d Detail) Response {
	resp := ToResponse(d.Enrollment)
	price := currency.NewKroner(d.ProgramPrice)
	resp.ProgramName = d.ProgramName
	resp.ProgramPrice = &price
	resp.MemberName = d.MemberName()
	return resp
}

var (
	ErrNotFound           = errors.New("enrollment_not_found")
	ErrInvalidID          = errors.New("invalid_enrollment_id")
	ErrAlreadyExists      = errors.New("enrollment_exists")
	ErrMemberNotOwned     = errors.New("member_not_owned")
	ErrPaymentKeyNotFound = errors.New("payment_api_key_not_found")
	ErrInProgress         = errors.New("enrollment_in_progress")
	ErrAlreadyCancelled   = errors.New("enrollment_already_cancelled")
	ErrReceiptUnavailable = errors.New("receipt_unavailable")
)
