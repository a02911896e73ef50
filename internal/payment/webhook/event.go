package webhook

import (
	enrollmentdomain "github.com/limaskap/limaskap/internal/enrollment/domain"
	paymentdomain "github.com/limaskap/limaskap/internal/payment/domain"
)

// Payload is the provider's notification body. Unknown fields are kept in
// the stored raw payload.
type Payload struct {
	ID          string `json:"id" validate:"required"`
	EventID     string `json:"event_id" validate:"required"`
	EventType   string `json:"event_type" validate:"required"`
	Timestamp   string `json:"timestamp" validate:"required"`
	Signature   string `json:"signature" validate:"required"`
	Invoice     string `json:"invoice,omitempty"`
	Customer    string `json:"customer,omitempty"`
	Transaction string `json:"transaction,omitempty"`
}

const (
	EventInvoiceAuthorized = "invoice_authorized"
	EventInvoiceSettled    = "invoice_settled"
	EventInvoiceCancelled  = "invoice_cancelled"
	EventInvoiceFailed     = "invoice_failed"
	EventInvoiceDunning    = "invoice_dunning"
	EventInvoiceCreated    = "invoice_created"
)

// Transition is the state an invoice event moves an enrollment and its
// payments to.
type Transition struct {
	InvoiceStatus           string
	PaymentStatus           string
	EnrollmentPaymentStatus string
}

var transitions = map[string]Transition{
	EventInvoiceAuthorized: pending(enrollmentdomain.InvoiceStatusAuthorized),
	EventInvoiceSettled: {
		InvoiceStatus:           enrollmentdomain.InvoiceStatusSettled,
		PaymentStatus:           paymentdomain.StatusSucceeded,
		EnrollmentPaymentStatus: enrollmentdomain.PaymentStatusPaid,
	},
	EventInvoiceCancelled: failed(enrollmentdomain.InvoiceStatusCancelled),
	EventInvoiceFailed:    failed(enrollmentdomain.InvoiceStatusFailed),
	EventInvoiceDunning:   pending(enrollmentdomain.InvoiceStatusDunning),
	EventInvoiceCreated:   pending(enrollmentdomain.InvoiceStatusCreated),
}

// TransitionFor reports the transition for a recognised invoice event.
func TransitionFor(eventType string) (Transition, bool) {
	t, ok := transitions[eventType]
	return t, ok
}

func pending(invoiceStatus string) Transition {
	return Transition{
		InvoiceStatus:           invoiceStatus,
		PaymentStatus:           paymentdomain.StatusPending,
		EnrollmentPaymentStatus: enrollmentdomain.PaymentStatusPending,
	}
}

func failed(invoiceStatus string) Transition {
	return Transition{
		InvoiceStatus:           invoiceStatus,
		PaymentStatus:           paymentdomain.StatusFailed,
		EnrollmentPaymentStatus: enrollmentdomain.PaymentStatusFailed,
	}
}
