package repository

import (
	"context"
	"time"

	"github.com/limaskap/limaskap/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, organization_id, enrollment_id, handle, amount, currency, status,
			session_id, charge_id, invoice_handle, transaction_id, direct_settle,
			accept_url, cancel_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.OrganizationID,
		payment.EnrollmentID,
		payment.Handle,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.SessionID,
		payment.ChargeID,
		payment.InvoiceHandle,
		payment.TransactionID,
		payment.DirectSettle,
		payment.AcceptURL,
		payment.CancelURL,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindByHandle(ctx context.Context, db *gorm.DB, handle string) (*domain.StatusRow, error) {
	var item domain.StatusRow
	err := db.WithContext(ctx).Raw(
		`SELECT p.id, p.organization_id, p.enrollment_id, p.handle, p.amount, p.currency,
			p.status, p.session_id, p.charge_id, p.invoice_handle, p.transaction_id,
			p.direct_settle, p.accept_url, p.cancel_url, p.created_at, p.updated_at,
			e.payment_status AS enrollment_payment_status,
			m.user_id AS owner_user_id,
			o.payment_api_key
		 FROM payments p
		 JOIN enrollments e ON e.id = p.enrollment_id
		 JOIN member_records m ON m.id = e.member_id
		 JOIN organizations o ON o.id = p.organization_id
		 WHERE p.handle = ?
		 LIMIT 1`,
		handle,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateProviderRefs(ctx context.Context, db *gorm.DB, id int64, refs domain.ProviderRefs, updatedAt time.Time) error {
	updates := map[string]any{"updated_at": updatedAt}
	if refs.ChargeID != nil {
		updates["charge_id"] = *refs.ChargeID
	}
	if refs.InvoiceHandle != nil {
		updates["invoice_handle"] = *refs.InvoiceHandle
	}
	if refs.TransactionID != nil {
		updates["transaction_id"] = *refs.TransactionID
	}
	return db.WithContext(ctx).
		Table("payments").
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repo) UpdateStatusByEnrollment(ctx context.Context, db *gorm.DB, enrollmentID int64, status, invoiceHandle string, updatedAt time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, invoice_handle = ?, updated_at = ?
		 WHERE enrollment_id = ?`,
		status,
		invoiceHandle,
		updatedAt,
		enrollmentID,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.WebhookEvent) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (
			id, webhook_id, event_id, event_type, organization_id, invoice_handle,
			payload, processed_at, processing_error, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (webhook_id) DO NOTHING`,
		event.ID,
		event.WebhookID,
		event.EventID,
		event.EventType,
		event.OrganizationID,
		event.InvoiceHandle,
		event.Payload,
		event.ProcessedAt,
		event.ProcessingError,
		event.ReceivedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, id int64, processedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events
		 SET processed_at = ?
		 WHERE id = ?`,
		processedAt,
		id,
	).Error
}
