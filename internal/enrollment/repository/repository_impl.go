package repository

import (
	"context"
	"time"

	"github.com/limaskap/limaskap/internal/enrollment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const enrollmentColumns = `e.id, e.program_id, e.member_id, e.status, e.payment_status,
	e.invoice_status, e.invoice_handle, e.signed_up_at, e.created_at, e.updated_at`

const selectDetail = `SELECT ` + enrollmentColumns + `,
	m.first_name AS member_first_name, m.last_name AS member_last_name, m.user_id AS owner_user_id,
	p.name AS program_name, p.price AS program_price,
	p.start_date AS program_start_date, p.end_date AS program_end_date,
	o.id AS organization_id, o.name AS organization_name, o.slug AS organization_slug,
	o.email AS organization_email, o.address AS organization_address,
	o.subdomain, o.payment_api_key
 FROM enrollments e
 JOIN member_records m ON m.id = e.member_id
 JOIN programs p ON p.id = e.program_id
 JOIN organizations o ON o.id = p.organization_id`

func (r *repo) FindMemberOwner(ctx context.Context, db *gorm.DB, memberID int64) (*domain.MemberOwner, error) {
	var item domain.MemberOwner
	err := db.WithContext(ctx).Raw(
		`SELECT m.id AS member_id, m.user_id, m.first_name, m.last_name
		 FROM member_records m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.id = ?
		 LIMIT 1`,
		memberID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.MemberID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindProgramWithOrganization(ctx context.Context, db *gorm.DB, programID int64) (*domain.ProgramRef, error) {
	var item domain.ProgramRef
	err := db.WithContext(ctx).Raw(
		`SELECT p.id AS program_id, p.name AS program_name, p.price, p.start_date, p.end_date,
			o.id AS organization_id, o.name AS organization_name, o.slug AS organization_slug,
			o.subdomain, o.payment_api_key
		 FROM programs p
		 JOIN organizations o ON o.id = p.organization_id
		 WHERE p.id = ? AND p.archived_at IS NULL AND o.archived_at IS NULL
		 LIMIT 1`,
		programID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ProgramID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByProgramAndMember(ctx context.Context, db *gorm.DB, programID, memberID int64) (*domain.Enrollment, error) {
	var item domain.Enrollment
	err := db.WithContext(ctx).Raw(
		`SELECT `+enrollmentColumns+`
		 FROM enrollments e
		 WHERE e.program_id = ? AND e.member_id = ?
		 LIMIT 1`,
		programID,
		memberID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Detail, error) {
	var item domain.Detail
	err := db.WithContext(ctx).Raw(
		selectDetail+`
		 WHERE e.id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByInvoiceHandle(ctx context.Context, db *gorm.DB, invoiceHandle string) (*domain.Enrollment, error) {
	var item domain.Enrollment
	err := db.WithContext(ctx).Raw(
		`SELECT `+enrollmentColumns+`
		 FROM enrollments e
		 WHERE e.invoice_handle = ?
		 LIMIT 1`,
		invoiceHandle,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// FindInvoiceRef matches the enrollment's own invoice handle first and falls
// back to a payment handle, so sessions opened for an existing enrollment
// reconcile too.
func (r *repo) FindInvoiceRef(ctx context.Context, db *gorm.DB, invoiceHandle string) (*domain.InvoiceRef, error) {
	var item domain.InvoiceRef
	err := db.WithContext(ctx).Raw(
		`SELECT e.id AS enrollment_id, o.id AS organization_id, o.payment_webhook_secret
		 FROM enrollments e
		 JOIN programs p ON p.id = e.program_id
		 JOIN organizations o ON o.id = p.organization_id
		 WHERE e.invoice_handle = ?
		 LIMIT 1`,
		invoiceHandle,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.EnrollmentID != 0 {
		return &item, nil
	}

	err = db.WithContext(ctx).Raw(
		`SELECT e.id AS enrollment_id, o.id AS organization_id, o.payment_webhook_secret
		 FROM payments pay
		 JOIN enrollments e ON e.id = pay.enrollment_id
		 JOIN programs p ON p.id = e.program_id
		 JOIN organizations o ON o.id = p.organization_id
		 WHERE pay.handle = ?
		 LIMIT 1`,
		invoiceHandle,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.EnrollmentID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListByOrganization(ctx context.Context, db *gorm.DB, orgID, before int64, limit int) ([]domain.Detail, error) {
	query := selectDetail + `
		 WHERE p.organization_id = ?`
	args := []any{orgID}
	if before > 0 {
		query += ` AND e.id < ?`
		args = append(args, before)
	}
	query += `
		 ORDER BY e.id DESC
		 LIMIT ?`
	args = append(args, limit)

	var items []domain.Detail
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, enrollment *domain.Enrollment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO enrollments (
			id, program_id, member_id, status, payment_status, invoice_status,
			invoice_handle, signed_up_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		enrollment.ID,
		enrollment.ProgramID,
		enrollment.MemberID,
		enrollment.Status,
		enrollment.PaymentStatus,
		enrollment.InvoiceStatus,
		enrollment.InvoiceHandle,
		enrollment.SignedUpAt,
		enrollment.CreatedAt,
		enrollment.UpdatedAt,
	).Error
}

// UpdateStatus leaves the row alone when it already has the target status.
func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id int64, status string, updatedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE enrollments
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status <> ?`,
		status,
		updatedAt,
		id,
		status,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id int64, paymentStatus string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE enrollments
		 SET payment_status = ?, updated_at = ?
		 WHERE id = ?`,
		paymentStatus,
		updatedAt,
		id,
	).Error
}

func (r *repo) UpdateInvoiceStatus(ctx context.Context, db *gorm.DB, id int64, invoiceStatus string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE enrollments
		 SET invoice_status = ?, updated_at = ?
		 WHERE id = ?`,
		invoiceStatus,
		updatedAt,
		id,
	).Error
}
