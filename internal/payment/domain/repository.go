package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByHandle(ctx context.Context, db *gorm.DB, handle string) (*StatusRow, error)
	UpdateProviderRefs(ctx context.Context, db *gorm.DB, id int64, refs ProviderRefs, updatedAt time.Time) error
	// UpdateStatusByEnrollment writes status and invoice handle onto every
	// payment of the enrollment and returns the number of rows touched.
	UpdateStatusByEnrollment(ctx context.Context, db *gorm.DB, enrollmentID int64, status, invoiceHandle string, updatedAt time.Time) (int64, error)

	// InsertEvent reports false when the webhook id was already recorded.
	InsertEvent(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id int64, processedAt time.Time) error
}
