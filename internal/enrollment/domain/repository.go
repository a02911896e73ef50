package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	FindMemberOwner(ctx context.Context, db *gorm.DB, memberID int64) (*MemberOwner, error)
	FindProgramWithOrganization(ctx context.Context, db *gorm.DB, programID int64) (*ProgramRef, error)
	FindByProgramAndMember(ctx context.Context, db *gorm.DB, programID, memberID int64) (*Enrollment, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Detail, error)
	FindByInvoiceHandle(ctx context.Context, db *gorm.DB, invoiceHandle string) (*Enrollment, error)
	FindInvoiceRef(ctx context.Context, db *gorm.DB, invoiceHandle string) (*InvoiceRef, error)
	ListByOrganization(ctx context.Context, db *gorm.DB, orgID, before int64, limit int) ([]Detail, error)
	Insert(ctx context.Context, db *gorm.DB, enrollment *Enrollment) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id int64, status string, updatedAt time.Time) (bool, error)
	UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id int64, paymentStatus string, updatedAt time.Time) error
	UpdateInvoiceStatus(ctx context.Context, db *gorm.DB, id int64, invoiceStatus string, updatedAt time.Time) error
}
