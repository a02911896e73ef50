package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, db *gorm.DB) ([]Organization, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Organization, error)
	FindBySubdomain(ctx context.Context, db *gorm.DB, subdomain string) (*Organization, error)
	Insert(ctx context.Context, db *gorm.DB, org *Organization) error
	InsertMember(ctx context.Context, db *gorm.DB, member *OrganizationMember) error
	UpdatePaymentSettings(ctx context.Context, db *gorm.DB, id int64, apiKey, webhookSecret *string, updatedAt time.Time) (bool, error)
	ListMissingWebhookSecret(ctx context.Context, db *gorm.DB) ([]Organization, error)
}
