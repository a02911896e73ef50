package repository

import (
	"context"
	"strings"
	"time"

	"github.com/limaskap/limaskap/internal/organization/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectOrganization = `SELECT id, name, slug, subdomain, email, phone, address, description,
	logo_url, payment_api_key, payment_webhook_secret, archived_at, created_at, updated_at
 FROM organizations`

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Organization, error) {
	var items []domain.Organization
	err := db.WithContext(ctx).Raw(
		selectOrganization + `
		 WHERE archived_at IS NULL
		 ORDER BY name ASC, id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Organization, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindBySubdomain(ctx context.Context, db *gorm.DB, subdomain string) (*domain.Organization, error) {
	return r.findOne(ctx, db, "subdomain = ?", strings.ToLower(strings.TrimSpace(subdomain)))
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, cond string, arg any) (*domain.Organization, error) {
	var item domain.Organization
	err := db.WithContext(ctx).Raw(
		selectOrganization+`
		 WHERE `+cond+` AND archived_at IS NULL
		 LIMIT 1`,
		arg,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO organizations (
			id, name, slug, subdomain, email, phone, address, description, logo_url,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.Slug,
		org.Subdomain,
		org.Email,
		org.Phone,
		org.Address,
		org.Description,
		org.LogoURL,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repo) InsertMember(ctx context.Context, db *gorm.DB, member *domain.OrganizationMember) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO organization_members (id, organization_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		member.ID,
		member.OrganizationID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	).Error
}

func (r *repo) UpdatePaymentSettings(ctx context.Context, db *gorm.DB, id int64, apiKey, webhookSecret *string, updatedAt time.Time) (bool, error) {
	updates := map[string]any{"updated_at": updatedAt}
	if apiKey != nil {
		updates["payment_api_key"] = nullable(*apiKey)
	}
	if webhookSecret != nil {
		updates["payment_webhook_secret"] = nullable(*webhookSecret)
	}

	res := db.WithContext(ctx).
		Table("organizations").
		Where("id = ? AND archived_at IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ListMissingWebhookSecret(ctx context.Context, db *gorm.DB) ([]domain.Organization, error) {
	var items []domain.Organization
	err := db.WithContext(ctx).Raw(
		selectOrganization + `
		 WHERE archived_at IS NULL
		   AND payment_api_key IS NOT NULL AND payment_api_key <> ''
		   AND (payment_webhook_secret IS NULL OR payment_webhook_secret = '')
		 ORDER BY id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func nullable(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
