// Package domain contains persistence models for the organization service.
package domain

import (
	"strings"
	"time"
)

// Organization represents a tenant.
type Organization struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	Name                 string     `gorm:"type:text;not null" json:"name"`
	Slug                 string     `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	Subdomain            string     `gorm:"type:text;not null;uniqueIndex:ux_organizations_subdomain" json:"subdomain"`
	Email                string     `gorm:"type:text;not null;uniqueIndex:ux_organizations_email" json:"email"`
	Phone                *string    `gorm:"type:text" json:"phone,omitempty"`
	Address              *string    `gorm:"type:text" json:"address,omitempty"`
	Description          *string    `gorm:"type:text" json:"description,omitempty"`
	LogoURL              *string    `gorm:"type:text;column:logo_url" json:"logo_url,omitempty"`
	PaymentAPIKey        *string    `gorm:"type:text;column:payment_api_key" json:"-"`
	PaymentWebhookSecret *string    `gorm:"type:text;column:payment_webhook_secret" json:"-"`
	ArchivedAt           *time.Time `json:"archived_at,omitempty"`
	CreatedAt            time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// APIKey returns the configured payment API key, or "".
func (o Organization) APIKey() string {
	return trimmed(o.PaymentAPIKey)
}

// WebhookSecret returns the configured webhook secret, or "".
func (o Organization) WebhookSecret() string {
	return trimmed(o.PaymentWebhookSecret)
}

// OrganizationMember represents membership of a user in an organization.
type OrganizationMember struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	OrganizationID int64     `gorm:"not null;uniqueIndex:ux_organization_members_org_user,priority:1" json:"organization_id"`
	UserID         string    `gorm:"type:text;not null;uniqueIndex:ux_organization_members_org_user,priority:2" json:"user_id"`
	Role           string    `gorm:"type:text;not null" json:"role"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrganizationMember) TableName() string { return "organization_members" }

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
