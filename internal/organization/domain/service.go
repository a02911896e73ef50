package domain

import (
	"context"
	"errors"
	"time"

	programdomain "github.com/limaskap/limaskap/internal/program/domain"
	"github.com/limaskap/limaskap/internal/viewer"
)

type Service interface {
	List(ctx context.Context) ([]Response, error)
	GetByID(ctx context.Context, id int64) (*Response, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Response, error)
	Create(ctx context.Context, v *viewer.Viewer, req CreateOrganizationRequest) (*Response, error)
	GetWithPrograms(ctx context.Context, id int64) (*WithProgramsResponse, error)
	ProgramsBySubdomain(ctx context.Context, subdomain string) (*WithProgramsResponse, error)
	ProgramBySubdomain(ctx context.Context, subdomain string, programID int64) (*programdomain.Response, error)
	UpdatePaymentSettings(ctx context.Context, v *viewer.Viewer, id int64, req PaymentSettingsRequest) (*Response, error)
	CheckWebhookSecrets(ctx context.Context) error
}

type CreateOrganizationRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Slug        string  `json:"slug" validate:"omitempty,max=255"`
	Subdomain   string  `json:"subdomain" validate:"required,max=63,subdomain"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	LogoURL     *string `json:"logoUrl" validate:"omitempty,url"`
}

// PaymentSettingsRequest changes the gateway credentials. A nil field is left
// as is; an empty string clears it.
type PaymentSettingsRequest struct {
	APIKey        *string `json:"apiKey" validate:"omitempty,max=255"`
	WebhookSecret *string `json:"webhookSecret" validate:"omitempty,max=255"`
}

// Response is the public view of an organization. Gateway credentials are
// reported only as flags.
type Response struct {
	ID                      int64      `json:"id"`
	Name                    string     `json:"name"`
	Slug                    string     `json:"slug"`
	Subdomain               string     `json:"subdomain"`
	Email                   string     `json:"email"`
	Phone                   *string    `json:"phone"`
	Address                 *string    `json:"address"`
	Description             *string    `json:"description"`
	LogoURL                 *string    `json:"logoUrl"`
	PaymentConfigured       bool       `json:"paymentConfigured"`
	WebhookSecretConfigured bool       `json:"webhookSecretConfigured"`
	ArchivedAt              *time.Time `json:"archivedAt"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

type WithProgramsResponse struct {
	Response
	Programs []programdomain.Response `json:"programs"`
}

func ToResponse(org Organization) Response {
	return Response{
		ID:                      org.ID,
		Name:                    org.Name,
		Slug:                    org.Slug,
		Subdomain:               org.Subdomain,
		Email:                   org.Email,
		Phone:                   org.Phone,
		Address:                 org.Address,
		Description:             org.Description,
		LogoURL:                 org.LogoURL,
		PaymentConfigured:       org.APIKey() != "",
		WebhookSecretConfigured: org.WebhookSecret() != "",
		ArchivedAt:              org.ArchivedAt,
		CreatedAt:               org.CreatedAt,
		UpdatedAt:               org.UpdatedAt,
	}
}

var (
	ErrNotFound              = errors.New("organization_not_found")
	ErrInvalidID             = errors.New("invalid_organization_id")
	ErrConflict              = errors.New("organization_exists")
	ErrWebhookSecretRequired = errors.New("webhook_secret_required")
)
