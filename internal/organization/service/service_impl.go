package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"github.com/limaskap/limaskap/internal/authorization"
	"github.com/limaskap/limaskap/internal/clock"
	"github.com/limaskap/limaskap/internal/config"
	"github.com/limaskap/limaskap/internal/organization/domain"
	programdomain "github.com/limaskap/limaskap/internal/program/domain"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/limaskap/limaskap/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cfg         config.Config
	GenID       *snowflake.Node
	Repo        domain.Repository
	ProgramRepo programdomain.Repository
	Authz       authorization.Authorizer
	Validate    *validator.Validate
	Clock       clock.Clock
}

type service struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         config.Config
	genID       *snowflake.Node
	repo        domain.Repository
	programRepo programdomain.Repository
	authz       authorization.Authorizer
	validate    *validator.Validate
	clock       clock.Clock
}

func NewService(p Params) domain.Service {
	return &service{
		db:          p.DB,
		log:         p.Log.Named("organization.service"),
		cfg:         p.Cfg,
		genID:       p.GenID,
		repo:        p.Repo,
		programRepo: p.ProgramRepo,
		authz:       p.Authz,
		validate:    p.Validate,
		clock:       p.Clock,
	}
}

func (s *service) List(ctx context.Context) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.ToResponse(item))
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*domain.Response, error) {
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := domain.ToResponse(*org)
	return &resp, nil
}

func (s *service) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Response, error) {
	org, err := s.loadBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	resp := domain.ToResponse(*org)
	return &resp, nil
}

func (s *service) Create(ctx context.Context, v *viewer.Viewer, req domain.CreateOrganizationRequest) (*domain.Response, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Check(s.validate, req); err != nil {
		return nil, err
	}

	orgSlug := slug.Make(strings.TrimSpace(req.Slug))
	if orgSlug == "" {
		orgSlug = slug.Make(req.Name)
	}
	if orgSlug == "" {
		return nil, validation.Fail("slug", "required", "is required")
	}

	now := s.clock.Now().UTC()
	org := domain.Organization{
		ID:          s.genID.Generate().Int64(),
		Name:        req.Name,
		Slug:        orgSlug,
		Subdomain:   req.Subdomain,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &org); err != nil {
			return err
		}
		return s.repo.InsertMember(ctx, tx, &domain.OrganizationMember{
			ID:             s.genID.Generate().Int64(),
			OrganizationID: org.ID,
			UserID:         v.UserID,
			Role:           authorization.RoleAdmin,
			CreatedAt:      now,
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	s.log.Info("organization created",
		zap.Int64("organization_id", org.ID),
		zap.String("subdomain", org.Subdomain),
		zap.String("user_id", v.UserID),
	)

	resp := domain.ToResponse(org)
	return &resp, nil
}

func (s *service) GetWithPrograms(ctx context.Context, id int64) (*domain.WithProgramsResponse, error) {
	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withPrograms(ctx, org, false)
}

// ProgramsBySubdomain lists the published programs of a tenant with their
// enrollment counts.
func (s *service) ProgramsBySubdomain(ctx context.Context, subdomain string) (*domain.WithProgramsResponse, error) {
	org, err := s.loadBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}
	return s.withPrograms(ctx, org, true)
}

func (s *service) ProgramBySubdomain(ctx context.Context, subdomain string, programID int64) (*programdomain.Response, error) {
	if programID <= 0 {
		return nil, programdomain.ErrInvalidID
	}
	org, err := s.loadBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	row, err := s.programRepo.FindByID(ctx, s.db, programID)
	if err != nil {
		return nil, err
	}
	if row == nil || row.OrganizationID != org.ID || !row.Published {
		return nil, programdomain.ErrNotFound
	}
	resp := programdomain.ToResponse(*row)
	return &resp, nil
}

func (s *service) UpdatePaymentSettings(ctx context.Context, v *viewer.Viewer, id int64, req domain.PaymentSettingsRequest) (*domain.Response, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	if req.APIKey == nil && req.WebhookSecret == nil {
		return nil, validation.Failf("No updates provided")
	}
	if err := validation.Check(s.validate, req); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, v.UserID, id, authorization.ObjectOrganization, authorization.ActionManage); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdatePaymentSettings(ctx, s.db, id, req.APIKey, req.WebhookSecret, s.clock.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrNotFound
	}

	org, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("payment settings updated",
		zap.Int64("organization_id", id),
		zap.Bool("payment_configured", org.APIKey() != ""),
		zap.Bool("webhook_secret_configured", org.WebhookSecret() != ""),
	)
	if org.APIKey() != "" && org.WebhookSecret() == "" {
		s.log.Warn("organization accepts payments without webhook signature verification",
			zap.Int64("organization_id", id))
	}

	resp := domain.ToResponse(*org)
	return &resp, nil
}

// CheckWebhookSecrets reports organizations that take payments but would accept
// unsigned webhooks.
func (s *service) CheckWebhookSecrets(ctx context.Context) error {
	items, err := s.repo.ListMissingWebhookSecret(ctx, s.db)
	if err != nil {
		return err
	}
	for _, org := range items {
		s.log.Warn("organization has a payment api key but no webhook secret; webhook signatures are not verified",
			zap.Int64("organization_id", org.ID),
			zap.String("subdomain", org.Subdomain),
		)
	}
	if len(items) > 0 && s.cfg.WebhookRequireSecret {
		return errors.Join(domain.ErrWebhookSecretRequired, errors.New(missingSubdomains(items)))
	}
	return nil
}

func (s *service) withPrograms(ctx context.Context, org *domain.Organization, publishedOnly bool) (*domain.WithProgramsResponse, error) {
	orgID := org.ID
	rows, err := s.programRepo.List(ctx, s.db, programdomain.ListFilter{
		OrganizationID: &orgID,
		PublishedOnly:  publishedOnly,
	})
	if err != nil {
		return nil, err
	}

	programs := make([]programdomain.Response, 0, len(rows))
	for _, row := range rows {
		programs = append(programs, programdomain.ToResponse(row))
	}
	return &domain.WithProgramsResponse{
		Response: domain.ToResponse(*org),
		Programs: programs,
	}, nil
}

func (s *service) load(ctx context.Context, id int64) (*domain.Organization, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidID
	}
	org, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func (s *service) loadBySubdomain(ctx context.Context, subdomain string) (*domain.Organization, error) {
	if strings.TrimSpace(subdomain) == "" {
		return nil, domain.ErrNotFound
	}
	org, err := s.repo.FindBySubdomain(ctx, s.db, subdomain)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func missingSubdomains(items []domain.Organization) string {
	names := make([]string, 0, len(items))
	for _, org := range items {
		names = append(names, org.Subdomain)
	}
	return "missing webhook secret: " + strings.Join(names, ", ")
}
