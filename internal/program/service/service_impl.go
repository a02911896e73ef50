package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/limaskap/limaskap/internal/authorization"
	"github.com/limaskap/limaskap/internal/clock"
	"github.com/limaskap/limaskap/internal/currency"
	"github.com/limaskap/limaskap/internal/program/domain"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Authz    authorization.Authorizer
	Validate *validator.Validate
	Clock    clock.Clock
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	authz    authorization.Authorizer
	validate *validator.Validate
	clock    clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("program.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		authz:    p.Authz,
		validate: p.Validate,
		clock:    p.Clock,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		OrganizationID: req.OrganizationID,
		PublishedOnly:  req.PublishedOnly,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.ToResponse(item))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Response, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	resp := domain.ToResponse(*item)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, v *viewer.Viewer, req domain.CreateRequest) (*domain.Response, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	if err := validation.Check(s.validate, req); err != nil {
		return nil, err
	}
	price, err := validatePrice(req.Price.Decimal)
	if err != nil {
		return nil, err
	}
	startDate, endDate, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	if err := s.authz.Authorize(ctx, v.UserID, req.OrganizationID, authorization.ObjectProgram, authorization.ActionCreate); err != nil {
		return nil, err
	}

	tags, err := encodeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	program := domain.Program{
		ID:             s.genID.Generate().Int64(),
		OrganizationID: req.OrganizationID,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Price:          price,
		StartDate:      startDate,
		EndDate:        endDate,
		Capacity:       req.Capacity,
		Published:      req.Published,
		Tags:           tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, s.db, &program); err != nil {
		return nil, err
	}

	s.log.Info("program created",
		zap.Int64("program_id", program.ID),
		zap.Int64("organization_id", program.OrganizationID),
	)

	resp := domain.ToResponse(domain.ProgramRow{Program: program})
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, v *viewer.Viewer, id int64, req domain.UpdateRequest) (*domain.Response, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, domain.ErrInvalidID
	}
	if req.Empty() {
		return nil, validation.Failf("No updates provided")
	}
	if err := validation.Check(s.validate, req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.authz.Authorize(ctx, v.UserID, existing.OrganizationID, authorization.ObjectProgram, authorization.ActionUpdate); err != nil {
		return nil, err
	}

	patch := domain.Patch{
		Description: req.Description,
		Capacity:    req.Capacity,
		Published:   req.Published,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		patch.Name = &name
	}
	if req.Price != nil {
		price, err := validatePrice(req.Price.Decimal)
		if err != nil {
			return nil, err
		}
		patch.Price = &price
	}

	startRaw := existing.StartDate.UTC().Format(time.DateOnly)
	endRaw := existing.EndDate.UTC().Format(time.DateOnly)
	if req.StartDate != nil {
		startRaw = *req.StartDate
	}
	if req.EndDate != nil {
		endRaw = *req.EndDate
	}
	startDate, endDate, err := parseWindow(startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	if req.StartDate != nil {
		patch.StartDate = &startDate
	}
	if req.EndDate != nil {
		patch.EndDate = &endDate
	}

	if req.Tags != nil {
		tags, err := encodeTags(req.Tags)
		if err != nil {
			return nil, err
		}
		patch.Tags = tags
	}

	updated, err := s.repo.Update(ctx, s.db, id, patch, s.clock.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete archives the program. Enrollments keep pointing at it.
func (s *Service) Delete(ctx context.Context, v *viewer.Viewer, id int64) error {
	if err := viewer.Require(v); err != nil {
		return err
	}
	if id <= 0 {
		return domain.ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	if err := s.authz.Authorize(ctx, v.UserID, existing.OrganizationID, authorization.ObjectProgram, authorization.ActionDelete); err != nil {
		return err
	}

	archived, err := s.repo.Archive(ctx, s.db, id, s.clock.Now().UTC())
	if err != nil {
		return err
	}
	if !archived {
		return domain.ErrNotFound
	}
	s.log.Info("program archived", zap.Int64("program_id", id))
	return nil
}

// maxPriceMinor caps program prices at 10.000.000 kr.
const maxPriceMinor int64 = 1_000_000_000

func validatePrice(price decimal.Decimal) (int64, error) {
	if !price.IsPositive() {
		return 0, validation.Fail("price", "gt", "must be greater than 0")
	}
	if !currency.IsWholeOre(price) {
		return 0, validation.Fail("price", "multipleOf", "must be a multiple of 0.01")
	}
	minor, err := currency.MajorToMinor(price)
	if err != nil || minor > maxPriceMinor {
		return 0, validation.Fail("price", "max", "must not exceed 10000000")
	}
	return minor, nil
}

func parseWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, strings.TrimSpace(startRaw))
	if err != nil {
		return time.Time{}, time.Time{}, validation.Fail("startDate", "datetime", "must be a date (YYYY-MM-DD)")
	}
	end, err := time.Parse(time.DateOnly, strings.TrimSpace(endRaw))
	if err != nil {
		return time.Time{}, time.Time{}, validation.Fail("endDate", "datetime", "must be a date (YYYY-MM-DD)")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, validation.Fail("endDate", "gtefield", "must not be before startDate")
	}
	return start, end, nil
}

func encodeTags(tags []string) (datatypes.JSON, error) {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	raw, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
