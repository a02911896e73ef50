package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/limaskap/limaskap/internal/clock"
	"github.com/limaskap/limaskap/internal/currency"
	"github.com/limaskap/limaskap/internal/member/domain"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Validate *validator.Validate
	Clock    clock.Clock
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	validate *validator.Validate
	clock    clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("member.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		validate: p.Validate,
		clock:    p.Clock,
	}
}

func (s *Service) ListByUser(ctx context.Context, v *viewer.Viewer) ([]domain.Response, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByUser(ctx, s.db, v.UserID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.ToResponse(item))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, v *viewer.Viewer, req domain.CreateRequest) (*domain.Response, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	req.Country = strings.ToUpper(strings.TrimSpace(req.Country))
	req.Relationship = strings.ToUpper(strings.TrimSpace(req.Relationship))
	if err := validation.Check(s.validate, req); err != nil {
		return nil, err
	}

	birthDate, err := time.Parse(time.DateOnly, req.BirthDate)
	if err != nil {
		return nil, validation.Fail("birthDate", "pastdate", "must be a date in the past (YYYY-MM-DD)")
	}
	relationship := req.Relationship
	if relationship == "" {
		relationship = domain.RelationshipOther
	}

	now := s.clock.Now().UTC()
	member := domain.MemberRecord{
		ID:           s.genID.Generate().Int64(),
		UserID:       v.UserID,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		BirthDate:    birthDate,
		Gender:       req.Gender,
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		Country:      req.Country,
		Relationship: relationship,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, &member); err != nil {
		return nil, err
	}

	resp := domain.ToResponse(member)
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
	if req.Country != nil {
		country := strings.ToUpper(strings.TrimSpace(*req.Country))
		req.Country = &country
	}
	if req.Relationship != nil {
		relationship := strings.ToUpper(strings.TrimSpace(*req.Relationship))
		req.Relationship = &relationship
	}
	if err := validation.Check(s.validate, req); err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": s.clock.Now().UTC()}
	setString(updates, "first_name", req.FirstName)
	setString(updates, "last_name", req.LastName)
	setString(updates, "address", req.Address)
	setString(updates, "city", req.City)
	setString(updates, "postal_code", req.PostalCode)
	setString(updates, "country", req.Country)
	setString(updates, "relationship", req.Relationship)
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.BirthDate != nil {
		birthDate, err := time.Parse(time.DateOnly, *req.BirthDate)
		if err != nil {
			return nil, validation.Fail("birthDate", "pastdate", "must be a date in the past (YYYY-MM-DD)")
		}
		updates["birth_date"] = birthDate
	}

	updated, err := s.repo.Update(ctx, s.db, v.UserID, id, updates)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrNotFound
	}

	member, err := s.repo.FindOwned(ctx, s.db, v.UserID, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	resp := domain.ToResponse(*member)
	return &resp, nil
}

func (s *Service) ListUserEnrollments(ctx context.Context, v *viewer.Viewer) ([]domain.UserEnrollmentResponse, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListUserEnrollments(ctx, s.db, v.UserID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.UserEnrollmentResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, domain.UserEnrollmentResponse{
			EnrollmentID:     row.EnrollmentID,
			MemberRecordID:   row.MemberRecordID,
			ProgramID:        row.ProgramID,
			MemberRecordName: strings.TrimSpace(row.MemberFirstName + " " + row.MemberLastName),
			ProgramName:      row.ProgramName,
			ProgramPrice:     currency.NewKroner(row.ProgramPrice),
			EnrollmentStatus: row.EnrollmentStatus,
			PaymentStatus:    row.PaymentStatus,
			SignedUpAt:       row.SignedUpAt.UTC(),
			StartDate:        row.StartDate.UTC().Format(time.DateOnly),
			EndDate:          row.EndDate.UTC().Format(time.DateOnly),
		})
	}
	return resp, nil
}

func setString(updates map[string]any, column string, value *string) {
	if value != nil {
		updates[column] = strings.TrimSpace(*value)
	}
}
