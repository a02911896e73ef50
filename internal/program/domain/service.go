package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/limaskap/limaskap/internal/currency"
	"github.com/limaskap/limaskap/internal/viewer"
)

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id int64) (*Response, error)
	Create(ctx context.Context, v *viewer.Viewer, req CreateRequest) (*Response, error)
	Update(ctx context.Context, v *viewer.Viewer, id int64, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, v *viewer.Viewer, id int64) error
}

type ListRequest struct {
	OrganizationID *int64 `form:"organizationId"`
	PublishedOnly  bool   `form:"published"`
}

type CreateRequest struct {
	OrganizationID int64           `json:"organizationId" validate:"required,gt=0"`
	Name           string          `json:"name" validate:"required,max=255"`
	Description    *string         `json:"description" validate:"omitempty,max=5000"`
	Price          currency.Kroner `json:"price"`
	StartDate      string          `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate        string          `json:"endDate" validate:"required,datetime=2006-01-02"`
	Capacity       *int            `json:"capacity" validate:"omitempty,gt=0"`
	Published      bool            `json:"published"`
	Tags           []string        `json:"tags" validate:"omitempty,max=20,dive,required,max=50"`
}

type UpdateRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *currency.Kroner `json:"price"`
	StartDate   *string          `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     *string          `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Capacity    *int             `json:"capacity" validate:"omitempty,gt=0"`
	Published   *bool            `json:"published"`
	Tags        []string         `json:"tags" validate:"omitempty,max=20,dive,required,max=50"`
}

// Empty reports whether the request changes nothing.
func (r UpdateRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.Price == nil &&
		r.StartDate == nil && r.EndDate == nil && r.Capacity == nil &&
		r.Published == nil && r.Tags == nil
}

// Response renders a program with its price in kroner.
type Response struct {
	ID              int64           `json:"id"`
	OrganizationID  int64           `json:"organizationId"`
	Name            string          `json:"name"`
	Description     *string         `json:"description"`
	Price           currency.Kroner `json:"price"`
	StartDate       string          `json:"startDate"`
	EndDate         string          `json:"endDate"`
	Capacity        *int            `json:"capacity"`
	Published       bool            `json:"published"`
	Tags            []string        `json:"tags"`
	EnrollmentCount int64           `json:"enrollmentCount"`
	ArchivedAt      *time.Time      `json:"archivedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ToResponse converts a stored row into its API form.
func ToResponse(row ProgramRow) Response {
	tags := []string{}
	if len(row.Tags) > 0 {
		_ = json.Unmarshal(row.Tags, &tags)
	}
	return Response{
		ID:              row.ID,
		OrganizationID:  row.OrganizationID,
		Name:            row.Name,
		Description:     row.Description,
		Price:           currency.NewKroner(row.Price),
		StartDate:       row.StartDate.UTC().Format(time.DateOnly),
		EndDate:         row.EndDate.UTC().Format(time.DateOnly),
		Capacity:        row.Capacity,
		Published:       row.Published,
		Tags:            tags,
		EnrollmentCount: row.EnrollmentCount,
		ArchivedAt:      row.ArchivedAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

var (
	ErrNotFound  = errors.New("program_not_found")
	ErrInvalidID = errors.New("invalid_program_id")
)
