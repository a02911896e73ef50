package domain

import (
	"context"
	"errors"
	"time"

	"github.com/limaskap/limaskap/internal/currency"
	"github.com/limaskap/limaskap/internal/viewer"
)

type Service interface {
	ListByUser(ctx context.Context, v *viewer.Viewer) ([]Response, error)
	Create(ctx context.Context, v *viewer.Viewer, req CreateRequest) (*Response, error)
	Update(ctx context.Context, v *viewer.Viewer, id int64, req UpdateRequest) (*Response, error)
	ListUserEnrollments(ctx context.Context, v *viewer.Viewer) ([]UserEnrollmentResponse, error)
}

type CreateRequest struct {
	FirstName    string  `json:"firstName" validate:"required,max=100"`
	LastName     string  `json:"lastName" validate:"required,max=100"`
	BirthDate    string  `json:"birthDate" validate:"required,pastdate"`
	Gender       *string `json:"gender" validate:"omitempty,oneof=male female"`
	Address      string  `json:"address" validate:"required,max=255"`
	City         string  `json:"city" validate:"required,max=100"`
	PostalCode   string  `json:"postalCode" validate:"required,max=20"`
	Country      string  `json:"country" validate:"required,iso3166_1_alpha2"`
	Relationship string  `json:"relationship" validate:"omitempty,oneof=SELF CHILD PARTNER GUARDIAN OTHER"`
}

type UpdateRequest struct {
	FirstName    *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName     *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	BirthDate    *string `json:"birthDate" validate:"omitempty,pastdate"`
	Gender       *string `json:"gender" validate:"omitempty,oneof=male female"`
	Address      *string `json:"address" validate:"omitempty,min=1,max=255"`
	City         *string `json:"city" validate:"omitempty,min=1,max=100"`
	PostalCode   *string `json:"postalCode" validate:"omitempty,min=1,max=20"`
	Country      *string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Relationship *string `json:"relationship" validate:"omitempty,oneof=SELF CHILD PARTNER GUARDIAN OTHER"`
}

func (r UpdateRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.BirthDate == nil &&
		r.Gender == nil && r.Address == nil && r.City == nil &&
		r.PostalCode == nil && r.Country == nil && r.Relationship == nil
}

type Response struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"userId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	BirthDate    string    `json:"birthDate"`
	Gender       *string   `json:"gender"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	Relationship string    `json:"relationship"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func ToResponse(m MemberRecord) Response {
	return Response{
		ID:           m.ID,
		UserID:       m.UserID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		BirthDate:    m.BirthDate.UTC().Format(time.DateOnly),
		Gender:       m.Gender,
		Address:      m.Address,
		City:         m.City,
		PostalCode:   m.PostalCode,
		Country:      m.Country,
		Relationship: m.Relationship,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type UserEnrollmentResponse struct {
	EnrollmentID     int64           `json:"enrollmentId"`
	MemberRecordID   int64           `json:"memberRecordId"`
	ProgramID        int64           `json:"programId"`
	MemberRecordName string          `json:"memberRecordName"`
	ProgramName      string          `json:"programName"`
	ProgramPrice     currency.Kroner `json:"programPrice"`
	EnrollmentStatus string          `json:"enrollmentStatus"`
	PaymentStatus    string          `json:"paymentStatus"`
	SignedUpAt       time.Time       `json:"signedUpAt"`
	StartDate        string          `json:"startDate"`
	EndDate          string          `json:"endDate"`
}

var (
	ErrNotFound  = errors.New("member_not_found")
	ErrInvalidID = errors.New("invalid_member_id")
)
