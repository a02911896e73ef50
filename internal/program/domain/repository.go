package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	OrganizationID *int64
	PublishedOnly  bool
}

// Patch holds the columns an update writes. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	Price       *int64
	StartDate   *time.Time
	EndDate     *time.Time
	Capacity    *int
	Published   *bool
	Tags        []byte
}

type Repository interface {
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]ProgramRow, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*ProgramRow, error)
	Insert(ctx context.Context, db *gorm.DB, program *Program) error
	Update(ctx context.Context, db *gorm.DB, id int64, patch Patch, updatedAt time.Time) (bool, error)
	Archive(ctx context.Context, db *gorm.DB, id int64, archivedAt time.Time) (bool, error)
}
