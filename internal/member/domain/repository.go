package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]MemberRecord, error)
	FindOwned(ctx context.Context, db *gorm.DB, userID string, id int64) (*MemberRecord, error)
	Insert(ctx context.Context, db *gorm.DB, member *MemberRecord) error
	Update(ctx context.Context, db *gorm.DB, userID string, id int64, updates map[string]any) (bool, error)
	ListUserEnrollments(ctx context.Context, db *gorm.DB, userID string) ([]UserEnrollmentRow, error)
}
