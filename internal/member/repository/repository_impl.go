package repository

import (
	"context"

	"github.com/limaskap/limaskap/internal/member/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectMember = `SELECT id, user_id, first_name, last_name, birth_date, gender, address,
	city, postal_code, country, relationship, created_at, updated_at
 FROM member_records`

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.MemberRecord, error) {
	var items []domain.MemberRecord
	err := db.WithContext(ctx).Raw(
		selectMember+`
		 WHERE user_id = ?
		 ORDER BY created_at ASC, id ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindOwned(ctx context.Context, db *gorm.DB, userID string, id int64) (*domain.MemberRecord, error) {
	var item domain.MemberRecord
	err := db.WithContext(ctx).Raw(
		selectMember+`
		 WHERE id = ? AND user_id = ?
		 LIMIT 1`,
		id,
		userID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, member *domain.MemberRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO member_records (
			id, user_id, first_name, last_name, birth_date, gender, address, city,
			postal_code, country, relationship, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.UserID,
		member.FirstName,
		member.LastName,
		member.BirthDate,
		member.Gender,
		member.Address,
		member.City,
		member.PostalCode,
		member.Country,
		member.Relationship,
		member.CreatedAt,
		member.UpdatedAt,
	).Error
}

// Update only touches rows owned by userID.
func (r *repo) Update(ctx context.Context, db *gorm.DB, userID string, id int64, updates map[string]any) (bool, error) {
	res := db.WithContext(ctx).
		Table("member_records").
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ListUserEnrollments(ctx context.Context, db *gorm.DB, userID string) ([]domain.UserEnrollmentRow, error) {
	var items []domain.UserEnrollmentRow
	err := db.WithContext(ctx).Raw(
		`SELECT e.id AS enrollment_id, m.id AS member_record_id, p.id AS program_id,
			m.first_name AS member_first_name, m.last_name AS member_last_name,
			p.name AS program_name, p.price AS program_price,
			e.status AS enrollment_status, e.payment_status, e.signed_up_at,
			p.start_date, p.end_date
		 FROM enrollments e
		 JOIN member_records m ON m.id = e.member_id
		 JOIN programs p ON p.id = e.program_id
		 WHERE m.user_id = ?
		 ORDER BY e.signed_up_at DESC, e.id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
