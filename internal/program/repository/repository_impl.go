package repository

import (
	"context"
	"strings"
	"time"

	"github.com/limaskap/limaskap/internal/program/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const selectProgramRow = `SELECT p.id, p.organization_id, p.name, p.description, p.price,
	p.start_date, p.end_date, p.capacity, p.published, p.tags, p.archived_at,
	p.created_at, p.updated_at,
	COUNT(e.id) AS enrollment_count
 FROM programs p
 LEFT JOIN enrollments e ON e.program_id = p.id AND e.status <> 'CANCELLED'`

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.ProgramRow, error) {
	where := []string{"p.archived_at IS NULL"}
	args := []any{}
	if filter.OrganizationID != nil {
		where = append(where, "p.organization_id = ?")
		args = append(args, *filter.OrganizationID)
	}
	if filter.PublishedOnly {
		where = append(where, "p.published = TRUE")
	}

	query := selectProgramRow +
		" WHERE " + strings.Join(where, " AND ") +
		" GROUP BY p.id ORDER BY p.start_date ASC, p.id ASC"

	var items []domain.ProgramRow
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.ProgramRow, error) {
	var item domain.ProgramRow
	err := db.WithContext(ctx).Raw(
		selectProgramRow+`
		 WHERE p.id = ? AND p.archived_at IS NULL
		 GROUP BY p.id
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, program *domain.Program) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO programs (
			id, organization_id, name, description, price, start_date, end_date,
			capacity, published, tags, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		program.ID,
		program.OrganizationID,
		program.Name,
		program.Description,
		program.Price,
		program.StartDate,
		program.EndDate,
		program.Capacity,
		program.Published,
		program.Tags,
		program.CreatedAt,
		program.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, id int64, patch domain.Patch, updatedAt time.Time) (bool, error) {
	updates := map[string]any{"updated_at": updatedAt}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.StartDate != nil {
		updates["start_date"] = *patch.StartDate
	}
	if patch.EndDate != nil {
		updates["end_date"] = *patch.EndDate
	}
	if patch.Capacity != nil {
		updates["capacity"] = *patch.Capacity
	}
	if patch.Published != nil {
		updates["published"] = *patch.Published
	}
	if patch.Tags != nil {
		updates["tags"] = datatypes.JSON(patch.Tags)
	}

	res := db.WithContext(ctx).
		Table("programs").
		Where("id = ? AND archived_at IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) Archive(ctx context.Context, db *gorm.DB, id int64, archivedAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE programs
		 SET archived_at = ?, updated_at = ?
		 WHERE id = ? AND archived_at IS NULL`,
		archivedAt,
		archivedAt,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
