// Package authorization enforces organization roles with casbin.
package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
	RoleCoach  = "COACH"
	RoleViewer = "VIEWER"
)

const (
	ObjectOrganization = "organization"
	ObjectProgram      = "program"
	ObjectEnrollment   = "enrollment"
)

const (
	ActionManage = "manage"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionView   = "view"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidRole = errors.New("invalid_role")
)

// Authorizer checks whether a user may perform action on object inside an
// organization.
type Authorizer interface {
	Authorize(ctx context.Context, userID string, orgID int64, object, action string) error
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer persisted through the gorm adapter. A nil db
// yields an in-memory enforcer holding only the seeded policies.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.SyncedEnforcer
	if db == nil {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	} else {
		adapter, adapterErr := gormadapter.NewAdapterByDB(db)
		if adapterErr != nil {
			return nil, adapterErr
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	}
	if err != nil {
		return nil, err
	}

	enforcer.EnableAutoSave(db != nil)
	enforcer.EnableAutoBuildRoleLinks(true)
	if db != nil {
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *Service) Authorize(ctx context.Context, userID string, orgID int64, object, action string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" || orgID <= 0 {
		return ErrForbidden
	}

	role, err := s.roleForUser(ctx, orgID, userID)
	if err != nil {
		return err
	}

	subject := "user:" + userID
	domain := fmt.Sprintf("org:%d", orgID)
	if err := s.ensureGrouping(subject, roleSubject(role), domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("user_id", userID),
			zap.Int64("organization_id", orgID),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// RoleOf returns the viewer's role in an organization, or "" when not a member.
func (s *Service) RoleOf(ctx context.Context, userID string, orgID int64) (string, error) {
	role, err := s.roleForUser(ctx, orgID, userID)
	if errors.Is(err, ErrForbidden) {
		return "", nil
	}
	return role, err
}

func (s *Service) roleForUser(ctx context.Context, orgID int64, userID string) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM organization_members
		 WHERE organization_id = ? AND user_id = ?
		 LIMIT 1`,
		orgID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.ToUpper(strings.TrimSpace(row.Role))
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

// ensureGrouping keeps exactly one role link per subject and organization so a
// role change in organization_members takes effect on the next check.
func (s *Service) ensureGrouping(subject, roleName, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) >= 2 && rule[1] != roleName {
			if _, err := s.enforcer.RemoveGroupingPolicy(rule); err != nil {
				return err
			}
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil || has {
		return err
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

// ValidRole reports whether role is one of the organization roles.
func ValidRole(role string) bool {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case RoleAdmin, RoleEditor, RoleCoach, RoleViewer:
		return true
	}
	return false
}

func roleSubject(role string) string {
	return "role:" + strings.ToLower(role)
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{roleSubject(RoleAdmin), ObjectOrganization, ActionManage},
		{roleSubject(RoleAdmin), ObjectProgram, ActionCreate},
		{roleSubject(RoleAdmin), ObjectProgram, ActionUpdate},
		{roleSubject(RoleAdmin), ObjectProgram, ActionDelete},
		{roleSubject(RoleAdmin), ObjectEnrollment, ActionView},

		{roleSubject(RoleEditor), ObjectProgram, ActionCreate},
		{roleSubject(RoleEditor), ObjectProgram, ActionUpdate},
		{roleSubject(RoleEditor), ObjectEnrollment, ActionView},

		{roleSubject(RoleCoach), ObjectEnrollment, ActionView},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
