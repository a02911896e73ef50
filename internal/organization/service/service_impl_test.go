package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/limaskap/limaskap/internal/authorization"
	"github.com/limaskap/limaskap/internal/clock"
	"github.com/limaskap/limaskap/internal/config"
	"github.com/limaskap/limaskap/internal/migration"
	"github.com/limaskap/limaskap/internal/organization/domain"
	"github.com/limaskap/limaskap/internal/organization/repository"
	"github.com/limaskap/limaskap/internal/organization/service"
	programdomain "github.com/limaskap/limaskap/internal/program/domain"
	programrepo "github.com/limaskap/limaskap/internal/program/repository"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

var owner = &viewer.Viewer{UserID: "u-owner", Email: "owner@example.com", Name: "Olga Owner"}

func TestCreateMakesCreatorAdmin(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db, config.Config{}, zap.NewNop())

	resp, err := svc.Create(ctx, owner, domain.CreateOrganizationRequest{
		Name:      "Tórshavn Svimjifelag",
		Subdomain: " Svimjing ",
		Email:     "Info@Svimjing.fo",
	})
	require.NoError(t, err)
	assert.Equal(t, "torshavn-svimjifelag", resp.Slug)
	assert.Equal(t, "svimjing", resp.Subdomain)
	assert.Equal(t, "info@svimjing.fo", resp.Email)
	assert.False(t, resp.PaymentConfigured)

	var role string
	require.NoError(t, db.Raw("SELECT role FROM organization_members WHERE organization_id = ? AND user_id = ?", resp.ID, owner.UserID).Scan(&role).Error)
	assert.Equal(t, authorization.RoleAdmin, role)

	_, err = svc.Create(ctx, owner, domain.CreateOrganizationRequest{
		Name:      "Another",
		Subdomain: "svimjing",
		Email:     "other@svimjing.fo",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assertCount(t, db, "SELECT COUNT(1) FROM organizations", 1)
	assertCount(t, db, "SELECT COUNT(1) FROM organization_members", 1)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db, config.Config{}, zap.NewNop())

	_, err := svc.Create(ctx, owner, domain.CreateOrganizationRequest{Name: "X", Subdomain: "bad_sub", Email: "x@example.com"})
	verr, ok := validation.As(err)
	require.True(t, ok)
	require.Len(t, verr.Issues, 1)
	assert.Equal(t, "subdomain", verr.Issues[0].Field)

	_, err = svc.Create(ctx, nil, domain.CreateOrganizationRequest{})
	assert.ErrorIs(t, err, viewer.ErrUnauthorized)
}

func TestProgramsBySubdomain(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db, config.Config{}, zap.NewNop())
	seedOrg(t, db, 1, "acme", nil, nil)

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Exec(
		`INSERT INTO programs (id, organization_id, name, price, start_date, end_date, published, tags) VALUES
		 (10, 1, 'Published', 50000, ?, ?, TRUE, '["kids"]'),
		 (11, 1, 'Draft', 20000, ?, ?, FALSE, '[]')`,
		start, start, start, start,
	).Error)
	require.NoError(t, db.Exec(`INSERT INTO enrollments (id, program_id, member_id) VALUES (1, 10, 1), (2, 10, 2)`).Error)

	resp, err := svc.ProgramsBySubdomain(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, resp.Programs, 1)
	assert.Equal(t, "Published", resp.Programs[0].Name)
	assert.Equal(t, int64(2), resp.Programs[0].EnrollmentCount)
	assert.Equal(t, "500.00", resp.Programs[0].Price.StringFixed(2))

	all, err := svc.GetWithPrograms(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all.Programs, 2)

	program, err := svc.ProgramBySubdomain(ctx, "acme", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"kids"}, program.Tags)

	_, err = svc.ProgramBySubdomain(ctx, "acme", 11)
	assert.ErrorIs(t, err, programdomain.ErrNotFound)

	_, err = svc.ProgramsBySubdomain(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdatePaymentSettings(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newService(t, db, config.Config{}, zap.NewNop())
	seedOrg(t, db, 1, "acme", nil, nil)
	require.NoError(t, db.Exec(`INSERT INTO organization_members (id, organization_id, user_id, role) VALUES (1, 1, 'u-admin', 'ADMIN'), (2, 1, 'u-editor', 'EDITOR')`).Error)

	key := "priv_123"
	secret := "whsec"

	_, err := svc.UpdatePaymentSettings(ctx, &viewer.Viewer{UserID: "u-editor"}, 1, domain.PaymentSettingsRequest{APIKey: &key})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	resp, err := svc.UpdatePaymentSettings(ctx, &viewer.Viewer{UserID: "u-admin"}, 1, domain.PaymentSettingsRequest{APIKey: &key, WebhookSecret: &secret})
	require.NoError(t, err)
	assert.True(t, resp.PaymentConfigured)
	assert.True(t, resp.WebhookSecretConfigured)

	empty := ""
	resp, err = svc.UpdatePaymentSettings(ctx, &viewer.Viewer{UserID: "u-admin"}, 1, domain.PaymentSettingsRequest{WebhookSecret: &empty})
	require.NoError(t, err)
	assert.True(t, resp.PaymentConfigured)
	assert.False(t, resp.WebhookSecretConfigured)
	assertCount(t, db, "SELECT COUNT(1) FROM organizations WHERE payment_webhook_secret IS NULL", 1)

	_, err = svc.UpdatePaymentSettings(ctx, &viewer.Viewer{UserID: "u-admin"}, 1, domain.PaymentSettingsRequest{})
	_, ok := validation.As(err)
	assert.True(t, ok)
}

func TestCheckWebhookSecrets(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	key := "priv_1"
	secret := "whsec"
	seedOrg(t, db, 1, "unsigned", &key, nil)
	seedOrg(t, db, 2, "signed", &key, &secret)
	seedOrg(t, db, 3, "unpaid", nil, nil)

	core, logs := observer.New(zap.WarnLevel)
	lenient := newService(t, db, config.Config{}, zap.New(core))
	require.NoError(t, lenient.CheckWebhookSecrets(ctx))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "unsigned", logs.All()[0].ContextMap()["subdomain"])

	strict := newService(t, db, config.Config{WebhookRequireSecret: true}, zap.NewNop())
	err := strict.CheckWebhookSecrets(ctx)
	assert.ErrorIs(t, err, domain.ErrWebhookSecretRequired)
	assert.Contains(t, err.Error(), "unsigned")
}

func newService(t *testing.T, db *gorm.DB, cfg config.Config, log *zap.Logger) domain.Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	enforcer, err := authorization.NewEnforcer(nil)
	require.NoError(t, err)

	return service.NewService(service.Params{
		DB:          db,
		Log:         log,
		Cfg:         cfg,
		GenID:       node,
		Repo:        repository.Provide(),
		ProgramRepo: programrepo.Provide(),
		Authz:       authorization.NewService(authorization.Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer}),
		Validate:    validation.New(),
		Clock:       clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
}

func seedOrg(t *testing.T, db *gorm.DB, id int64, subdomain string, apiKey, secret *string) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO organizations (id, name, slug, subdomain, email, payment_api_key, payment_webhook_secret)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, subdomain, subdomain, subdomain, subdomain+"@example.com", apiKey, secret,
	).Error)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.ApplySQLite(db))
	return db
}

func assertCount(t *testing.T, db *gorm.DB, query string, expected int64) {
	t.Helper()

	var count int64
	require.NoError(t, db.Raw(query).Scan(&count).Error)
	assert.Equal(t, expected, count, query)
}
