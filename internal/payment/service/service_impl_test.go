package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/limaskap/limaskap/internal/clock"
	"github.com/limaskap/limaskap/internal/config"
	enrollmentrepo "github.com/limaskap/limaskap/internal/enrollment/repository"
	"github.com/limaskap/limaskap/internal/migration"
	paymentdomain "github.com/limaskap/limaskap/internal/payment/domain"
	paymentrepo "github.com/limaskap/limaskap/internal/payment/repository"
	paymentservice "github.com/limaskap/limaskap/internal/payment/service"
	"github.com/limaskap/limaskap/internal/providers/frisbii"
	"github.com/limaskap/limaskap/internal/providers/frisbii/frisbiitest"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	owner    = &viewer.Viewer{UserID: "u-owner", Email: "owner@example.com", Name: "Olga Owner"}
	stranger = &viewer.Viewer{UserID: "u-stranger", Email: "stranger@example.com", Name: "Sam Stranger"}
)

func TestCreateChargeSessionStoresPendingPayment(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedWorld(t, db)
	gateways := frisbiitest.NewFactory()
	svc := newService(t, db, gateways)

	var sent frisbii.SessionRequest
	gateways.Gateway.On("CreateChargeSession", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(frisbii.SessionRequest) }).
		Return(&frisbii.SessionResponse{ID: "cs_9", URL: "https://checkout.frisbii.com/cs_9"}, nil).
		Once()

	resp, err := svc.CreateChargeSession(ctx, owner, paymentdomain.CreateChargeSessionRequest{
		EnrollmentID: 500,
		CancelPath:   "/tilmelding/avbrotin",
	})
	if err != nil {
		t.Fatalf("create charge session: %v", err)
	}

	if !strings.HasPrefix(resp.PaymentHandle, "member-500-") {
		t.Fatalf("unexpected handle %q", resp.PaymentHandle)
	}
	if resp.SessionID != "cs_9" || resp.CheckoutURL != "https://checkout.frisbii.com/cs_9" {
		t.Fatalf("unexpected response %+v", resp)
	}

	if sent.Order.Amount != 50000 || sent.Order.Currency != "DKK" {
		t.Fatalf("unexpected order %+v", sent.Order)
	}
	if sent.Order.Customer.Details == nil || sent.Order.Customer.Details.Handle != "acme-member-100" {
		t.Fatalf("unexpected customer %+v", sent.Order.Customer)
	}
	if sent.Order.Customer.Details.Email != owner.Email || sent.Order.Customer.Details.LastName != "Hansen" {
		t.Fatalf("unexpected customer details %+v", sent.Order.Customer.Details)
	}
	if sent.AcceptURL != "https://acme.limaskap.fo/payment/success?handle="+resp.PaymentHandle {
		t.Fatalf("unexpected accept url %q", sent.AcceptURL)
	}
	if sent.CancelURL != "https://acme.limaskap.fo/tilmelding/avbrotin?handle="+resp.PaymentHandle {
		t.Fatalf("unexpected cancel url %q", sent.CancelURL)
	}
	if sent.Settle == nil || !*sent.Settle || sent.Locale != "da_DK" {
		t.Fatalf("expected settle and da_DK locale, got %+v", sent)
	}

	assertCount(t, db, fmt.Sprintf(
		"SELECT COUNT(1) FROM payments WHERE handle = '%s' AND status = 'PENDING' AND session_id = 'cs_9' AND direct_settle = TRUE",
		resp.PaymentHandle,
	), 1)
	assertCount(t, db, "SELECT COUNT(1) FROM enrollments WHERE id = 500 AND payment_status = 'PENDING'", 1)

	status, err := svc.GetStatusByHandle(ctx, resp.PaymentHandle)
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status.Status != paymentdomain.StatusPending || status.EnrollmentPaymentStatus != "PENDING" {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Amount.StringFixed(2) != "500.00" {
		t.Fatalf("expected 500.00 kroner, got %s", status.Amount.StringFixed(2))
	}
	if status.FrisbiiRefs.SessionID == nil || *status.FrisbiiRefs.SessionID != "cs_9" {
		t.Fatalf("expected session ref, got %+v", status.FrisbiiRefs)
	}
}

func TestCreateChargeSessionRejections(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		viewer  *viewer.Viewer
		req     paymentdomain.CreateChargeSessionRequest
		wantErr error
	}{
		{"no viewer", nil, paymentdomain.CreateChargeSessionRequest{EnrollmentID: 500}, viewer.ErrUnauthorized},
		{"unknown enrollment", owner, paymentdomain.CreateChargeSessionRequest{EnrollmentID: 999}, paymentdomain.ErrEnrollmentNotFound},
		{"not the owner", stranger, paymentdomain.CreateChargeSessionRequest{EnrollmentID: 500}, paymentdomain.ErrNotOwner},
		{"organization without key", owner, paymentdomain.CreateChargeSessionRequest{EnrollmentID: 501}, paymentdomain.ErrNotConfigured},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := setupTestDB(t)
			seedWorld(t, db)
			gateways := frisbiitest.NewFactory()
			svc := newService(t, db, gateways)

			_, err := svc.CreateChargeSession(ctx, tc.viewer, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			assertCount(t, db, "SELECT COUNT(1) FROM payments", 0)
			gateways.Gateway.AssertNotCalled(t, "CreateChargeSession", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateChargeSessionValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, frisbiitest.NewFactory())

	_, err := svc.CreateChargeSession(context.Background(), owner, paymentdomain.CreateChargeSessionRequest{
		EnrollmentID: 500,
		Currency:     "KRONER",
		AcceptPath:   "payment/success",
	})
	verr, ok := validation.As(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := map[string]bool{}
	for _, issue := range verr.Issues {
		fields[issue.Field] = true
	}
	if !fields["currency"] || !fields["acceptPath"] {
		t.Fatalf("unexpected issues %+v", verr.Issues)
	}
}

func TestCreateChargeSessionGatewayError(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedWorld(t, db)
	gateways := frisbiitest.NewFactory()
	svc := newService(t, db, gateways)

	gateways.Gateway.On("CreateChargeSession", mock.Anything, mock.Anything).
		Return(nil, &frisbii.APIError{StatusCode: 401, Message: "Invalid API key"}).
		Once()

	_, err := svc.CreateChargeSession(ctx, owner, paymentdomain.CreateChargeSessionRequest{EnrollmentID: 500})
	apiErr, ok := frisbii.AsAPIError(err)
	if !ok || apiErr.Message != "Invalid API key" {
		t.Fatalf("expected gateway error, got %v", err)
	}
	assertCount(t, db, "SELECT COUNT(1) FROM payments", 0)
	assertCount(t, db, "SELECT COUNT(1) FROM enrollments WHERE id = 500 AND payment_status = 'NONE'", 1)
}

func TestGetStatusByHandleNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newService(t, db, frisbiitest.NewFactory())

	if _, err := svc.GetStatusByHandle(context.Background(), "member-1-missing"); !errors.Is(err, paymentdomain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRefreshFromProvider(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	seedWorld(t, db)
	gateways := frisbiitest.NewFactory()
	svc := newService(t, db, gateways)

	if err := db.Exec(
		`INSERT INTO payments (id, organization_id, enrollment_id, handle, amount, currency, status, session_id)
		 VALUES (1, 1, 500, 'member-500-abc', 50000, 'DKK', 'PENDING', 'cs_1')`,
	).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	gateways.Gateway.On("GetCharge", mock.Anything, "member-500-abc").
		Return(&frisbii.Charge{ID: "ch_1", Handle: "member-500-abc", State: "settled", TransactionID: "tx_1"}, nil).
		Once()

	if _, err := svc.RefreshFromProvider(ctx, stranger, "member-500-abc"); !errors.Is(err, paymentdomain.ErrNotFound) {
		t.Fatalf("expected not found for stranger, got %v", err)
	}

	resp, err := svc.RefreshFromProvider(ctx, owner, "member-500-abc")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.FrisbiiRefs.ChargeID == nil || *resp.FrisbiiRefs.ChargeID != "ch_1" {
		t.Fatalf("expected charge ref, got %+v", resp.FrisbiiRefs)
	}
	if resp.Status != paymentdomain.StatusPending {
		t.Fatalf("refresh must not change status, got %s", resp.Status)
	}
	assertCount(t, db, "SELECT COUNT(1) FROM payments WHERE charge_id = 'ch_1' AND transaction_id = 'tx_1' AND session_id = 'cs_1'", 1)
	gateways.Gateway.AssertExpectations(t)
}

func newService(t *testing.T, db *gorm.DB, gateways frisbii.ClientFactory) paymentdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(10)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	return paymentservice.NewService(paymentservice.Params{
		DB:             db,
		Log:            zap.NewNop(),
		GenID:          node,
		Cfg:            config.Config{AppBaseDomain: "limaskap.fo"},
		Checkout:       config.StaticCheckoutConfig(config.DefaultCheckoutConfig()),
		Repo:           paymentrepo.Provide(),
		EnrollmentRepo: enrollmentrepo.Provide(),
		Gateways:       gateways,
		Validate:       validation.New(),
		Clock:          clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
}

func seedWorld(t *testing.T, db *gorm.DB) {
	t.Helper()

	stmts := []string{
		`INSERT INTO users (id, name, email) VALUES ('u-owner', 'Olga Owner', 'owner@example.com')`,
		`INSERT INTO organizations (id, name, slug, subdomain, email, payment_api_key) VALUES
			(1, 'Acme', 'acme', 'acme', 'acme@example.com', 'key_acme'),
			(2, 'Nokey', 'nokey', 'nokey', 'nokey@example.com', '  ')`,
		`INSERT INTO programs (id, organization_id, name, price, start_date, end_date) VALUES
			(10, 1, 'Svimjing', 50000, '2026-04-01', '2026-06-30'),
			(20, 2, 'Fótbóltur', 25000, '2026-06-01', '2026-08-31')`,
		`INSERT INTO member_records (id, user_id, first_name, last_name, birth_date, address, city, postal_code, country) VALUES
			(100, 'u-owner', 'Jógvan', 'Hansen', '2015-04-12', 'Gøta 1', 'Tórshavn', '100', 'FO')`,
		`INSERT INTO enrollments (id, program_id, member_id, status, payment_status, signed_up_at) VALUES
			(500, 10, 100, 'CONFIRMED', 'NONE', CURRENT_TIMESTAMP),
			(501, 20, 100, 'CONFIRMED', 'NONE', CURRENT_TIMESTAMP)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migration.ApplySQLite(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func assertCount(t *testing.T, db *gorm.DB, query string, expected int64) {
	t.Helper()

	var count int64
	if err := db.Raw(query).Scan(&count).Error; err != nil {
		t.Fatalf("query count: %v", err)
	}
	if count != expected {
		t.Fatalf("%s: expected %d, got %d", query, expected, count)
	}
}
