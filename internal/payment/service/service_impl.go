package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/limaskap/limaskap/internal/clock"
	"github.com/limaskap/limaskap/internal/config"
	enrollmentdomain "github.com/limaskap/limaskap/internal/enrollment/domain"
	obsmetrics "github.com/limaskap/limaskap/internal/observability/metrics"
	paymentdomain "github.com/limaskap/limaskap/internal/payment/domain"
	"github.com/limaskap/limaskap/internal/providers/frisbii"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Cfg            config.Config
	Checkout       *config.CheckoutConfigHolder
	Repo           paymentdomain.Repository
	EnrollmentRepo enrollmentdomain.Repository
	Gateways       frisbii.ClientFactory
	Validate       *validator.Validate
	Clock          clock.Clock
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	cfg            config.Config
	checkout       *config.CheckoutConfigHolder
	repo           paymentdomain.Repository
	enrollmentRepo enrollmentdomain.Repository
	gateways       frisbii.ClientFactory
	validate       *validator.Validate
	clock          clock.Clock
	obsMetrics     *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("payment.service"),
		genID:          p.GenID,
		cfg:            p.Cfg,
		checkout:       p.Checkout,
		repo:           p.Repo,
		enrollmentRepo: p.EnrollmentRepo,
		gateways:       p.Gateways,
		validate:       p.Validate,
		clock:          p.Clock,
		obsMetrics:     p.ObsMetrics,
	}
}

// CreateChargeSession opens a hosted checkout for an enrollment the viewer
// owns. The payment row is written only after the provider accepted the
// session.
func (s *Service) CreateChargeSession(ctx context.Context, v *viewer.Viewer, req paymentdomain.CreateChargeSessionRequest) (*paymentdomain.ChargeSessionResponse, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	if err := validation.Check(s.validate, req); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.FindByID(ctx, s.db, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, paymentdomain.ErrEnrollmentNotFound
	}
	if enrollment.OwnerUserID != v.UserID {
		return nil, paymentdomain.ErrNotOwner
	}
	apiKey := enrollment.APIKey()
	if apiKey == "" {
		return nil, paymentdomain.ErrNotConfigured
	}

	checkoutCfg := s.checkout.Get()
	currencyCode := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currencyCode == "" {
		currencyCode = checkoutCfg.Currency
	}
	acceptPath := firstNonEmpty(req.AcceptPath, checkoutCfg.AcceptPath)
	cancelPath := firstNonEmpty(req.CancelPath, checkoutCfg.CancelPath)

	handle := fmt.Sprintf("member-%d-%s", enrollment.ID, uuid.NewString())
	baseURL := s.cfg.TenantBaseURL(enrollment.Subdomain)
	acceptURL := baseURL + acceptPath + "?handle=" + handle
	cancelURL := baseURL + cancelPath + "?handle=" + handle
	settle := true

	session, err := s.gateways.ForOrganization(apiKey).CreateChargeSession(ctx, frisbii.SessionRequest{
		Order: frisbii.Order{
			Handle:   handle,
			Amount:   enrollment.ProgramPrice,
			Currency: currencyCode,
			Customer: frisbii.InlineCustomer(frisbii.Customer{
				Handle:    fmt.Sprintf("%s-member-%d", enrollment.OrganizationSlug, enrollment.MemberID),
				Email:     v.Email,
				FirstName: enrollment.MemberFirstName,
				LastName:  enrollment.MemberLastName,
			}),
			OrderText: enrollmentdomain.OrderText(enrollment.ProgramName, enrollment.MemberFirstName, enrollment.MemberLastName),
		},
		AcceptURL: acceptURL,
		CancelURL: cancelURL,
		Settle:    &settle,
		Locale:    checkoutCfg.Locale,
	})
	if err != nil {
		s.obsMetrics.RecordCheckoutSession(ctx, "failed")
		s.log.Error("charge session failed",
			zap.Int64("enrollment_id", enrollment.ID),
			zap.String("handle", handle),
			zap.Error(err),
		)
		return nil, err
	}
	s.obsMetrics.RecordCheckoutSession(ctx, "created")

	now := s.clock.Now().UTC()
	payment := paymentdomain.Payment{
		ID:             s.genID.Generate().Int64(),
		OrganizationID: enrollment.OrganizationID,
		EnrollmentID:   enrollment.ID,
		Handle:         handle,
		Amount:         enrollment.ProgramPrice,
		Currency:       currencyCode,
		Status:         paymentdomain.StatusPending,
		SessionID:      optional(session.ID),
		DirectSettle:   settle,
		AcceptURL:      &acceptURL,
		CancelURL:      &cancelURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}
		return s.enrollmentRepo.UpdatePaymentStatus(ctx, tx, enrollment.ID, enrollmentdomain.PaymentStatusPending, now)
	})
	if err != nil {
		s.log.Error("charge session opened but payment not stored",
			zap.Int64("enrollment_id", enrollment.ID),
			zap.String("handle", handle),
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("charge session created",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("enrollment_id", enrollment.ID),
		zap.String("handle", handle),
	)

	return &paymentdomain.ChargeSessionResponse{
		SessionID:     session.ID,
		CheckoutURL:   session.URL,
		PaymentHandle: handle,
	}, nil
}

func (s *Service) GetStatusByHandle(ctx context.Context, handle string) (*paymentdomain.StatusResponse, error) {
	row, err := s.findByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	resp := paymentdomain.ToStatusResponse(*row)
	return &resp, nil
}

// RefreshFromProvider pulls the charge from the provider and stores its
// charge and transaction ids. Status changes stay with the webhook path.
func (s *Service) RefreshFromProvider(ctx context.Context, v *viewer.Viewer, handle string) (*paymentdomain.StatusResponse, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	row, err := s.findByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if row.OwnerUserID != v.UserID {
		return nil, paymentdomain.ErrNotFound
	}
	apiKey := row.APIKey()
	if apiKey == "" {
		return nil, paymentdomain.ErrNotConfigured
	}

	charge, err := s.gateways.ForOrganization(apiKey).GetCharge(ctx, row.Handle)
	if err != nil {
		return nil, err
	}

	refs := paymentdomain.ProviderRefs{
		ChargeID:      optional(charge.ID),
		TransactionID: optional(charge.TransactionID),
	}
	if refs.Empty() {
		resp := paymentdomain.ToStatusResponse(*row)
		return &resp, nil
	}

	now := s.clock.Now().UTC()
	if err := s.repo.UpdateProviderRefs(ctx, s.db, row.ID, refs, now); err != nil {
		return nil, err
	}
	s.log.Info("payment refreshed from provider",
		zap.String("handle", row.Handle),
		zap.String("charge_state", charge.State),
	)

	if refs.ChargeID != nil {
		row.ChargeID = refs.ChargeID
	}
	if refs.TransactionID != nil {
		row.TransactionID = refs.TransactionID
	}
	row.UpdatedAt = now
	resp := paymentdomain.ToStatusResponse(*row)
	return &resp, nil
}

func (s *Service) findByHandle(ctx context.Context, handle string) (*paymentdomain.StatusRow, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, paymentdomain.ErrNotFound
	}
	row, err := s.repo.FindByHandle(ctx, s.db, handle)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, paymentdomain.ErrNotFound
	}
	return row, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
