package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/limaskap/limaskap/internal/authorization"
	"github.com/limaskap/limaskap/internal/clock"
	"github.com/limaskap/limaskap/internal/config"
	"github.com/limaskap/limaskap/internal/currency"
	"github.com/limaskap/limaskap/internal/enrollment/domain"
	obsmetrics "github.com/limaskap/limaskap/internal/observability/metrics"
	paymentdomain "github.com/limaskap/limaskap/internal/payment/domain"
	programdomain "github.com/limaskap/limaskap/internal/program/domain"
	"github.com/limaskap/limaskap/internal/providers/frisbii"
	"github.com/limaskap/limaskap/internal/providers/pdf"
	"github.com/limaskap/limaskap/internal/ratelimit"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/limaskap/limaskap/pkg/db"
	"github.com/limaskap/limaskap/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Cfg         config.Config
	Checkout    *config.CheckoutConfigHolder
	Repo        domain.Repository
	PaymentRepo paymentdomain.Repository
	Gateways    frisbii.ClientFactory
	Authz       authorization.Authorizer
	Validate    *validator.Validate
	Clock       clock.Clock
	Renderer    pdf.Renderer               `optional:"true"`
	Limiter     *ratelimit.CheckoutLimiter `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics        `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	cfg         config.Config
	checkout    *config.CheckoutConfigHolder
	repo        domain.Repository
	paymentRepo paymentdomain.Repository
	gateways    frisbii.ClientFactory
	authz       authorization.Authorizer
	validate    *validator.Validate
	clock       clock.Clock
	renderer    pdf.Renderer
	limiter     *ratelimit.CheckoutLimiter
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("enrollment.service"),
		genID:       p.GenID,
		cfg:         p.Cfg,
		checkout:    p.Checkout,
		repo:        p.Repo,
		paymentRepo: p.PaymentRepo,
		gateways:    p.Gateways,
		authz:       p.Authz,
		validate:    p.Validate,
		clock:       p.Clock,
		renderer:    p.Renderer,
		limiter:     p.Limiter,
		obsMetrics:  p.ObsMetrics,
	}
}

// CreateWithCheckout enrolls a member in a program and opens a hosted
// checkout session for the program price. Nothing is persisted unless the
// provider accepted the session.
func (s *Service) CreateWithCheckout(ctx context.Context, v *viewer.Viewer, req domain.CreateRequest) (*domain.CheckoutResponse, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	if err := validation.Check(s.validate, req); err != nil {
		return nil, err
	}

	unlock, ok := s.limiter.LockEnrollment(ctx, req.ProgramID, req.MemberID)
	if !ok {
		s.obsMetrics.RecordEnrollment(ctx, "in_progress")
		return nil, domain.ErrInProgress
	}
	defer unlock(ctx)

	existing, err := s.repo.FindByProgramAndMember(ctx, s.db, req.ProgramID, req.MemberID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.obsMetrics.RecordEnrollment(ctx, "duplicate")
		return nil, domain.ErrAlreadyExists
	}

	member, err := s.repo.FindMemberOwner(ctx, s.db, req.MemberID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.UserID != v.UserID {
		return nil, domain.ErrMemberNotOwned
	}

	program, err := s.repo.FindProgramWithOrganization(ctx, s.db, req.ProgramID)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return nil, programdomain.ErrNotFound
	}
	apiKey := program.APIKey()
	if apiKey == "" {
		s.log.Warn("checkout blocked, organization has no payment api key",
			zap.Int64("organization_id", program.OrganizationID),
			zap.Int64("program_id", program.ProgramID),
		)
		return nil, domain.ErrPaymentKeyNotFound
	}

	checkoutCfg := s.checkout.Get()
	invoiceHandle := domain.NewInvoiceHandle(program.ProgramID)
	baseURL := s.cfg.TenantBaseURL(program.Subdomain)
	acceptURL := baseURL + checkoutCfg.AcceptPath + "?handle=" + invoiceHandle
	cancelURL := baseURL + checkoutCfg.CancelPath + "?handle=" + invoiceHandle
	settle := checkoutCfg.Settle

	session, err := s.gateways.ForOrganization(apiKey).CreateChargeSession(ctx, frisbii.SessionRequest{
		Order: frisbii.Order{
			Handle:   invoiceHandle,
			Amount:   program.Price,
			Currency: checkoutCfg.Currency,
			Customer: frisbii.InlineCustomer(frisbii.Customer{
				Handle:    v.Email,
				Email:     v.Email,
				FirstName: v.Name,
			}),
			OrderText: domain.OrderText(program.ProgramName, member.FirstName, member.LastName),
		},
		AcceptURL: acceptURL,
		CancelURL: cancelURL,
		Settle:    &settle,
		Locale:    checkoutCfg.Locale,
	})
	if err != nil {
		s.obsMetrics.RecordCheckoutSession(ctx, "failed")
		s.log.Error("checkout session failed",
			zap.Int64("program_id", program.ProgramID),
			zap.String("invoice_handle", invoiceHandle),
			zap.Error(err),
		)
		return nil, err
	}
	s.obsMetrics.RecordCheckoutSession(ctx, "created")

	now := s.clock.Now().UTC()
	enrollment := domain.Enrollment{
		ID:            s.genID.Generate().Int64(),
		ProgramID:     program.ProgramID,
		MemberID:      member.MemberID,
		Status:        domain.StatusConfirmed,
		PaymentStatus: domain.PaymentStatusPending,
		InvoiceHandle: &invoiceHandle,
		SignedUpAt:    now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	payment := paymentdomain.Payment{
		ID:             s.genID.Generate().Int64(),
		OrganizationID: program.OrganizationID,
		EnrollmentID:   enrollment.ID,
		Handle:         invoiceHandle,
		Amount:         program.Price,
		Currency:       checkoutCfg.Currency,
		Status:         paymentdomain.StatusPending,
		SessionID:      optional(session.ID),
		DirectSettle:   settle,
		AcceptURL:      &acceptURL,
		CancelURL:      &cancelURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &enrollment); err != nil {
			return err
		}
		return s.paymentRepo.Insert(ctx, tx, &payment)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.obsMetrics.RecordEnrollment(ctx, "duplicate")
			s.log.Warn("checkout session orphaned by concurrent enrollment",
				zap.String("invoice_handle", invoiceHandle),
				zap.String("session_id", session.ID),
			)
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	s.obsMetrics.RecordEnrollment(ctx, "created")
	s.log.Info("enrollment created",
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int64("program_id", enrollment.ProgramID),
		zap.Int64("member_id", enrollment.MemberID),
		zap.String("invoice_handle", invoiceHandle),
	)

	orderID := session.ID
	if orderID == "" {
		orderID = invoiceHandle
	}
	return &domain.CheckoutResponse{
		OrderID:       orderID,
		SessionID:     session.ID,
		CheckoutURL:   session.URL,
		PaymentHandle: invoiceHandle,
		InvoiceHandle: invoiceHandle,
	}, nil
}

func (s *Service) GetByInvoiceHandle(ctx context.Context, invoiceHandle string) (*domain.Response, error) {
	invoiceHandle = strings.TrimSpace(invoiceHandle)
	if invoiceHandle == "" {
		return nil, domain.ErrNotFound
	}
	item, err := s.repo.FindByInvoiceHandle(ctx, s.db, invoiceHandle)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	resp := domain.ToResponse(*item)
	return &resp, nil
}

func (s *Service) GetByID(ctx context.Context, v *viewer.Viewer, id int64) (*domain.Response, error) {
	item, err := s.loadOwned(ctx, v, id)
	if err != nil {
		return nil, err
	}
	resp := domain.DetailResponse(*item)
	return &resp, nil
}

func (s *Service) ListByOrganization(ctx context.Context, v *viewer.Viewer, orgID int64, page pagination.Pagination) (*domain.ListResponse, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	if err := validation.Check(s.validate, page); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, v.UserID, orgID, authorization.ObjectEnrollment, authorization.ActionView); err != nil {
		return nil, err
	}

	before, err := pagination.Before(page.PageToken)
	if err != nil {
		return nil, err
	}
	limit := page.Limit()
	items, err := s.repo.ListByOrganization(ctx, s.db, orgID, before, limit+1)
	if err != nil {
		return nil, err
	}

	items, info := pagination.Trim(items, limit, func(d domain.Detail) int64 { return d.ID })
	resp := &domain.ListResponse{
		Enrollments: make([]domain.Response, 0, len(items)),
		PageInfo:    info,
	}
	for _, item := range items {
		resp.Enrollments = append(resp.Enrollments, domain.DetailResponse(item))
	}
	return resp, nil
}

// Cancel withdraws the member from the program. Payment state is left to the
// provider's notifications.
func (s *Service) Cancel(ctx context.Context, v *viewer.Viewer, id int64) (*domain.Response, error) {
	item, err := s.loadOwned(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if item.Status == domain.StatusCancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	now := s.clock.Now().UTC()
	updated, err := s.repo.UpdateStatus(ctx, s.db, item.ID, domain.StatusCancelled, now)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrAlreadyCancelled
	}

	s.log.Info("enrollment cancelled",
		zap.Int64("enrollment_id", item.ID),
		zap.String("user_id", v.UserID),
	)

	item.Status = domain.StatusCancelled
	item.UpdatedAt = now
	resp := domain.DetailResponse(*item)
	return &resp, nil
}

// Receipt renders a PDF receipt for a paid enrollment.
func (s *Service) Receipt(ctx context.Context, v *viewer.Viewer, id int64) ([]byte, error) {
	item, err := s.loadOwned(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if item.PaymentStatus != domain.PaymentStatusPaid {
		return nil, domain.ErrReceiptUnavailable
	}
	if s.renderer == nil {
		return nil, errors.New("receipt renderer not configured")
	}

	amount := currency.FormatDKK(item.ProgramPrice)
	orgAddress := ""
	if item.OrganizationAddr != nil {
		orgAddress = *item.OrganizationAddr
	}

	return s.renderer.Receipt(ctx, pdf.ReceiptData{
		OrgName:       item.OrganizationName,
		OrgAddress:    orgAddress,
		OrgEmail:      item.OrganizationEmail,
		ReceiptNumber: receiptNumber(item),
		DatePaid:      item.UpdatedAt.Format(time.DateOnly),
		ServicePeriod: fmt.Sprintf("%s - %s", item.ProgramStartDate.Format(time.DateOnly), item.ProgramEndDate.Format(time.DateOnly)),
		PayerName:     v.Name,
		PayerEmail:    v.Email,
		MemberName:    item.MemberName(),
		Items: []pdf.ReceiptItem{{
			Description: item.ProgramName,
			Amount:      amount,
		}},
		Total: amount,
	})
}

func (s *Service) loadOwned(ctx context.Context, v *viewer.Viewer, id int64) (*domain.Detail, error) {
	if err := viewer.Require(v); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, domain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.OwnerUserID != v.UserID {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func receiptNumber(item *domain.Detail) string {
	if item.InvoiceHandle != nil && *item.InvoiceHandle != "" {
		return *item.InvoiceHandle
	}
	return strconv.FormatInt(item.ID, 10)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
