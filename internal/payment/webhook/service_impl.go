package webhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/limaskap/limaskap/internal/clock"
	enrollmentdomain "github.com/limaskap/limaskap/internal/enrollment/domain"
	obsmetrics "github.com/limaskap/limaskap/internal/observability/metrics"
	paymentdomain "github.com/limaskap/limaskap/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Repo           paymentdomain.Repository
	EnrollmentRepo enrollmentdomain.Repository
	Validate       *validator.Validate
	Clock          clock.Clock
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	repo           paymentdomain.Repository
	enrollmentRepo enrollmentdomain.Repository
	validate       *validator.Validate
	clock          clock.Clock
	obsMetrics     *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.WebhookProcessor {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("payment.webhook"),
		genID:          p.GenID,
		repo:           p.Repo,
		enrollmentRepo: p.EnrollmentRepo,
		validate:       p.Validate,
		clock:          p.Clock,
		obsMetrics:     p.ObsMetrics,
	}
}

// Process applies one provider notification. It returns nil for every
// delivery the provider should not retry, including events it ignores,
// unknown handles and replays. Only a malformed payload or a bad signature
// is rejected.
func (s *Service) Process(ctx context.Context, raw []byte) error {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.obsMetrics.RecordWebhookEvent(ctx, "unknown", "invalid")
		return paymentdomain.ErrInvalidPayload
	}
	if err := s.validate.Struct(payload); err != nil {
		s.obsMetrics.RecordWebhookEvent(ctx, "unknown", "invalid")
		return paymentdomain.ErrInvalidPayload
	}

	log := s.log.With(
		zap.String("webhook_id", payload.ID),
		zap.String("event_type", payload.EventType),
	)

	transition, ok := TransitionFor(payload.EventType)
	if !ok {
		s.obsMetrics.RecordWebhookEvent(ctx, "other", "ignored")
		log.Debug("webhook event type ignored")
		return nil
	}

	invoiceHandle := strings.TrimSpace(payload.Invoice)
	if invoiceHandle == "" {
		s.obsMetrics.RecordWebhookEvent(ctx, payload.EventType, "ignored")
		log.Debug("webhook without invoice handle ignored")
		return nil
	}

	ref, err := s.enrollmentRepo.FindInvoiceRef(ctx, s.db, invoiceHandle)
	if err != nil {
		return err
	}
	if ref == nil {
		s.obsMetrics.RecordWebhookEvent(ctx, payload.EventType, "unmatched")
		log.Info("webhook for unknown invoice handle", zap.String("invoice_handle", invoiceHandle))
		return nil
	}

	if secret := ref.Secret(); secret != "" {
		if !Verify(secret, payload.Timestamp, payload.ID, payload.Signature) {
			s.obsMetrics.RecordWebhookEvent(ctx, payload.EventType, "rejected")
			log.Warn("webhook signature mismatch", zap.Int64("organization_id", ref.OrganizationID))
			return paymentdomain.ErrInvalidSignature
		}
	} else {
		log.Warn("webhook accepted without signature check, organization has no webhook secret",
			zap.Int64("organization_id", ref.OrganizationID),
		)
	}

	now := s.clock.Now().UTC()
	event := paymentdomain.WebhookEvent{
		ID:             s.genID.Generate().Int64(),
		WebhookID:      payload.ID,
		EventID:        payload.EventID,
		EventType:      payload.EventType,
		OrganizationID: &ref.OrganizationID,
		InvoiceHandle:  &invoiceHandle,
		Payload:        datatypes.JSON(raw),
		ReceivedAt:     now,
	}

	applied := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.InsertEvent(ctx, tx, &event)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		if err := s.enrollmentRepo.UpdateInvoiceStatus(ctx, tx, ref.EnrollmentID, transition.InvoiceStatus, now); err != nil {
			return err
		}
		if err := s.enrollmentRepo.UpdatePaymentStatus(ctx, tx, ref.EnrollmentID, transition.EnrollmentPaymentStatus, now); err != nil {
			return err
		}
		if _, err := s.repo.UpdateStatusByEnrollment(ctx, tx, ref.EnrollmentID, transition.PaymentStatus, invoiceHandle, now); err != nil {
			return err
		}
		if err := s.repo.MarkProcessed(ctx, tx, event.ID, now); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		s.obsMetrics.RecordWebhookEvent(ctx, payload.EventType, "error")
		log.Error("webhook reconciliation failed", zap.Error(err))
		return err
	}

	if !applied {
		s.obsMetrics.RecordWebhookEvent(ctx, payload.EventType, "duplicate")
		log.Info("webhook replay ignored")
		return nil
	}

	s.obsMetrics.RecordWebhookEvent(ctx, payload.EventType, "processed")
	log.Info("webhook processed",
		zap.Int64("enrollment_id", ref.EnrollmentID),
		zap.String("invoice_status", transition.InvoiceStatus),
		zap.String("payment_status", transition.PaymentStatus),
	)
	return nil
}
