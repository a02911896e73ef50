package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/limaskap/limaskap/internal/authorization"
	"github.com/limaskap/limaskap/internal/config"
	"github.com/limaskap/limaskap/internal/enrollment"
	enrollmentdomain "github.com/limaskap/limaskap/internal/enrollment/domain"
	"github.com/limaskap/limaskap/internal/member"
	memberdomain "github.com/limaskap/limaskap/internal/member/domain"
	"github.com/limaskap/limaskap/internal/observability"
	obsmiddleware "github.com/limaskap/limaskap/internal/observability/logger"
	obsmetrics "github.com/limaskap/limaskap/internal/observability/metrics"
	obstracing "github.com/limaskap/limaskap/internal/observability/tracing"
	"github.com/limaskap/limaskap/internal/organization"
	organizationdomain "github.com/limaskap/limaskap/internal/organization/domain"
	"github.com/limaskap/limaskap/internal/payment"
	paymentdomain "github.com/limaskap/limaskap/internal/payment/domain"
	"github.com/limaskap/limaskap/internal/program"
	programdomain "github.com/limaskap/limaskap/internal/program/domain"
	"github.com/limaskap/limaskap/internal/providers"
	"github.com/limaskap/limaskap/internal/ratelimit"
	"github.com/limaskap/limaskap/internal/validation"
	"github.com/limaskap/limaskap/internal/viewer"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	validation.Module,
	viewer.Module,
	authorization.Module,
	ratelimit.Module,
	providers.Module,
	organization.Module,
	program.Module,
	member.Module,
	enrollment.Module,
	payment.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if obsCfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := ":" + strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	viewers         *viewer.Middleware
	organizationSvc organizationdomain.Service
	programSvc      programdomain.Service
	memberSvc       memberdomain.Service
	enrollmentSvc   enrollmentdomain.Service
	paymentSvc      paymentdomain.Service
	webhooks        paymentdomain.WebhookProcessor
	limiter         *ratelimit.CheckoutLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Viewers         *viewer.Middleware
	OrganizationSvc organizationdomain.Service
	ProgramSvc      programdomain.Service
	MemberSvc       memberdomain.Service
	EnrollmentSvc   enrollmentdomain.Service
	PaymentSvc      paymentdomain.Service
	Webhooks        paymentdomain.WebhookProcessor
	Limiter         *ratelimit.CheckoutLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		viewers:         p.Viewers,
		organizationSvc: p.OrganizationSvc,
		programSvc:      p.ProgramSvc,
		memberSvc:       p.MemberSvc,
		enrollmentSvc:   p.EnrollmentSvc,
		paymentSvc:      p.PaymentSvc,
		webhooks:        p.Webhooks,
		limiter:         p.Limiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerEnrollmentRoutes()
	svc.registerPaymentRoutes()
	svc.registerOrganizationRoutes()
	svc.registerProgramRoutes()
	svc.registerUserRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerEnrollmentRoutes() {
	enrollments := s.engine.Group("/enrollments")

	enrollments.POST("", s.viewers.Required(), s.CheckoutRateLimit(), s.CreateEnrollment)
	enrollments.GET("/invoice/:invoiceHandle", s.GetEnrollmentByInvoiceHandle)

	owned := enrollments.Group("/:id", s.viewers.Required())
	{
		owned.GET("", s.GetEnrollment)
		owned.POST("/cancel", s.CancelEnrollment)
		owned.GET("/receipt", s.GetEnrollmentReceipt)
	}
}

func (s *Server) registerPaymentRoutes() {
	payments := s.engine.Group("/payments")

	payments.POST("/session/charge", s.viewers.Required(), s.CheckoutRateLimit(), s.CreateChargeSession)
	payments.GET("/:handle/status", s.GetPaymentStatus)
	payments.POST("/:handle/refresh", s.viewers.Required(), s.RefreshPayment)

	s.engine.POST("/webhooks/frisbii", s.WebhookRateLimit(), s.HandleFrisbiiWebhook)
}

func (s *Server) registerOrganizationRoutes() {
	orgs := s.engine.Group("/organizations")

	orgs.GET("", s.ListOrganizations)
	orgs.POST("", s.viewers.Required(), s.CreateOrganization)
	orgs.GET("/:id", s.GetOrganization)
	orgs.GET("/:id/programs", s.GetOrganizationWithPrograms)
	orgs.GET("/:id/enrollments", s.viewers.Required(), s.ListOrganizationEnrollments)
	orgs.PUT("/:id/payment-settings", s.viewers.Required(), s.UpdatePaymentSettings)

	bySubdomain := orgs.Group("/subdomain/:subdomain")
	{
		bySubdomain.GET("", s.GetOrganizationBySubdomain)
		bySubdomain.GET("/programs", s.ListProgramsBySubdomain)
		bySubdomain.GET("/programs/:programId", s.GetProgramBySubdomain)
	}
}

func (s *Server) registerProgramRoutes() {
	programs := s.engine.Group("/programs")

	programs.GET("", s.ListPrograms)
	programs.GET("/:id", s.GetProgram)

	managed := programs.Group("", s.viewers.Required())
	{
		managed.POST("", s.CreateProgram)
		managed.PATCH("/:id", s.UpdateProgram)
		managed.DELETE("/:id", s.DeleteProgram)
	}
}

func (s *Server) registerUserRoutes() {
	user := s.engine.Group("/user", s.viewers.Required())

	user.GET("/members", s.ListMembers)
	user.POST("/members", s.CreateMember)
	user.PATCH("/members/:id", s.UpdateMember)
	user.GET("/enrollments", s.ListUserEnrollments)
}
