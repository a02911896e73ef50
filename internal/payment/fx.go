package payment

import (
	"github.com/limaskap/limaskap/internal/payment/repository"
	paymentservice "github.com/limaskap/limaskap/internal/payment/service"
	"github.com/limaskap/limaskap/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(paymentservice.NewService),
	fx.Provide(webhook.NewService),
)
