package organization

import (
	"context"

	"github.com/limaskap/limaskap/internal/organization/domain"
	"github.com/limaskap/limaskap/internal/organization/repository"
	"github.com/limaskap/limaskap/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Invoke(func(lc fx.Lifecycle, svc domain.Service) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return svc.CheckWebhookSecrets(ctx)
			},
		})
	}),
)
