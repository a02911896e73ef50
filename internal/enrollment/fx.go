package enrollment

import (
	"github.com/limaskap/limaskap/internal/enrollment/repository"
	"github.com/limaskap/limaskap/internal/enrollment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("enrollment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
