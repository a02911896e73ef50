package member

import (
	"github.com/limaskap/limaskap/internal/member/repository"
	"github.com/limaskap/limaskap/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
