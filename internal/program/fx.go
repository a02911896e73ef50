package program

import (
	"github.com/limaskap/limaskap/internal/program/repository"
	"github.com/limaskap/limaskap/internal/program/service"
	"go.uber.org/fx"
)

var Module = fx.Module("program.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
