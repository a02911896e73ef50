package providers

import (
	"github.com/limaskap/limaskap/internal/providers/frisbii"
	"github.com/limaskap/limaskap/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	frisbii.Module,
	pdf.Module,
)
