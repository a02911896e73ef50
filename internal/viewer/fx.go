package viewer

import "go.uber.org/fx"

var Module = fx.Module("viewer",
	fx.Provide(NewResolver),
	fx.Provide(NewMiddleware),
)
