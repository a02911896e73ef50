package frisbii

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/limaskap/limaskap/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("frisbii",
	fx.Provide(NewFactory),
)

// ClientFactory builds a gateway client bound to one organization's API key.
type ClientFactory interface {
	ForOrganization(apiKey string) Gateway
}

type FactoryParams struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Validate *validator.Validate
}

type Factory struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	validate   *validator.Validate
}

func NewFactory(p FactoryParams) ClientFactory {
	timeout := p.Cfg.FrisbiiTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Factory{
		baseURL:    p.Cfg.FrisbiiAPIBase,
		httpClient: &http.Client{Timeout: timeout},
		log:        p.Log.Named("frisbii"),
		validate:   p.Validate,
	}
}

func (f *Factory) ForOrganization(apiKey string) Gateway {
	return New(apiKey,
		WithBaseURL(f.baseURL),
		WithHTTPClient(f.httpClient),
		WithLogger(f.log),
		WithValidator(f.validate),
	)
}
