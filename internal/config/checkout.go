package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CheckoutConfig holds the defaults used when opening hosted checkout sessions.
type CheckoutConfig struct {
	Currency   string `mapstructure:"currency"`
	Locale     string `mapstructure:"locale"`
	AcceptPath string `mapstructure:"acceptPath"`
	CancelPath string `mapstructure:"cancelPath"`
	Settle     bool   `mapstructure:"settle"`
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		Currency:   "DKK",
		Locale:     "da_DK",
		AcceptPath: "/payment/success",
		CancelPath: "/payment/cancel",
		Settle:     true,
	}
}

type CheckoutConfigHolder struct {
	current atomic.Value // holds CheckoutConfig
}

var defaultCheckoutPaths = []string{"/etc/limaskap", "./config", "."}

func NewCheckoutConfigHolder(log *zap.Logger) (*CheckoutConfigHolder, error) {
	return LoadCheckoutConfig(log, defaultCheckoutPaths...)
}

// LoadCheckoutConfig reads checkout.yml from the first matching path and keeps
// watching it. Missing files fall back to defaults.
func LoadCheckoutConfig(log *zap.Logger, paths ...string) (*CheckoutConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("checkout.config")

	v := viper.New()
	v.SetConfigName("checkout")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("LIMASKAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCheckoutConfig()
	v.SetDefault("checkout.currency", defaults.Currency)
	v.SetDefault("checkout.locale", defaults.Locale)
	v.SetDefault("checkout.acceptPath", defaults.AcceptPath)
	v.SetDefault("checkout.cancelPath", defaults.CancelPath)
	v.SetDefault("checkout.settle", defaults.Settle)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	cfg := readCheckoutConfig(v)
	if err := validateCheckoutConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)

	if !found {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated := readCheckoutConfig(v)
		if err := validateCheckoutConfig(updated); err != nil {
			log.Warn("invalid checkout config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("checkout config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

// StaticCheckoutConfig returns a holder that never reloads.
func StaticCheckoutConfig(cfg CheckoutConfig) *CheckoutConfigHolder {
	holder := &CheckoutConfigHolder{}
	holder.current.Store(normalizeCheckoutConfig(cfg))
	return holder
}

func (h *CheckoutConfigHolder) Get() CheckoutConfig {
	if h == nil {
		return DefaultCheckoutConfig()
	}
	cfg, ok := h.current.Load().(CheckoutConfig)
	if !ok {
		return DefaultCheckoutConfig()
	}
	return cfg
}

// readCheckoutConfig resolves keys one by one so a partial file keeps the
// defaults for the keys it omits.
func readCheckoutConfig(v *viper.Viper) CheckoutConfig {
	return normalizeCheckoutConfig(CheckoutConfig{
		Currency:   v.GetString("checkout.currency"),
		Locale:     v.GetString("checkout.locale"),
		AcceptPath: v.GetString("checkout.acceptPath"),
		CancelPath: v.GetString("checkout.cancelPath"),
		Settle:     v.GetBool("checkout.settle"),
	})
}

func normalizeCheckoutConfig(cfg CheckoutConfig) CheckoutConfig {
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	cfg.Locale = strings.TrimSpace(cfg.Locale)
	cfg.AcceptPath = strings.TrimSpace(cfg.AcceptPath)
	cfg.CancelPath = strings.TrimSpace(cfg.CancelPath)
	return cfg
}

func validateCheckoutConfig(cfg CheckoutConfig) error {
	if len(cfg.Currency) != 3 {
		return errors.New("checkout.currency must be a 3-letter code")
	}
	if cfg.Locale == "" {
		return errors.New("checkout.locale cannot be empty")
	}
	if !strings.HasPrefix(cfg.AcceptPath, "/") || !strings.HasPrefix(cfg.CancelPath, "/") {
		return errors.New("checkout.acceptPath and checkout.cancelPath must start with /")
	}
	return nil
}
