package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_BASE_DOMAIN", "")
	t.Setenv("FRISBII_API_BASE", "")
	t.Setenv("FRISBII_TIMEOUT", "")
	t.Setenv("PORT", "")

	cfg := Load()
	assert.Equal(t, "limaskap.fo", cfg.AppBaseDomain)
	assert.Equal(t, "https://checkout-api.frisbii.com", cfg.FrisbiiAPIBase)
	assert.Equal(t, 10*time.Second, cfg.FrisbiiTimeout)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "https://acme.limaskap.fo", cfg.TenantBaseURL("acme"))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_BASE_DOMAIN", "example.test")
	t.Setenv("FRISBII_API_BASE", "http://localhost:8081/")
	t.Setenv("FRISBII_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_ENABLED", "yes")

	cfg := Load()
	assert.Equal(t, "https://club.example.test", cfg.TenantBaseURL("club"))
	assert.Equal(t, "http://localhost:8081", cfg.FrisbiiAPIBase)
	assert.Equal(t, 3*time.Second, cfg.FrisbiiTimeout)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestCheckoutConfigDefaultsWithoutFile(t *testing.T) {
	holder, err := LoadCheckoutConfig(nil, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultCheckoutConfig(), holder.Get())
}

func TestCheckoutConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("checkout:\n  currency: eur\n  locale: fo_FO\n  acceptPath: /takk\n  cancelPath: /avlys\n  settle: false\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkout.yml"), content, 0o600))

	holder, err := LoadCheckoutConfig(nil, dir)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, "fo_FO", cfg.Locale)
	assert.Equal(t, "/takk", cfg.AcceptPath)
	assert.Equal(t, "/avlys", cfg.CancelPath)
	assert.False(t, cfg.Settle)
}

func TestCheckoutConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("checkout:\n  currency: euro\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkout.yml"), content, 0o600))

	_, err := LoadCheckoutConfig(nil, dir)
	assert.Error(t, err)
}

func TestCheckoutConfigPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkout.yml"), []byte("checkout:\n  locale: en_GB\n"), 0o600))

	holder, err := LoadCheckoutConfig(nil, dir)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "en_GB", cfg.Locale)
	assert.Equal(t, "DKK", cfg.Currency)
	assert.Equal(t, "/payment/success", cfg.AcceptPath)
	assert.True(t, cfg.Settle)
}
