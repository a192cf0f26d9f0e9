package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "EUR", cfg.Invoice.Currency)
	assert.Equal(t, 15, cfg.Invoice.PaymentTermDays)
	assert.Equal(t, 60*time.Second, cfg.Invoice.SignedURLTTL)
	assert.Equal(t, 30*time.Second, cfg.Invoice.NotifyTimeout)
	assert.False(t, cfg.Invoice.EnforceUniqueNumbers)
	assert.Equal(t, "client-files", cfg.Supabase.Bucket)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("INVOICE_PAYMENT_TERM_DAYS", "30")
	t.Setenv("INVOICE_SIGNED_URL_TTL", "2m")
	t.Setenv("INVOICE_ENFORCE_UNIQUE_NUMBER", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGDATABASE", "billing")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 30, cfg.Invoice.PaymentTermDays)
	assert.Equal(t, 2*time.Minute, cfg.Invoice.SignedURLTTL)
	assert.True(t, cfg.Invoice.EnforceUniqueNumbers)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Contains(t, cfg.GetDSN(), "host=db.internal")
	assert.Contains(t, cfg.GetDSN(), "dbname=billing")
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("INVOICE_PAYMENT_TERM_DAYS", "fifteen")
	t.Setenv("INVOICE_SIGNED_URL_TTL", "soon")
	t.Setenv("DB_AUTO_MIGRATE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Invoice.PaymentTermDays)
	assert.Equal(t, 60*time.Second, cfg.Invoice.SignedURLTTL)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestStorageAvailability(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasS3Storage())
	assert.False(t, cfg.HasRESTStorage())

	cfg.Supabase.URL = "https://project.supabase.co"
	cfg.Supabase.ServiceKey = "service-key"
	assert.True(t, cfg.HasRESTStorage())
	assert.False(t, cfg.HasS3Storage())

	cfg.Supabase.StorageEndpoint = "https://project.supabase.co/storage/v1/s3"
	cfg.Supabase.AccessKeyID = "key"
	assert.False(t, cfg.HasS3Storage())
	cfg.Supabase.SecretAccessKey = "secret"
	assert.True(t, cfg.HasS3Storage())
}

func TestIssuerProfile(t *testing.T) {
	t.Setenv("ISSUER_LEGAL_NAME", "Hypernova Labs B.V.")
	t.Setenv("ISSUER_VAT_NUMBER", "NL123456789B01")
	t.Setenv("ISSUER_IBAN", "NL91ABNA0417164300")
	t.Setenv("ISSUER_PREPARED_BY_NAME", "Sam Jansen")

	cfg, err := Load()
	require.NoError(t, err)

	issuer := cfg.IssuerProfile()
	assert.Equal(t, "Hypernova Labs B.V.", issuer.LegalName)
	assert.Equal(t, "NL123456789B01", issuer.VATNumber)
	assert.Equal(t, "NL91ABNA0417164300", issuer.Bank.IBAN)
	assert.Equal(t, "Sam Jansen", issuer.PreparedBy.Name)
}
