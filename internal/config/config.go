package config

import (
	"os"
	"strconv"
	"time"

	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/joho/godotenv"
)

// Config representa la configuración del servicio
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Inngest  InngestConfig
	Logging  LoggingConfig
	Email    EmailConfig
	Supabase SupabaseConfig
	Invoice  InvoiceConfig
	Issuer   IssuerConfig
}

// ServerConfig representa la configuración del servidor HTTP
type ServerConfig struct {
	Port    string
	Host    string
	Env     string
	BaseURL string
}

// DatabaseConfig representa la configuración de la base de datos
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

// RedisConfig representa la configuración de Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// InngestConfig representa la configuración de Inngest
type InngestConfig struct {
	EventKey   string
	SigningKey string
	AppID      string
	Dev        bool
}

// LoggingConfig representa la configuración de logging
type LoggingConfig struct {
	Level  string
	Format string
}

// EmailConfig representa la configuración de email
type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
}

// SupabaseConfig representa la configuración de Supabase
type SupabaseConfig struct {
	URL             string
	ServiceKey      string
	StorageEndpoint string
	StorageRegion   string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// InvoiceConfig representa los parámetros de emisión de facturas
type InvoiceConfig struct {
	Currency             string
	CurrencySymbol       string
	PaymentTermDays      int
	SignedURLTTL         time.Duration
	NotifyTimeout        time.Duration
	EnforceUniqueNumbers bool
}

// IssuerConfig representa los datos de la agencia emisora
type IssuerConfig struct {
	Mark               string
	LegalName          string
	RegistrationNumber string
	VATNumber          string
	Street             string
	PostalCode         string
	City               string
	Country            string
	Email              string
	Phone              string
	Website            string
	BankName           string
	AccountHolder      string
	IBAN               string
	BIC                string
	PreparedByName     string
	PreparedByEmail    string
	PreparedByPhone    string
}

// Load carga la configuración desde variables de entorno
func Load() (*Config, error) {
	// El archivo .env es opcional
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("SERVER_PORT", "8081"),
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Env:     getEnv("SERVER_ENV", "development"),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8081"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("PGHOST", "localhost"),
			Port:        getEnv("PGPORT", "5432"),
			User:        getEnv("PGUSER", "postgres"),
			Password:    getEnv("PGPASSWORD", "postgres"),
			Name:        getEnv("PGDATABASE", "agency"),
			SSLMode:     getEnv("DB_SSLMODE", "require"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Inngest: InngestConfig{
			EventKey:   getEnv("INNGEST_EVENT_KEY", ""),
			SigningKey: getEnv("INNGEST_SIGNING_KEY", ""),
			AppID:      getEnv("INNGEST_APP_ID", "agency-invoicing"),
			Dev:        getEnvAsBool("INNGEST_DEV", true),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromAddress:  getEnv("EMAIL_FROM", "onboarding@resend.dev"),
		},
		Supabase: SupabaseConfig{
			URL:             getEnv("SUPABASE_URL", ""),
			ServiceKey:      getEnv("SUPABASE_SERVICE_KEY", ""),
			StorageEndpoint: getEnv("SUPABASE_STORAGE_ENDPOINT", ""),
			StorageRegion:   getEnv("SUPABASE_STORAGE_REGION", "eu-central-1"),
			AccessKeyID:     getEnv("SUPABASE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("SUPABASE_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("SUPABASE_BUCKET", "client-files"),
		},
		Invoice: InvoiceConfig{
			Currency:             getEnv("INVOICE_CURRENCY", "EUR"),
			CurrencySymbol:       getEnv("INVOICE_CURRENCY_SYMBOL", "€"),
			PaymentTermDays:      getEnvAsInt("INVOICE_PAYMENT_TERM_DAYS", 15),
			SignedURLTTL:         getEnvAsDuration("INVOICE_SIGNED_URL_TTL", 60*time.Second),
			NotifyTimeout:        getEnvAsDuration("INVOICE_NOTIFY_TIMEOUT", 30*time.Second),
			EnforceUniqueNumbers: getEnvAsBool("INVOICE_ENFORCE_UNIQUE_NUMBER", false),
		},
		Issuer: IssuerConfig{
			Mark:               getEnv("ISSUER_MARK", ""),
			LegalName:          getEnv("ISSUER_LEGAL_NAME", ""),
			RegistrationNumber: getEnv("ISSUER_REGISTRATION_NUMBER", ""),
			VATNumber:          getEnv("ISSUER_VAT_NUMBER", ""),
			Street:             getEnv("ISSUER_STREET", ""),
			PostalCode:         getEnv("ISSUER_POSTAL_CODE", ""),
			City:               getEnv("ISSUER_CITY", ""),
			Country:            getEnv("ISSUER_COUNTRY", ""),
			Email:              getEnv("ISSUER_EMAIL", ""),
			Phone:              getEnv("ISSUER_PHONE", ""),
			Website:            getEnv("ISSUER_WEBSITE", ""),
			BankName:           getEnv("ISSUER_BANK_NAME", ""),
			AccountHolder:      getEnv("ISSUER_ACCOUNT_HOLDER", ""),
			IBAN:               getEnv("ISSUER_IBAN", ""),
			BIC:                getEnv("ISSUER_BIC", ""),
			PreparedByName:     getEnv("ISSUER_PREPARED_BY_NAME", ""),
			PreparedByEmail:    getEnv("ISSUER_PREPARED_BY_EMAIL", ""),
			PreparedByPhone:    getEnv("ISSUER_PREPARED_BY_PHONE", ""),
		},
	}

	return config, nil
}

// getEnv obtiene una variable de entorno o retorna un valor por defecto
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt obtiene una variable de entorno como entero
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool obtiene una variable de entorno como booleano
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration obtiene una variable de entorno como duración
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// IsDevelopment retorna true si el entorno es de desarrollo
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// GetDSN retorna la cadena de conexión a la base de datos
func (c *Config) GetDSN() string {
	return "host=" + c.Database.Host +
		" port=" + c.Database.Port +
		" user=" + c.Database.User +
		" password=" + c.Database.Password +
		" dbname=" + c.Database.Name +
		" sslmode=" + c.Database.SSLMode
}

// GetRedisAddr retorna la dirección de Redis
func (c *Config) GetRedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// HasS3Storage indica si hay credenciales S3 para el almacenamiento de Supabase
func (c *Config) HasS3Storage() bool {
	return c.Supabase.StorageEndpoint != "" && c.Supabase.AccessKeyID != "" && c.Supabase.SecretAccessKey != ""
}

// HasRESTStorage indica si puede usarse la API REST de Supabase Storage
func (c *Config) HasRESTStorage() bool {
	return c.Supabase.URL != "" && c.Supabase.ServiceKey != ""
}

// IssuerProfile construye el perfil del emisor a partir de la configuración
func (c *Config) IssuerProfile() models.IssuerProfile {
	i := c.Issuer
	return models.IssuerProfile{
		Mark:               i.Mark,
		LegalName:          i.LegalName,
		RegistrationNumber: i.RegistrationNumber,
		VATNumber:          i.VATNumber,
		Street:             i.Street,
		PostalCode:         i.PostalCode,
		City:               i.City,
		Country:            i.Country,
		Email:              i.Email,
		Phone:              i.Phone,
		Website:            i.Website,
		Bank: models.BankDetails{
			BankName:      i.BankName,
			AccountHolder: i.AccountHolder,
			IBAN:          i.IBAN,
			BIC:           i.BIC,
		},
		PreparedBy: models.PreparedBy{
			Name:  i.PreparedByName,
			Email: i.PreparedByEmail,
			Phone: i.PreparedByPhone,
		},
	}
}
