package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	ClickHouse ClickHouseConfig `validate:"required"`
	Redis      RedisConfig
	Sentry     SentryConfig
	Cache      CacheConfig
	Invoicing  InvoicingConfig `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string `validate:"required"`
	Port                   int    `validate:"required"`
	User                   string `validate:"required"`
	Password               string
	DBName                 string `mapstructure:"dbname" validate:"required"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
}

type ClickHouseConfig struct {
	Address  string
	TLS      bool
	Username string
	Password string
	Database string
}

// RedisConfig enables the distributed generation lock when Address is set
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type CacheConfig struct {
	Enabled bool
}

// InvoicingConfig carries the item keys and batch settings used by invoice generation.
type InvoicingConfig struct {
	PropertiesInKey string `mapstructure:"properties_in_key" validate:"required"`
	DatumOutKey     string `mapstructure:"datum_out_key" validate:"required"`
	DaysStoredKey   string `mapstructure:"days_stored_key" validate:"required"`
	CreditKey       string `mapstructure:"credit_key" validate:"required"`
	ApplyCredit     bool   `mapstructure:"apply_credit"`
	BatchSize       int    `mapstructure:"batch_size" validate:"gt=0"`
	Concurrency     int    `mapstructure:"concurrency" validate:"gt=0"`
	// DefaultCurrencies maps a country code to the currency used when an account has none
	DefaultCurrencies map[string]string `mapstructure:"default_currencies"`
}

func NewConfig() (*Configuration, error) {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	v := viper.New()

	// Modify config paths to ensure config.yaml is found
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/invoicer")

	// Set up environment variables support
	v.SetEnvPrefix("INVOICER")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := GetDefaultConfig()
	v.SetDefault("deployment.mode", defaults.Deployment.Mode)
	v.SetDefault("server.address", defaults.Server.Address)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("redis.lock_ttl", 10*time.Minute)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("invoicing.properties_in_key", defaults.Invoicing.PropertiesInKey)
	v.SetDefault("invoicing.datum_out_key", defaults.Invoicing.DatumOutKey)
	v.SetDefault("invoicing.days_stored_key", defaults.Invoicing.DaysStoredKey)
	v.SetDefault("invoicing.credit_key", defaults.Invoicing.CreditKey)
	v.SetDefault("invoicing.apply_credit", defaults.Invoicing.ApplyCredit)
	v.SetDefault("invoicing.batch_size", defaults.Invoicing.BatchSize)
	v.SetDefault("invoicing.concurrency", defaults.Invoicing.Concurrency)
	v.SetDefault("invoicing.default_currencies", defaults.Invoicing.DefaultCurrencies)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true},
		Invoicing:  DefaultInvoicingConfig(),
	}
}

// DefaultInvoicingConfig returns the item keys and batch settings used when none are configured
func DefaultInvoicingConfig() InvoicingConfig {
	return InvoicingConfig{
		PropertiesInKey: "datum-props-in",
		DatumOutKey:     "datum-out",
		DaysStoredKey:   "datum-days-stored",
		CreditKey:       "account-credit",
		ApplyCredit:     true,
		BatchSize:       50,
		Concurrency:     4,
		DefaultCurrencies: map[string]string{
			"US": "USD",
			"NZ": "NZD",
		},
	}
}

func (c ClickHouseConfig) GetClientOptions() *clickhouse.Options {
	options := &clickhouse.Options{
		Addr: []string{c.Address},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	}
	if c.TLS {
		options.TLS = &tls.Config{}
	}
	return options
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

// GetURL returns the postgres connection string in URL form, as golang-migrate expects
func (c PostgresConfig) GetURL() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

// CurrencyForCountry looks up the default currency of a country. Viper lower-cases map
// keys, so the lookup ignores case.
func (c InvoicingConfig) CurrencyForCountry(country string) (string, bool) {
	for k, v := range c.DefaultCurrencies {
		if strings.EqualFold(k, country) {
			return strings.ToUpper(v), true
		}
	}
	return "", false
}

// ItemKeys returns the configured usage item keys in canonical order
func (c InvoicingConfig) ItemKeys() []string {
	return []string{c.PropertiesInKey, c.DatumOutKey, c.DaysStoredKey}
}
