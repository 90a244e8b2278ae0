package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Provider    ProviderConfig
	Worker      WorkerConfig
	SLO         SLOConfig
	Webhook     WebhookConfig
	Feedback    FeedbackConfig
	Security    SecurityConfig
	Tracing     TracingConfig
	Chaos       ChaosConfig
	Environment string
	APIEndpoint string
	LogLevel    string
	Version     string
}

type ServerConfig struct {
	Port int
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Prefix   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port form go-redis expects.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ProviderConfig selects the sending path. Kind "api" sends through the
// SES API, kind "smtp" through a relay host. When FallbackEnabled is set
// both halves must be configured; the secondary takes over when the
// primary's circuit opens.
type ProviderConfig struct {
	Kind            string
	SES             SESProviderConfig
	SMTP            SMTPProviderConfig
	FallbackEnabled bool
}

const (
	ProviderKindAPI  = "api"
	ProviderKindSMTP = "smtp"
)

type SESProviderConfig struct {
	Region           string
	AccessKey        string
	SecretKey        string
	FromAddress      string
	FromName         string
	ReplyTo          string
	ConfigurationSet string
}

type SMTPProviderConfig struct {
	Host             string
	Port             int
	Username         string
	Password         string
	UseTLS           bool
	FromAddress      string
	FromName         string
	ReturnPathDomain string
}

type WorkerConfig struct {
	Concurrency       int
	SendRatePerSecond int

	// MaxAttempts caps delivery attempts fleet-wide. Jobs whose own budget is
	// lower keep the lower value; zero defers entirely to the per-job budget.
	MaxAttempts int

	// RetrySchedule holds the base backoff delays between attempts, in order.
	// Attempts beyond the last entry reuse the final delay.
	RetrySchedule []time.Duration
}

type SLOConfig struct {
	Enabled      bool
	MaxErrorRate float64
	MaxQueueAge  time.Duration
	Interval     time.Duration
}

type WebhookConfig struct {
	Concurrency   int
	RatePerSecond int
}

// FeedbackConfig configures the inbound SMTP listener that receives DSN
// bounces and ARF complaint reports on the return-path domain.
type FeedbackConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Domain      string
	TLSCertFile string
	TLSKeyFile  string
	Username    string
	Password    string
}

type SecurityConfig struct {
	// Secret passphrase for webhook endpoint secret encryption
	SecretKey string

	// Credentials for the operations API. An empty hash leaves the API
	// unauthenticated, which only makes sense in development.
	OpsUsername     string
	OpsPasswordHash string
}

type TracingConfig struct {
	Enabled             bool
	ServiceName         string
	SamplingProbability float64

	// Trace exporter configuration
	TraceExporter string // "jaeger", "stackdriver", "zipkin", "datadog", "xray", "none"

	// Jaeger settings
	JaegerEndpoint string

	// Zipkin settings
	ZipkinEndpoint string

	// Stackdriver settings
	StackdriverProjectID string

	// Datadog settings
	DatadogAgentAddress string
	DatadogAPIKey       string

	// AWS X-Ray settings
	XRayRegion string

	// General agent endpoint (for exporters that support a common agent)
	AgentEndpoint string

	// Metrics exporter configuration
	MetricsExporter string // "prometheus", "stackdriver", "datadog", "none" or comma-separated list
	PrometheusPort  int
}

// ChaosConfig enables deliberate fault injection. Never enabled by default.
type ChaosConfig struct {
	SES429 bool
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	// Try to load .env file but don't require it
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("SERVER_PORT", 8090)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_PREFIX", "sendgate")
	v.SetDefault("DB_NAME", "sendgate_system")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	// Provider defaults
	v.SetDefault("PROVIDER_KIND", ProviderKindAPI)
	v.SetDefault("PROVIDER_FALLBACK_ENABLED", false)
	v.SetDefault("SES_REGION", "us-east-1")
	v.SetDefault("SES_FROM_NAME", "Sendgate")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USE_TLS", true)
	v.SetDefault("SMTP_FROM_NAME", "Sendgate")

	// Worker defaults
	v.SetDefault("WORKER_CONCURRENCY", 8)
	v.SetDefault("WORKER_SEND_RATE", 50)
	v.SetDefault("WORKER_MAX_ATTEMPTS", 6)
	v.SetDefault("WORKER_RETRY_SCHEDULE", "5,15,60,300,900,3600")

	// SLO controller defaults
	v.SetDefault("SLO_ENABLED", true)
	v.SetDefault("SLO_MAX_ERROR_RATE", 0.05)
	v.SetDefault("SLO_MAX_QUEUE_AGE_SECONDS", 120)
	v.SetDefault("SLO_INTERVAL_SECONDS", 300)

	// Webhook delivery defaults
	v.SetDefault("WEBHOOK_CONCURRENCY", 10)
	v.SetDefault("WEBHOOK_RATE_PER_SECOND", 100)

	// Feedback listener defaults
	v.SetDefault("FEEDBACK_ENABLED", true)
	v.SetDefault("FEEDBACK_HOST", "0.0.0.0")
	v.SetDefault("FEEDBACK_PORT", 2525)

	// Security defaults
	v.SetDefault("OPS_USERNAME", "ops")

	// Chaos defaults
	v.SetDefault("CHAOS_SES_429", false)

	// Default tracing config
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "sendgate")
	v.SetDefault("TRACING_SAMPLING_PROBABILITY", 0.1)

	// Default trace exporter config
	v.SetDefault("TRACING_TRACE_EXPORTER", "none")

	// Jaeger settings
	v.SetDefault("TRACING_JAEGER_ENDPOINT", "http://localhost:14268/api/traces")

	// Zipkin settings
	v.SetDefault("TRACING_ZIPKIN_ENDPOINT", "http://localhost:9411/api/v2/spans")

	// Stackdriver settings
	v.SetDefault("TRACING_STACKDRIVER_PROJECT_ID", "")

	// Datadog settings
	v.SetDefault("TRACING_DATADOG_AGENT_ADDRESS", "localhost:8126")
	v.SetDefault("TRACING_DATADOG_API_KEY", "")

	// AWS X-Ray settings
	v.SetDefault("TRACING_XRAY_REGION", "us-west-2")

	// General agent endpoint (for exporters that support a common agent)
	v.SetDefault("TRACING_AGENT_ENDPOINT", "localhost:8126")

	// Default metrics exporter config
	v.SetDefault("TRACING_METRICS_EXPORTER", "none")
	v.SetDefault("TRACING_PROMETHEUS_PORT", 9464)

	// Load environment file if specified
	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Validate required configuration
	secretKey := v.GetString("SECRET_KEY")
	if secretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	retrySchedule, err := parseRetrySchedule(v.GetString("WORKER_RETRY_SCHEDULE"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
			Host: v.GetString("SERVER_HOST"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			Prefix:   v.GetString("DB_PREFIX"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Provider: ProviderConfig{
			Kind: strings.ToLower(v.GetString("PROVIDER_KIND")),
			SES: SESProviderConfig{
				Region:           v.GetString("SES_REGION"),
				AccessKey:        v.GetString("SES_ACCESS_KEY"),
				SecretKey:        v.GetString("SES_SECRET_KEY"),
				FromAddress:      v.GetString("SES_FROM_ADDRESS"),
				FromName:         v.GetString("SES_FROM_NAME"),
				ReplyTo:          v.GetString("SES_REPLY_TO"),
				ConfigurationSet: v.GetString("SES_CONFIGURATION_SET"),
			},
			SMTP: SMTPProviderConfig{
				Host:             v.GetString("SMTP_HOST"),
				Port:             v.GetInt("SMTP_PORT"),
				Username:         v.GetString("SMTP_USERNAME"),
				Password:         v.GetString("SMTP_PASSWORD"),
				UseTLS:           v.GetBool("SMTP_USE_TLS"),
				FromAddress:      v.GetString("SMTP_FROM_ADDRESS"),
				FromName:         v.GetString("SMTP_FROM_NAME"),
				ReturnPathDomain: v.GetString("SMTP_RETURN_PATH_DOMAIN"),
			},
			FallbackEnabled: v.GetBool("PROVIDER_FALLBACK_ENABLED"),
		},
		Worker: WorkerConfig{
			Concurrency:       v.GetInt("WORKER_CONCURRENCY"),
			SendRatePerSecond: v.GetInt("WORKER_SEND_RATE"),
			MaxAttempts:       v.GetInt("WORKER_MAX_ATTEMPTS"),
			RetrySchedule:     retrySchedule,
		},
		SLO: SLOConfig{
			Enabled:      v.GetBool("SLO_ENABLED"),
			MaxErrorRate: v.GetFloat64("SLO_MAX_ERROR_RATE"),
			MaxQueueAge:  time.Duration(v.GetInt("SLO_MAX_QUEUE_AGE_SECONDS")) * time.Second,
			Interval:     time.Duration(v.GetInt("SLO_INTERVAL_SECONDS")) * time.Second,
		},
		Webhook: WebhookConfig{
			Concurrency:   v.GetInt("WEBHOOK_CONCURRENCY"),
			RatePerSecond: v.GetInt("WEBHOOK_RATE_PER_SECOND"),
		},
		Feedback: FeedbackConfig{
			Enabled:     v.GetBool("FEEDBACK_ENABLED"),
			Host:        v.GetString("FEEDBACK_HOST"),
			Port:        v.GetInt("FEEDBACK_PORT"),
			Domain:      v.GetString("FEEDBACK_DOMAIN"),
			TLSCertFile: v.GetString("FEEDBACK_TLS_CERT_FILE"),
			TLSKeyFile:  v.GetString("FEEDBACK_TLS_KEY_FILE"),
			Username:    v.GetString("FEEDBACK_USERNAME"),
			Password:    v.GetString("FEEDBACK_PASSWORD"),
		},
		Security: SecurityConfig{
			SecretKey:       secretKey,
			OpsUsername:     v.GetString("OPS_USERNAME"),
			OpsPasswordHash: v.GetString("OPS_PASSWORD_HASH"),
		},
		Tracing: TracingConfig{
			Enabled:             v.GetBool("TRACING_ENABLED"),
			ServiceName:         v.GetString("TRACING_SERVICE_NAME"),
			SamplingProbability: v.GetFloat64("TRACING_SAMPLING_PROBABILITY"),

			// Trace exporter configuration
			TraceExporter: v.GetString("TRACING_TRACE_EXPORTER"),

			// Jaeger settings
			JaegerEndpoint: v.GetString("TRACING_JAEGER_ENDPOINT"),

			// Zipkin settings
			ZipkinEndpoint: v.GetString("TRACING_ZIPKIN_ENDPOINT"),

			// Stackdriver settings
			StackdriverProjectID: v.GetString("TRACING_STACKDRIVER_PROJECT_ID"),

			// Datadog settings
			DatadogAgentAddress: v.GetString("TRACING_DATADOG_AGENT_ADDRESS"),
			DatadogAPIKey:       v.GetString("TRACING_DATADOG_API_KEY"),

			// AWS X-Ray settings
			XRayRegion: v.GetString("TRACING_XRAY_REGION"),

			// General agent endpoint (for exporters that support a common agent)
			AgentEndpoint: v.GetString("TRACING_AGENT_ENDPOINT"),

			// Metrics exporter configuration
			MetricsExporter: v.GetString("TRACING_METRICS_EXPORTER"),
			PrometheusPort:  v.GetInt("TRACING_PROMETHEUS_PORT"),
		},
		Chaos: ChaosConfig{
			SES429: v.GetBool("CHAOS_SES_429"),
		},
		Environment: v.GetString("ENVIRONMENT"),
		APIEndpoint: v.GetString("API_ENDPOINT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Version:     v.GetString("VERSION"),
	}

	if err := config.Provider.validate(); err != nil {
		return nil, err
	}

	// The feedback listener announces the return-path domain unless one is
	// set explicitly.
	if config.Feedback.Domain == "" {
		config.Feedback.Domain = config.Provider.SMTP.ReturnPathDomain
	}
	if config.Feedback.Domain == "" {
		config.Feedback.Domain = "localhost"
	}

	return config, nil
}

func (p *ProviderConfig) validate() error {
	switch p.Kind {
	case ProviderKindAPI, ProviderKindSMTP:
	default:
		return fmt.Errorf("PROVIDER_KIND must be %q or %q, got %q", ProviderKindAPI, ProviderKindSMTP, p.Kind)
	}

	needSES := p.Kind == ProviderKindAPI || p.FallbackEnabled
	needSMTP := p.Kind == ProviderKindSMTP || p.FallbackEnabled

	if needSES {
		if p.SES.AccessKey == "" || p.SES.SecretKey == "" {
			return fmt.Errorf("SES_ACCESS_KEY and SES_SECRET_KEY are required")
		}
		if p.SES.FromAddress == "" {
			return fmt.Errorf("SES_FROM_ADDRESS is required")
		}
	}
	if needSMTP {
		if p.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required")
		}
		if p.SMTP.FromAddress == "" {
			return fmt.Errorf("SMTP_FROM_ADDRESS is required")
		}
		if p.SMTP.ReturnPathDomain == "" {
			return fmt.Errorf("SMTP_RETURN_PATH_DOMAIN is required")
		}
	}
	return nil
}

// parseRetrySchedule converts the comma-separated WORKER_RETRY_SCHEDULE value
// (base delays between attempts, in seconds) into durations.
func parseRetrySchedule(raw string) ([]time.Duration, error) {
	parts := strings.Split(raw, ",")
	schedule := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		seconds, err := strconv.Atoi(part)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("WORKER_RETRY_SCHEDULE entry %q is not a positive number of seconds", part)
		}
		schedule = append(schedule, time.Duration(seconds)*time.Second)
	}
	if len(schedule) == 0 {
		return nil, fmt.Errorf("WORKER_RETRY_SCHEDULE must list at least one delay")
	}
	return schedule, nil
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
