package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Server     ServerConfig
	OCR        OCRConfig
	LLM        LLMConfig
	Extraction ExtractionConfig
	Storage    StorageConfig
	Mongo      MongoConfig
	Kafka      KafkaConfig
	Batch      BatchConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Name      string
	Env       string
	LogLevel  string
	LogFormat string // "text" | "json"
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "postgres" | "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string
	Language    string
	TessdataDir string
	PSM         int
	Timeout     time.Duration
}

// LLMConfig holds vision model configuration
type LLMConfig struct {
	Provider    string // "openai" | "gemini"
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// ExtractionConfig holds pipeline defaults
type ExtractionConfig struct {
	DefaultCurrency string
	RequestTimeout  time.Duration
}

// StorageConfig holds blob storage settings
type StorageConfig struct {
	GCSBucket string
}

// MongoConfig holds the audit trail store settings
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// KafkaConfig holds event publishing settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// BatchConfig holds batch extraction settings
type BatchConfig struct {
	Workers int
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// LoadConfig loads configuration from an optional dipex.env file and the environment.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("dipex")
}

// LoadConfigFrom reads <name>.env from ./configs or the working directory, then applies
// environment overrides. A missing file is not an error.
func LoadConfigFrom(name string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(name + ".env")
	v.SetConfigType("env")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read config file %s", v.ConfigFileUsed()), err)
		}
	}
	v.AutomaticEnv()

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	provider := strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER")))
	apiKey := v.GetString("OPENAI_API_KEY")
	model := v.GetString("LLM_MODEL")
	if provider == ProviderGemini {
		apiKey = v.GetString("GEMINI_API_KEY")
		if model == "" {
			model = "gemini-2.0-flash"
		}
	} else if model == "" {
		model = "gpt-4o-mini"
	}

	return &Config{
		App: AppConfig{
			Name:      v.GetString("APP_NAME"),
			Env:       v.GetString("APP_ENV"),
			LogLevel:  v.GetString("LOG_LEVEL"),
			LogFormat: v.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Driver:           strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:              v.GetString("DB_URL"),
			MaxConns:         v.GetInt32("DB_MAX_CONNS"),
			MinConns:         v.GetInt32("DB_MIN_CONNS"),
			MaxConnLifetime:  v.GetDuration("DB_MAX_CONN_LIFETIME"),
			MaxConnIdleTime:  v.GetDuration("DB_MAX_CONN_IDLE_TIME"),
			DialTimeout:      v.GetDuration("DB_DIAL_TIMEOUT"),
			StatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
			AutoMigrate:      v.GetBool("DB_AUTO_MIGRATE"),
		},
		Server: ServerConfig{
			HTTPAddr:        v.GetString("HTTP_ADDR"),
			GRPCAddr:        v.GetString("GRPC_ADDR"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			MaxUploadBytes:  v.GetInt64("MAX_UPLOAD_BYTES"),
		},
		OCR: OCRConfig{
			Tesseract:   v.GetString("TESSERACT_BIN"),
			Language:    v.GetString("TESSERACT_LANG"),
			TessdataDir: v.GetString("TESSDATA_PREFIX"),
			PSM:         v.GetInt("TESSERACT_PSM"),
			Timeout:     v.GetDuration("OCR_TIMEOUT"),
		},
		LLM: LLMConfig{
			Provider:    provider,
			Model:       model,
			APIKey:      apiKey,
			BaseURL:     v.GetString("OPENAI_BASE_URL"),
			Temperature: float32(v.GetFloat64("LLM_TEMPERATURE")),
			Timeout:     v.GetDuration("LLM_TIMEOUT"),
		},
		Extraction: ExtractionConfig{
			DefaultCurrency: strings.ToUpper(v.GetString("DEFAULT_CURRENCY")),
			RequestTimeout:  v.GetDuration("EXTRACT_TIMEOUT"),
		},
		Storage: StorageConfig{
			GCSBucket: v.GetString("GCS_BUCKET"),
		},
		Mongo: MongoConfig{
			URI:        v.GetString("MONGO_URI"),
			Database:   v.GetString("MONGO_DATABASE"),
			Collection: v.GetString("MONGO_AUDIT_COLLECTION"),
			Timeout:    v.GetDuration("MONGO_TIMEOUT"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Batch: BatchConfig{
			Workers: v.GetInt("BATCH_WORKERS"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "dipex")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_URL", "")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", 5*time.Minute)
	v.SetDefault("DB_DIAL_TIMEOUT", 3*time.Second)
	v.SetDefault("DB_STATEMENT_TIMEOUT", 0)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("GRPC_ADDR", ":8081")
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second)
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)

	v.SetDefault("TESSERACT_BIN", "tesseract")
	v.SetDefault("TESSERACT_LANG", "eng")
	v.SetDefault("TESSDATA_PREFIX", "")
	v.SetDefault("TESSERACT_PSM", 0)
	v.SetDefault("OCR_TIMEOUT", 20*time.Second)

	v.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	v.SetDefault("LLM_MODEL", "")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("LLM_TEMPERATURE", 0.0)
	v.SetDefault("LLM_TIMEOUT", 15*time.Second)

	v.SetDefault("DEFAULT_CURRENCY", "INR")
	v.SetDefault("EXTRACT_TIMEOUT", 30*time.Second)

	v.SetDefault("GCS_BUCKET", "")

	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "dipex")
	v.SetDefault("MONGO_AUDIT_COLLECTION", "extraction_audit")
	v.SetDefault("MONGO_TIMEOUT", 5*time.Second)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "dipex.extractions")

	v.SetDefault("BATCH_WORKERS", 4)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// VisionEnabled is the startup gate for the remote vision extractor.
func (c *Config) VisionEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	var problems []string
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER must be %q or %q", DriverPostgres, DriverSQLite))
	}
	if c.Database.DSN == "" {
		problems = append(problems, "DB_URL is required")
	}
	if c.Server.HTTPAddr == "" {
		problems = append(problems, "HTTP_ADDR is required")
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		problems = append(problems, fmt.Sprintf("LLM_PROVIDER must be %q or %q", ProviderOpenAI, ProviderGemini))
	}
	if verr := CurrencyCode("DEFAULT_CURRENCY", c.Extraction.DefaultCurrency); verr != nil {
		problems = append(problems, "DEFAULT_CURRENCY "+verr.Message)
	}
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}
	if c.Batch.Workers <= 0 {
		problems = append(problems, "BATCH_WORKERS must be positive")
	}
	if len(problems) > 0 {
		return NewAppError("CONFIG_ERROR", strings.Join(problems, "; "), ErrInvalidInput)
	}
	return nil
}
