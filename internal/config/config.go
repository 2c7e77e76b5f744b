package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	Storage   StorageConfig
	S3        S3Config
	Log       LogConfig
	Extractor ExtractorConfig
	CORS      CORSConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ExtractorConfig holds the AI provider settings used for invoice extraction.
type ExtractorConfig struct {
	Provider       string `mapstructure:"provider"`
	APIKey         string `mapstructure:"api_key"`
	DeepSeekAPIKey string `mapstructure:"deepseek_api_key"`
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	MaxTextChars   int    `mapstructure:"max_text_chars"`
}

// ResolvedAPIKey returns the credential for the configured provider.
// An explicit api_key wins over the provider-specific keys.
func (e *ExtractorConfig) ResolvedAPIKey() string {
	if e.APIKey != "" {
		return e.APIKey
	}
	if strings.EqualFold(e.Provider, "deepseek") {
		return e.DeepSeekAPIKey
	}
	return e.OpenAIAPIKey
}

// Timeout returns the per-request provider timeout.
func (e *ExtractorConfig) Timeout() time.Duration {
	if e.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(e.TimeoutSecs) * time.Second
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer             string        `mapstructure:"issuer"`
}

// StorageConfig selects and configures the document store.
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	Root          string `mapstructure:"root"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// S3Config holds AWS S3 settings, used when the storage backend is "s3".
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the INVOICEX_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INVOICEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invoicex")
	v.SetDefault("db.password", "invoicex_secret")
	v.SetDefault("db.name", "invoicex_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "30m")
	v.SetDefault("jwt.refresh_expiry", "168h")
	v.SetDefault("jwt.issuer", "invoicex")

	// Storage defaults
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.root", "uploads")
	v.SetDefault("storage.max_file_size_mb", 50)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "invoicex-uploads")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (local frontend dev servers)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173,http://localhost:3000")

	// Extractor defaults
	v.SetDefault("extractor.provider", "deepseek")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.model", "")
	v.SetDefault("extractor.base_url", "")
	v.SetDefault("extractor.timeout_secs", 120)
	v.SetDefault("extractor.max_tokens", 2000)
	v.SetDefault("extractor.max_text_chars", 8000)

	// Bind environment variables explicitly for nested keys. Later names are
	// the unprefixed variables older deployments already export.
	envBindings := map[string][]string{
		"server.port":                {"INVOICEX_SERVER_PORT"},
		"server.read_timeout":        {"INVOICEX_SERVER_READ_TIMEOUT"},
		"server.write_timeout":       {"INVOICEX_SERVER_WRITE_TIMEOUT"},
		"server.environment":         {"INVOICEX_SERVER_ENVIRONMENT"},
		"db.host":                    {"INVOICEX_DB_HOST"},
		"db.port":                    {"INVOICEX_DB_PORT"},
		"db.user":                    {"INVOICEX_DB_USER"},
		"db.password":                {"INVOICEX_DB_PASSWORD"},
		"db.name":                    {"INVOICEX_DB_NAME"},
		"db.sslmode":                 {"INVOICEX_DB_SSLMODE"},
		"db.max_open":                {"INVOICEX_DB_MAX_OPEN"},
		"db.max_idle":                {"INVOICEX_DB_MAX_IDLE"},
		"jwt.secret":                 {"INVOICEX_JWT_SECRET", "SECRET_KEY"},
		"jwt.access_expiry":          {"INVOICEX_JWT_ACCESS_EXPIRY"},
		"jwt.refresh_expiry":         {"INVOICEX_JWT_REFRESH_EXPIRY"},
		"jwt.issuer":                 {"INVOICEX_JWT_ISSUER"},
		"storage.backend":            {"INVOICEX_STORAGE_BACKEND"},
		"storage.root":               {"INVOICEX_STORAGE_ROOT", "UPLOAD_DIR"},
		"storage.max_file_size_mb":   {"INVOICEX_STORAGE_MAX_FILE_SIZE_MB"},
		"s3.region":                  {"INVOICEX_S3_REGION"},
		"s3.bucket":                  {"INVOICEX_S3_BUCKET"},
		"s3.endpoint":                {"INVOICEX_S3_ENDPOINT"},
		"s3.access_key":              {"INVOICEX_S3_ACCESS_KEY"},
		"s3.secret_key":              {"INVOICEX_S3_SECRET_KEY"},
		"log.level":                  {"INVOICEX_LOG_LEVEL"},
		"log.format":                 {"INVOICEX_LOG_FORMAT"},
		"cors.allowed_origins":       {"INVOICEX_CORS_ALLOWED_ORIGINS", "CORS_ALLOWED_ORIGINS"},
		"extractor.provider":         {"INVOICEX_EXTRACTOR_PROVIDER", "AI_PROVIDER"},
		"extractor.api_key":          {"INVOICEX_EXTRACTOR_API_KEY"},
		"extractor.deepseek_api_key": {"INVOICEX_EXTRACTOR_DEEPSEEK_API_KEY", "DEEPSEEK_API_KEY"},
		"extractor.openai_api_key":   {"INVOICEX_EXTRACTOR_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"extractor.model":            {"INVOICEX_EXTRACTOR_MODEL"},
		"extractor.base_url":         {"INVOICEX_EXTRACTOR_BASE_URL"},
		"extractor.timeout_secs":     {"INVOICEX_EXTRACTOR_TIMEOUT_SECS"},
		"extractor.max_tokens":       {"INVOICEX_EXTRACTOR_MAX_TOKENS"},
		"extractor.max_text_chars":   {"INVOICEX_EXTRACTOR_MAX_TEXT_CHARS"},
	}
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOICEX_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEX_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:             v.GetString("jwt.secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		Issuer:             v.GetString("jwt.issuer"),
	}
	cfg.Storage = StorageConfig{
		Backend:       strings.ToLower(v.GetString("storage.backend")),
		Root:          v.GetString("storage.root"),
		MaxFileSizeMB: v.GetInt64("storage.max_file_size_mb"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Extractor = ExtractorConfig{
		Provider:       strings.ToLower(strings.TrimSpace(v.GetString("extractor.provider"))),
		APIKey:         v.GetString("extractor.api_key"),
		DeepSeekAPIKey: v.GetString("extractor.deepseek_api_key"),
		OpenAIAPIKey:   v.GetString("extractor.openai_api_key"),
		Model:          v.GetString("extractor.model"),
		BaseURL:        v.GetString("extractor.base_url"),
		TimeoutSecs:    v.GetInt("extractor.timeout_secs"),
		MaxTokens:      v.GetInt("extractor.max_tokens"),
		MaxTextChars:   v.GetInt("extractor.max_text_chars"),
	}

	return cfg, nil
}
