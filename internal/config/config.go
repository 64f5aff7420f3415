package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	BaseX      BaseXConfig      `yaml:"basex"`
	Audit      AuditConfig      `yaml:"audit"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Log        LogConfig        `yaml:"log"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Editor,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES" env-default:"67108864"`
}

// BaseXConfig holds BaseX server connection settings.
type BaseXConfig struct {
	Host         string        `yaml:"host"          env:"BASEX_HOST"          env-default:"localhost"`
	Port         int           `yaml:"port"          env:"BASEX_PORT"          env-default:"1984"`
	Username     string        `yaml:"username"      env:"BASEX_USERNAME"      env-default:"admin"`
	Password     string        `yaml:"password"      env:"BASEX_PASSWORD"      env-default:"admin"`
	Database     string        `yaml:"database"      env:"BASEX_DATABASE"      env-default:"dictionary"`
	TestDatabase string        `yaml:"test_database" env:"TEST_DB_NAME"`
	DialTimeout  time.Duration `yaml:"dial_timeout"  env:"BASEX_DIAL_TIMEOUT"  env-default:"5s"`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"BASEX_QUERY_TIMEOUT" env-default:"30s"`
	MaxRetries   int           `yaml:"max_retries"   env:"BASEX_MAX_RETRIES"   env-default:"2"`
	RetryBase    time.Duration `yaml:"retry_base"    env:"BASEX_RETRY_BASE"    env-default:"100ms"`
}

// EffectiveDatabase returns the test database when one is configured,
// otherwise the main database.
func (c BaseXConfig) EffectiveDatabase() string {
	if c.TestDatabase != "" {
		return c.TestDatabase
	}
	return c.Database
}

// AuditConfig holds PostgreSQL settings for the entry history. An empty DSN
// disables the audit trail.
type AuditConfig struct {
	DSN             string        `yaml:"dsn"                env:"AUDIT_DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"AUDIT_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"AUDIT_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"AUDIT_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"AUDIT_MAX_CONN_IDLE_TIME" env-default:"30m"`
	Migrate         bool          `yaml:"migrate"            env:"AUDIT_MIGRATE"            env-default:"true"`
}

// Enabled reports whether the audit trail is configured.
func (c AuditConfig) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

// DictionaryConfig holds dictionary service settings.
type DictionaryConfig struct {
	DefaultPageSize   int    `yaml:"default_page_size"   env:"DICT_DEFAULT_PAGE_SIZE"   env-default:"20"`
	MaxPageSize       int    `yaml:"max_page_size"       env:"DICT_MAX_PAGE_SIZE"       env-default:"200"`
	ImportChunkSize   int    `yaml:"import_chunk_size"   env:"DICT_IMPORT_CHUNK_SIZE"   env-default:"100"`
	AnalysisLang      string `yaml:"analysis_lang"       env:"DICT_ANALYSIS_LANG"       env-default:"en"`
	VernacularLang    string `yaml:"vernacular_lang"     env:"DICT_VERNACULAR_LANG"     env-default:"seh"`
	CriticalFieldsRaw string `yaml:"critical_fields"     env:"DICT_CRITICAL_FIELDS"     env-default:"definition,gloss,grammatical_info,examples,notes,semantic_domains"`
	HistoryLimit      int    `yaml:"history_limit"       env:"DICT_HISTORY_LIMIT"       env-default:"50"`

	// CriticalFields is parsed from CriticalFieldsRaw during validation.
	CriticalFields []string `yaml:"-" env:"-"`
}

// CorpusConfig holds corpus processor settings.
type CorpusConfig struct {
	Workers   int `yaml:"workers"    env:"CORPUS_WORKERS"    env-default:"4"`
	BatchSize int `yaml:"batch_size" env:"CORPUS_BATCH_SIZE" env-default:"32"`
	CacheSize int `yaml:"cache_size" env:"CORPUS_CACHE_SIZE" env-default:"1024"`
	TopTokens int `yaml:"top_tokens" env:"CORPUS_TOP_TOKENS" env-default:"10"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig holds per-client request rate limits. A zero rate
// disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"RATE_LIMIT_RPS"   env-default:"20"`
	Burst             int           `yaml:"burst"               env:"RATE_LIMIT_BURST" env-default:"40"`
	TTL               time.Duration `yaml:"ttl"                 env:"RATE_LIMIT_TTL"   env-default:"10m"`
}
