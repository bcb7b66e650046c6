package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "GKART"

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	HTTP      HTTPSettings      `mapstructure:"http"`
	GRPC      GRPCSettings      `mapstructure:"grpc"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Tokens    TokenSettings     `mapstructure:"tokens"`
	Session   SessionSettings   `mapstructure:"session"`
	Login     LoginSettings     `mapstructure:"login"`
	Password  PasswordSettings  `mapstructure:"password"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Argon2    Argon2Settings    `mapstructure:"argon2"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	Notifier  NotifierSettings  `mapstructure:"notifier"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// BaseURL is used to build activation and reset links.
	BaseURL string `mapstructure:"base_url"`
}

// HTTPSettings configures the gin server and request logging.
type HTTPSettings struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	ActivityPaths   []string      `mapstructure:"activity_paths"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	DefaultRedirect string        `mapstructure:"default_redirect"`
}

type GRPCSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	Schema            string        `mapstructure:"schema"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	AutoMigrate       bool          `mapstructure:"auto_migrate"`
}

// DSN renders a postgres URL usable by both pgx and golang-migrate.
func (p PostgresSettings) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.Database,
		p.SSLMode,
	)
}

// RedisSettings configures Redis connection, TLS and key prefixes.
type RedisSettings struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	DB                 int    `mapstructure:"db"`
	Password           string `mapstructure:"password"`
	TLSEnabled         bool   `mapstructure:"tls_enabled"`
	SessionPrefix      string `mapstructure:"session_prefix"`
	ResetSessionPrefix string `mapstructure:"reset_session_prefix"`
	RateLimitPrefix    string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the producer and the notifier consumer group.
type KafkaSettings struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	TopicPrefix   string   `mapstructure:"topic_prefix"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

// TokenSettings configures activation and reset links.
type TokenSettings struct {
	Secret        string        `mapstructure:"secret"`
	Issuer        string        `mapstructure:"issuer"`
	ActivationTTL time.Duration `mapstructure:"activation_ttl"`
	ResetTTL      time.Duration `mapstructure:"reset_ttl"`
}

type SessionSettings struct {
	TTL              time.Duration `mapstructure:"ttl"`
	ResetTTL         time.Duration `mapstructure:"reset_ttl"`
	CookieName       string        `mapstructure:"cookie_name"`
	CartCookieName   string        `mapstructure:"cart_cookie_name"`
	ResetCookieName  string        `mapstructure:"reset_cookie_name"`
	CookieSecure     bool          `mapstructure:"cookie_secure"`
	CookieDomain     string        `mapstructure:"cookie_domain"`
	AnonymousKeySize int           `mapstructure:"anonymous_key_size"`
}

// LoginSettings controls how login reacts to secondary failures.
type LoginSettings struct {
	DegradationPolicy string `mapstructure:"degradation_policy"`
}

type PasswordSettings struct {
	MinLength        int `mapstructure:"min_length"`
	MinClasses       int `mapstructure:"min_classes"`
	MinStrengthScore int `mapstructure:"min_strength_score"`
}

// RateLimitSettings configures rate limiting windows and max attempts per endpoint.
type RateLimitSettings struct {
	WindowDuration           time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts         int           `mapstructure:"login_max_attempts"`
	RegisterMaxAttempts      int           `mapstructure:"register_max_attempts"`
	PasswordResetMaxAttempts int           `mapstructure:"password_reset_max_attempts"`
	PasswordResetWindow      time.Duration `mapstructure:"password_reset_window"`
}

// Argon2Settings configures Argon2id password hashing parameters.
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// NotifierSettings throttles outbound deliveries in the notifier worker.
type NotifierSettings struct {
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

var keys = []string{
	"app.name",
	"app.env",
	"app.host",
	"app.port",
	"app.base_url",
	"http.read_timeout",
	"http.write_timeout",
	"http.idle_timeout",
	"http.shutdown_timeout",
	"http.trusted_proxies",
	"http.activity_paths",
	"http.allowed_origins",
	"http.default_redirect",
	"grpc.host",
	"grpc.port",
	"postgres.host",
	"postgres.port",
	"postgres.user",
	"postgres.password",
	"postgres.database",
	"postgres.schema",
	"postgres.ssl_mode",
	"postgres.max_conns",
	"postgres.min_conns",
	"postgres.max_conn_lifetime",
	"postgres.max_conn_idle_time",
	"postgres.health_check_period",
	"postgres.auto_migrate",
	"redis.host",
	"redis.port",
	"redis.db",
	"redis.password",
	"redis.tls_enabled",
	"redis.session_prefix",
	"redis.reset_session_prefix",
	"redis.rate_limit_prefix",
	"kafka.enabled",
	"kafka.brokers",
	"kafka.topic_prefix",
	"kafka.consumer_group",
	"tokens.secret",
	"tokens.issuer",
	"tokens.activation_ttl",
	"tokens.reset_ttl",
	"session.ttl",
	"session.reset_ttl",
	"session.cookie_name",
	"session.cart_cookie_name",
	"session.reset_cookie_name",
	"session.cookie_secure",
	"session.cookie_domain",
	"session.anonymous_key_size",
	"login.degradation_policy",
	"password.min_length",
	"password.min_classes",
	"password.min_strength_score",
	"rate_limit.window_duration",
	"rate_limit.login_max_attempts",
	"rate_limit.register_max_attempts",
	"rate_limit.password_reset_max_attempts",
	"rate_limit.password_reset_window",
	"argon2.memory",
	"argon2.iterations",
	"argon2.parallelism",
	"argon2.salt_length",
	"argon2.key_length",
	"telemetry.otlp_endpoint",
	"telemetry.service_name",
	"telemetry.sampling_rate",
	"notifier.rate_per_second",
	"notifier.burst",
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)

	setDefaults(v)

	if err := bindEnvs(v, keys); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// Validate rejects settings the service cannot run safely with.
func (c *AppConfig) Validate() error {
	var errs []error
	if len(c.Tokens.Secret) < 32 {
		errs = append(errs, errors.New("tokens.secret must be at least 32 bytes"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Tokens.ActivationTTL <= 0 || c.Tokens.ResetTTL <= 0 {
		errs = append(errs, errors.New("token ttls must be positive"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers required when kafka is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gkart-identity")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.base_url", "http://localhost:8080")

	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.trusted_proxies", []string{"127.0.0.1/32", "10.0.0.0/8"})
	v.SetDefault("http.activity_paths", []string{"/api/v1/checkout", "/api/v1/cart", "/api/v1/accounts/login"})
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("http.default_redirect", "/dashboard")

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "gkart")
	v.SetDefault("postgres.password", "gkart_password")
	v.SetDefault("postgres.database", "gkart")
	v.SetDefault("postgres.schema", "gkart")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.auto_migrate", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.session_prefix", "gkart:session")
	v.SetDefault("redis.reset_session_prefix", "gkart:reset_session")
	v.SetDefault("redis.rate_limit_prefix", "gkart:rl")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "gkart")
	v.SetDefault("kafka.consumer_group", "gkart-notifier")

	v.SetDefault("tokens.secret", "")
	v.SetDefault("tokens.issuer", "gkart")
	v.SetDefault("tokens.activation_ttl", "72h")
	v.SetDefault("tokens.reset_ttl", "1h")

	v.SetDefault("session.ttl", "1h")
	v.SetDefault("session.reset_ttl", "15m")
	v.SetDefault("session.cookie_name", "gkart_session")
	v.SetDefault("session.cart_cookie_name", "gkart_cart")
	v.SetDefault("session.reset_cookie_name", "gkart_reset")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.cookie_domain", "")
	v.SetDefault("session.anonymous_key_size", 24)

	v.SetDefault("login.degradation_policy", "lenient")

	v.SetDefault("password.min_length", 10)
	v.SetDefault("password.min_classes", 3)
	v.SetDefault("password.min_strength_score", 3)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.register_max_attempts", 3)
	v.SetDefault("rate_limit.password_reset_max_attempts", 3)
	v.SetDefault("rate_limit.password_reset_window", "15m")

	v.SetDefault("argon2.memory", 65536) // 64 MB
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "gkart-identity")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("notifier.rate_per_second", 20.0)
	v.SetDefault("notifier.burst", 5)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envPrefix+"_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
