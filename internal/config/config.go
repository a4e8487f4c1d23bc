package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the application configuration. Values are read from a YAML file and
// can be overridden with environment variables.
type Config struct {
	// Environment is either "development" or "production".
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	HTTP struct {
		// Addr is the address the API server listens on
		Addr              string        `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout bounds the handling of a single API request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		MaxHeaderBytes int           `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath is where Prometheus metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// AllowedOrigins is the comma separated CORS allow list; "*" allows any origin
		AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" env-default:"*" env-separator:"," yaml:"allowedOrigins"`
	} `yaml:"http"`

	Database struct {
		Username           string        `env:"DATABASE_USERNAME" env-default:"sitepaths" yaml:"username"`
		Password           string        `env:"DATABASE_PASSWORD" env-default:"sitepaths" yaml:"password"`
		Host               string        `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		Port               int           `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		SslMode            string        `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		DatabaseName       string        `env:"DATABASE_NAME" env-default:"sitepaths" yaml:"name"`
		MaxOpenConnections int           `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		MaxIdleConnections int           `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"2" yaml:"maxIdleConnections"`
		ConnMaxLifetime    time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		ConnMaxIdleTime    time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	Crawler struct {
		// UserAgent is sent with every robots.txt, sitemap and page request
		UserAgent string `env:"CRAWLER_USER_AGENT" env-default:"sitepaths/1.0 (+https://github.com/sitepaths)" yaml:"userAgent"`
		// PolicyTimeout bounds the robots.txt request
		PolicyTimeout time.Duration `env:"CRAWLER_POLICY_TIMEOUT" env-default:"5s" yaml:"policyTimeout"`
		// FetchTimeout bounds each sitemap and page request
		FetchTimeout time.Duration `env:"CRAWLER_FETCH_TIMEOUT" env-default:"10s" yaml:"fetchTimeout"`
		// MaxBodyBytes caps how much of a response body is read
		MaxBodyBytes int64 `env:"CRAWLER_MAX_BODY_BYTES" env-default:"10485760" yaml:"maxBodyBytes"`
		// MaxSitemapBytes is the largest sitemap that is parsed, larger ones are skipped whole
		MaxSitemapBytes int64 `env:"CRAWLER_MAX_SITEMAP_BYTES" env-default:"52428800" yaml:"maxSitemapBytes"`
		// MaxPages stops link traversal after this many page fetches, 0 means unbounded
		MaxPages int `env:"CRAWLER_MAX_PAGES" env-default:"0" yaml:"maxPages"`
		// MaxDepth stops following links deeper than this many hops from the root, 0 means unbounded
		MaxDepth int `env:"CRAWLER_MAX_DEPTH" env-default:"0" yaml:"maxDepth"`
		// RunBudget bounds a whole crawl run, 0 means unbounded
		RunBudget time.Duration `env:"CRAWLER_RUN_BUDGET" env-default:"0s" yaml:"runBudget"`
		// RequestsPerSecond spaces out the requests of one crawl run, 0 means unlimited
		RequestsPerSecond float64 `env:"CRAWLER_REQUESTS_PER_SECOND" env-default:"0" yaml:"requestsPerSecond"`
	} `yaml:"crawler"`

	Worker struct {
		// MaxWorkers is the number of crawl runs executed concurrently
		MaxWorkers int `env:"WORKER_MAX_WORKERS" env-default:"4" yaml:"maxWorkers"`
		// MaxAttempts is how many times a failed crawl job is tried
		MaxAttempts int `env:"WORKER_MAX_ATTEMPTS" env-default:"3" yaml:"maxAttempts"`
	} `yaml:"worker"`

	JWT struct {
		// PublicKey is the PEM encoded RSA key verifying API tokens. Authentication is
		// disabled when it is empty.
		PublicKey string `env:"JWT_PUBLIC_KEY" yaml:"publicKey"`
		// PrivateKey is only needed by the jwt command.
		PrivateKey string `env:"JWT_PRIVATE_KEY" yaml:"privateKey"`
	} `yaml:"jwt"`

	// GracefulShutdownTimeout bounds how long in-flight requests and crawl jobs get on shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load reads the YAML file at configPath and applies environment overrides.
func Load(configPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
