// Package config handles configuration shared by the certvault server and
// CLI: defaults, a JSON or YAML file overlay, environment variables and
// command-line flags, applied in that order.
package config

import (
	"time"

	"github.com/dmitrijs2005/certvault/internal/cryptox"
)

// Config holds runtime settings.
//
// Fields:
//   - Secret: HMAC secret for checksums and signatures (CERT_SECRET).
//   - AuthSecret / AccessTokenTTL: HS256 key and lifetime of issuer tokens.
//   - DatabaseDSN / RedisAddr / SQLitePath / LocalStorePath: record store
//     backends, tried in that order; empty disables a backend.
//   - StoreTimeout: upper bound of every single store call.
//   - OutputDir: where issued documents are written.
//   - GRPCAddr / MetricsAddr / RemoteAddr: server binds and client target.
type Config struct {
	Secret         string        `json:"secret" yaml:"secret" envconfig:"CERT_SECRET"`
	AuthSecret     string        `json:"auth_secret" yaml:"auth_secret" envconfig:"AUTH_SECRET"`
	AccessTokenTTL time.Duration `json:"access_token_ttl" yaml:"access_token_ttl" envconfig:"ACCESS_TOKEN_TTL"`

	DatabaseDSN    string        `json:"database_dsn" yaml:"database_dsn" envconfig:"DATABASE_DSN"`
	RedisAddr      string        `json:"redis_addr" yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword  string        `json:"redis_password" yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	SQLitePath     string        `json:"sqlite_path" yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	LocalStorePath string        `json:"local_store_path" yaml:"local_store_path" envconfig:"LOCAL_STORE_PATH"`
	StoreTimeout   time.Duration `json:"store_timeout" yaml:"store_timeout" envconfig:"STORE_TIMEOUT"`

	OutputDir   string `json:"output_dir" yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	GRPCAddr    string `json:"grpc_addr" yaml:"grpc_addr" envconfig:"GRPC_ADDR"`
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
	RemoteAddr  string `json:"remote_addr" yaml:"remote_addr" envconfig:"REMOTE_ADDR"`
	Debug       bool   `json:"debug" yaml:"debug" envconfig:"DEBUG"`

	Template Template `json:"template" yaml:"template" envconfig:"TEMPLATE"`
	S3       S3       `json:"s3" yaml:"s3" envconfig:"S3"`
}

// Template is the fixed content printed on every issued document.
type Template struct {
	Title    string `json:"title" yaml:"title" envconfig:"TITLE"`
	Subtitle string `json:"subtitle" yaml:"subtitle" envconfig:"SUBTITLE"`
	Issuer   string `json:"issuer" yaml:"issuer" envconfig:"ISSUER"`
	QR       bool   `json:"qr" yaml:"qr" envconfig:"QR"`
}

// S3 configures the optional artifact archive.
type S3 struct {
	Enabled      bool   `json:"enabled" yaml:"enabled" envconfig:"ENABLED"`
	RootUser     string `json:"root_user" yaml:"root_user" envconfig:"ROOT_USER"`
	RootPassword string `json:"root_password" yaml:"root_password" envconfig:"ROOT_PASSWORD"`
	Bucket       string `json:"bucket" yaml:"bucket" envconfig:"BUCKET"`
	Region       string `json:"region" yaml:"region" envconfig:"REGION"`
	BaseEndpoint string `json:"base_endpoint" yaml:"base_endpoint" envconfig:"BASE_ENDPOINT"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: Secret stays empty so that the insecure fallback is visible in logs;
// AuthSecret is a test value and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.AuthSecret = "secretKey"
	c.AccessTokenTTL = 15 * time.Minute
	c.LocalStorePath = "credentials.json"
	c.StoreTimeout = 5 * time.Second
	c.OutputDir = "certificates"
	c.GRPCAddr = ":50051"
	c.MetricsAddr = ":9102"
	c.RemoteAddr = "127.0.0.1:50051"
	c.Template = Template{
		Title:    "Data Sanitization Certificate",
		Subtitle: "This certifies that",
		Issuer:   "Certificate Authority",
		QR:       true,
	}
	c.S3 = S3{
		RootUser:     "admin",
		RootPassword: "secretpassword",
		Bucket:       "certificates",
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000/",
	}
}

// StamperConfig returns the stamper settings derived from c. The explicit
// secret, when non-empty, wins over the configured one.
func (c *Config) StamperConfig(explicit string) cryptox.StamperConfig {
	return cryptox.StamperConfig{Secret: explicit, Configured: c.Secret}
}

// LoadConfig builds the server Config: defaults, then the file named by
// -c/-config, then the environment, then the remaining flags.
func LoadConfig() (*Config, error) {
	cfg, err := Load(configFileFlag())
	if err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load applies defaults, the file at path (if any) and the environment.
// Callers with their own flag handling, such as the CLI, start from here.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := LoadFile(cfg, path); err != nil {
		return nil, err
	}
	if err := LoadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
