package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/vadimbarashkov/shortener/internal/usecase"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

var (
	ErrMissingSecretKey     = errors.New("auth.secret_key is required")
	ErrUnsupportedAlgorithm = errors.New("auth.algorithm must be one of HS256, HS384, HS512")
	ErrInvalidIdentLength   = fmt.Errorf("short_url.ident_length must be between 1 and %d", usecase.MaxBaseIdentLength)
	ErrInvalidPurgeInterval = errors.New("short_url.purge_interval must be positive")
)

type Config struct {
	Env        string `yaml:"env"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	Auth       `yaml:"auth"`
	CORS       `yaml:"cors"`
	ShortURL   `yaml:"short_url"`
	Superuser  `yaml:"superuser"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	MigrationsPath  string        `yaml:"migrations_path"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	MigrationsPath:  "file://migrations",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.DB,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

// Auth configures bearer token signing.
type Auth struct {
	SecretKey      string        `yaml:"secret_key"`
	Algorithm      string        `yaml:"algorithm"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	BcryptCost     int           `yaml:"bcrypt_cost"`
}

var defaultAuth = Auth{
	Algorithm:      "HS256",
	AccessTokenTTL: 30 * time.Minute,
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ShortURL configures identifier generation and the expiry sweeper.
type ShortURL struct {
	IdentLength   int           `yaml:"ident_length"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

var defaultShortURL = ShortURL{
	IdentLength:   7,
	PurgeInterval: time.Minute,
}

// Superuser is the administrator account seeded at startup.
// Seeding is skipped when Username is empty.
type Superuser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Load reads the YAML config file at path. An optional .env file in the
// working directory is loaded first, and ${VAR} references in the file are
// expanded from the environment.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: failed to load .env file: %w", op, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read config file: %w", op, err)
	}

	var cfg Config
	setDefaults(&cfg)

	expanded := os.ExpandEnv(string(data))
	if err := yaml.NewDecoder(bytes.NewBufferString(expanded)).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}

	return &cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Auth.SecretKey == "" {
		return ErrMissingSecretKey
	}

	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return ErrUnsupportedAlgorithm
	}

	if c.ShortURL.IdentLength <= 0 || c.ShortURL.IdentLength > usecase.MaxBaseIdentLength {
		return ErrInvalidIdentLength
	}

	if c.ShortURL.PurgeInterval <= 0 {
		return ErrInvalidPurgeInterval
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Auth = defaultAuth
	cfg.ShortURL = defaultShortURL
}
