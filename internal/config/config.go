package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverDynamoDB = "dynamodb"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Env         string        `yaml:"env" validate:"oneof=dev stage prod"`
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	FallbackURL string        `yaml:"fallback_url" validate:"required,url"`
	Retention   time.Duration `yaml:"retention" validate:"gt=0"`
	ShortID     ShortID       `yaml:"short_id"`
	Store       Store         `yaml:"store"`
	Hits        Hits          `yaml:"hits"`
	Cache       Cache         `yaml:"cache"`
	Log         Log           `yaml:"log"`
	HTTPServer  `yaml:"http_server"`
	DynamoDB    `yaml:"dynamodb"`
	Redis       `yaml:"redis"`
	Postgres    `yaml:"postgres"`
	Cognito     `yaml:"cognito"`
}

type ShortID struct {
	MinLength   int `yaml:"min_length" validate:"gte=1"`
	MaxLength   int `yaml:"max_length" validate:"gtefield=MinLength,lte=64"`
	MaxAttempts int `yaml:"max_attempts" validate:"gte=1"`
}

var defaultShortID = ShortID{
	MinLength:   7,
	MaxLength:   16,
	MaxAttempts: 5,
}

type Store struct {
	Driver        string        `yaml:"driver" validate:"oneof=dynamodb redis postgres"`
	SweepInterval time.Duration `yaml:"sweep_interval" validate:"gt=0"`
}

type Hits struct {
	Workers   int           `yaml:"workers" validate:"gte=1"`
	QueueSize int           `yaml:"queue_size" validate:"gte=1"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
}

var defaultHits = Hits{
	Workers:   4,
	QueueSize: 1024,
	Timeout:   2 * time.Second,
}

type Cache struct {
	Enabled     bool          `yaml:"enabled"`
	NumCounters int64         `yaml:"num_counters"`
	MaxCost     int64         `yaml:"max_cost"`
	TTL         time.Duration `yaml:"ttl"`
}

var defaultCache = Cache{
	NumCounters: 1_000_000,
	MaxCost:     100_000,
	TTL:         5 * time.Minute,
}

type Log struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
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

type DynamoDB struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

var defaultDynamoDB = DynamoDB{
	Table:  "url-shortener",
	Region: "ap-south-1",
}

type Redis struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"pool_size"`
	KeyPrefix string `yaml:"key_prefix"`
}

var defaultRedis = Redis{
	Addr:      "localhost:6379",
	PoolSize:  10,
	KeyPrefix: "link:",
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	MigrationsPath:  "file://migrations",
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// Cognito holds the identity provider settings. An empty UserPoolID disables
// login and token verification; every caller is then anonymous.
type Cognito struct {
	Region       string `yaml:"region"`
	UserPoolID   string `yaml:"user_pool_id"`
	ClientID     string `yaml:"client_id" validate:"required_with=UserPoolID"`
	ClientSecret string `yaml:"client_secret"`
}

func (c *Cognito) Enabled() bool {
	return c.UserPoolID != ""
}

// Issuer returns the token issuer URL of the user pool.
func (c *Cognito) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// JWKSURL returns the location of the user pool's signing keys.
func (c *Cognito) JWKSURL() string {
	return c.Issuer() + "/.well-known/jwks.json"
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("%s: failed to apply environment: %w", op, err)
	}

	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080/"
	cfg.FallbackURL = "https://ardf.github.io/404"
	cfg.Retention = 7 * 24 * time.Hour
	cfg.ShortID = defaultShortID
	cfg.Store = Store{Driver: DriverDynamoDB, SweepInterval: time.Minute}
	cfg.Hits = defaultHits
	cfg.Cache = defaultCache
	cfg.Log = Log{Level: "info"}
	cfg.HTTPServer = defaultHTTPServer
	cfg.DynamoDB = defaultDynamoDB
	cfg.Redis = defaultRedis
	cfg.Postgres = defaultPostgres
	cfg.Cognito = Cognito{Region: defaultDynamoDB.Region}
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"APP_URL":           &cfg.BaseURL,
		"DEFAULT_ERROR_URL": &cfg.FallbackURL,
		"DDB_TABLE_NAME":    &cfg.DynamoDB.Table,
		"AWS_REGION":        &cfg.DynamoDB.Region,
		"STORE_DRIVER":      &cfg.Store.Driver,
		"USER_POOL_ID":      &cfg.Cognito.UserPoolID,
		"CLIENT_ID":         &cfg.Cognito.ClientID,
		"CLIENT_SECRET":     &cfg.Cognito.ClientSecret,
		"LOG_LEVEL":         &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MIN_LENGTH":                   &cfg.ShortID.MinLength,
		"MAX_LENGTH":                   &cfg.ShortID.MaxLength,
		"MAX_ATTEMPTS_FOR_GENERATE_ID": &cfg.ShortID.MaxAttempts,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := lookup("AWS_REGION"); ok && v != "" {
		cfg.Cognito.Region = v
	}

	return nil
}
