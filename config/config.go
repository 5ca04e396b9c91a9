package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
}

type GRPC struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // chat-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
	Output    string `yaml:"output"`    // stdout|stderr|путь к файлу

	SampleInitial    int `yaml:"sampleInitial"`
	SampleThereafter int `yaml:"sampleThereafter"`
}

type Postgres struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	ApplicationName   string        `yaml:"applicationName"`
	Migrate           bool          `yaml:"migrate"` // накатить схему при старте
}

type Storage struct {
	Driver string `yaml:"driver"` // postgres|memory
}

type Auth struct {
	Mode          string        `yaml:"mode"` // jwt|header
	PublicKeyPath string        `yaml:"publicKeyPath"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	ClockSkew     time.Duration `yaml:"clockSkew"`
}

type Redis struct {
	Addr     string `yaml:"addr"` // пусто: без лимитера
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"` // пусто: события не публикуются
	Topic   string   `yaml:"topic"`
}

type Limits struct {
	MaxMessageLength int           `yaml:"maxMessageLength"`
	DefaultPageSize  int           `yaml:"defaultPageSize"`
	MaxPageSize      int           `yaml:"maxPageSize"`
	SendRate         int           `yaml:"sendRate"` // мутаций на пользователя за окно
	SendWindow       time.Duration `yaml:"sendWindow"`
}

type Telemetry struct {
	OTLPEndpoint string  `yaml:"otlpEndpoint"` // пусто: трейсинг выключен
	SampleRatio  float64 `yaml:"sampleRatio"`
}

type Client struct {
	PollInterval time.Duration `yaml:"pollInterval"`
}

type Config struct {
	HTTP      HTTP      `yaml:"http"`
	GRPC      GRPC      `yaml:"grpc"`
	Logging   Logging   `yaml:"logging"`
	Postgres  Postgres  `yaml:"postgres"`
	Storage   Storage   `yaml:"storage"`
	Auth      Auth      `yaml:"auth"`
	Redis     Redis     `yaml:"redis"`
	Kafka     Kafka     `yaml:"kafka"`
	Limits    Limits    `yaml:"limits"`
	Telemetry Telemetry `yaml:"telemetry"`
	Client    Client    `yaml:"client"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = "postgres"
	case "postgres", "memory":
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}

	switch c.Auth.Mode {
	case "":
		c.Auth.Mode = "jwt"
		fallthrough
	case "jwt":
		if c.Auth.PublicKeyPath == "" {
			return errors.New("auth.publicKeyPath is required in jwt mode")
		}
		if c.Auth.Issuer == "" {
			return errors.New("auth.issuer is required in jwt mode")
		}
	case "header":
	default:
		return fmt.Errorf("auth.mode %q is not supported", c.Auth.Mode)
	}
	if c.Auth.ClockSkew < 0 || c.Auth.ClockSkew > time.Minute {
		return errors.New("auth.clockSkew must be in [0..1m]")
	}

	// установка дефолтов, если значения не указаны
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 15 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Postgres.ApplicationName == "" {
		c.Postgres.ApplicationName = c.Logging.Service
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "chat.events"
	}
	if c.Limits.MaxMessageLength <= 0 {
		c.Limits.MaxMessageLength = 4000
	}
	if c.Limits.DefaultPageSize <= 0 {
		c.Limits.DefaultPageSize = 50
	}
	if c.Limits.MaxPageSize <= 0 {
		c.Limits.MaxPageSize = 100
	}
	if c.Limits.DefaultPageSize > c.Limits.MaxPageSize {
		c.Limits.DefaultPageSize = c.Limits.MaxPageSize
	}
	if c.Limits.SendWindow <= 0 {
		c.Limits.SendWindow = time.Minute
	}
	if c.Telemetry.SampleRatio <= 0 || c.Telemetry.SampleRatio > 1 {
		c.Telemetry.SampleRatio = 1
	}
	if c.Client.PollInterval <= 0 {
		c.Client.PollInterval = 750 * time.Millisecond
	}
	return nil
}
