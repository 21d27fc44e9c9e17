package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration. It is
// loaded once at startup and passed by value into every component.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	RabbitMQ    RabbitMQConfig    `yaml:"rabbitmq"`
	ObjectStore ObjectStoreConfig `yaml:"objectstore"`
	Worker      WorkerConfig      `yaml:"worker"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and topology configuration
type RabbitMQConfig struct {
	Host              string           `yaml:"host"`
	Port              int              `yaml:"port"`
	User              string           `yaml:"user"`
	Password          string           `yaml:"password"`
	VHost             string           `yaml:"vhost"`
	Exchange          ExchangeConfig   `yaml:"exchange"`
	Queue             QueueConfig      `yaml:"queue"`
	RoutingKey        string           `yaml:"routing_key"`
	VisibilityTimeout time.Duration    `yaml:"visibility_timeout"`
	Connection        ConnectionConfig `yaml:"connection"`
	Publish           PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Durable bool   `yaml:"durable"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name    string `yaml:"name"`
	Durable bool   `yaml:"durable"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ObjectStoreConfig holds S3-compatible object store settings
type ObjectStoreConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	AccessKey    string        `yaml:"access_key"`
	SecretKey    string        `yaml:"secret_key"`
	Bucket       string        `yaml:"bucket"`
	Region       string        `yaml:"region"`
	UseSSL       bool          `yaml:"use_ssl"`
	PresignedTTL time.Duration `yaml:"presigned_ttl"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	MaxMessages int           `yaml:"max_messages"`
	PollWait    time.Duration `yaml:"poll_wait"`
	PollBackoff time.Duration `yaml:"poll_backoff"`
	JobTimeout  time.Duration `yaml:"job_timeout"`
	StagingDir  string        `yaml:"staging_dir"`
}

// PipelineConfig holds inference service endpoints and postprocessing
// settings for the worker pipeline
type PipelineConfig struct {
	SegmenterURL   string        `yaml:"segmenter_url"`
	GeneratorURL   string        `yaml:"generator_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Sharpen        bool          `yaml:"sharpen"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration shared by both services
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	if c.RabbitMQ.VisibilityTimeout <= 0 {
		return fmt.Errorf("rabbitmq visibility_timeout must be greater than 0")
	}

	if c.ObjectStore.Endpoint == "" {
		return fmt.Errorf("objectstore endpoint is required")
	}

	if c.ObjectStore.Bucket == "" {
		return fmt.Errorf("objectstore bucket is required")
	}

	return nil
}

// ValidateAPI checks the configuration specific to the API service
func (c *Config) ValidateAPI() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	return nil
}

// ValidateWorker checks the configuration specific to the worker service
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Worker.MaxMessages <= 0 {
		return fmt.Errorf("worker max_messages must be greater than 0")
	}

	if c.Worker.PollWait <= 0 {
		return fmt.Errorf("worker poll_wait must be greater than 0")
	}

	if c.Worker.PollBackoff <= 0 {
		return fmt.Errorf("worker poll_backoff must be greater than 0")
	}

	if c.Worker.JobTimeout <= 0 {
		return fmt.Errorf("worker job_timeout must be greater than 0")
	}

	if c.Pipeline.SegmenterURL == "" {
		return fmt.Errorf("pipeline segmenter_url is required")
	}

	if c.Pipeline.GeneratorURL == "" {
		return fmt.Errorf("pipeline generator_url is required")
	}

	return nil
}
