package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "truetone_jobs", cfg.Database.Database)
				assert.Equal(t, "truetone_exchange", cfg.RabbitMQ.Exchange.Name)
				assert.Equal(t, "truetone_jobs", cfg.RabbitMQ.Queue.Name)
				assert.Equal(t, 2*time.Minute, cfg.RabbitMQ.VisibilityTimeout)
				assert.Equal(t, "truetone-images", cfg.ObjectStore.Bucket)
				assert.Equal(t, 1, cfg.Worker.MaxMessages)
				assert.Equal(t, 20*time.Second, cfg.Worker.PollWait)
				assert.Equal(t, "http://localhost:9801/segment", cfg.Pipeline.SegmenterURL)
				assert.True(t, cfg.Pipeline.Sharpen)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "truetone_jobs",
		},
		RabbitMQ: RabbitMQConfig{
			Host:              "localhost",
			Port:              5672,
			Exchange:          ExchangeConfig{Name: "truetone_exchange"},
			Queue:             QueueConfig{Name: "truetone_jobs"},
			VisibilityTimeout: 2 * time.Minute,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint: "localhost:9000",
			Bucket:   "truetone-images",
		},
		Worker: WorkerConfig{
			MaxMessages: 1,
			PollWait:    20 * time.Second,
			PollBackoff: 5 * time.Second,
			JobTimeout:  10 * time.Minute,
		},
		Pipeline: PipelineConfig{
			SegmenterURL: "http://localhost:9801/segment",
			GeneratorURL: "http://localhost:9802/generate",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "empty database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			errString: "database host is required",
		},
		{
			name:      "invalid database port",
			mutate:    func(c *Config) { c.Database.Port = 0 },
			errString: "invalid database port",
		},
		{
			name:      "empty database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			errString: "database name is required",
		},
		{
			name:      "empty rabbitmq host",
			mutate:    func(c *Config) { c.RabbitMQ.Host = "" },
			errString: "rabbitmq host is required",
		},
		{
			name:      "empty exchange name",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange.Name = "" },
			errString: "rabbitmq exchange name is required",
		},
		{
			name:      "empty queue name",
			mutate:    func(c *Config) { c.RabbitMQ.Queue.Name = "" },
			errString: "rabbitmq queue name is required",
		},
		{
			name:      "zero visibility timeout",
			mutate:    func(c *Config) { c.RabbitMQ.VisibilityTimeout = 0 },
			errString: "visibility_timeout must be greater than 0",
		},
		{
			name:      "empty objectstore endpoint",
			mutate:    func(c *Config) { c.ObjectStore.Endpoint = "" },
			errString: "objectstore endpoint is required",
		},
		{
			name:      "empty objectstore bucket",
			mutate:    func(c *Config) { c.ObjectStore.Bucket = "" },
			errString: "objectstore bucket is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateAPI(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.ValidateAPI())

	cfg.Server.Port = 70000
	err := cfg.ValidateAPI()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestConfig_ValidateWorker(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errString string
	}{
		{
			name:   "valid worker config",
			mutate: func(c *Config) {},
		},
		{
			name:      "zero max messages",
			mutate:    func(c *Config) { c.Worker.MaxMessages = 0 },
			errString: "max_messages must be greater than 0",
		},
		{
			name:      "zero poll wait",
			mutate:    func(c *Config) { c.Worker.PollWait = 0 },
			errString: "poll_wait must be greater than 0",
		},
		{
			name:      "zero poll backoff",
			mutate:    func(c *Config) { c.Worker.PollBackoff = 0 },
			errString: "poll_backoff must be greater than 0",
		},
		{
			name:      "zero job timeout",
			mutate:    func(c *Config) { c.Worker.JobTimeout = 0 },
			errString: "job_timeout must be greater than 0",
		},
		{
			name:      "missing segmenter url",
			mutate:    func(c *Config) { c.Pipeline.SegmenterURL = "" },
			errString: "segmenter_url is required",
		},
		{
			name:      "missing generator url",
			mutate:    func(c *Config) { c.Pipeline.GeneratorURL = "" },
			errString: "generator_url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateWorker()

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
