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

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "jobcore_db", cfg.Database.Database)
				assert.Equal(t, "jobcore-api", cfg.App.Name)
				assert.Equal(t, 2*time.Second, cfg.Worker.PollInterval)
				assert.Equal(t, 10*time.Second, cfg.Worker.HeartbeatInterval)
				assert.Equal(t, 5, cfg.Worker.BatchSize)
				assert.Equal(t, 4, cfg.Worker.MaxAttempts)
				assert.Equal(t, 15*time.Second, cfg.Worker.Backoff.Base)
				assert.Equal(t, 30*time.Minute, cfg.Worker.Backoff.Cap)
			}
		})
	}
}

func TestLoad_WorkerDefaults(t *testing.T) {
	// valid_config.yaml sets every worker field; a config without a worker
	// section gets the documented defaults
	cfg := &Config{}
	cfg.applyWorkerDefaults()

	assert.Equal(t, 5*time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Worker.HeartbeatInterval)
	assert.Equal(t, 10, cfg.Worker.BatchSize)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.Worker.JobTimeout)
	assert.Equal(t, 30*time.Second, cfg.Worker.ShutdownTimeout)
	assert.Equal(t, 3, cfg.Worker.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Worker.StaleClaimAfter)
	assert.Equal(t, 30*time.Second, cfg.Worker.Backoff.Base)
	assert.Equal(t, time.Hour, cfg.Worker.Backoff.Cap)
}

func validWorkerConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "jobcore_db",
		},
		Worker: WorkerConfig{
			PollInterval:      5 * time.Second,
			HeartbeatInterval: 30 * time.Second,
			BatchSize:         10,
			Concurrency:       4,
			JobTimeout:        time.Minute,
			ShutdownTimeout:   30 * time.Second,
			MaxAttempts:       3,
			StaleClaimAfter:   10 * time.Minute,
			Backoff:           BackoffConfig{Base: 30 * time.Second, Cap: time.Hour},
		},
	}
}

func TestValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:      "missing database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "invalid database port",
			mutate:    func(c *Config) { c.Database.Port = 70000 },
			wantErr:   true,
			errString: "invalid database port",
		},
		{
			name:      "zero poll interval",
			mutate:    func(c *Config) { c.Worker.PollInterval = 0 },
			wantErr:   true,
			errString: "poll_interval",
		},
		{
			name:      "zero batch size",
			mutate:    func(c *Config) { c.Worker.BatchSize = 0 },
			wantErr:   true,
			errString: "batch_size",
		},
		{
			name:      "zero concurrency",
			mutate:    func(c *Config) { c.Worker.Concurrency = 0 },
			wantErr:   true,
			errString: "concurrency",
		},
		{
			name:      "zero max attempts",
			mutate:    func(c *Config) { c.Worker.MaxAttempts = 0 },
			wantErr:   true,
			errString: "max_attempts",
		},
		{
			name:      "stale claim window not above job timeout",
			mutate:    func(c *Config) { c.Worker.StaleClaimAfter = 30 * time.Second },
			wantErr:   true,
			errString: "stale_claim_after",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validWorkerConfig()
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		wantErr   bool
		errString string
	}{
		{
			name: "valid config",
			config: &Config{
				Server: ServerConfig{Port: 8080},
				Database: DatabaseConfig{
					Host:     "localhost",
					Port:     5432,
					Database: "jobcore_db",
				},
			},
			wantErr: false,
		},
		{
			name: "invalid server port - too low",
			config: &Config{
				Server: ServerConfig{Port: 0},
				Database: DatabaseConfig{
					Host:     "localhost",
					Port:     5432,
					Database: "jobcore_db",
				},
			},
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "missing database name",
			config: &Config{
				Server: ServerConfig{Port: 8080},
				Database: DatabaseConfig{
					Host: "localhost",
					Port: 5432,
				},
			},
			wantErr:   true,
			errString: "database name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.ValidateAPIConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
