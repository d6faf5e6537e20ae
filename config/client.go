package config

import (
	"path/filepath"
	"time"

	"github.com/kochabx/blaze/log"
	"github.com/kochabx/blaze/store/etcd"
	"github.com/kochabx/blaze/store/redis"
)

// Client is the configuration of a blaze API client process
type Client struct {
	API     API        `json:"api" mapstructure:"api"`
	Storage Storage    `json:"storage" mapstructure:"storage"`
	Cache   Cache      `json:"cache" mapstructure:"cache"`
	Log     log.Config `json:"log" mapstructure:"log"`
}

// API remote endpoint settings
type API struct {
	BaseURL string `json:"base_url" mapstructure:"base_url" default:"http://localhost:3000/api/v1" validate:"required,url"`

	// Timeout applies to every outbound call, the refresh call included
	Timeout        time.Duration `json:"timeout" mapstructure:"timeout" default:"30s" validate:"gt=0"`
	RefreshTimeout time.Duration `json:"refresh_timeout" mapstructure:"refresh_timeout" default:"30s" validate:"gt=0"`

	// Debug logs every request and response status
	Debug     bool   `json:"debug" mapstructure:"debug"`
	UserAgent string `json:"user_agent" mapstructure:"user_agent" default:"blaze-go"`
}

// Storage drivers
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverEtcd   = "etcd"
)

// Storage selects the credential backend
type Storage struct {
	Driver    string `json:"driver" mapstructure:"driver" default:"file" validate:"oneof=file memory redis etcd"`
	Namespace string `json:"namespace" mapstructure:"namespace" default:"blaze"`

	// Path of the encrypted credential file, empty means the user config dir
	Path   string `json:"path" mapstructure:"path"`
	Secret string `json:"secret" mapstructure:"secret" validate:"required_if=Driver file"`

	// Timeout bounds each storage operation, 0 means none
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" default:"5s"`

	Redis *redis.Config `json:"redis,omitempty" mapstructure:"redis"`
	Etcd  *etcd.Config  `json:"etcd,omitempty" mapstructure:"etcd"`
}

// Cache server-state cache policy
type Cache struct {
	StaleTime time.Duration `json:"stale_time" mapstructure:"stale_time" default:"5m"`

	// fetch retries: delay = min(retry_base * 2^attempt, retry_max)
	Retry     int           `json:"retry" mapstructure:"retry" default:"2" validate:"gte=0"`
	RetryBase time.Duration `json:"retry_base" mapstructure:"retry_base" default:"1s"`
	RetryMax  time.Duration `json:"retry_max" mapstructure:"retry_max" default:"30s"`

	MutationRetry      int           `json:"mutation_retry" mapstructure:"mutation_retry" default:"1" validate:"gte=0,lte=1"`
	MutationRetryDelay time.Duration `json:"mutation_retry_delay" mapstructure:"mutation_retry_delay" default:"1s"`

	PollInterval time.Duration `json:"poll_interval" mapstructure:"poll_interval" default:"5s" validate:"gt=0"`
}

// LoadClient loads a Client configuration from file. With an empty file it
// looks for an optional config.yaml in the working directory, in which case
// defaults and env vars (API_BASE_URL, STORAGE_SECRET, ...) still apply.
func LoadClient(file string) (*Client, error) {
	opts := []Option{WithOptional(true)}
	if file != "" {
		opts = []Option{WithFile(filepath.Base(file), filepath.Dir(file))}
	}

	cfg := new(Client)
	if err := New(cfg, opts...).Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}
