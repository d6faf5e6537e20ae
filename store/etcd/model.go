package etcd

import (
	"time"

	"github.com/kochabx/blaze/core/tag"
)

// Config ETCD 配置
type Config struct {
	Endpoints        []string      `json:"endpoints" mapstructure:"endpoints" default:"localhost:2379"`
	Username         string        `json:"username" mapstructure:"username"`
	Password         string        `json:"password" mapstructure:"password"`
	DialTimeout      time.Duration `json:"dial_timeout" mapstructure:"dial_timeout" default:"5s"`
	KeepAliveTime    time.Duration `json:"keep_alive_time" mapstructure:"keep_alive_time" default:"30s"`
	KeepAliveTimeout time.Duration `json:"keep_alive_timeout" mapstructure:"keep_alive_timeout" default:"5s"`
	// RequestTimeout 单次读写的超时
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout" default:"3s"`
}

func (c *Config) init() error {
	if err := tag.ApplyDefaults(c); err != nil {
		return err
	}
	if len(c.Endpoints) == 0 {
		return ErrNoEndpoints
	}
	return nil
}
