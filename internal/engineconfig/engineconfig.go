// Package engineconfig reads the process-wide engine defaults that
// engine.New consults when no explicit option overrides them: default
// thread-pool size, log level, and GPU backend preference.
package engineconfig

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the defaults engine.New reads when an Option doesn't
// override them.
type Config struct {
	ThreadPoolSize int    `mapstructure:"thread_pool_size"`
	LogLevel       string `mapstructure:"log_level"`
	GPUBackend     string `mapstructure:"gpu_backend"`
}

// Load reads configuration from configPath, falling back to built-in
// defaults if the file is absent, mirroring the teacher's config loader's
// "missing file is not fatal" behavior.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("nnrt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/nnrt")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no config file: built-in defaults stand
		} else if os.IsNotExist(err) {
			// explicit path doesn't exist: built-in defaults stand
		} else {
			return nil, fmt.Errorf("engineconfig: read config: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("engineconfig: unmarshal: %w", err)
	}
	return &cfg, nil
}

// LoadFromReader parses raw config content of the given type (e.g. "yaml"),
// for tests that don't want to touch the filesystem.
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("engineconfig: read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("engineconfig: unmarshal: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("thread_pool_size", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("gpu_backend", "none")
}
