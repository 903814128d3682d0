package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from <configPath>/<configName>.yaml (also looked
// up in "." and "./config") and from the environment. A missing file is not
// an error; env vars and defaults are enough to boot.
func Load(configPath, configName string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}

// SetDefaults applies a flat map of dotted keys to v.
func SetDefaults(v *viper.Viper, defaults map[string]interface{}) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// BindEnvs binds dotted config keys to explicit environment variable names.
func BindEnvs(v *viper.Viper, bindings map[string]string) error {
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", key, env, err)
		}
	}
	return nil
}

// Duration reads key as a Go duration string, returning fallback when the
// value is missing or malformed.
func Duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
