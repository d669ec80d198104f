package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nnnkkk7/sqlexec/pkg/dialect"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the runtime configuration of the CLI and the HTTP server.
type Config struct {
	Driver           string
	DSN              string
	Dialect          string
	Debug            bool
	StrictParameters bool
	Listen           string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// File is the config file that was read, or empty.
	File string
}

// Load reads the configuration. Sources in increasing precedence: defaults, the
// config file, the environment (including a .env file in the working directory).
//
// When path is empty, .sqlexec.yaml is looked up in the working directory and the
// home directory and a missing file is not an error.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(string(key), value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType(ConfigType)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{
		Driver:           v.GetString(string(KeyDriver)),
		DSN:              v.GetString(string(KeyDSN)),
		Dialect:          v.GetString(string(KeyDialect)),
		Debug:            v.GetBool(string(KeyDebug)),
		StrictParameters: v.GetBool(string(KeyStrictParameters)),
		Listen:           v.GetString(string(KeyListen)),
		ReadTimeout:      v.GetDuration(string(KeyReadTimeout)),
		WriteTimeout:     v.GetDuration(string(KeyWriteTimeout)),
		File:             v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the driver has a dialect and that the DSN parses for
// drivers with a DSN parser.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("%w: driver is required", ErrInvalid)
	}
	if _, err := c.Provider(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if strings.EqualFold(c.Driver, "mysql") {
		if _, err := mysql.ParseDSN(c.DSN); err != nil {
			return fmt.Errorf("%w: mysql dsn: %v", ErrInvalid, err)
		}
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalid)
	}
	return nil
}

// Provider returns the dialect named by Dialect, or the one registered for Driver
// when Dialect is empty.
func (c *Config) Provider() (dialect.Provider, error) {
	name := c.Dialect
	if name == "" {
		name = c.Driver
	}
	return dialect.ForDriver(name)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}
