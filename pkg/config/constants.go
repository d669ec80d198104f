// Package config provides configuration constants and loading for sqlexec.
package config

import "time"

// Default connection settings.
const (
	DefaultDriver = "duckdb"
	DefaultDSN    = ""
)

// Default HTTP server settings.
const (
	DefaultListen       = ":8080"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Config file and environment lookup.
const (
	ConfigName = ".sqlexec"
	ConfigType = "yaml"
	EnvPrefix  = "SQLEXEC"
	DotEnvFile = ".env"
)

// Key is a configuration key as it appears in the config file. The matching
// environment variable is EnvPrefix + "_" + upper-case key.
type Key string

// Configuration keys.
const (
	KeyDriver           Key = "driver"
	KeyDSN              Key = "dsn"
	KeyDialect          Key = "dialect"
	KeyDebug            Key = "debug"
	KeyStrictParameters Key = "strict_parameters"
	KeyListen           Key = "listen"
	KeyReadTimeout      Key = "read_timeout"
	KeyWriteTimeout     Key = "write_timeout"
)

// Defaults returns the default value of every key that has one.
func Defaults() map[Key]any {
	return map[Key]any{
		KeyDriver:           DefaultDriver,
		KeyDSN:              DefaultDSN,
		KeyDebug:            false,
		KeyStrictParameters: false,
		KeyListen:           DefaultListen,
		KeyReadTimeout:      DefaultReadTimeout,
		KeyWriteTimeout:     DefaultWriteTimeout,
	}
}
