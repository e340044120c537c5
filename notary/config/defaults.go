package config

import "time"

// Centralized default values for configuration

const (
	DefaultConfigDir      = ".notary"
	DefaultConfigFile     = "config.yml"
	DefaultRPCURL         = "http://127.0.0.1:7545"
	DefaultGasLimit       = 300000
	DefaultGasAdjustment  = 1.3
	DefaultConfirmTimeout = 2 * time.Minute
	DefaultPollInterval   = time.Second
	DefaultMaxPollDelay   = 5 * time.Second
	DefaultReadyTimeout   = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultDescription    = "No description"
	DefaultHashAlgorithm  = "sha256"
	DefaultRecordCacheTTL = 10 * time.Minute
	DefaultHistoryDB      = "history.db"
	DefaultLogLevel       = "warn"
	DefaultLogEnv         = "prod"
	EnvPrefix             = "NOTARY"
)
