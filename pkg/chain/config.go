package chain

import (
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultEndpoint       = "http://127.0.0.1:7545"
	DefaultReadyTimeout   = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultRecordCacheTTL = 10 * time.Minute
)

// Config holds everything needed to reach the node and sign for one account.
type Config struct {
	Endpoint        string
	Contract        common.Address
	PrivateKey      *ecdsa.PrivateKey
	ExpectedChainID *big.Int

	GasLimit      uint64
	GasPrice      *big.Int
	GasAdjustment float64
	GasPadding    uint64

	PollInterval   time.Duration
	MaxPollDelay   time.Duration
	ReadyTimeout   time.Duration
	RequestTimeout time.Duration

	// RecordCacheTTL bounds how long found records are cached. Zero disables the cache.
	RecordCacheTTL time.Duration

	backend tx.Backend
}

// Option configures a Client.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		Endpoint:       DefaultEndpoint,
		GasLimit:       tx.DefaultGasLimit,
		GasAdjustment:  tx.DefaultGasAdjustment,
		PollInterval:   tx.DefaultPollInterval,
		MaxPollDelay:   tx.DefaultMaxPollDelay,
		ReadyTimeout:   DefaultReadyTimeout,
		RequestTimeout: DefaultRequestTimeout,
		RecordCacheTTL: DefaultRecordCacheTTL,
	}
}

func WithEndpoint(endpoint string) Option {
	return func(c *Config) { c.Endpoint = endpoint }
}

func WithContract(addr common.Address) Option {
	return func(c *Config) { c.Contract = addr }
}

func WithPrivateKey(key *ecdsa.PrivateKey) Option {
	return func(c *Config) { c.PrivateKey = key }
}

// WithExpectedChainID makes NewClient fail unless the node reports id.
func WithExpectedChainID(id *big.Int) Option {
	return func(c *Config) { c.ExpectedChainID = id }
}

// WithGasLimit sets a fixed gas limit. Zero means estimate per transaction.
func WithGasLimit(limit uint64) Option {
	return func(c *Config) { c.GasLimit = limit }
}

// WithGasPrice pins the gas price instead of asking the node each time.
func WithGasPrice(price *big.Int) Option {
	return func(c *Config) { c.GasPrice = price }
}

func WithGasAdjustment(adj float64) Option {
	return func(c *Config) { c.GasAdjustment = adj }
}

func WithGasPadding(padding uint64) Option {
	return func(c *Config) { c.GasPadding = padding }
}

func WithPollInterval(interval, max time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = interval
		c.MaxPollDelay = max
	}
}

func WithReadyTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadyTimeout = d }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) { c.RequestTimeout = d }
}

func WithRecordCacheTTL(ttl time.Duration) Option {
	return func(c *Config) { c.RecordCacheTTL = ttl }
}

// WithBackend skips dialing and uses b directly. The endpoint is kept for logs.
func WithBackend(b tx.Backend) Option {
	return func(c *Config) { c.backend = b }
}
