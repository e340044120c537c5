package config

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type ChainConfig struct {
	RPCURL          string        `yaml:"rpc_url" mapstructure:"rpc_url"`
	ChainID         int64         `yaml:"chain_id,omitempty" mapstructure:"chain_id"`
	ContractAddress string        `yaml:"contract_address" mapstructure:"contract_address"`
	GasLimit        uint64        `yaml:"gas_limit" mapstructure:"gas_limit"`
	GasPrice        string        `yaml:"gas_price,omitempty" mapstructure:"gas_price"`
	GasAdjustment   float64       `yaml:"gas_adjustment,omitempty" mapstructure:"gas_adjustment"`
	GasPadding      uint64        `yaml:"gas_padding,omitempty" mapstructure:"gas_padding"`
	ConfirmTimeout  time.Duration `yaml:"confirm_timeout" mapstructure:"confirm_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval,omitempty" mapstructure:"poll_interval"`
	MaxPollDelay    time.Duration `yaml:"max_poll_delay,omitempty" mapstructure:"max_poll_delay"`
	ReadyTimeout    time.Duration `yaml:"ready_timeout,omitempty" mapstructure:"ready_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout,omitempty" mapstructure:"request_timeout"`
}

type SignerConfig struct {
	PrivateKey     string `yaml:"private_key,omitempty" mapstructure:"private_key"`
	PrivateKeyFile string `yaml:"private_key_file,omitempty" mapstructure:"private_key_file"`
	Address        string `yaml:"address,omitempty" mapstructure:"address"`
}

type NotaryConfig struct {
	DefaultDescription string        `yaml:"default_description" mapstructure:"default_description"`
	RejectDuplicates   bool          `yaml:"reject_duplicates" mapstructure:"reject_duplicates"`
	HashAlgorithm      string        `yaml:"hash_algorithm" mapstructure:"hash_algorithm"`
	RecordCacheTTL     time.Duration `yaml:"record_cache_ttl,omitempty" mapstructure:"record_cache_ttl"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DBPath  string `yaml:"db_path,omitempty" mapstructure:"db_path"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	Env   string `yaml:"env,omitempty" mapstructure:"env"`
}

// Config represents the YAML configuration structure
type Config struct {
	Chain   ChainConfig   `yaml:"chain" mapstructure:"chain"`
	Signer  SignerConfig  `yaml:"signer" mapstructure:"signer"`
	Notary  NotaryConfig  `yaml:"notary" mapstructure:"notary"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`

	// BaseDir is the directory holding the config file; relative paths resolve against it.
	BaseDir string `yaml:"-" mapstructure:"-"`
}

// configKeys lists every key that can be overridden from the environment as
// NOTARY_<SECTION>_<KEY>.
var configKeys = []string{
	"chain.rpc_url",
	"chain.chain_id",
	"chain.contract_address",
	"chain.gas_limit",
	"chain.gas_price",
	"chain.gas_adjustment",
	"chain.gas_padding",
	"chain.confirm_timeout",
	"chain.poll_interval",
	"chain.max_poll_delay",
	"chain.ready_timeout",
	"chain.request_timeout",
	"signer.private_key",
	"signer.private_key_file",
	"signer.address",
	"notary.default_description",
	"notary.reject_duplicates",
	"notary.hash_algorithm",
	"notary.record_cache_ttl",
	"history.enabled",
	"history.db_path",
	"log.level",
	"log.env",
}

// DefaultConfigPath returns ~/.notary/config.yml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DefaultConfigDir, DefaultConfigFile)
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	cfg.Chain.RPCURL = DefaultRPCURL
	cfg.Chain.GasLimit = DefaultGasLimit
	cfg.Chain.GasAdjustment = DefaultGasAdjustment
	cfg.Chain.ConfirmTimeout = DefaultConfirmTimeout
	cfg.Chain.PollInterval = DefaultPollInterval
	cfg.Chain.MaxPollDelay = DefaultMaxPollDelay
	cfg.Chain.ReadyTimeout = DefaultReadyTimeout
	cfg.Chain.RequestTimeout = DefaultRequestTimeout
	cfg.Notary.DefaultDescription = DefaultDescription
	cfg.Notary.HashAlgorithm = DefaultHashAlgorithm
	cfg.Notary.RecordCacheTTL = DefaultRecordCacheTTL
	cfg.History.Enabled = true
	cfg.History.DBPath = DefaultHistoryDB
	cfg.Log.Level = DefaultLogLevel
	cfg.Log.Env = DefaultLogEnv
	return cfg
}

// LoadConfig loads the configuration from a file, applies NOTARY_* environment
// overrides and defaults, and validates the result.
func LoadConfig(filename string) (*Config, error) {
	ctx := context.Background()

	absPath, err := filepath.Abs(ExpandHome(filename))
	if err != nil {
		return nil, fmt.Errorf("error getting absolute path for config file: %w", err)
	}

	logtrace.Info(ctx, "Loading configuration", logtrace.Fields{
		"path": absPath,
	})

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s does not exist (run `notary init` to create one)", absPath)
	}

	v := viper.New()
	v.SetConfigFile(absPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", absPath, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.BaseDir = filepath.Dir(absPath)

	applyDefaults(ctx, v, &config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logtrace.Info(ctx, "Configuration loaded successfully", logtrace.Fields{})
	return &config, nil
}

func applyDefaults(ctx context.Context, v *viper.Viper, config *Config) {
	if config.Chain.RPCURL == "" {
		config.Chain.RPCURL = DefaultRPCURL
		logtrace.Info(ctx, "Using default RPC URL", logtrace.Fields{
			"rpc_url": config.Chain.RPCURL,
		})
	}

	// 0 is meaningful for these two, so only unset keys get the default.
	if !v.IsSet("chain.gas_limit") {
		config.Chain.GasLimit = DefaultGasLimit
		logtrace.Info(ctx, "Using default gas limit", logtrace.Fields{
			"gas_limit": config.Chain.GasLimit,
		})
	}
	if !v.IsSet("chain.confirm_timeout") {
		config.Chain.ConfirmTimeout = DefaultConfirmTimeout
		logtrace.Info(ctx, "Using default confirmation timeout", logtrace.Fields{
			"confirm_timeout": config.Chain.ConfirmTimeout.String(),
		})
	}

	if config.Chain.GasAdjustment <= 0 {
		config.Chain.GasAdjustment = DefaultGasAdjustment
	}
	if config.Chain.PollInterval <= 0 {
		config.Chain.PollInterval = DefaultPollInterval
	}
	if config.Chain.MaxPollDelay <= 0 {
		config.Chain.MaxPollDelay = DefaultMaxPollDelay
	}
	if config.Chain.ReadyTimeout <= 0 {
		config.Chain.ReadyTimeout = DefaultReadyTimeout
	}
	if config.Chain.RequestTimeout <= 0 {
		config.Chain.RequestTimeout = DefaultRequestTimeout
	}

	if strings.TrimSpace(config.Notary.DefaultDescription) == "" {
		config.Notary.DefaultDescription = DefaultDescription
		logtrace.Info(ctx, "Using default description", logtrace.Fields{
			"description": config.Notary.DefaultDescription,
		})
	}
	if config.Notary.HashAlgorithm == "" {
		config.Notary.HashAlgorithm = DefaultHashAlgorithm
		logtrace.Info(ctx, "Using default hash algorithm", logtrace.Fields{
			"algorithm": config.Notary.HashAlgorithm,
		})
	}
	if !v.IsSet("notary.record_cache_ttl") {
		config.Notary.RecordCacheTTL = DefaultRecordCacheTTL
	}

	if !v.IsSet("history.enabled") {
		config.History.Enabled = true
	}
	if config.History.DBPath == "" {
		config.History.DBPath = DefaultHistoryDB
		logtrace.Info(ctx, "Using default history database", logtrace.Fields{
			"db_path": config.History.DBPath,
		})
	}

	if config.Log.Level == "" {
		config.Log.Level = DefaultLogLevel
	}
	if config.Log.Env == "" {
		config.Log.Env = DefaultLogEnv
	}
}

// Validate checks that the configuration can drive a session.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Chain.RPCURL) == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if c.Chain.ChainID < 0 {
		return fmt.Errorf("chain.chain_id must not be negative")
	}
	if !common.IsHexAddress(c.Chain.ContractAddress) {
		return fmt.Errorf("chain.contract_address %q is not a valid hex address", c.Chain.ContractAddress)
	}
	if _, err := c.GasPrice(); err != nil {
		return err
	}
	if _, err := hasher.ParseAlgorithm(c.Notary.HashAlgorithm); err != nil {
		return fmt.Errorf("notary.hash_algorithm: %w", err)
	}

	key, err := c.PrivateKey()
	if err != nil {
		return err
	}
	if c.Signer.Address != "" {
		if !common.IsHexAddress(c.Signer.Address) {
			return fmt.Errorf("signer.address %q is not a valid hex address", c.Signer.Address)
		}
		derived := crypto.PubkeyToAddress(key.PublicKey)
		if common.HexToAddress(c.Signer.Address) != derived {
			return fmt.Errorf("signer.address %s does not match the private key (derived %s)", c.Signer.Address, derived.Hex())
		}
	}
	return nil
}

// PrivateKey parses the signer key from signer.private_key or, when that is
// empty, from the file named by signer.private_key_file.
func (c *Config) PrivateKey() (*ecdsa.PrivateKey, error) {
	raw := strings.TrimSpace(c.Signer.PrivateKey)
	if raw == "" && c.Signer.PrivateKeyFile != "" {
		data, err := os.ReadFile(c.ResolvePath(c.Signer.PrivateKeyFile))
		if err != nil {
			return nil, fmt.Errorf("read signer.private_key_file: %w", err)
		}
		raw = strings.TrimSpace(string(data))
	}
	if raw == "" {
		return nil, fmt.Errorf("signer.private_key or signer.private_key_file is required")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer private key: %w", err)
	}
	return key, nil
}

// ContractAddress returns the parsed contract address.
func (c *Config) ContractAddress() common.Address {
	return common.HexToAddress(c.Chain.ContractAddress)
}

// GasPrice returns the fixed gas price in wei, or nil when the node should be asked.
func (c *Config) GasPrice() (*big.Int, error) {
	s := strings.TrimSpace(c.Chain.GasPrice)
	if s == "" {
		return nil, nil
	}
	price, ok := new(big.Int).SetString(s, 10)
	if !ok || price.Sign() <= 0 {
		return nil, fmt.Errorf("chain.gas_price %q must be a positive integer in wei", c.Chain.GasPrice)
	}
	return price, nil
}

// ExpectedChainID returns the configured chain ID, or nil when unset.
func (c *Config) ExpectedChainID() *big.Int {
	if c.Chain.ChainID <= 0 {
		return nil
	}
	return big.NewInt(c.Chain.ChainID)
}

// ResolvePath resolves p against the config directory unless it is absolute.
func (c *Config) ResolvePath(p string) string {
	p = ExpandHome(p)
	if filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// HistoryPath returns the absolute history database path.
func (c *Config) HistoryPath() string {
	return c.ResolvePath(c.History.DBPath)
}

// SaveConfig writes cfg to path as YAML, creating the directory if needed.
func SaveConfig(cfg *Config, path string) error {
	path = ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
