// Package chain connects to an Ethereum-compatible node and exposes the
// transaction and notary contract modules bound to one signer.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/LumeraProtocol/notary/pkg/chain/modules/notary"
	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/ethereum/go-ethereum/common"
)

// Client defines the main interface for interacting with the notary chain
type Client interface {
	Tx() tx.Module
	Notary() notary.Module
	ChainID() *big.Int
	Sender() common.Address
	Endpoint() string

	Close() error
}

// NewClient dials the node, runs the liveness preflight and wires the modules.
// It fails with ErrConnectivity when the node does not answer.
func NewClient(ctx context.Context, opts ...Option) (Client, error) {
	return newClient(ctx, opts...)
}

type chainClient struct {
	cfg       *Config
	endpoint  string
	chainID   *big.Int
	backend   tx.Backend
	txMod     tx.Module
	notaryMod notary.Module
}

func newClient(ctx context.Context, opts ...Option) (Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.PrivateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if cfg.Contract == (common.Address{}) {
		return nil, fmt.Errorf("contract address cannot be empty")
	}

	endpoint, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectivity, err)
	}

	backend := cfg.backend
	if backend == nil {
		ec, err := dial(ctx, endpoint, cfg.RequestTimeout)
		if err != nil {
			return nil, err
		}
		backend = ec
	}

	c := &chainClient{cfg: cfg, endpoint: endpoint, backend: backend}

	chainID, err := preflight(ctx, backend, endpoint, cfg.ExpectedChainID, cfg.ReadyTimeout)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.chainID = chainID

	txCfg := &tx.TxConfig{
		PrivateKey:    cfg.PrivateKey,
		ChainID:       chainID,
		GasLimit:      cfg.GasLimit,
		GasPrice:      cfg.GasPrice,
		GasAdjustment: cfg.GasAdjustment,
		GasPadding:    cfg.GasPadding,
		PollInterval:  cfg.PollInterval,
		MaxPollDelay:  cfg.MaxPollDelay,
	}
	txModule, err := tx.NewModule(backend, txCfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	notaryModule, err := notary.NewModule(cfg.Contract, txModule, tx.NewTxHelper(txModule, txCfg))
	if err != nil {
		c.Close()
		return nil, err
	}
	if cfg.RecordCacheTTL > 0 {
		notaryModule = newCachedNotary(notaryModule, cfg.RecordCacheTTL)
	}

	c.txMod = txModule
	c.notaryMod = notaryModule
	return c, nil
}

func (c *chainClient) Tx() tx.Module {
	return c.txMod
}

func (c *chainClient) Notary() notary.Module {
	return c.notaryMod
}

func (c *chainClient) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *chainClient) Sender() common.Address {
	return c.txMod.Sender()
}

func (c *chainClient) Endpoint() string {
	return c.endpoint
}

func (c *chainClient) Close() error {
	if cn, ok := c.notaryMod.(*cachedNotary); ok {
		cn.close()
	}
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
	return nil
}
