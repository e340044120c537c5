package tx

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the subset of the node RPC surface used by the client.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Module exposes the transaction primitives of a single signer.
type Module interface {
	// Sender returns the signer address.
	Sender() common.Address
	// ChainID returns the chain ID used for EIP-155 signing.
	ChainID() *big.Int
	// PendingNonce returns the pending transaction count of addr.
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)
	// GasPrice returns the configured gas price or the node's current suggestion.
	GasPrice(ctx context.Context) (*big.Int, error)
	// EstimateGas estimates the gas needed to call `to` with data from the signer.
	EstimateGas(ctx context.Context, to common.Address, data []byte) (uint64, error)
	// Sign builds and signs a legacy transaction.
	Sign(req SignRequest) (*types.Transaction, error)
	// Broadcast sends a signed transaction.
	Broadcast(ctx context.Context, signed *types.Transaction) error
	// WaitForReceipt blocks until the transaction is mined, the timeout elapses
	// (timeout <= 0 disables it) or ctx is cancelled.
	WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*Receipt, error)
	// Call performs a read-only contract call from the signer.
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// SignRequest describes a transaction to sign.
type SignRequest struct {
	Nonce    uint64
	To       common.Address
	GasLimit uint64
	GasPrice *big.Int
	Data     []byte
}

// TxConfig holds the signer and gas settings shared by the module and the helper.
type TxConfig struct {
	PrivateKey    *ecdsa.PrivateKey
	ChainID       *big.Int
	GasLimit      uint64
	GasPrice      *big.Int
	GasAdjustment float64
	GasPadding    uint64
	PollInterval  time.Duration
	MaxPollDelay  time.Duration
}

// NewModule creates a new tx module bound to backend.
func NewModule(backend Backend, config *TxConfig) (Module, error) {
	return newModule(backend, config)
}
