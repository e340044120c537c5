// Package chaintest provides an in-memory chain that executes the notary
// contract, for tests that need signing and ABI encoding end to end without
// a node.
package chaintest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/LumeraProtocol/notary/pkg/chain/modules/notary"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// DefaultContract is the address the backend executes the notary contract at.
var DefaultContract = common.HexToAddress("0xd9145CCE52D386f254917e481eB44e9943F39138")

const (
	DefaultChainID  = 1337
	notarizeGasUsed = 45000
)

type record struct {
	timestamp   time.Time
	owner       common.Address
	description string
}

// Backend is a small test double for tx.Backend. Transactions are mined
// into their own block as soon as they are sent unless HoldReceipts is set.
type Backend struct {
	mu sync.Mutex

	Contract common.Address
	GasPrice *big.Int
	Now      func() time.Time

	// HoldReceipts keeps transactions pending forever.
	HoldReceipts bool
	// RevertOnDuplicate makes notarizeDocument revert for known digests.
	RevertOnDuplicate bool
	// RevertAll makes every transaction revert.
	RevertAll bool

	ChainIDErr  error
	BlockErr    error
	SendErr     error
	CallErr     error
	ReceiptErr  error
	EstimateErr error
	NonceErr    error
	GasPriceErr error

	// NonceTooLowOnce rejects the next transaction as if its nonce was taken.
	NonceTooLowOnce bool

	chainID  *big.Int
	block    uint64
	nonces   map[common.Address]uint64
	records  map[[32]byte]record
	receipts map[common.Hash]*types.Receipt
	sent     []*types.Transaction
	calls    map[string]int
}

// New returns an empty chain with DefaultChainID.
func New() *Backend {
	return NewWithChainID(big.NewInt(DefaultChainID))
}

// NewWithChainID returns an empty chain reporting id.
func NewWithChainID(id *big.Int) *Backend {
	return &Backend{
		Contract: DefaultContract,
		GasPrice: big.NewInt(1_000_000_000),
		Now:      time.Now,
		chainID:  new(big.Int).Set(id),
		nonces:   make(map[common.Address]uint64),
		records:  make(map[[32]byte]record),
		receipts: make(map[common.Hash]*types.Receipt),
		calls:    make(map[string]int),
	}
}

// NewKey generates a fresh signer key.
func NewKey() *ecdsa.PrivateKey {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return key
}

// Calls returns how many times method was invoked.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// TotalCalls returns the number of RPC invocations of any kind.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Sent returns the transactions accepted so far.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// SetNonce forces the account nonce of addr.
func (b *Backend) SetNonce(addr common.Address, nonce uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nonces[addr] = nonce
}

// MineHeld releases receipts for held transactions.
func (b *Backend) MineHeld() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.HoldReceipts = false
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_chainId"]++
	if b.ChainIDErr != nil {
		return nil, b.ChainIDErr
	}
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BlockNumber(ctx context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_blockNumber"]++
	if b.BlockErr != nil {
		return 0, b.BlockErr
	}
	return b.block, nil
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_getTransactionCount"]++
	if b.NonceErr != nil {
		return 0, b.NonceErr
	}
	return b.nonces[account], nil
}

func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_gasPrice"]++
	if b.GasPriceErr != nil {
		return nil, b.GasPriceErr
	}
	return new(big.Int).Set(b.GasPrice), nil
}

func (b *Backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_estimateGas"]++
	if b.EstimateErr != nil {
		return 0, b.EstimateErr
	}
	return notarizeGasUsed + 5000, nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_sendRawTransaction"]++
	if b.SendErr != nil {
		return b.SendErr
	}

	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}

	expected := b.nonces[from]
	if b.NonceTooLowOnce {
		b.NonceTooLowOnce = false
		b.nonces[from] = expected + 1
		return fmt.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected+1)
	}
	if tx.Nonce() < expected {
		return fmt.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected)
	}
	if tx.Nonce() > expected {
		return fmt.Errorf("nonce too high: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected)
	}
	if tx.To() == nil || *tx.To() != b.Contract {
		return fmt.Errorf("no contract at %v", tx.To())
	}

	status := types.ReceiptStatusSuccessful
	if b.RevertAll || b.execute(from, tx.Data()) != nil {
		status = types.ReceiptStatusFailed
	}

	b.nonces[from] = expected + 1
	b.block++
	b.sent = append(b.sent, tx)
	b.receipts[tx.Hash()] = &types.Receipt{
		Status:            status,
		TxHash:            tx.Hash(),
		GasUsed:           notarizeGasUsed,
		EffectiveGasPrice: tx.GasPrice(),
		BlockNumber:       new(big.Int).SetUint64(b.block),
		BlockHash:         common.BigToHash(new(big.Int).SetUint64(b.block)),
	}
	return nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_getTransactionReceipt"]++
	if b.ReceiptErr != nil {
		return nil, b.ReceiptErr
	}
	r, ok := b.receipts[txHash]
	if !ok || b.HoldReceipts {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["eth_call"]++
	if b.CallErr != nil {
		return nil, b.CallErr
	}
	if msg.To == nil || *msg.To != b.Contract {
		return nil, nil
	}

	contract, err := notary.ABI()
	if err != nil {
		return nil, err
	}
	if len(msg.Data) < 4 {
		return nil, errors.New("execution reverted")
	}
	method, err := contract.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	digest := args[0].([32]byte)
	rec, ok := b.records[digest]

	switch method.Name {
	case notary.MethodVerify:
		if !ok {
			return method.Outputs.Pack(false, new(big.Int), common.Address{}, "")
		}
		return method.Outputs.Pack(true, big.NewInt(rec.timestamp.Unix()), rec.owner, rec.description)
	case notary.MethodExists:
		return method.Outputs.Pack(ok)
	default:
		return nil, errors.New("execution reverted")
	}
}

// Close is a no-op.
func (b *Backend) Close() {}

// execute applies a state-changing contract call. Callers hold b.mu.
func (b *Backend) execute(from common.Address, data []byte) error {
	contract, err := notary.ABI()
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return errors.New("no method selector")
	}
	method, err := contract.MethodById(data[:4])
	if err != nil {
		return err
	}
	if method.Name != notary.MethodNotarize {
		return fmt.Errorf("%s is not a transaction", method.Name)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return err
	}
	digest := args[0].([32]byte)
	description := args[1].(string)

	if _, ok := b.records[digest]; ok {
		if b.RevertOnDuplicate {
			return errors.New("document already notarized")
		}
	}
	b.records[digest] = record{
		timestamp:   b.Now(),
		owner:       from,
		description: description,
	}
	return nil
}
