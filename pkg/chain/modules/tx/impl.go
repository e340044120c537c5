package tx

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/LumeraProtocol/notary/pkg/logtrace"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const (
	DefaultGasLimit      uint64 = 300000
	DefaultGasAdjustment        = 1.3
	DefaultPollInterval         = time.Second
	DefaultMaxPollDelay         = 5 * time.Second
)

// Status is the execution outcome of a mined transaction.
type Status uint8

const (
	StatusReverted Status = iota
	StatusSuccess
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "reverted"
}

// Receipt is the confirmation data of a mined transaction.
type Receipt struct {
	TxHash            common.Hash
	BlockNumber       uint64
	BlockHash         common.Hash
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	Status            Status
}

func receiptFrom(r *types.Receipt) *Receipt {
	out := &Receipt{
		TxHash:            r.TxHash,
		BlockHash:         r.BlockHash,
		GasUsed:           r.GasUsed,
		EffectiveGasPrice: r.EffectiveGasPrice,
		Status:            StatusReverted,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	if r.Status == types.ReceiptStatusSuccessful {
		out.Status = StatusSuccess
	}
	return out
}

var errNotMined = errors.New("transaction not mined yet")

type module struct {
	backend Backend
	config  *TxConfig
	signer  types.Signer
	sender  common.Address
}

func newModule(backend Backend, config *TxConfig) (Module, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if config == nil {
		return nil, fmt.Errorf("tx config cannot be nil")
	}
	if config.PrivateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if config.ChainID == nil || config.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("chain ID must be positive")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.MaxPollDelay < config.PollInterval {
		config.MaxPollDelay = DefaultMaxPollDelay
		if config.MaxPollDelay < config.PollInterval {
			config.MaxPollDelay = config.PollInterval
		}
	}
	if config.GasAdjustment <= 0 {
		config.GasAdjustment = DefaultGasAdjustment
	}

	return &module{
		backend: backend,
		config:  config,
		signer:  types.LatestSignerForChainID(config.ChainID),
		sender:  crypto.PubkeyToAddress(config.PrivateKey.PublicKey),
	}, nil
}

func (m *module) Sender() common.Address {
	return m.sender
}

func (m *module) ChainID() *big.Int {
	return new(big.Int).Set(m.config.ChainID)
}

func (m *module) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	nonce, err := m.backend.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get pending nonce for %s", addr.Hex())
	}
	return nonce, nil
}

func (m *module) GasPrice(ctx context.Context) (*big.Int, error) {
	if m.config.GasPrice != nil && m.config.GasPrice.Sign() > 0 {
		return new(big.Int).Set(m.config.GasPrice), nil
	}
	price, err := m.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}
	return price, nil
}

func (m *module) EstimateGas(ctx context.Context, to common.Address, data []byte) (uint64, error) {
	gas, err := m.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: m.sender,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to estimate gas")
	}
	return gas, nil
}

func (m *module) Sign(req SignRequest) (*types.Transaction, error) {
	if req.GasPrice == nil {
		return nil, fmt.Errorf("gas price is required")
	}
	if req.GasLimit == 0 {
		return nil, fmt.Errorf("gas limit is required")
	}

	to := req.To
	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    req.Nonce,
		GasPrice: req.GasPrice,
		Gas:      req.GasLimit,
		To:       &to,
		Value:    new(big.Int),
		Data:     req.Data,
	})

	signed, err := types.SignTx(unsigned, m.signer, m.config.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}
	return signed, nil
}

func (m *module) Broadcast(ctx context.Context, signed *types.Transaction) error {
	if err := m.backend.SendTransaction(ctx, signed); err != nil {
		return errors.Wrapf(err, "failed to broadcast transaction %s", signed.Hash().Hex())
	}
	return nil
}

func (m *module) WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*Receipt, error) {
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.config.PollInterval
	b.MaxInterval = m.config.MaxPollDelay
	// Bounded by waitCtx only.
	b.MaxElapsedTime = 0

	var mined *types.Receipt
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		r, err := m.backend.TransactionReceipt(waitCtx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return errNotMined
			}
			return err
		}
		if r == nil {
			return errNotMined
		}
		mined = r
		return nil
	}, backoff.WithContext(b, waitCtx), func(err error, next time.Duration) {
		if errors.Is(err, errNotMined) {
			logtrace.Debug(ctx, "receipt not available yet", logtrace.Fields{
				logtrace.FieldModule:  "tx",
				logtrace.FieldTxHash:  hash.Hex(),
				logtrace.FieldAttempt: attempt,
				"next_poll":           next.String(),
			})
			return
		}
		logtrace.Warn(ctx, "receipt poll failed, retrying", logtrace.Fields{
			logtrace.FieldModule:  "tx",
			logtrace.FieldTxHash:  hash.Hex(),
			logtrace.FieldAttempt: attempt,
			logtrace.FieldError:   err.Error(),
		})
	})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, fmt.Errorf("%w: waiting for %s: %w", ErrConfirmation, hash.Hex(), ctx.Err())
		case waitCtx.Err() != nil:
			return nil, fmt.Errorf("%w after %s (tx %s)", ErrConfirmationTimeout, timeout, hash.Hex())
		default:
			return nil, fmt.Errorf("%w: waiting for %s: %w", ErrConfirmation, hash.Hex(), err)
		}
	}

	receipt := receiptFrom(mined)
	if receipt.Status != StatusSuccess {
		return receipt, &RevertError{Receipt: receipt}
	}
	return receipt, nil
}

func (m *module) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := m.backend.CallContract(ctx, ethereum.CallMsg{
		From: m.sender,
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: eth_call %s: %w", ErrRPC, to.Hex(), err)
	}
	return out, nil
}
