package tx

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/LumeraProtocol/notary/pkg/logtrace"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Phase identifies a step of the submission pipeline reported to a PhaseFunc.
type Phase int

const (
	PhaseBuilt Phase = iota + 1
	PhaseSigned
	PhaseBroadcast
)

func (p Phase) String() string {
	switch p {
	case PhaseBuilt:
		return "built"
	case PhaseSigned:
		return "signed"
	case PhaseBroadcast:
		return "broadcast"
	default:
		return "unknown"
	}
}

// PhaseFunc observes submission progress. It is called synchronously.
type PhaseFunc func(phase Phase, hash common.Hash)

type execOptions struct {
	hook     PhaseFunc
	gasLimit uint64
}

// ExecOption customises a single ExecuteTransaction call.
type ExecOption func(*execOptions)

// WithPhaseHook reports each completed submission phase to fn.
func WithPhaseHook(fn PhaseFunc) ExecOption {
	return func(o *execOptions) { o.hook = fn }
}

// WithGasLimit overrides the configured gas limit for one call.
func WithGasLimit(limit uint64) ExecOption {
	return func(o *execOptions) { o.gasLimit = limit }
}

// TxHelper serialises submissions from one signer and tracks its nonce
// locally so that back-to-back transactions do not wait on the node's
// pending pool.
type TxHelper struct {
	txmod  Module
	config *TxConfig

	mu sync.Mutex

	nextNonce uint64
	nonceInit bool
}

// NewTxHelper creates a new transaction helper on top of txmod.
func NewTxHelper(txmod Module, config *TxConfig) *TxHelper {
	return &TxHelper{
		txmod:  txmod,
		config: config,
	}
}

// Sender returns the signer address.
func (h *TxHelper) Sender() common.Address {
	return h.txmod.Sender()
}

// ExecuteTransaction builds, signs and broadcasts a call to `to` carrying
// data. It returns the transaction hash once the node has accepted it; it
// does not wait for the receipt.
func (h *TxHelper) ExecuteTransaction(ctx context.Context, to common.Address, data []byte, opts ...ExecOption) (common.Hash, error) {
	o := execOptions{gasLimit: h.config.GasLimit}
	for _, opt := range opts {
		opt(&o)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sender := h.txmod.Sender()

	if err := h.syncNonce(ctx, sender); err != nil {
		return common.Hash{}, submissionError("nonce", err)
	}

	gasPrice, err := h.txmod.GasPrice(ctx)
	if err != nil {
		return common.Hash{}, submissionError("gas price", err)
	}

	gasLimit := o.gasLimit
	if gasLimit == 0 {
		estimated, err := h.txmod.EstimateGas(ctx, to, data)
		if err != nil {
			return common.Hash{}, submissionError("gas estimate", err)
		}
		gasLimit = adjustGas(estimated, h.config.GasAdjustment, h.config.GasPadding)
	}

	const maxAttempts = 2

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req := SignRequest{
			Nonce:    h.nextNonce,
			To:       to,
			GasLimit: gasLimit,
			GasPrice: gasPrice,
			Data:     data,
		}
		notify(o.hook, PhaseBuilt, common.Hash{})

		signed, err := h.txmod.Sign(req)
		if err != nil {
			return common.Hash{}, submissionError("sign", err)
		}
		notify(o.hook, PhaseSigned, signed.Hash())

		err = h.txmod.Broadcast(ctx, signed)
		if err == nil || isAlreadyKnown(err) {
			h.nextNonce++
			notify(o.hook, PhaseBroadcast, signed.Hash())
			logTx(ctx, signed, sender)
			return signed.Hash(), nil
		}

		if !isNonceMismatch(err) {
			return common.Hash{}, submissionError("broadcast", err)
		}
		if attempt == maxAttempts {
			return common.Hash{}, submissionError("broadcast", fmt.Errorf("nonce mismatch after retry: %w", err))
		}

		logtrace.Warn(ctx, "nonce mismatch, resyncing", logtrace.Fields{
			logtrace.FieldModule: "tx",
			logtrace.FieldSender: sender.Hex(),
			logtrace.FieldNonce:  req.Nonce,
			logtrace.FieldError:  err.Error(),
		})

		tooHigh := isNonceTooHigh(err)
		if expected, ok := parseExpectedNonce(err); ok && (expected > h.nextNonce || tooHigh) {
			// A nonce that is too high means the node dropped transactions we
			// counted; fall back to the account state it reports.
			h.nextNonce = expected
			continue
		}

		// Fallback: resync from the pending pool.
		h.nonceInit = false
		if err := h.syncNonce(ctx, sender); err != nil {
			return common.Hash{}, submissionError("nonce resync", err)
		}
		if !tooHigh && h.nextNonce == req.Nonce {
			// The pool already holds this nonce; move past it.
			h.nextNonce++
		}
	}

	return common.Hash{}, fmt.Errorf("unreachable state in ExecuteTransaction")
}

// syncNonce keeps the local nonce at or above the node's pending nonce.
// A local nonce left ahead of the node is corrected when the broadcast is
// rejected as too high.
func (h *TxHelper) syncNonce(ctx context.Context, sender common.Address) error {
	pending, err := h.txmod.PendingNonce(ctx, sender)
	if err != nil {
		if h.nonceInit {
			return nil
		}
		return err
	}
	if !h.nonceInit || pending > h.nextNonce {
		h.nextNonce = pending
	}
	h.nonceInit = true
	return nil
}

// Reset drops the locally tracked nonce so the next call re-reads it.
func (h *TxHelper) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nonceInit = false
	h.nextNonce = 0
}

// GetConfig returns the current transaction configuration
func (h *TxHelper) GetConfig() *TxConfig {
	return h.config
}

func notify(fn PhaseFunc, phase Phase, hash common.Hash) {
	if fn != nil {
		fn(phase, hash)
	}
}

func logTx(ctx context.Context, signed *types.Transaction, sender common.Address) {
	logtrace.Info(ctx, "transaction broadcast", logtrace.Fields{
		logtrace.FieldModule:   "tx",
		logtrace.FieldTxHash:   signed.Hash().Hex(),
		logtrace.FieldSender:   sender.Hex(),
		logtrace.FieldNonce:    signed.Nonce(),
		logtrace.FieldGasLimit: signed.Gas(),
		logtrace.FieldGasPrice: signed.GasPrice().String(),
	})
}

func adjustGas(estimated uint64, adjustment float64, padding uint64) uint64 {
	if adjustment <= 0 {
		adjustment = DefaultGasAdjustment
	}
	scaled := math.Ceil(float64(estimated) * adjustment)
	if scaled >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(scaled) + padding
}

func isNonceMismatch(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "invalid nonce") ||
		strings.Contains(msg, "replacement transaction underpriced") ||
		isNonceTooHigh(err)
}

func isNonceTooHigh(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "nonce too high") ||
		strings.Contains(msg, "nonce gap")
}

// isAlreadyKnown reports that the node already holds this exact signed
// transaction, so the broadcast has in effect succeeded.
func isAlreadyKnown(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already known")
}

// parseExpectedNonce extracts the account nonce from node errors of the form
// "nonce too low: address 0x..., tx: 5 state: 7".
func parseExpectedNonce(err error) (uint64, bool) {
	if err == nil {
		return 0, false
	}

	msg := strings.ToLower(err.Error())
	idx := strings.Index(msg, "state: ")
	if idx == -1 {
		return 0, false
	}

	var expected uint64
	if _, scanErr := fmt.Sscanf(msg[idx:], "state: %d", &expected); scanErr == nil {
		return expected, true
	}

	return 0, false
}
