package service

import (
	"errors"

	"github.com/LumeraProtocol/notary/pkg/chain"
	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/LumeraProtocol/notary/pkg/inflight"
)

var (
	// ErrEmptyContent rejects empty documents before any hashing or RPC.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrReadContent marks a document that could not be read from disk.
	ErrReadContent = errors.New("cannot read content")
	// ErrDuplicate is returned when duplicate rejection is enabled and the
	// digest is already on-chain.
	ErrDuplicate = errors.New("document already notarized")
	// ErrInProgress is returned while the same digest is still being
	// notarized by this process.
	ErrInProgress = inflight.ErrInFlight

	ErrConnectivity        = chain.ErrConnectivity
	ErrSubmission          = tx.ErrSubmission
	ErrConfirmation        = tx.ErrConfirmation
	ErrConfirmationTimeout = tx.ErrConfirmationTimeout
	ErrReverted            = tx.ErrReverted
	ErrRPC                 = tx.ErrRPC
)

// Kind classifies an operation error for presentation.
type Kind string

const (
	KindNone         Kind = ""
	KindValidation   Kind = "validation"
	KindConnectivity Kind = "connectivity"
	KindSubmission   Kind = "submission"
	KindConfirmation Kind = "confirmation"
	KindRPC          Kind = "rpc"
	KindUnknown      Kind = "unknown"
)

// KindOf maps err onto the error taxonomy.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrReadContent), errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrInProgress):
		return KindValidation
	case errors.Is(err, ErrConnectivity):
		return KindConnectivity
	case errors.Is(err, ErrSubmission):
		return KindSubmission
	case errors.Is(err, ErrConfirmation):
		return KindConfirmation
	case errors.Is(err, ErrRPC):
		return KindRPC
	default:
		return KindUnknown
	}
}
