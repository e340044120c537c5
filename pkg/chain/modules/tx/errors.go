package tx

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmission marks failures while building, signing or broadcasting a transaction.
	ErrSubmission = errors.New("transaction submission failed")
	// ErrConfirmation marks failures while waiting for a receipt, including reverts.
	ErrConfirmation = errors.New("transaction confirmation failed")
	// ErrConfirmationTimeout is returned when no receipt arrives before the timeout.
	ErrConfirmationTimeout = fmt.Errorf("%w: timed out waiting for receipt", ErrConfirmation)
	// ErrReverted is returned when the transaction was mined with a failed status.
	ErrReverted = fmt.Errorf("%w: transaction reverted", ErrConfirmation)
	// ErrRPC marks failed read-only calls.
	ErrRPC = errors.New("rpc call failed")
)

// RevertError carries the receipt of a reverted transaction.
type RevertError struct {
	Receipt *Receipt
}

func (e *RevertError) Error() string {
	if e.Receipt == nil {
		return ErrReverted.Error()
	}
	return fmt.Sprintf("%s (tx %s, block %d, gas used %d)",
		ErrReverted.Error(), e.Receipt.TxHash.Hex(), e.Receipt.BlockNumber, e.Receipt.GasUsed)
}

func (e *RevertError) Unwrap() error {
	return ErrReverted
}

func submissionError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSubmission, step, err)
}
