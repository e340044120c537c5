package service

import (
	"context"
	"time"

	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/ethereum/go-ethereum/common"
)

// Stage is a state of the notarize or verify state machine.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageHashComputed Stage = "hash_computed"
	StageTxBuilt      Stage = "tx_built"
	StageTxSigned     Stage = "tx_signed"
	StageTxSubmitted  Stage = "tx_submitted"
	StageConfirmed    Stage = "confirmed"
	StageReverted     Stage = "reverted"
	StageQueried      Stage = "queried"
	StageFound        Stage = "found"
	StageNotFound     Stage = "not_found"
	StageFailed       Stage = "failed"
)

// Terminal reports whether no further transition follows s.
func (s Stage) Terminal() bool {
	switch s {
	case StageConfirmed, StageReverted, StageFound, StageNotFound, StageFailed:
		return true
	default:
		return false
	}
}

type Operation string

const (
	OperationNotarize Operation = "notarize"
	OperationVerify   Operation = "verify"
)

// Event reports a stage transition.
type Event struct {
	Operation     Operation
	Stage         Stage
	CorrelationID string
	Digest        hasher.Digest
	TxHash        common.Hash
	Timestamp     time.Time
	Err           error
}

// EventHandler receives events synchronously, in order.
type EventHandler func(ctx context.Context, e Event)
