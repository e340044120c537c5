package service

import (
	"context"
	"os"

	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/history"
	"github.com/LumeraProtocol/notary/pkg/inflight"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// NotarizeResult is the terminal outcome of a notarize operation.
type NotarizeResult struct {
	CorrelationID string
	Stage         Stage
	Digest        hasher.Digest
	Description   string
	TxHash        common.Hash
	// Receipt is set for Confirmed and Reverted.
	Receipt *tx.Receipt
	Err     error
}

// OK reports whether the document was notarized.
func (r NotarizeResult) OK() bool {
	return r.Stage == StageConfirmed && r.Err == nil
}

// Notarize hashes content and registers the digest on-chain.
func (s *Service) Notarize(ctx context.Context, content []byte, description string) NotarizeResult {
	ctx = withCorrelation(ctx)
	if len(content) == 0 {
		return s.failNotarize(ctx, NotarizeResult{}, ErrEmptyContent)
	}
	return s.notarizeDigest(ctx, s.hasher.Sum(content), description)
}

// NotarizeFile hashes the file at path and registers the digest on-chain.
func (s *Service) NotarizeFile(ctx context.Context, path, description string) NotarizeResult {
	ctx = withCorrelation(ctx)
	digest, err := s.hashFile(path)
	if err != nil {
		return s.failNotarize(ctx, NotarizeResult{}, err)
	}
	return s.notarizeDigest(ctx, digest, description)
}

func (s *Service) notarizeDigest(ctx context.Context, digest hasher.Digest, description string) NotarizeResult {
	res := NotarizeResult{
		CorrelationID: logtrace.CorrelationIDFromContext(ctx),
		Stage:         StageHashComputed,
		Digest:        digest,
		Description:   s.normalizeDescription(description),
	}
	s.emit(ctx, Event{Operation: OperationNotarize, Stage: StageHashComputed, Digest: digest})

	fields := logtrace.Fields{
		logtrace.FieldMethod:      "Notarize",
		logtrace.FieldModule:      "service",
		logtrace.FieldHashHex:     digest.Hex(),
		logtrace.FieldAlgorithm:   string(s.opts.Algorithm),
		logtrace.FieldDescription: res.Description,
	}
	logtrace.Info(ctx, "notarize requested", fields)

	guard, err := inflight.Acquire(ctx, s.inflight, string(OperationNotarize), digest.Hex(), 2*s.opts.ConfirmTimeout)
	if err != nil {
		return s.failNotarize(ctx, res, errors.Wrapf(ErrInProgress, "digest %s", digest.Hex()))
	}
	defer guard.Release(ctx)

	if s.opts.RejectDuplicates {
		exists, err := s.chain.DocumentExists(ctx, digest)
		if err != nil {
			return s.failNotarize(ctx, res, errors.Wrap(err, "duplicate check"))
		}
		if exists {
			return s.failNotarize(ctx, res, errors.Wrapf(ErrDuplicate, "digest %s", digest.Hex()))
		}
	}

	hook := func(phase tx.Phase, hash common.Hash) {
		var stage Stage
		switch phase {
		case tx.PhaseBuilt:
			stage = StageTxBuilt
		case tx.PhaseSigned:
			stage = StageTxSigned
		default:
			return
		}
		res.Stage = stage
		s.emit(ctx, Event{Operation: OperationNotarize, Stage: stage, Digest: digest, TxHash: hash})
	}

	hash, err := s.chain.SubmitNotarize(ctx, digest, res.Description, hook)
	if err != nil {
		return s.failNotarize(ctx, res, err)
	}
	res.TxHash = hash
	res.Stage = StageTxSubmitted
	s.emit(ctx, Event{Operation: OperationNotarize, Stage: StageTxSubmitted, Digest: digest, TxHash: hash})
	logtrace.Info(ctx, "notarization submitted", logtrace.WithFields(fields, logtrace.Fields{
		logtrace.FieldTxHash: hash.Hex(),
	}))

	receipt, err := s.chain.AwaitReceipt(ctx, hash, s.opts.ConfirmTimeout)
	if err != nil {
		var revert *tx.RevertError
		if errors.As(err, &revert) {
			res.Receipt = revert.Receipt
			if res.Receipt == nil {
				res.Receipt = receipt
			}
			res.Stage = StageReverted
			res.Err = err
			s.emit(ctx, Event{Operation: OperationNotarize, Stage: StageReverted, Digest: digest, TxHash: hash, Err: err})
			logtrace.Warn(ctx, "notarization reverted", logtrace.WithFields(fields, logtrace.Fields{
				logtrace.FieldTxHash: hash.Hex(),
				logtrace.FieldError:  err.Error(),
			}))
			s.record(ctx, res)
			return res
		}
		return s.failNotarize(ctx, res, err)
	}

	res.Receipt = receipt
	res.Stage = StageConfirmed
	s.emit(ctx, Event{Operation: OperationNotarize, Stage: StageConfirmed, Digest: digest, TxHash: hash})
	logtrace.Info(ctx, "notarization confirmed", logtrace.WithFields(fields, logtrace.Fields{
		logtrace.FieldTxHash:      hash.Hex(),
		logtrace.FieldBlockNumber: receipt.BlockNumber,
		logtrace.FieldGasUsed:     receipt.GasUsed,
	}))
	s.record(ctx, res)
	return res
}

func (s *Service) failNotarize(ctx context.Context, res NotarizeResult, err error) NotarizeResult {
	res.CorrelationID = logtrace.CorrelationIDFromContext(ctx)
	if res.Stage == "" {
		res.Stage = StageIdle
	}
	logtrace.Error(ctx, "notarization failed", logtrace.Fields{
		logtrace.FieldMethod: "Notarize",
		logtrace.FieldModule: "service",
		logtrace.FieldStage:  string(res.Stage),
		logtrace.FieldStatus: string(KindOf(err)),
		logtrace.FieldError:  err.Error(),
	})

	hashed := res.Stage != StageIdle
	res.Stage = StageFailed
	res.Err = err
	s.emit(ctx, Event{Operation: OperationNotarize, Stage: StageFailed, Digest: res.Digest, TxHash: res.TxHash, Err: err})
	if hashed {
		s.record(ctx, res)
	}
	return res
}

// record hands the outcome to the history recorder. Failures are logged only.
func (s *Service) record(ctx context.Context, res NotarizeResult) {
	if s.recorder == nil {
		return
	}

	entry := history.Entry{
		CorrelationID: res.CorrelationID,
		Digest:        res.Digest.Hex(),
		Algorithm:     string(s.opts.Algorithm),
		Description:   res.Description,
		Sender:        s.chain.Sender().Hex(),
		Contract:      s.chain.Contract().Hex(),
		CreatedAtUnix: s.now().Unix(),
	}
	if res.TxHash != (common.Hash{}) {
		entry.TxHash = res.TxHash.Hex()
	}
	if res.Receipt != nil {
		entry.BlockNumber = res.Receipt.BlockNumber
		entry.GasUsed = res.Receipt.GasUsed
	}
	switch res.Stage {
	case StageConfirmed:
		entry.Status = history.StatusConfirmed
	case StageReverted:
		entry.Status = history.StatusReverted
		entry.LastError = res.Err.Error()
	default:
		entry.Status = history.StatusFailed
		if res.Err != nil {
			entry.LastError = res.Err.Error()
		}
	}

	if err := s.recorder.Record(ctx, entry); err != nil {
		logtrace.Warn(ctx, "failed to record notarization history", logtrace.Fields{
			logtrace.FieldHashHex: entry.Digest,
			logtrace.FieldError:   err.Error(),
		})
	}
}

func (s *Service) hashFile(path string) (hasher.Digest, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return hasher.Digest{}, errors.Wrapf(ErrReadContent, "%s: %v", path, err)
	}
	if fi.IsDir() {
		return hasher.Digest{}, errors.Wrapf(ErrReadContent, "%s is a directory", path)
	}
	if fi.Size() == 0 {
		return hasher.Digest{}, errors.Wrapf(ErrEmptyContent, "%s", path)
	}
	digest, err := s.hasher.SumFile(path)
	if err != nil {
		return hasher.Digest{}, errors.Wrapf(ErrReadContent, "%s: %v", path, err)
	}
	return digest, nil
}
