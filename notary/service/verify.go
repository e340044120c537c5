package service

import (
	"context"

	"github.com/LumeraProtocol/notary/pkg/chain/modules/notary"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
)

// VerifyResult is the terminal outcome of a verify operation.
type VerifyResult struct {
	CorrelationID string
	Stage         Stage
	Digest        hasher.Digest
	// Record is only meaningful when Stage is StageFound.
	Record notary.Record
	Err    error
}

// Found reports whether the digest is notarized.
func (r VerifyResult) Found() bool {
	return r.Stage == StageFound
}

// Verify hashes content and looks the digest up on-chain. It has no side effects.
func (s *Service) Verify(ctx context.Context, content []byte) VerifyResult {
	ctx = withCorrelation(ctx)
	if len(content) == 0 {
		return s.failVerify(ctx, VerifyResult{}, ErrEmptyContent)
	}
	return s.verifyDigest(ctx, s.hasher.Sum(content))
}

// VerifyFile hashes the file at path and looks the digest up on-chain.
func (s *Service) VerifyFile(ctx context.Context, path string) VerifyResult {
	ctx = withCorrelation(ctx)
	digest, err := s.hashFile(path)
	if err != nil {
		return s.failVerify(ctx, VerifyResult{}, err)
	}
	return s.verifyDigest(ctx, digest)
}

// VerifyDigest looks up a precomputed digest.
func (s *Service) VerifyDigest(ctx context.Context, digest hasher.Digest) VerifyResult {
	return s.verifyDigest(withCorrelation(ctx), digest)
}

func (s *Service) verifyDigest(ctx context.Context, digest hasher.Digest) VerifyResult {
	res := VerifyResult{
		CorrelationID: logtrace.CorrelationIDFromContext(ctx),
		Stage:         StageHashComputed,
		Digest:        digest,
	}
	s.emit(ctx, Event{Operation: OperationVerify, Stage: StageHashComputed, Digest: digest})

	rec, err := s.chain.ReadVerify(ctx, digest)
	if err != nil {
		return s.failVerify(ctx, res, err)
	}
	res.Stage = StageQueried
	s.emit(ctx, Event{Operation: OperationVerify, Stage: StageQueried, Digest: digest})

	fields := logtrace.Fields{
		logtrace.FieldMethod:       "Verify",
		logtrace.FieldModule:       "service",
		logtrace.FieldHashHex:      digest.Hex(),
		logtrace.FieldRecordExists: rec.Exists,
	}

	if !rec.Exists {
		res.Stage = StageNotFound
		s.emit(ctx, Event{Operation: OperationVerify, Stage: StageNotFound, Digest: digest})
		logtrace.Info(ctx, "document not found", fields)
		return res
	}

	res.Record = rec
	res.Stage = StageFound
	s.emit(ctx, Event{Operation: OperationVerify, Stage: StageFound, Digest: digest})
	logtrace.Info(ctx, "document found", logtrace.WithFields(fields, logtrace.Fields{
		logtrace.FieldSender: rec.Owner.Hex(),
	}))
	return res
}

func (s *Service) failVerify(ctx context.Context, res VerifyResult, err error) VerifyResult {
	res.CorrelationID = logtrace.CorrelationIDFromContext(ctx)
	if res.Stage == "" {
		res.Stage = StageIdle
	}
	logtrace.Error(ctx, "verification failed", logtrace.Fields{
		logtrace.FieldMethod: "Verify",
		logtrace.FieldModule: "service",
		logtrace.FieldStage:  string(res.Stage),
		logtrace.FieldStatus: string(KindOf(err)),
		logtrace.FieldError:  err.Error(),
	})
	res.Stage = StageFailed
	res.Err = err
	s.emit(ctx, Event{Operation: OperationVerify, Stage: StageFailed, Digest: res.Digest, Err: err})
	return res
}
