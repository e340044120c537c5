// Package service orchestrates notarize and verify operations as explicit
// state machines and returns structured results; presentation lives elsewhere.
package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/LumeraProtocol/notary/notary/adaptors"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/inflight"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultDescription is recorded when a notarization is submitted without one.
const DefaultDescription = "No description"

// Options tunes the service behavior.
type Options struct {
	// DefaultDescription replaces a blank description.
	DefaultDescription string
	// RejectDuplicates checks documentExists before submitting.
	RejectDuplicates bool
	// ConfirmTimeout bounds the receipt wait. Zero waits until ctx is done.
	ConfirmTimeout time.Duration
	Algorithm      hasher.Algorithm
}

// Option configures optional collaborators.
type Option func(*Service)

// WithRecorder stores every notarize outcome in r.
func WithRecorder(r adaptors.HistoryRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithEventHandler subscribes h to stage events.
func WithEventHandler(h EventHandler) Option {
	return func(s *Service) { s.Subscribe(h) }
}

// Service notarizes and verifies documents. It is safe for concurrent use;
// the CLI and shell drive it one operation at a time, so the per-digest
// in-flight guard only trips for library callers running notarizations in
// parallel.
type Service struct {
	opts     Options
	chain    adaptors.ChainClient
	hasher   *hasher.Hasher
	recorder adaptors.HistoryRecorder
	inflight *inflight.Tracker

	mu       sync.RWMutex
	handlers []EventHandler

	now func() time.Time
}

// New returns a Service bound to chain.
func New(chain adaptors.ChainClient, opts Options, svcOpts ...Option) (*Service, error) {
	if chain == nil {
		return nil, errors.New("chain client cannot be nil")
	}
	h, err := hasher.New(opts.Algorithm)
	if err != nil {
		return nil, errors.Wrap(err, "invalid hash algorithm")
	}
	if strings.TrimSpace(opts.DefaultDescription) == "" {
		opts.DefaultDescription = DefaultDescription
	}
	opts.Algorithm = h.Algorithm()

	s := &Service{
		opts:     opts,
		chain:    chain,
		hasher:   h,
		inflight: inflight.New(),
		now:      time.Now,
	}
	for _, o := range svcOpts {
		o(s)
	}
	return s, nil
}

// Subscribe registers h for stage events.
func (s *Service) Subscribe(h EventHandler) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// InFlight lists notarizations still waiting for their receipt.
func (s *Service) InFlight() []inflight.Entry {
	return s.inflight.Snapshot()
}

// Algorithm returns the digest algorithm in use.
func (s *Service) Algorithm() hasher.Algorithm {
	return s.opts.Algorithm
}

// Hash returns the digest of content without touching the chain.
func (s *Service) Hash(content []byte) hasher.Digest {
	return s.hasher.Sum(content)
}

func (s *Service) emit(ctx context.Context, e Event) {
	e.CorrelationID = logtrace.CorrelationIDFromContext(ctx)
	e.Timestamp = s.now()

	s.mu.RLock()
	handlers := append([]EventHandler(nil), s.handlers...)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
}

// normalizeDescription trims d and falls back to the default when nothing
// printable is left.
func (s *Service) normalizeDescription(d string) string {
	d = strings.TrimSpace(d)
	if d == "" || !utf8.ValidString(d) {
		return s.opts.DefaultDescription
	}
	return d
}

// withCorrelation makes sure ctx carries a correlation ID.
func withCorrelation(ctx context.Context) context.Context {
	if id := logtrace.CorrelationIDFromContext(ctx); id != "" && id != "unknown" {
		return ctx
	}
	return logtrace.CtxWithCorrelationID(ctx, uuid.NewString())
}
