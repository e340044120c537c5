package adaptors

import (
	"context"

	"github.com/LumeraProtocol/notary/pkg/history"
)

// HistoryRecorder persists notarization attempts.
type HistoryRecorder interface {
	Record(ctx context.Context, e history.Entry) error
}

type historyImpl struct{ s *history.Store }

func NewHistoryRecorder(s *history.Store) HistoryRecorder { return &historyImpl{s: s} }

func (h *historyImpl) Record(ctx context.Context, e history.Entry) error {
	_, err := h.s.Record(ctx, e)
	return err
}
