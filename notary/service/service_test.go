package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/LumeraProtocol/notary/notary/adaptors"
	"github.com/LumeraProtocol/notary/pkg/chain/modules/notary"
	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	testSender   = common.HexToAddress("0x95A7C0B4C4196e4D30c2F8C0B2063b10A4A62E13")
	testContract = common.HexToAddress("0xd9145CCE52D386f254917e481eB44e9943F39138")
	testTxHash   = common.HexToHash("0x01")
)

type fakeRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, e history.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return f.err
}

func newMockService(t *testing.T, opts Options, svcOpts ...Option) (*Service, *adaptors.MockChainClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	chain := adaptors.NewMockChainClient(ctrl)
	svc, err := New(chain, opts, svcOpts...)
	require.NoError(t, err)
	return svc, chain
}

func collectStages(svc *Service) *[]Stage {
	var stages []Stage
	svc.Subscribe(func(_ context.Context, e Event) { stages = append(stages, e.Stage) })
	return &stages
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)

	ctrl := gomock.NewController(t)
	_, err = New(adaptors.NewMockChainClient(ctrl), Options{Algorithm: "md5"})
	assert.ErrorIs(t, err, hasher.ErrUnknownAlgorithm)
}

func TestNotarizeEmptyContentMakesNoCalls(t *testing.T) {
	// The mock has no expectations, so any chain call fails the test.
	svc, _ := newMockService(t, Options{})
	stages := collectStages(svc)

	res := svc.Notarize(context.Background(), nil, "desc")
	assert.ErrorIs(t, res.Err, ErrEmptyContent)
	assert.Equal(t, StageFailed, res.Stage)
	assert.Equal(t, KindValidation, KindOf(res.Err))
	assert.True(t, res.Digest.IsZero())
	assert.Equal(t, []Stage{StageFailed}, *stages)

	vres := svc.Verify(context.Background(), []byte{})
	assert.ErrorIs(t, vres.Err, ErrEmptyContent)
	assert.Equal(t, StageFailed, vres.Stage)
}

func TestNotarizeStateMachine(t *testing.T) {
	svc, chain := newMockService(t, Options{ConfirmTimeout: time.Minute})
	stages := collectStages(svc)

	content := []byte("hello world")
	digest := hasher.Sum(content)
	receipt := &tx.Receipt{TxHash: testTxHash, BlockNumber: 9, GasUsed: 45000, Status: tx.StatusSuccess}

	chain.EXPECT().
		SubmitNotarize(gomock.Any(), digest, "test", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ hasher.Digest, _ string, hook tx.PhaseFunc) (common.Hash, error) {
			hook(tx.PhaseBuilt, common.Hash{})
			hook(tx.PhaseSigned, testTxHash)
			hook(tx.PhaseBroadcast, testTxHash)
			return testTxHash, nil
		})
	chain.EXPECT().AwaitReceipt(gomock.Any(), testTxHash, time.Minute).Return(receipt, nil)

	res := svc.Notarize(context.Background(), content, "  test  ")
	require.NoError(t, res.Err)
	assert.True(t, res.OK())
	assert.Equal(t, StageConfirmed, res.Stage)
	assert.Equal(t, digest, res.Digest)
	assert.Equal(t, "test", res.Description)
	assert.Equal(t, testTxHash, res.TxHash)
	assert.Equal(t, receipt, res.Receipt)
	assert.NotEmpty(t, res.CorrelationID)
	assert.Equal(t, []Stage{
		StageHashComputed, StageTxBuilt, StageTxSigned, StageTxSubmitted, StageConfirmed,
	}, *stages)
}

func TestNotarizeDefaultDescription(t *testing.T) {
	for _, desc := range []string{"", "   ", "\xff\xfe"} {
		svc, chain := newMockService(t, Options{})
		chain.EXPECT().SubmitNotarize(gomock.Any(), gomock.Any(), DefaultDescription, gomock.Any()).Return(testTxHash, nil)
		chain.EXPECT().AwaitReceipt(gomock.Any(), testTxHash, time.Duration(0)).Return(&tx.Receipt{Status: tx.StatusSuccess}, nil)

		res := svc.Notarize(context.Background(), []byte("doc"), desc)
		require.NoError(t, res.Err)
		assert.Equal(t, DefaultDescription, res.Description)
	}

	svc, chain := newMockService(t, Options{DefaultDescription: "Untitled"})
	chain.EXPECT().SubmitNotarize(gomock.Any(), gomock.Any(), "Untitled", gomock.Any()).Return(testTxHash, nil)
	chain.EXPECT().AwaitReceipt(gomock.Any(), gomock.Any(), gomock.Any()).Return(&tx.Receipt{Status: tx.StatusSuccess}, nil)
	res := svc.Notarize(context.Background(), []byte("doc"), "")
	assert.Equal(t, "Untitled", res.Description)
}

func TestNotarizeSubmissionFailure(t *testing.T) {
	rec := &fakeRecorder{}
	svc, chain := newMockService(t, Options{}, WithRecorder(rec))
	stages := collectStages(svc)

	chain.EXPECT().Sender().Return(testSender).AnyTimes()
	chain.EXPECT().Contract().Return(testContract).AnyTimes()
	chain.EXPECT().
		SubmitNotarize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(common.Hash{}, errors.Join(tx.ErrSubmission, errors.New("insufficient funds")))

	res := svc.Notarize(context.Background(), []byte("doc"), "d")
	assert.ErrorIs(t, res.Err, ErrSubmission)
	assert.Equal(t, KindSubmission, KindOf(res.Err))
	assert.Equal(t, StageFailed, res.Stage)
	assert.Equal(t, []Stage{StageHashComputed, StageFailed}, *stages)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, history.StatusFailed, rec.entries[0].Status)
	assert.Contains(t, rec.entries[0].LastError, "insufficient funds")
	assert.Equal(t, testSender.Hex(), rec.entries[0].Sender)
	assert.Empty(t, rec.entries[0].TxHash)
}

func TestNotarizeReverted(t *testing.T) {
	rec := &fakeRecorder{}
	svc, chain := newMockService(t, Options{}, WithRecorder(rec))
	stages := collectStages(svc)

	receipt := &tx.Receipt{TxHash: testTxHash, BlockNumber: 4, GasUsed: 21000, Status: tx.StatusReverted}
	chain.EXPECT().Sender().Return(testSender).AnyTimes()
	chain.EXPECT().Contract().Return(testContract).AnyTimes()
	chain.EXPECT().SubmitNotarize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(testTxHash, nil)
	chain.EXPECT().AwaitReceipt(gomock.Any(), testTxHash, gomock.Any()).Return(receipt, &tx.RevertError{Receipt: receipt})

	res := svc.Notarize(context.Background(), []byte("doc"), "d")
	assert.Equal(t, StageReverted, res.Stage)
	assert.ErrorIs(t, res.Err, ErrReverted)
	assert.Equal(t, KindConfirmation, KindOf(res.Err))
	assert.False(t, res.OK())
	assert.Equal(t, receipt, res.Receipt)
	assert.Equal(t, []Stage{StageHashComputed, StageTxSubmitted, StageReverted}, *stages)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, history.StatusReverted, rec.entries[0].Status)
	assert.Equal(t, uint64(4), rec.entries[0].BlockNumber)
	assert.Equal(t, testTxHash.Hex(), rec.entries[0].TxHash)
}

func TestNotarizeConfirmationTimeout(t *testing.T) {
	svc, chain := newMockService(t, Options{ConfirmTimeout: 10 * time.Millisecond})

	chain.EXPECT().SubmitNotarize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(testTxHash, nil)
	chain.EXPECT().AwaitReceipt(gomock.Any(), testTxHash, 10*time.Millisecond).Return(nil, tx.ErrConfirmationTimeout)

	res := svc.Notarize(context.Background(), []byte("doc"), "d")
	assert.Equal(t, StageFailed, res.Stage)
	assert.ErrorIs(t, res.Err, ErrConfirmationTimeout)
	assert.Equal(t, testTxHash, res.TxHash, "the hash is kept so the user can look it up later")
}

func TestNotarizeRejectDuplicates(t *testing.T) {
	svc, chain := newMockService(t, Options{RejectDuplicates: true})

	chain.EXPECT().DocumentExists(gomock.Any(), hasher.SumString("dup")).Return(true, nil)
	res := svc.Notarize(context.Background(), []byte("dup"), "d")
	assert.ErrorIs(t, res.Err, ErrDuplicate)
	assert.Equal(t, KindValidation, KindOf(res.Err))

	chain.EXPECT().DocumentExists(gomock.Any(), gomock.Any()).Return(false, errors.Join(tx.ErrRPC, errors.New("timeout")))
	res = svc.Notarize(context.Background(), []byte("dup"), "d")
	assert.ErrorIs(t, res.Err, ErrRPC)

	chain.EXPECT().DocumentExists(gomock.Any(), gomock.Any()).Return(false, nil)
	chain.EXPECT().SubmitNotarize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(testTxHash, nil)
	chain.EXPECT().AwaitReceipt(gomock.Any(), gomock.Any(), gomock.Any()).Return(&tx.Receipt{Status: tx.StatusSuccess}, nil)
	res = svc.Notarize(context.Background(), []byte("fresh"), "d")
	assert.True(t, res.OK())
}

func TestNotarizeDuplicatesAllowedByDefault(t *testing.T) {
	svc, chain := newMockService(t, Options{})

	chain.EXPECT().SubmitNotarize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(testTxHash, nil).Times(2)
	chain.EXPECT().AwaitReceipt(gomock.Any(), gomock.Any(), gomock.Any()).Return(&tx.Receipt{Status: tx.StatusSuccess}, nil).Times(2)

	assert.True(t, svc.Notarize(context.Background(), []byte("same"), "d").OK())
	assert.True(t, svc.Notarize(context.Background(), []byte("same"), "d").OK())
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		svc, chain := newMockService(t, Options{})
		stages := collectStages(svc)
		record := notary.Record{Exists: true, Timestamp: time.Unix(1_700_000_000, 0), Owner: testSender, Description: "test"}
		chain.EXPECT().ReadVerify(gomock.Any(), hasher.SumString("hello world")).Return(record, nil)

		res := svc.Verify(ctx, []byte("hello world"))
		require.NoError(t, res.Err)
		assert.True(t, res.Found())
		assert.Equal(t, record, res.Record)
		assert.Equal(t, []Stage{StageHashComputed, StageQueried, StageFound}, *stages)
	})

	t.Run("not found", func(t *testing.T) {
		svc, chain := newMockService(t, Options{})
		stages := collectStages(svc)
		chain.EXPECT().ReadVerify(gomock.Any(), gomock.Any()).Return(notary.Record{}, nil)

		res := svc.Verify(ctx, []byte("never seen"))
		require.NoError(t, res.Err)
		assert.False(t, res.Found())
		assert.Equal(t, StageNotFound, res.Stage)
		assert.Equal(t, []Stage{StageHashComputed, StageQueried, StageNotFound}, *stages)
	})

	t.Run("rpc failure", func(t *testing.T) {
		svc, chain := newMockService(t, Options{})
		chain.EXPECT().ReadVerify(gomock.Any(), gomock.Any()).Return(notary.Record{}, errors.Join(tx.ErrRPC, errors.New("connection refused")))

		res := svc.Verify(ctx, []byte("x"))
		assert.Equal(t, StageFailed, res.Stage)
		assert.Equal(t, KindRPC, KindOf(res.Err))
		assert.Equal(t, hasher.SumString("x"), res.Digest)
	})
}

func TestFileOperations(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.txt")
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(doc, []byte("hello world"), 0o600))
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	svc, chain := newMockService(t, Options{})
	chain.EXPECT().ReadVerify(gomock.Any(), hasher.SumString("hello world")).Return(notary.Record{}, nil)

	res := svc.VerifyFile(context.Background(), doc)
	require.NoError(t, res.Err)
	assert.Equal(t, StageNotFound, res.Stage)

	res = svc.VerifyFile(context.Background(), empty)
	assert.ErrorIs(t, res.Err, ErrEmptyContent)

	res = svc.VerifyFile(context.Background(), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, res.Err, ErrReadContent)

	nres := svc.NotarizeFile(context.Background(), dir, "d")
	assert.ErrorIs(t, nres.Err, ErrReadContent)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindConnectivity, KindOf(ErrConnectivity))
	assert.Equal(t, KindConfirmation, KindOf(ErrConfirmationTimeout))
	assert.Equal(t, KindUnknown, KindOf(errors.New("other")))
}

func TestStageTerminal(t *testing.T) {
	for _, s := range []Stage{StageConfirmed, StageReverted, StageFound, StageNotFound, StageFailed} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []Stage{StageIdle, StageHashComputed, StageTxBuilt, StageTxSigned, StageTxSubmitted, StageQueried} {
		assert.False(t, s.Terminal(), s)
	}
}
