package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreRecordAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := Entry{
		CorrelationID: "c1",
		Digest:        "aa",
		Algorithm:     "sha256",
		Description:   "first",
		Sender:        "0x1",
		Contract:      "0x2",
		TxHash:        "0xt1",
		BlockNumber:   7,
		GasUsed:       45000,
		Status:        StatusConfirmed,
		CreatedAtUnix: 100,
	}
	second := Entry{
		CorrelationID: "c2",
		Digest:        "bb",
		Algorithm:     "sha256",
		Description:   "second",
		Sender:        "0x1",
		Contract:      "0x2",
		Status:        StatusFailed,
		LastError:     "node unreachable",
		CreatedAtUnix: 200,
	}

	id1, err := s.Record(ctx, first)
	require.NoError(t, err)
	id2, err := s.Record(ctx, second)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bb", all[0].Digest)
	assert.Equal(t, StatusFailed, all[0].Status)
	assert.Equal(t, "node unreachable", all[0].LastError)
	assert.Equal(t, "aa", all[1].Digest)
	assert.Equal(t, uint64(7), all[1].BlockNumber)
	assert.Equal(t, uint64(45000), all[1].GasUsed)
	assert.Equal(t, int64(100), all[1].CreatedAt().Unix())

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "bb", limited[0].Digest)
}

func TestStoreFindByDigest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, status := range []Status{StatusReverted, StatusConfirmed} {
		_, err := s.Record(ctx, Entry{
			Digest:        "cc",
			Algorithm:     "sha256",
			Status:        status,
			CreatedAtUnix: int64(10 + i),
		})
		require.NoError(t, err)
	}
	_, err := s.Record(ctx, Entry{Digest: "dd", Status: StatusConfirmed})
	require.NoError(t, err)

	got, err := s.FindByDigest(ctx, "cc")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, StatusConfirmed, got[0].Status)
	assert.Equal(t, StatusReverted, got[1].Status)

	none, err := s.FindByDigest(ctx, "ee")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStoreRecordValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Record(ctx, Entry{Status: StatusConfirmed})
	assert.Error(t, err)

	_, err = s.Record(ctx, Entry{Digest: "aa"})
	assert.Error(t, err)

	var nilStore *Store
	_, err = nilStore.List(ctx, 0)
	assert.Error(t, err)
	assert.NoError(t, nilStore.Close())
}
