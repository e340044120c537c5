//go:generate mockgen -destination=chain_mock.go -package=adaptors -source=chain.go
package adaptors

import (
	"context"
	"time"

	"github.com/LumeraProtocol/notary/pkg/chain"
	"github.com/LumeraProtocol/notary/pkg/chain/modules/notary"
	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/ethereum/go-ethereum/common"
)

// ChainClient is the slice of the chain client the notary service depends on.
type ChainClient interface {
	Sender() common.Address
	Contract() common.Address
	SubmitNotarize(ctx context.Context, digest hasher.Digest, description string, hook tx.PhaseFunc) (common.Hash, error)
	AwaitReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*tx.Receipt, error)
	ReadVerify(ctx context.Context, digest hasher.Digest) (notary.Record, error)
	DocumentExists(ctx context.Context, digest hasher.Digest) (bool, error)
}

type chainImpl struct{ c chain.Client }

func NewChainClient(c chain.Client) ChainClient { return &chainImpl{c: c} }

func (l *chainImpl) Sender() common.Address { return l.c.Sender() }

func (l *chainImpl) Contract() common.Address { return l.c.Notary().Address() }

func (l *chainImpl) SubmitNotarize(ctx context.Context, digest hasher.Digest, description string, hook tx.PhaseFunc) (common.Hash, error) {
	return l.c.Notary().NotarizeDocument(ctx, digest, description, tx.WithPhaseHook(hook))
}

func (l *chainImpl) AwaitReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*tx.Receipt, error) {
	return l.c.Tx().WaitForReceipt(ctx, hash, timeout)
}

func (l *chainImpl) ReadVerify(ctx context.Context, digest hasher.Digest) (notary.Record, error) {
	return l.c.Notary().VerifyDocument(ctx, digest)
}

func (l *chainImpl) DocumentExists(ctx context.Context, digest hasher.Digest) (bool, error) {
	return l.c.Notary().DocumentExists(ctx, digest)
}
