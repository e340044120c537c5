package notary

import (
	"context"
	"time"

	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/ethereum/go-ethereum/common"
)

// Record is the contract's view of a notarized digest. When Exists is false
// the remaining fields are zero values.
type Record struct {
	Exists      bool
	Timestamp   time.Time
	Owner       common.Address
	Description string
}

// Module defines the interface for notary contract operations
type Module interface {
	// Address returns the contract address.
	Address() common.Address
	// NotarizeDocument submits notarizeDocument(digest, description) and
	// returns the transaction hash without waiting for it to be mined.
	NotarizeDocument(ctx context.Context, digest hasher.Digest, description string, opts ...tx.ExecOption) (common.Hash, error)
	// VerifyDocument reads the record stored for digest.
	VerifyDocument(ctx context.Context, digest hasher.Digest) (Record, error)
	// DocumentExists reports whether digest has been notarized.
	DocumentExists(ctx context.Context, digest hasher.Digest) (bool, error)
}

// NewModule creates a notary module for the contract at address.
func NewModule(address common.Address, txmod tx.Module, helper *tx.TxHelper) (Module, error) {
	return newModule(address, txmod, helper)
}
