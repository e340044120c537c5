package notary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type module struct {
	address  common.Address
	abi      abi.ABI
	txmod    tx.Module
	txHelper *tx.TxHelper
}

func newModule(address common.Address, txmod tx.Module, helper *tx.TxHelper) (Module, error) {
	if address == (common.Address{}) {
		return nil, fmt.Errorf("contract address cannot be empty")
	}
	if txmod == nil {
		return nil, fmt.Errorf("tx module cannot be nil")
	}
	if helper == nil {
		return nil, fmt.Errorf("tx helper cannot be nil")
	}

	parsed, err := ABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse notary ABI: %w", err)
	}

	return &module{
		address:  address,
		abi:      parsed,
		txmod:    txmod,
		txHelper: helper,
	}, nil
}

func (m *module) Address() common.Address {
	return m.address
}

func (m *module) NotarizeDocument(ctx context.Context, digest hasher.Digest, description string, opts ...tx.ExecOption) (common.Hash, error) {
	data, err := m.abi.Pack(MethodNotarize, [32]byte(digest), description)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: pack %s: %w", tx.ErrSubmission, MethodNotarize, err)
	}

	logtrace.Debug(ctx, "submitting notarization", logtrace.Fields{
		logtrace.FieldModule:      "notary",
		logtrace.FieldContract:    m.address.Hex(),
		logtrace.FieldHashHex:     digest.Hex(),
		logtrace.FieldDescription: description,
	})

	return m.txHelper.ExecuteTransaction(ctx, m.address, data, opts...)
}

func (m *module) VerifyDocument(ctx context.Context, digest hasher.Digest) (Record, error) {
	data, err := m.abi.Pack(MethodVerify, [32]byte(digest))
	if err != nil {
		return Record{}, fmt.Errorf("%w: pack %s: %w", tx.ErrRPC, MethodVerify, err)
	}

	out, err := m.txmod.Call(ctx, m.address, data)
	if err != nil {
		return Record{}, err
	}

	var res verifyOutput
	if err := m.abi.UnpackIntoInterface(&res, MethodVerify, out); err != nil {
		return Record{}, fmt.Errorf("%w: decode %s: %w", tx.ErrRPC, MethodVerify, err)
	}

	return recordFrom(res), nil
}

func (m *module) DocumentExists(ctx context.Context, digest hasher.Digest) (bool, error) {
	data, err := m.abi.Pack(MethodExists, [32]byte(digest))
	if err != nil {
		return false, fmt.Errorf("%w: pack %s: %w", tx.ErrRPC, MethodExists, err)
	}

	out, err := m.txmod.Call(ctx, m.address, data)
	if err != nil {
		return false, err
	}

	values, err := m.abi.Unpack(MethodExists, out)
	if err != nil {
		return false, fmt.Errorf("%w: decode %s: %w", tx.ErrRPC, MethodExists, err)
	}
	if len(values) != 1 {
		return false, fmt.Errorf("%w: %s returned %d values", tx.ErrRPC, MethodExists, len(values))
	}
	exists, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s returned %T", tx.ErrRPC, MethodExists, values[0])
	}
	return exists, nil
}

func recordFrom(res verifyOutput) Record {
	if !res.Exists {
		return Record{}
	}
	rec := Record{
		Exists:      true,
		Owner:       res.Owner,
		Description: res.Description,
	}
	if res.Timestamp != nil && res.Timestamp.IsInt64() {
		rec.Timestamp = time.Unix(res.Timestamp.Int64(), 0)
	}
	return rec
}

// String renders a record for logs.
func (r Record) String() string {
	if !r.Exists {
		return "record{exists=false}"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "record{exists=true, timestamp=%d, owner=%s, description=%q}",
		r.Timestamp.Unix(), r.Owner.Hex(), r.Description)
	return b.String()
}
