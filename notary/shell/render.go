package shell

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/LumeraProtocol/notary/notary/service"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/ethereum/go-ethereum/common"
)

// TimestampLayout is how on-chain timestamps are shown, in local time.
const TimestampLayout = "2006-01-02 15:04:05"

var rule = strings.Repeat("=", 60)

// Renderer writes human-readable output for the shell and the one-shot commands.
type Renderer struct {
	mu  sync.Mutex
	out io.Writer
	loc *time.Location
}

// NewRenderer returns a Renderer writing to w using the local time zone.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{out: w, loc: time.Local}
}

// WithLocation sets the time zone used for timestamps.
func (r *Renderer) WithLocation(loc *time.Location) *Renderer {
	r.loc = loc
	return r
}

func (r *Renderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *Renderer) section(title string) {
	r.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

// Banner prints the startup title.
func (r *Renderer) Banner() {
	r.printf("\n%s\n🔐 BLOCKCHAIN NOTARY SYSTEM\n%s\n\n", rule, rule)
}

// Connected prints the session summary after a successful startup.
func (r *Renderer) Connected(endpoint string, chainID fmt.Stringer, contract, sender common.Address) {
	r.printf("✓ Connected to blockchain! (%s, chain %s)\n", endpoint, chainID)
	r.printf("✓ Contract loaded at: %s\n", contract.Hex())
	r.printf("✓ Using account: %s\n\n", sender.Hex())
}

// ConnectFailed prints the startup failure and the usual suspects.
func (r *Renderer) ConnectFailed(err error) {
	r.printf("Failed to initialize: %v\n", err)
	r.printf("\n⚠️  Make sure:\n")
	r.printf("1. The node is running and reachable\n")
	r.printf("2. Contract address is correct\n")
	r.printf("3. Private key is correct\n")
}

// Menu prints the main menu heading.
func (r *Renderer) Menu() {
	r.section("MAIN MENU")
}

// Prompt prints the section heading shown before asking for content.
func (r *Renderer) Prompt(title string) {
	r.printf("\n--- %s ---\n", title)
}

// EmptyContent reports that blank content was rejected.
func (r *Renderer) EmptyContent() {
	r.printf("❌ Content cannot be empty!\n")
}

// InvalidChoice reports an unknown menu selection.
func (r *Renderer) InvalidChoice() {
	r.printf("\n❌ Invalid choice! Please enter 1, 2, or 3.\n")
}

// Goodbye prints the exit message.
func (r *Renderer) Goodbye() {
	r.printf("\n👋 Thank you for using Blockchain Notary System!\n%s\n\n", rule)
}

// OnEvent renders progress lines for stage events. It is meant to be
// subscribed to the notary service.
func (r *Renderer) OnEvent(_ context.Context, e service.Event) {
	switch e.Operation {
	case service.OperationNotarize:
		switch e.Stage {
		case service.StageHashComputed:
			r.section("NOTARIZING DOCUMENT")
			r.printf("📄 Document Hash: %s\n", e.Digest.Hex())
			r.printf("⏳ Building transaction...\n")
		case service.StageTxBuilt:
			r.printf("✍️  Signing transaction...\n")
		case service.StageTxSigned:
			r.printf("📤 Sending transaction...\n")
		case service.StageTxSubmitted:
			r.printf("⏳ Waiting for confirmation... (tx %s)\n", e.TxHash.Hex())
		}
	case service.OperationVerify:
		switch e.Stage {
		case service.StageHashComputed:
			r.section("VERIFYING DOCUMENT")
			r.printf("📄 Document Hash: %s\n", e.Digest.Hex())
			r.printf("🔍 Searching blockchain...\n")
		}
	}
}

// NotarizeResult renders the terminal outcome of a notarization.
func (r *Renderer) NotarizeResult(res service.NotarizeResult) {
	switch res.Stage {
	case service.StageConfirmed:
		r.section("✅ DOCUMENT NOTARIZED SUCCESSFULLY!")
		r.printf("📄 Document Hash: %s\n", res.Digest.Hex())
		r.printf("🔗 Transaction Hash: %s\n", res.Receipt.TxHash.Hex())
		r.printf("📦 Block Number: %d\n", res.Receipt.BlockNumber)
		r.printf("⛽ Gas Used: %d\n", res.Receipt.GasUsed)
		r.printf("📝 Description: %s\n", res.Description)
		r.printf("%s\n\n", rule)
	case service.StageReverted:
		r.section("❌ TRANSACTION REVERTED")
		r.printf("📄 Document Hash: %s\n", res.Digest.Hex())
		r.printf("🔗 Transaction Hash: %s\n", res.TxHash.Hex())
		if res.Receipt != nil {
			r.printf("📦 Block Number: %d\n", res.Receipt.BlockNumber)
			r.printf("⛽ Gas Used: %d\n", res.Receipt.GasUsed)
		}
		r.printf("The contract rejected the notarization.\n")
		r.printf("%s\n\n", rule)
	default:
		r.Error(res.Err, res.Digest, res.TxHash)
	}
}

// VerifyResult renders the terminal outcome of a verification.
func (r *Renderer) VerifyResult(res service.VerifyResult) {
	switch res.Stage {
	case service.StageFound:
		r.section("✅ DOCUMENT FOUND ON BLOCKCHAIN!")
		r.printf("📄 Document Hash: %s\n", res.Digest.Hex())
		r.printf("📅 Timestamp: %s\n", res.Record.Timestamp.In(r.loc).Format(TimestampLayout))
		r.printf("👤 Owner: %s\n", res.Record.Owner.Hex())
		r.printf("📝 Description: %s\n", res.Record.Description)
		r.printf("%s\n\n", rule)
	case service.StageNotFound:
		r.section("❌ DOCUMENT NOT FOUND ON BLOCKCHAIN")
		r.printf("📄 Calculated Hash: %s\n", res.Digest.Hex())
		r.printf("This document has not been notarized.\n")
		r.printf("%s\n\n", rule)
	default:
		r.Error(res.Err, res.Digest, common.Hash{})
	}
}

// Error renders an operation failure with whatever context is known.
func (r *Renderer) Error(err error, digest hasher.Digest, txHash common.Hash) {
	if err == nil {
		return
	}
	r.printf("\n❌ ERROR: %v\n", err)
	if kind := service.KindOf(err); kind != service.KindNone && kind != service.KindUnknown {
		r.printf("   kind: %s\n", kind)
	}
	if !digest.IsZero() {
		r.printf("   document hash: %s\n", digest.Hex())
	}
	if txHash != (common.Hash{}) {
		r.printf("   transaction: %s\n", txHash.Hex())
	}
	r.printf("\n")
}
