package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/LumeraProtocol/notary/notary/adaptors"
	"github.com/LumeraProtocol/notary/notary/service"
	"github.com/LumeraProtocol/notary/pkg/chain"
	"github.com/LumeraProtocol/notary/pkg/chain/chaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter answers prompts from a fixed script. Once the script is
// exhausted it returns ErrQuit, like EOF on a terminal.
type scriptedPrompter struct {
	answers []any
	asked   []string
}

func script(answers ...any) *scriptedPrompter {
	return &scriptedPrompter{answers: answers}
}

func (p *scriptedPrompter) next(message string) (any, error) {
	p.asked = append(p.asked, message)
	if len(p.answers) == 0 {
		return nil, ErrQuit
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	if err, ok := a.(error); ok {
		return nil, err
	}
	return a, nil
}

func (p *scriptedPrompter) Select(message string, _ []string) (int, error) {
	a, err := p.next(message)
	if err != nil {
		return 0, err
	}
	return a.(int), nil
}

func (p *scriptedPrompter) Input(message string) (string, error) {
	a, err := p.next(message)
	if err != nil {
		return "", err
	}
	return a.(string), nil
}

type fakeNotary struct {
	notarizeCalls int
	verifyCalls   int
	notarize      func(content []byte, description string) service.NotarizeResult
	verify        func(content []byte) service.VerifyResult
}

func (f *fakeNotary) Notarize(_ context.Context, content []byte, description string) service.NotarizeResult {
	f.notarizeCalls++
	return f.notarize(content, description)
}

func (f *fakeNotary) Verify(_ context.Context, content []byte) service.VerifyResult {
	f.verifyCalls++
	return f.verify(content)
}

func newServiceShell(t *testing.T, p Prompter) (*Shell, *bytes.Buffer, chain.Client) {
	t.Helper()
	client, err := chain.NewClient(context.Background(),
		chain.WithBackend(chaintest.New()),
		chain.WithContract(chaintest.DefaultContract),
		chain.WithPrivateKey(chaintest.NewKey()),
		chain.WithPollInterval(5*time.Millisecond, 20*time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	var out bytes.Buffer
	r := NewRenderer(&out).WithLocation(time.UTC)
	svc, err := service.New(adaptors.NewChainClient(client), service.Options{ConfirmTimeout: 5 * time.Second},
		service.WithEventHandler(r.OnEvent))
	require.NoError(t, err)
	return New(svc, p, r), &out, client
}

const (
	sel0 = choiceNotarize
	sel1 = choiceVerify
	sel2 = choiceExit
)

func TestShellNotarizeThenVerify(t *testing.T) {
	p := script(sel0, "hello world", "test", sel1, "hello world", sel2)
	sh, out, client := newServiceShell(t, p)

	require.NoError(t, sh.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "NOTARIZING DOCUMENT")
	assert.Contains(t, text, "✍️  Signing transaction...")
	assert.Contains(t, text, "📤 Sending transaction...")
	assert.Contains(t, text, "✅ DOCUMENT NOTARIZED SUCCESSFULLY!")
	assert.Contains(t, text, "📝 Description: test")
	assert.Contains(t, text, "✅ DOCUMENT FOUND ON BLOCKCHAIN!")
	assert.Contains(t, text, "👤 Owner: "+client.Sender().Hex())
	assert.Contains(t, text, "👋 Thank you for using Blockchain Notary System!")
	assert.Contains(t, text, "📄 Document Hash: b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9")
}

func TestShellVerifyNeverSeen(t *testing.T) {
	sh, out, _ := newServiceShell(t, script(sel1, "never seen", sel2))

	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "❌ DOCUMENT NOT FOUND ON BLOCKCHAIN")
	assert.Contains(t, out.String(), "This document has not been notarized.")
}

func TestShellEmptyContentReprompts(t *testing.T) {
	f := &fakeNotary{}
	var out bytes.Buffer
	p := script(sel0, "   ", sel1, "", sel2)

	require.NoError(t, New(f, p, NewRenderer(&out)).Run(context.Background()))

	assert.Zero(t, f.notarizeCalls)
	assert.Zero(t, f.verifyCalls)
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("Content cannot be empty!")))
	assert.NotContains(t, p.asked, "Enter description:", "description is not asked for empty content")
}

func TestShellErrorKeepsLoopAlive(t *testing.T) {
	f := &fakeNotary{
		notarize: func([]byte, string) service.NotarizeResult {
			return service.NotarizeResult{
				Stage: service.StageFailed,
				Err:   fmt.Errorf("send transaction: %w", service.ErrSubmission),
			}
		},
		verify: func([]byte) service.VerifyResult {
			return service.VerifyResult{Stage: service.StageFailed, Err: service.ErrRPC}
		},
	}
	var out bytes.Buffer
	p := script(sel0, "doc", "d", sel1, "doc", sel2)

	require.NoError(t, New(f, p, NewRenderer(&out)).Run(context.Background()))

	assert.Equal(t, 1, f.notarizeCalls)
	assert.Equal(t, 1, f.verifyCalls)
	assert.Contains(t, out.String(), "❌ ERROR: send transaction")
	assert.Contains(t, out.String(), "kind: submission")
	assert.Contains(t, out.String(), "kind: rpc")
	assert.Contains(t, out.String(), "Thank you for using")
}

func TestShellRecoversFromPanic(t *testing.T) {
	calls := 0
	f := &fakeNotary{
		verify: func([]byte) service.VerifyResult {
			calls++
			if calls == 1 {
				panic("boom")
			}
			return service.VerifyResult{Stage: service.StageNotFound}
		},
	}
	var out bytes.Buffer
	p := script(sel1, "a", sel1, "b", sel2)

	require.NoError(t, New(f, p, NewRenderer(&out)).Run(context.Background()))

	assert.Equal(t, 2, calls)
	assert.Contains(t, out.String(), "internal error during verify: boom")
	assert.Contains(t, out.String(), "DOCUMENT NOT FOUND")
}

func TestShellQuitOnAbort(t *testing.T) {
	t.Run("at menu", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, New(&fakeNotary{}, script(), NewRenderer(&out)).Run(context.Background()))
		assert.Contains(t, out.String(), "Thank you for using")
	})

	t.Run("mid operation", func(t *testing.T) {
		f := &fakeNotary{}
		var out bytes.Buffer
		require.NoError(t, New(f, script(sel0, "content"), NewRenderer(&out)).Run(context.Background()))
		assert.Zero(t, f.notarizeCalls)
	})

	t.Run("prompt failure", func(t *testing.T) {
		boom := errors.New("tty gone")
		err := New(&fakeNotary{}, script(boom), NewRenderer(&bytes.Buffer{})).Run(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}

func TestShellInvalidChoice(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, New(&fakeNotary{}, script(7, sel2), NewRenderer(&out)).Run(context.Background()))
	assert.Contains(t, out.String(), "Invalid choice!")
}

func TestShellStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(&fakeNotary{}, script(sel0), NewRenderer(&bytes.Buffer{})).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShellOperationTimeout(t *testing.T) {
	var deadline bool
	f := &fakeNotary{}
	f.verify = func([]byte) service.VerifyResult { return service.VerifyResult{Stage: service.StageNotFound} }
	n := &deadlineNotary{fakeNotary: f, seen: &deadline}

	require.NoError(t, New(n, script(sel1, "x", sel2), NewRenderer(&bytes.Buffer{}), WithOperationTimeout(time.Minute)).
		Run(context.Background()))
	assert.True(t, deadline)
}

type deadlineNotary struct {
	*fakeNotary
	seen *bool
}

func (d *deadlineNotary) Verify(ctx context.Context, content []byte) service.VerifyResult {
	_, *d.seen = ctx.Deadline()
	return d.fakeNotary.Verify(ctx, content)
}

func TestRendererVerifyTimestampLayout(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out).WithLocation(time.UTC)
	res := service.VerifyResult{Stage: service.StageFound}
	res.Record.Exists = true
	res.Record.Timestamp = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	res.Record.Description = "contract"

	r.VerifyResult(res)
	assert.Contains(t, out.String(), "📅 Timestamp: 2024-03-09 14:05:07")
	assert.Contains(t, out.String(), "📝 Description: contract")
}
