// Package shell implements the interactive notary menu.
package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LumeraProtocol/notary/notary/service"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
	"github.com/ethereum/go-ethereum/common"
	goerrors "github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	choiceNotarize = iota
	choiceVerify
	choiceExit
)

var menuOptions = []string{
	"Notarize a Document",
	"Verify a Document",
	"Exit",
}

// Notary is the subset of the notary service the shell drives.
type Notary interface {
	Notarize(ctx context.Context, content []byte, description string) service.NotarizeResult
	Verify(ctx context.Context, content []byte) service.VerifyResult
}

// Option configures a Shell.
type Option func(*Shell)

// WithOperationTimeout bounds every menu operation. Zero means no bound.
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Shell) { s.opTimeout = d }
}

// Shell runs the notarize / verify / exit menu until the user exits.
type Shell struct {
	notary    Notary
	prompter  Prompter
	out       *Renderer
	opTimeout time.Duration
}

// New returns a Shell.
func New(n Notary, p Prompter, r *Renderer, opts ...Option) *Shell {
	s := &Shell{notary: n, prompter: p, out: r}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run shows the menu in a loop. Operation failures are reported and the menu
// comes back; Run returns nil when the user exits and ctx.Err() when ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.out.Menu()
		choice, err := s.prompter.Select("Enter your choice:", menuOptions)
		if errors.Is(err, ErrQuit) {
			s.out.Goodbye()
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read menu choice")
		}

		switch choice {
		case choiceNotarize:
			err = s.guard(ctx, "notarize", s.notarize)
		case choiceVerify:
			err = s.guard(ctx, "verify", s.verify)
		case choiceExit:
			s.out.Goodbye()
			return nil
		default:
			s.out.InvalidChoice()
		}
		if errors.Is(err, ErrQuit) {
			s.out.Goodbye()
			return nil
		}
	}
}

// guard runs one operation with its own correlation ID and keeps a panic from
// ending the session. Only ErrQuit is passed back.
func (s *Shell) guard(ctx context.Context, op string, fn func(context.Context) error) (err error) {
	ctx = logtrace.CtxWithCorrelationID(ctx, uuid.NewString())
	ctx = logtrace.CtxWithOrigin(ctx, "shell")
	if s.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			perr := goerrors.Wrap(r, 2)
			logtrace.Error(ctx, "shell operation panicked", logtrace.Fields{
				logtrace.FieldModule:     "shell",
				logtrace.FieldMethod:     op,
				logtrace.FieldError:      perr.Error(),
				logtrace.FieldStackTrace: perr.ErrorStack(),
			})
			s.out.Error(fmt.Errorf("internal error during %s: %v", op, r), hasher.Digest{}, common.Hash{})
			err = nil
		}
	}()

	if ferr := fn(ctx); ferr != nil {
		if errors.Is(ferr, ErrQuit) {
			return ferr
		}
		s.out.Error(ferr, hasher.Digest{}, common.Hash{})
	}
	return nil
}

func (s *Shell) notarize(ctx context.Context) error {
	s.out.Prompt("NOTARIZE DOCUMENT")
	content, err := s.prompter.Input("Enter document content:")
	if err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		s.out.EmptyContent()
		return nil
	}

	description, err := s.prompter.Input("Enter description:")
	if err != nil {
		return err
	}

	res := s.notary.Notarize(ctx, []byte(content), description)
	s.out.NotarizeResult(res)
	return nil
}

func (s *Shell) verify(ctx context.Context) error {
	s.out.Prompt("VERIFY DOCUMENT")
	content, err := s.prompter.Input("Enter document content to verify:")
	if err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		s.out.EmptyContent()
		return nil
	}

	res := s.notary.Verify(ctx, []byte(content))
	s.out.VerifyResult(res)
	return nil
}
