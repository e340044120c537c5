package cmd

import (
	"context"
	"fmt"

	"github.com/LumeraProtocol/notary/notary/adaptors"
	"github.com/LumeraProtocol/notary/notary/config"
	"github.com/LumeraProtocol/notary/notary/service"
	"github.com/LumeraProtocol/notary/notary/shell"
	"github.com/LumeraProtocol/notary/pkg/chain"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/LumeraProtocol/notary/pkg/history"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
)

// extraChainOptions is appended after the options derived from the config.
// Tests use it to plug in an in-memory backend.
var extraChainOptions []chain.Option

// session is one connected chain client plus the service built on top of it.
type session struct {
	client chain.Client
	store  *history.Store
	svc    *service.Service
	out    *shell.Renderer
}

func chainOptions(cfg *config.Config) ([]chain.Option, error) {
	key, err := cfg.PrivateKey()
	if err != nil {
		return nil, err
	}
	gasPrice, err := cfg.GasPrice()
	if err != nil {
		return nil, err
	}

	opts := []chain.Option{
		chain.WithEndpoint(cfg.Chain.RPCURL),
		chain.WithContract(cfg.ContractAddress()),
		chain.WithPrivateKey(key),
		chain.WithExpectedChainID(cfg.ExpectedChainID()),
		chain.WithGasLimit(cfg.Chain.GasLimit),
		chain.WithGasPrice(gasPrice),
		chain.WithGasAdjustment(cfg.Chain.GasAdjustment),
		chain.WithGasPadding(cfg.Chain.GasPadding),
		chain.WithPollInterval(cfg.Chain.PollInterval, cfg.Chain.MaxPollDelay),
		chain.WithReadyTimeout(cfg.Chain.ReadyTimeout),
		chain.WithRequestTimeout(cfg.Chain.RequestTimeout),
		chain.WithRecordCacheTTL(cfg.Notary.RecordCacheTTL),
	}
	return append(opts, extraChainOptions...), nil
}

// openSession connects to the node and wires the notary service. A failure
// here is a startup failure.
func openSession(ctx context.Context, cfg *config.Config, out *shell.Renderer) (*session, error) {
	opts, err := chainOptions(cfg)
	if err != nil {
		return nil, err
	}

	client, err := chain.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s := &session{client: client, out: out}
	svcOpts := []service.Option{service.WithEventHandler(s.out.OnEvent)}

	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.HistoryPath())
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		s.store = store
		svcOpts = append(svcOpts, service.WithRecorder(adaptors.NewHistoryRecorder(store)))
	}

	alg, err := hasher.ParseAlgorithm(cfg.Notary.HashAlgorithm)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.svc, err = service.New(adaptors.NewChainClient(client), service.Options{
		DefaultDescription: cfg.Notary.DefaultDescription,
		RejectDuplicates:   cfg.Notary.RejectDuplicates,
		ConfirmTimeout:     cfg.Chain.ConfirmTimeout,
		Algorithm:          alg,
	}, svcOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}

	logtrace.Info(ctx, "Session ready", logtrace.Fields{
		logtrace.FieldEndpoint: client.Endpoint(),
		logtrace.FieldChainID:  client.ChainID().String(),
		logtrace.FieldSender:   client.Sender().Hex(),
		logtrace.FieldContract: cfg.ContractAddress().Hex(),
	})
	return s, nil
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logtrace.Warn(context.Background(), "Failed to close history store", logtrace.Fields{
				logtrace.FieldError: err.Error(),
			})
		}
	}
	if s.client != nil {
		_ = s.client.Close()
	}
}

// operationContext applies the --timeout flag.
func operationContext(parent context.Context) (context.Context, context.CancelFunc) {
	if opTimeout > 0 {
		return context.WithTimeout(parent, opTimeout)
	}
	return context.WithCancel(parent)
}
