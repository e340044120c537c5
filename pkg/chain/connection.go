package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LumeraProtocol/notary/pkg/chain/modules/tx"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const defaultRPCPort = "8545"

// ErrConnectivity is returned when the node cannot be reached or fails the
// startup preflight.
var ErrConnectivity = errors.New("node unreachable")

// dial opens an RPC client for endpoint. HTTP endpoints do not connect until
// the first request, so callers must run preflight.
func dial(ctx context.Context, endpoint string, requestTimeout time.Duration) (*ethclient.Client, error) {
	var opts []rpc.ClientOption
	if strings.HasPrefix(endpoint, "http") {
		opts = append(opts, rpc.WithHTTPClient(&http.Client{Timeout: requestTimeout}))
	}

	rc, err := rpc.DialOptions(ctx, endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectivity, endpoint, err)
	}
	return ethclient.NewClient(rc), nil
}

// preflight blocks until the node answers eth_chainId and eth_blockNumber or
// the ready timeout elapses. It returns the node's chain ID.
func preflight(ctx context.Context, backend tx.Backend, endpoint string, expected *big.Int, readyTimeout time.Duration) (*big.Int, error) {
	if readyTimeout <= 0 {
		readyTimeout = DefaultReadyTimeout
	}
	readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	chainID, err := backend.ChainID(readyCtx)
	if err != nil {
		if readyCtx.Err() != nil {
			return nil, fmt.Errorf("%w: timeout waiting (%s) for node at %s", ErrConnectivity, readyTimeout, endpoint)
		}
		return nil, fmt.Errorf("%w: eth_chainId at %s: %w", ErrConnectivity, endpoint, err)
	}

	head, err := backend.BlockNumber(readyCtx)
	if err != nil {
		if readyCtx.Err() != nil {
			return nil, fmt.Errorf("%w: timeout waiting (%s) for node at %s", ErrConnectivity, readyTimeout, endpoint)
		}
		return nil, fmt.Errorf("%w: eth_blockNumber at %s: %w", ErrConnectivity, endpoint, err)
	}

	if expected != nil && expected.Sign() > 0 && expected.Cmp(chainID) != 0 {
		return nil, fmt.Errorf("%w: chain ID mismatch: configured=%s node=%s", ErrConnectivity, expected, chainID)
	}

	logtrace.Info(ctx, "connected to node", logtrace.Fields{
		logtrace.FieldEndpoint:    endpoint,
		logtrace.FieldChainID:     chainID.String(),
		logtrace.FieldBlockNumber: head,
	})
	return chainID, nil
}

// Accepts all of these:
//
//	http://127.0.0.1:7545          → http://127.0.0.1:7545
//	https://rpc.example.org        → https://rpc.example.org
//	wss://rpc.example.org/ws       → wss://rpc.example.org/ws
//	rpc.example.org:443            → https://rpc.example.org:443
//	localhost:7545                 → http://localhost:7545
//	localhost                      → http://localhost:8545
func normaliseEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("endpoint cannot be empty")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("parse endpoint %q: %w", raw, err)
		}
		switch u.Scheme {
		case "http", "https", "ws", "wss":
		default:
			return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
		}
		if u.Hostname() == "" {
			return "", fmt.Errorf("endpoint %q has no host", raw)
		}
		return u.String(), nil
	}

	host, port, splitErr := net.SplitHostPort(raw)
	if splitErr != nil {
		// No port given → assume :8545 / plaintext.
		return "http://" + net.JoinHostPort(raw, defaultRPCPort), nil
	}
	if port == "443" {
		return "https://" + net.JoinHostPort(host, port), nil
	}
	return "http://" + net.JoinHostPort(host, port), nil
}
