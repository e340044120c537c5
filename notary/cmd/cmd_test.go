package cmd

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LumeraProtocol/notary/notary/config"
	"github.com/LumeraProtocol/notary/notary/service"
	"github.com/LumeraProtocol/notary/notary/shell"
	"github.com/LumeraProtocol/notary/pkg/chain"
	"github.com/LumeraProtocol/notary/pkg/chain/chaintest"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quitPrompter struct{ selects int }

func (p *quitPrompter) Select(string, []string) (int, error) {
	p.selects++
	return 0, shell.ErrQuit
}

func (p *quitPrompter) Input(string) (string, error) { return "", shell.ErrQuit }

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	appConfig = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeTestConfig writes a config for a fresh in-memory chain and returns its path.
func writeTestConfig(t *testing.T, mutate func(*config.Config)) (string, *chaintest.Backend) {
	t.Helper()
	key := chaintest.NewKey()

	cfg := config.Default()
	cfg.Chain.ContractAddress = chaintest.DefaultContract.Hex()
	cfg.Chain.PollInterval = 5 * time.Millisecond
	cfg.Chain.MaxPollDelay = 20 * time.Millisecond
	cfg.Chain.ConfirmTimeout = 5 * time.Second
	cfg.Signer.PrivateKey = hex.EncodeToString(crypto.FromECDSA(key))
	cfg.Log.Level = "error"
	if mutate != nil {
		mutate(cfg)
	}

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, config.SaveConfig(cfg, path))

	backend := chaintest.New()
	extraChainOptions = []chain.Option{chain.WithBackend(backend)}
	t.Cleanup(func() { extraChainOptions = nil })
	return path, backend
}

func TestNotarizeVerifyHistoryCommands(t *testing.T) {
	path, _ := writeTestConfig(t, nil)

	out, err := execute(t, "notarize", "--config", path, "--content", "hello world", "--description", "test")
	require.NoError(t, err)
	assert.Contains(t, out, "DOCUMENT NOTARIZED SUCCESSFULLY!")

	out, err = execute(t, "verify", "--config", path, "--content", "hello world")
	require.NoError(t, err)
	assert.Contains(t, out, "DOCUMENT FOUND ON BLOCKCHAIN!")
	assert.Contains(t, out, "📝 Description: test")

	out, err = execute(t, "verify", "--config", path, "--digest", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9")
	require.NoError(t, err)
	assert.Contains(t, out, "DOCUMENT FOUND ON BLOCKCHAIN!")

	out, err = execute(t, "history", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "confirmed")
	assert.Contains(t, out, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9")
	assert.Contains(t, out, "test")
}

func TestNotarizeFileCommand(t *testing.T) {
	path, _ := writeTestConfig(t, func(c *config.Config) { c.History.Enabled = false })
	doc := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(doc, []byte("file body"), 0o600))

	_, err := execute(t, "notarize", "--config", path, "--file", doc)
	require.NoError(t, err)

	out, err := execute(t, "verify", "--config", path, "--file", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "📝 Description: "+config.DefaultDescription)
}

func TestVerifyNotFoundIsNotAnError(t *testing.T) {
	path, _ := writeTestConfig(t, nil)

	out, err := execute(t, "verify", "--config", path, "--content", "never seen")
	require.NoError(t, err)
	assert.Contains(t, out, "DOCUMENT NOT FOUND ON BLOCKCHAIN")
}

func TestVerifyRPCFailureIsAnError(t *testing.T) {
	path, backend := writeTestConfig(t, nil)
	backend.CallErr = assert.AnError

	_, err := execute(t, "verify", "--config", path, "--content", "x")
	assert.ErrorIs(t, err, service.ErrRPC)
}

func TestNotarizeFlagValidation(t *testing.T) {
	path, _ := writeTestConfig(t, nil)

	_, err := execute(t, "notarize", "--config", path)
	assert.Error(t, err)

	_, err = execute(t, "notarize", "--config", path, "--content", "a", "--file", "b")
	assert.Error(t, err)
}

func TestEmptyContentRejectedBeforeConnecting(t *testing.T) {
	path, backend := writeTestConfig(t, nil)

	out, err := execute(t, "notarize", "--config", path, "--content", "")
	assert.ErrorIs(t, err, service.ErrEmptyContent)
	assert.Contains(t, out, "Content cannot be empty")

	_, err = execute(t, "verify", "--config", path, "--content", "")
	assert.ErrorIs(t, err, service.ErrEmptyContent)

	assert.Zero(t, backend.TotalCalls(), "no RPC for empty content")
}

func TestShellCommandStartsAndExits(t *testing.T) {
	path, _ := writeTestConfig(t, nil)
	p := &quitPrompter{}
	newPrompter = func(*cobra.Command) shell.Prompter { return p }
	t.Cleanup(func() { newPrompter = func(*cobra.Command) shell.Prompter { return shell.NewSurveyPrompter() } })

	out, err := execute(t, "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "BLOCKCHAIN NOTARY SYSTEM")
	assert.Contains(t, out, "✓ Connected to blockchain!")
	assert.Contains(t, out, "Thank you for using")
	assert.Equal(t, 1, p.selects)
}

func TestShellCommandUnreachableNode(t *testing.T) {
	path, _ := writeTestConfig(t, func(c *config.Config) {
		c.Chain.RPCURL = "http://127.0.0.1:1"
		c.Chain.ReadyTimeout = 500 * time.Millisecond
	})
	extraChainOptions = nil

	p := &quitPrompter{}
	newPrompter = func(*cobra.Command) shell.Prompter { return p }
	t.Cleanup(func() { newPrompter = func(*cobra.Command) shell.Prompter { return shell.NewSurveyPrompter() } })

	out, err := execute(t, "shell", "--config", path)
	assert.ErrorIs(t, err, chain.ErrConnectivity)
	assert.Contains(t, out, "Failed to initialize")
	assert.NotContains(t, out, "MAIN MENU")
	assert.Zero(t, p.selects, "menu is never shown")
}

func TestVersionSkipsConfig(t *testing.T) {
	out, err := execute(t, "version", "--config", filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Contains(t, out, "notary dev")
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "verify", "--config", filepath.Join(t.TempDir(), "missing.yml"), "--content", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notary init")
}
