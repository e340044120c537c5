package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/LumeraProtocol/notary/notary/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the notary configuration file",
	Long: `Create a config.yml through an interactive setup:
1. Node RPC URL and optional chain ID
2. Notary contract address
3. Signer private key
4. Default description and duplicate handling

Example:
  notary init
  notary init --force  # Overwrite an existing config file`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultConfigPath()
		}
		path = config.ExpandHome(path)

		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("config file already exists at %s\nUse --force to overwrite it", path)
		}

		cfg := config.Default()
		if err := promptNetworkConfig(cfg); err != nil {
			return fmt.Errorf("failed to configure network settings: %w", err)
		}
		if err := promptSigner(cfg); err != nil {
			return fmt.Errorf("failed to configure signer: %w", err)
		}
		if err := promptNotaryOptions(cfg); err != nil {
			return fmt.Errorf("failed to configure notary options: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.SaveConfig(cfg, path); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nConfiguration saved to %s\n", path)
		fmt.Fprintln(out, "\nYou can now start the notary with:")
		fmt.Fprintln(out, "  notary")
		return nil
	},
}

func promptNetworkConfig(cfg *config.Config) error {
	rpcPrompt := &survey.Input{
		Message: "Enter node RPC URL:",
		Default: cfg.Chain.RPCURL,
	}
	if err := survey.AskOne(rpcPrompt, &cfg.Chain.RPCURL, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	var chainID string
	chainPrompt := &survey.Input{
		Message: "Enter expected chain ID (empty to accept any):",
	}
	if err := survey.AskOne(chainPrompt, &chainID, survey.WithValidator(optionalUint)); err != nil {
		return err
	}
	if chainID = strings.TrimSpace(chainID); chainID != "" {
		id, _ := strconv.ParseInt(chainID, 10, 64)
		cfg.Chain.ChainID = id
	}

	contractPrompt := &survey.Input{
		Message: "Enter notary contract address:",
	}
	return survey.AskOne(contractPrompt, &cfg.Chain.ContractAddress, survey.WithValidator(survey.Required), survey.WithValidator(hexAddress))
}

func promptSigner(cfg *config.Config) error {
	keyPrompt := &survey.Password{
		Message: "Enter signer private key (hex):",
		Help:    "64 hex characters, with or without 0x. Stored in the config file with 0600 permissions.",
	}
	if err := survey.AskOne(keyPrompt, &cfg.Signer.PrivateKey, survey.WithValidator(survey.Required), survey.WithValidator(privateKeyHex)); err != nil {
		return err
	}

	key, err := cfg.PrivateKey()
	if err != nil {
		return err
	}
	cfg.Signer.Address = crypto.PubkeyToAddress(key.PublicKey).Hex()
	fmt.Printf("Signer address: %s\n", cfg.Signer.Address)
	return nil
}

func promptNotaryOptions(cfg *config.Config) error {
	descPrompt := &survey.Input{
		Message: "Default description:",
		Default: cfg.Notary.DefaultDescription,
	}
	if err := survey.AskOne(descPrompt, &cfg.Notary.DefaultDescription); err != nil {
		return err
	}

	dupPrompt := &survey.Confirm{
		Message: "Refuse to notarize documents that are already on-chain?",
		Default: cfg.Notary.RejectDuplicates,
	}
	if err := survey.AskOne(dupPrompt, &cfg.Notary.RejectDuplicates); err != nil {
		return err
	}

	var timeout string
	timeoutPrompt := &survey.Input{
		Message: "Confirmation timeout (0 waits indefinitely):",
		Default: cfg.Chain.ConfirmTimeout.String(),
	}
	if err := survey.AskOne(timeoutPrompt, &timeout, survey.WithValidator(duration)); err != nil {
		return err
	}
	cfg.Chain.ConfirmTimeout, _ = time.ParseDuration(strings.TrimSpace(timeout))
	return nil
}

func optionalUint(ans interface{}) error {
	s := strings.TrimSpace(fmt.Sprint(ans))
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err != nil || n <= 0 {
		return fmt.Errorf("chain ID must be a positive integer")
	}
	return nil
}

func hexAddress(ans interface{}) error {
	if !common.IsHexAddress(strings.TrimSpace(fmt.Sprint(ans))) {
		return fmt.Errorf("not a valid hex address")
	}
	return nil
}

func privateKeyHex(ans interface{}) error {
	s := strings.TrimPrefix(strings.TrimSpace(fmt.Sprint(ans)), "0x")
	if b, err := hex.DecodeString(s); err != nil || len(b) != 32 {
		return fmt.Errorf("private key must be 32 bytes of hex")
	}
	return nil
}

func duration(ans interface{}) error {
	if _, err := time.ParseDuration(strings.TrimSpace(fmt.Sprint(ans))); err != nil {
		return fmt.Errorf("not a duration, e.g. 2m or 90s")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
}
