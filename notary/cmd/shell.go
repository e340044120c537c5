package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/LumeraProtocol/notary/notary/shell"
	"github.com/spf13/cobra"
)

// newPrompter builds the prompter used by the interactive shell.
var newPrompter = func(cmd *cobra.Command) shell.Prompter {
	return shell.NewSurveyPrompter()
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open the interactive notarize / verify menu",
	Long: `Open the interactive menu. The menu offers three choices:
  1. Notarize a Document
  2. Verify a Document
  3. Exit

A failed operation is reported and the menu is shown again.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := shell.NewRenderer(cmd.OutOrStdout())
	r.Banner()

	sess, err := openSession(ctx, appConfig, r)
	if err != nil {
		r.ConnectFailed(err)
		return err
	}
	defer sess.Close()

	r.Connected(sess.client.Endpoint(), sess.client.ChainID(), appConfig.ContractAddress(), sess.client.Sender())

	sh := shell.New(sess.svc, newPrompter(cmd), r, shell.WithOperationTimeout(opTimeout))
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
