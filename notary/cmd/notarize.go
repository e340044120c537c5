package cmd

import (
	"github.com/LumeraProtocol/notary/notary/service"
	"github.com/LumeraProtocol/notary/notary/shell"
	"github.com/spf13/cobra"
)

var (
	notarizeContent     string
	notarizeFile        string
	notarizeDescription string
)

// notarizeCmd represents the notarize command
var notarizeCmd = &cobra.Command{
	Use:   "notarize",
	Short: "Register a document digest on-chain",
	Long: `Hash a document and register the digest in the notary contract, then wait
for the transaction to be mined.

Example:
  notary notarize --content "hello world" --description "greeting"
  notary notarize --file ./contract.pdf`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := shell.NewRenderer(cmd.OutOrStdout())
		if notarizeFile == "" && notarizeContent == "" {
			r.EmptyContent()
			return service.ErrEmptyContent
		}

		sess, err := openSession(cmd.Context(), appConfig, r)
		if err != nil {
			return err
		}
		defer sess.Close()

		ctx, cancel := operationContext(cmd.Context())
		defer cancel()

		var res service.NotarizeResult
		if notarizeFile != "" {
			res = sess.svc.NotarizeFile(ctx, notarizeFile, notarizeDescription)
		} else {
			res = sess.svc.Notarize(ctx, []byte(notarizeContent), notarizeDescription)
		}
		r.NotarizeResult(res)
		return res.Err
	},
}

func init() {
	rootCmd.AddCommand(notarizeCmd)

	notarizeCmd.Flags().StringVar(&notarizeContent, "content", "", "document content")
	notarizeCmd.Flags().StringVar(&notarizeFile, "file", "", "path of the document to notarize")
	notarizeCmd.Flags().StringVar(&notarizeDescription, "description", "", "description stored with the digest")
	notarizeCmd.MarkFlagsMutuallyExclusive("content", "file")
	notarizeCmd.MarkFlagsOneRequired("content", "file")
}
