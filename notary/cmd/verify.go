package cmd

import (
	"fmt"

	"github.com/LumeraProtocol/notary/notary/service"
	"github.com/LumeraProtocol/notary/notary/shell"
	"github.com/LumeraProtocol/notary/pkg/hasher"
	"github.com/spf13/cobra"
)

var (
	verifyContent string
	verifyFile    string
	verifyDigest  string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check whether a document was notarized",
	Long: `Hash a document (or take a precomputed digest) and look it up in the notary
contract. A document that is not registered is reported, not treated as an error.

Example:
  notary verify --content "hello world"
  notary verify --file ./contract.pdf
  notary verify --digest b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var digest hasher.Digest
		if verifyDigest != "" {
			d, err := hasher.ParseDigest(verifyDigest)
			if err != nil {
				return fmt.Errorf("invalid --digest: %w", err)
			}
			digest = d
		}

		r := shell.NewRenderer(cmd.OutOrStdout())
		if verifyDigest == "" && verifyFile == "" && verifyContent == "" {
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

		var res service.VerifyResult
		switch {
		case verifyDigest != "":
			res = sess.svc.VerifyDigest(ctx, digest)
		case verifyFile != "":
			res = sess.svc.VerifyFile(ctx, verifyFile)
		default:
			res = sess.svc.Verify(ctx, []byte(verifyContent))
		}
		r.VerifyResult(res)
		return res.Err
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyContent, "content", "", "document content")
	verifyCmd.Flags().StringVar(&verifyFile, "file", "", "path of the document to verify")
	verifyCmd.Flags().StringVar(&verifyDigest, "digest", "", "hex digest to look up directly")
	verifyCmd.MarkFlagsMutuallyExclusive("content", "file", "digest")
	verifyCmd.MarkFlagsOneRequired("content", "file", "digest")
}
