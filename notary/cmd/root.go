package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/LumeraProtocol/notary/notary/config"
	"github.com/LumeraProtocol/notary/pkg/logtrace"
	"github.com/spf13/cobra"
)

const skipConfigAnnotation = "notary/skip-config"

var (
	cfgFile   string
	logLevel  string
	opTimeout time.Duration
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notary",
	Short: "Notarize and verify documents on an EVM chain",
	Long: `notary registers the SHA-256 digest of a document in a notary smart contract
and checks later whether a document was registered, when, and by whom.

Run without a subcommand to open the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(logLevel, config.DefaultLogEnv)
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return nil
		}

		path := cfgFile
		if path == "" {
			path = config.DefaultConfigPath()
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		appConfig = cfg

		if !cmd.Flags().Changed("log-level") {
			setupLogging(cfg.Log.Level, cfg.Log.Env)
		} else {
			setupLogging(logLevel, cfg.Log.Env)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logtrace.Sync()
	},
	RunE: runShell,
}

func setupLogging(level, env string) {
	if level == "" {
		level = config.DefaultLogLevel
	}
	logtrace.Setup("notary", env, logtrace.ParseLevel(level))
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.notary/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")
	rootCmd.PersistentFlags().DurationVar(&opTimeout, "timeout", 0, "bound each operation, e.g. 5m (0 = no bound beyond chain.confirm_timeout)")
}
