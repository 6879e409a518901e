package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kdcflow/internal/config"
	"kdcflow/internal/logging"
	"kdcflow/internal/pipeline"
	"kdcflow/internal/providers"
)

var (
	verbose  bool
	timeout  time.Duration
	provider string

	cfg    config.Config
	logger *zap.Logger

	// newPipeline is replaced in tests.
	newPipeline = func(cfg config.Config, log *zap.Logger) (*pipeline.Pipeline, error) {
		pm, err := providers.NewManager(cfg)
		if err != nil {
			return nil, err
		}
		if pm, err = pinProvider(pm, provider); err != nil {
			return nil, err
		}
		return pipeline.Build(cfg, pm.WithLogger(log.Named("providers")), log)
	}
)

// pinProvider narrows the failover list to one configured provider.
func pinProvider(pm *providers.Manager, name string) (*providers.Manager, error) {
	if name == "" {
		return pm, nil
	}
	p, ref, ok := pm.FindLLMProviderByName(name)
	if !ok {
		return nil, fmt.Errorf("provider %q is not in KDCFLOW_LLM_PROVIDERS", name)
	}
	return providers.NewManagerWith(providers.NamedLLMProvider{Ref: ref, Provider: p}), nil
}

var rootCmd = &cobra.Command{
	Use:   "kdc",
	Short: "Assign Korean Decimal Classification codes to books",
	Long: `kdc classifies books into KDC three digit classes.

A coarse class from the national library registry constrains the answer,
a keyword scorer and a language model propose candidates, and every
decision carries an evidence record explaining how it was reached.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(".env")
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = logging.New(logging.Verbose(cfg.LogLevel, verbose))
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall operation timeout")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Use only this provider from KDCFLOW_LLM_PROVIDERS")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(taxonomyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
