package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/config"
	logpkg "github.com/kailas-cloud/docsearch/internal/logger"
)

var envFlag string

var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "Multi-tenant document search API",
	Long: `docsearch serves indexed documents over HTTP with per-index roles.

Configuration is read from config/<env>.yaml. The environment comes from
--env or the ENV variable and defaults to "local".`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "configuration environment (local, dev, prod)")
}

func environment() string {
	if envFlag != "" {
		return envFlag
	}
	return config.GetEnv()
}

// bootstrap loads configuration and builds the logger for env.
func bootstrap(env string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
