// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package cli implements the caseloader command line interface.
package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/cobra"
	"go.elastic.co/apm/module/apmelasticsearch/v2"
	"go.elastic.co/apm/module/apmzap/v2"
	"go.elastic.co/apm/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lexcorpus/caseloader"
	"github.com/lexcorpus/caseloader/internal/config"
)

var (
	cfgFile     string
	rootDir     string
	concurrency int
)

var rootCmd = &cobra.Command{
	Use:          "caseloader",
	Short:        "Bulk-load line-delimited JSON case records into Elasticsearch",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML)")
	rootCmd.Flags().StringVar(&rootDir, "root", "", "root directory holding the input files")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "maximum number of files ingested concurrently")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	// Flags override the config file and environment.
	if rootDir != "" {
		cfg.Loader.RootDir = rootDir
	}
	if concurrency > 0 {
		cfg.Loader.Concurrency = concurrency
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Transport: apmelasticsearch.WrapRoundTripper(http.DefaultTransport),
	})
	if err != nil {
		return fmt.Errorf("creating elasticsearch client: %w", err)
	}

	loader, err := caseloader.New(client, caseloader.Config{
		Logger:           logger,
		Tracer:           apm.DefaultTracer(),
		CompressionLevel: cfg.Elasticsearch.CompressionLevel,
		Concurrency:      cfg.Loader.Concurrency,
		FlushBytes:       cfg.Loader.FlushBytes,
		FlushTimeout:     time.Duration(cfg.Loader.FlushTimeout),
		MaxLineBytes:     cfg.Loader.MaxLineBytes,
		Refresh:          cfg.Loader.Refresh,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := loader.Run(ctx, cfg.Loader.RootDir)
	for _, res := range results {
		if res.Err != nil {
			logger.Error("file ingestion failed",
				zap.String("path", res.Path),
				zap.String("index", res.Index),
				zap.Error(res.Err),
			)
			continue
		}
		logger.Info("file ingested",
			zap.String("path", res.Path),
			zap.String("index", res.Index),
			zap.Int64("docs", res.Indexed),
			zap.Int64("skipped", res.Skipped),
		)
	}
	if err != nil {
		return fmt.Errorf("ingestion finished with failures: %w", err)
	}
	logger.Info("ingestion complete", zap.Int("files", len(results)))
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	if cfg.Encoding != "" {
		zcfg.Encoding = cfg.Encoding
	}
	// Error logs are forwarded to APM when the agent is active.
	return zcfg.Build(zap.WrapCore((&apmzap.Core{}).WrapCore))
}
