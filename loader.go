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

package caseloader

import (
	"context"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader ingests every file under a root directory into Elasticsearch,
// bounded by cfg.Concurrency workers sharing one client and one pool of
// bulk request buffers.
type Loader struct {
	config  Config
	client  esapi.Transport
	pool    *BulkIndexerPool
	metrics metrics
}

// New returns a Loader that ingests case record files through client.
// It is only tested with the v8 go-elasticsearch client. Use other clients
// at your own risk.
func New(client esapi.Transport, cfg Config) (*Loader, error) {
	cfg = DefaultConfig(cfg)
	if client == nil {
		return nil, errors.New("client is nil")
	}
	ms, err := newMetrics(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := NewBulkIndexerPool(cfg.Concurrency, BulkIndexerConfig{
		Client:           client,
		CompressionLevel: cfg.CompressionLevel,
		Refresh:          cfg.Refresh,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating bulk indexer pool: %w", err)
	}
	return &Loader{config: cfg, client: client, pool: pool, metrics: ms}, nil
}

// Run scans root and ingests every file found there, at most
// cfg.Concurrency files at a time. Every file gets a FileResult, in listing
// order, and one file's failure does not stop its siblings. The returned
// error joins the per-file failures, if any. A missing root yields no
// results and no error.
func (l *Loader) Run(ctx context.Context, root string) ([]FileResult, error) {
	paths, err := ScanDir(l.config.FS, root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		l.config.Logger.Info("no input files", zap.String("root", root))
		return nil, nil
	}

	results := make([]FileResult, len(paths))
	var g errgroup.Group
	g.SetLimit(l.config.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = l.IngestFile(ctx, path)
			return nil
		})
	}
	// Workers report through results, never through the group error.
	_ = g.Wait()

	attrs := metric.WithAttributeSet(l.config.MetricAttributes)
	var errs []error
	for i := range results {
		if err := results[i].Err; err != nil {
			l.metrics.filesFailed.Add(context.Background(), 1, attrs)
			errs = append(errs, fmt.Errorf("%s: %w", results[i].Path, err))
			continue
		}
		l.metrics.filesCompleted.Add(context.Background(), 1, attrs)
	}
	return results, errors.Join(errs...)
}
