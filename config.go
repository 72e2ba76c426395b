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
	"runtime"
	"time"

	billy "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"go.elastic.co/apm/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Config holds configuration for Loader.
type Config struct {
	// Logger holds an optional Logger to use for logging ingestion.
	//
	// All Elasticsearch errors will be logged at error level.
	//
	// If Logger is nil, logging will be disabled.
	Logger *zap.Logger

	// Tracer holds an optional apm.Tracer to use for tracing file
	// ingestions. Each file is traced as a transaction.
	//
	// If Tracer is nil, ingestion will not be traced.
	Tracer *apm.Tracer

	// FS holds the filesystem the loader reads input files from.
	//
	// If FS is nil, the operating system filesystem is used.
	FS Filesystem

	// CompressionLevel holds the gzip compression level, from 0 (gzip.NoCompression)
	// to 9 (gzip.BestCompression). Higher values provide greater compression, at a
	// greater cost of CPU. The special value -1 (gzip.DefaultCompression) selects the
	// default compression level.
	CompressionLevel int

	// Concurrency holds the maximum number of files ingested at the same
	// time. The same number of bulk request buffers is pooled, so peak
	// memory usage is approximately Concurrency*FlushBytes.
	//
	// If Concurrency is less than or equal to zero, GOMAXPROCS is used.
	Concurrency int

	// FlushBytes holds the flush threshold in bytes: when a file's buffered
	// actions reach it, they are sent as one bulk request and ingestion of
	// the file continues. If Compression is enabled, the number of documents
	// that can be buffered will be greater.
	//
	// If FlushBytes is zero, the default of 1MB will be used.
	FlushBytes int

	// FlushTimeout holds the flush timeout as a duration.
	//
	// If FlushTimeout is zero, no timeout will be used.
	FlushTimeout time.Duration

	// MaxLineBytes holds the largest input line the loader will read. Case
	// bodies can be large, so the default is a generous 10MB.
	MaxLineBytes int

	// Refresh holds the refresh directive sent with every bulk request.
	//
	// If Refresh is empty, "true" is used: documents become searchable as
	// soon as their request completes.
	Refresh string

	// MeterProvider holds the OTel MeterProvider to be used to create and
	// record loader metrics.
	//
	// If unset, the global OTel MeterProvider will be used, if that is unset,
	// no metrics will be recorded.
	MeterProvider metric.MeterProvider

	// MetricAttributes holds any extra attributes to set in the recorded
	// metrics.
	MetricAttributes attribute.Set
}

// DefaultConfig returns cfg with zero values replaced with defaults.
func DefaultConfig(cfg Config) Config {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.FS == nil {
		cfg.FS = billy.NewOSFS("/")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	if cfg.FlushBytes <= 0 {
		cfg.FlushBytes = 1 << 20
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 10 << 20
	}
	if cfg.Refresh == "" {
		cfg.Refresh = "true"
	}
	return cfg
}
