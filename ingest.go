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
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.elastic.co/apm/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// IndexName returns the target index for an input file: the base name up to
// the first '.'. "xcases_41_0.txt" maps to "xcases_41_0" and "a.b.c.txt"
// maps to "a".
func IndexName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), ".")
	return name
}

// FileResult reports the outcome of one file's ingestion.
type FileResult struct {
	// Path and Index identify the input file and its derived target index.
	Path  string
	Index string

	// Docs is the number of update actions produced, Indexed the number
	// acknowledged by Elasticsearch, Skipped the number of records gated
	// out by a falsy decide_date, and Failed the number rejected at the
	// item level.
	Docs    int64
	Indexed int64
	Skipped int64
	Failed  int64

	// BytesFlushed is the total request body bytes sent for this file.
	BytesFlushed int64

	// Err is non-nil when ingestion of the file was aborted.
	Err error
}

// IngestFile ingests one file: every line is parsed as a case record,
// reshaped, and queued as a bulk update action against the file's index.
// Buffered actions are flushed whenever they reach cfg.FlushBytes, and once
// more at the end of the file.
//
// The first malformed line aborts the file and remaining lines are never
// read. Whether actions flushed before an abort are already durably indexed
// depends on Elasticsearch batching and refresh timing, and is left
// undefined.
func (l *Loader) IngestFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path, Index: IndexName(path)}
	if l.config.Tracer != nil {
		tx := l.config.Tracer.StartTransaction("caseloader.ingest "+res.Index, "ingest")
		defer tx.End()
		ctx = apm.ContextWithTransaction(ctx, tx)
	}
	logger := l.config.Logger.With(zap.String("path", path), zap.String("index", res.Index))
	attrs := metric.WithAttributeSet(l.config.MetricAttributes)

	start := time.Now()
	defer func() {
		l.metrics.fileDuration.Record(context.Background(), time.Since(start).Seconds(), attrs)
	}()

	f, err := l.config.FS.Open(path)
	if err != nil {
		res.Err = fmt.Errorf("opening input file: %w", err)
		return res
	}
	defer f.Close()

	bi, err := l.pool.Get(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	defer l.pool.Put(bi)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), l.config.MaxLineBytes)
	var line int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		line++
		rec, err := ParseCaseRecord(scanner.Bytes())
		if err != nil {
			res.Err = fmt.Errorf("line %d: %w", line, err)
			return res
		}
		l.metrics.docsRead.Add(context.Background(), 1, attrs)
		if !rec.Decided() {
			res.Skipped++
			l.metrics.docsSkipped.Add(context.Background(), 1, attrs)
			continue
		}
		doc, err := NewIndexDocument(rec)
		if err != nil {
			res.Err = fmt.Errorf("line %d: %w", line, err)
			return res
		}
		if err := bi.Add(BulkIndexerItem{
			Index:      res.Index,
			DocumentID: doc.ID(),
			Body:       doc,
		}); err != nil {
			res.Err = fmt.Errorf("line %d: %w", line, err)
			return res
		}
		res.Docs++
		logger.Debug("queued case record", zap.Int64("count", res.Docs))
		if bi.Len() >= l.config.FlushBytes {
			if err := l.flush(ctx, bi, &res, logger); err != nil {
				res.Err = err
				return res
			}
		}
	}
	if err := scanner.Err(); err != nil {
		res.Err = fmt.Errorf("reading input file: %w", err)
		return res
	}
	if err := l.flush(ctx, bi, &res, logger); err != nil {
		res.Err = err
		return res
	}
	logger.Info("file ingested",
		zap.Int64("docs", res.Indexed),
		zap.Int64("skipped", res.Skipped),
		zap.Int64("bytes", res.BytesFlushed),
	)
	return res
}

// flush sends the buffered actions as one bulk request and folds the
// response into res. Item-level rejections fail the file: a partially
// rejected bulk submission is treated as fatal for its file.
func (l *Loader) flush(ctx context.Context, bi *BulkIndexer, res *FileResult, logger *zap.Logger) error {
	n := bi.Items()
	if n == 0 {
		return nil
	}
	attrs := metric.WithAttributeSet(l.config.MetricAttributes)
	defer l.metrics.bulkRequests.Add(context.Background(), 1, attrs)

	flushCtx := ctx
	if l.config.FlushTimeout != 0 {
		var cancel context.CancelFunc
		flushCtx, cancel = context.WithTimeout(ctx, l.config.FlushTimeout)
		defer cancel()
	}

	var stat BulkIndexerResponseStat
	var err error
	took := timeFunc(func() {
		stat, err = bi.Flush(flushCtx)
	})
	l.metrics.flushDuration.Record(context.Background(), took.Seconds(), attrs)
	if flushed := bi.BytesFlushed(); flushed > 0 {
		res.BytesFlushed += int64(flushed)
		l.metrics.bytesTotal.Add(context.Background(), int64(flushed), attrs)
	}
	if err != nil {
		logger.Error("bulk indexing request failed", zap.Error(err))
		l.metrics.docsIndexed.Add(context.Background(), int64(n), attrs,
			metric.WithAttributes(attribute.String("status", "Failed")))
		return err
	}

	res.Indexed += stat.Indexed
	if stat.Indexed > 0 {
		l.metrics.docsIndexed.Add(context.Background(), stat.Indexed, attrs,
			metric.WithAttributes(attribute.String("status", "Success")))
	}
	if len(stat.FailedDocs) == 0 {
		return nil
	}
	res.Failed += int64(len(stat.FailedDocs))
	l.metrics.docsIndexed.Add(context.Background(), int64(len(stat.FailedDocs)), attrs,
		metric.WithAttributes(attribute.String("status", "Failed")))
	failedCount := make(map[BulkIndexerResponseItem]int, len(stat.FailedDocs))
	for _, info := range stat.FailedDocs {
		info.Position = 0 // reset position so that the response item can be used as key in the map
		failedCount[info]++
	}
	for key, count := range failedCount {
		logger.Error(fmt.Sprintf("failed to index documents in '%s' (%s): %s",
			key.Index, key.Error.Type, key.Error.Reason,
		), zap.Int("documents", count))
	}
	return fmt.Errorf("%d documents failed to index", len(stat.FailedDocs))
}

func timeFunc(f func()) time.Duration {
	t0 := time.Now()
	if f != nil {
		f()
	}
	return time.Since(t0)
}
