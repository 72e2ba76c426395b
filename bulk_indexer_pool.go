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

import "context"

// BulkIndexerPool is a bounded pool of reusable BulkIndexers shared by the
// file workers. The pool size caps how many bulk request buffers exist at
// once, so buffer memory is recycled across files instead of growing with
// the number of inputs.
type BulkIndexerPool struct {
	slots chan *BulkIndexer
}

// NewBulkIndexerPool returns a pool holding size indexers, each built from
// cfg. A size below 1 is treated as 1.
func NewBulkIndexerPool(size int, cfg BulkIndexerConfig) (*BulkIndexerPool, error) {
	if size < 1 {
		size = 1
	}
	p := &BulkIndexerPool{slots: make(chan *BulkIndexer, size)}
	for i := 0; i < size; i++ {
		bi, err := NewBulkIndexer(cfg)
		if err != nil {
			return nil, err
		}
		p.slots <- bi
	}
	return p, nil
}

// Get leases an indexer from the pool. When every indexer is leased it
// blocks until one is returned, or until ctx is done.
func (p *BulkIndexerPool) Get(ctx context.Context) (*BulkIndexer, error) {
	select {
	case bi := <-p.slots:
		return bi, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put resets the indexer and returns it to the pool. After calling Put no
// references to the indexer should be retained.
func (p *BulkIndexerPool) Put(bi *BulkIndexer) {
	if bi == nil {
		return
	}
	bi.Reset()
	p.slots <- bi
}
