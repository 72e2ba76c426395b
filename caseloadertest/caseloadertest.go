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

// Package caseloadertest provides test doubles for exercising the loader
// against a mock Elasticsearch /_bulk endpoint.
package caseloadertest

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.elastic.co/apm/module/apmelasticsearch/v2"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

// RecordedAction is one decoded action from a /_bulk request body.
type RecordedAction struct {
	// OpType is the action type, "update" for everything the loader sends.
	OpType string

	// Index and DocumentID are taken from the action metadata line. The id
	// is kept raw so tests can distinguish numeric from string ids.
	Index      string
	DocumentID json.RawMessage

	// Doc is the decoded document payload: the contents of the "doc" field
	// for update actions, or the whole source line otherwise.
	Doc map[string]any
}

type actionMeta struct {
	Index string          `json:"_index"`
	ID    json.RawMessage `json:"_id"`
}

// DecodeBulkRequest decodes a /_bulk request's body, returning the decoded
// actions and a response body.
func DecodeBulkRequest(r *http.Request) ([]RecordedAction, esutil.BulkIndexerResponse) {
	body := r.Body
	switch r.Header.Get("Content-Encoding") {
	case "gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			panic(err)
		}
		defer r.Close()
		body = r
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)
	var actions []RecordedAction
	var result esutil.BulkIndexerResponse
	for scanner.Scan() {
		meta := make(map[string]actionMeta)
		if err := json.NewDecoder(strings.NewReader(scanner.Text())).Decode(&meta); err != nil {
			panic(err)
		}
		var actionType string
		for actionType = range meta {
		}
		if !scanner.Scan() {
			panic("expected source")
		}

		source := append([]byte{}, scanner.Bytes()...)
		if !json.Valid(source) {
			panic(fmt.Errorf("invalid JSON: %s", source))
		}
		action := RecordedAction{
			OpType:     actionType,
			Index:      meta[actionType].Index,
			DocumentID: meta[actionType].ID,
		}
		if actionType == "update" {
			var envelope struct {
				Doc map[string]any `json:"doc"`
			}
			if err := json.Unmarshal(source, &envelope); err != nil {
				panic(err)
			}
			action.Doc = envelope.Doc
		} else {
			if err := json.Unmarshal(source, &action.Doc); err != nil {
				panic(err)
			}
		}
		actions = append(actions, action)

		item := esutil.BulkIndexerResponseItem{Status: http.StatusOK, Index: action.Index}
		result.Items = append(result.Items, map[string]esutil.BulkIndexerResponseItem{actionType: item})
	}
	return actions, result
}

// NewMockElasticsearchClient returns an elasticsearch.Client which sends /_bulk requests to bulkHandler.
func NewMockElasticsearchClient(t testing.TB, bulkHandler http.HandlerFunc) *elasticsearch.Client {
	config := NewMockElasticsearchClientConfig(t, bulkHandler)
	client, err := elasticsearch.NewClient(config)
	require.NoError(t, err)
	return client
}

// NewMockElasticsearchClientConfig starts an httptest.Server, and returns an elasticsearch.Config which
// sends /_bulk requests to bulkHandler. The httptest.Server will be closed via t.Cleanup.
func NewMockElasticsearchClientConfig(t testing.TB, bulkHandler http.HandlerFunc) elasticsearch.Config {
	mux := http.NewServeMux()
	HandleBulk(mux, bulkHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	config := elasticsearch.Config{}
	config.Addresses = []string{srv.URL}
	config.DisableRetry = true
	config.Transport = apmelasticsearch.WrapRoundTripper(http.DefaultTransport)

	return config
}

// HandleBulk registers bulkHandler with mux for handling /_bulk requests,
// wrapping bulkHandler to conform with go-elasticsearch version checking.
func HandleBulk(mux *http.ServeMux, bulkHandler http.HandlerFunc) {
	mux.HandleFunc("/_bulk", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		bulkHandler.ServeHTTP(w, r)
	})
}
