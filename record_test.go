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

package caseloader_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcorpus/caseloader"
)

func TestParseCaseRecord(t *testing.T) {
	rec, err := caseloader.ParseCaseRecord([]byte(`{"case_id": 7, "paragraphs": "text", "decide_date": "2019-01-01"}`))
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`7`), rec["case_id"])
	assert.Equal(t, json.RawMessage(`"text"`), rec["paragraphs"])

	for _, line := range []string{
		`{"case_id": 7`,
		`not json`,
		`null`,
		`[1,2,3]`,
	} {
		_, err := caseloader.ParseCaseRecord([]byte(line))
		assert.Error(t, err, "line %q", line)
	}
}

func TestCaseRecordDecided(t *testing.T) {
	for _, tc := range []struct {
		name    string
		line    string
		decided bool
	}{
		{"date", `{"decide_date": "2019-01-01"}`, true},
		{"empty_string", `{"decide_date": ""}`, false},
		{"zero", `{"decide_date": 0}`, false},
		{"zero_float", `{"decide_date": 0.0}`, false},
		{"null", `{"decide_date": null}`, false},
		{"false", `{"decide_date": false}`, false},
		{"true", `{"decide_date": true}`, true},
		{"number", `{"decide_date": 20190101}`, true},
		{"missing", `{"case_id": 1}`, false},
		{"empty_array", `{"decide_date": []}`, false},
		{"empty_object", `{"decide_date": {}}`, false},
		{"nonempty_array", `{"decide_date": ["2019"]}`, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := caseloader.ParseCaseRecord([]byte(tc.line))
			require.NoError(t, err)
			assert.Equal(t, tc.decided, rec.Decided())
		})
	}
}

func TestNewIndexDocument(t *testing.T) {
	rec, err := caseloader.ParseCaseRecord([]byte(
		`{"case_id": 7, "paragraphs": "text", "decide_date": "2019-01-01", "court": "supreme", "year": 2019}`,
	))
	require.NoError(t, err)

	doc, err := caseloader.NewIndexDocument(rec)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`7`), doc.ID())

	var buf bytes.Buffer
	_, err = doc.WriteTo(&buf)
	require.NoError(t, err)

	var envelope struct {
		Doc map[string]any `json:"doc"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &envelope))
	assert.NotContains(t, envelope.Doc, "paragraphs")
	assert.Equal(t, map[string]any{
		"case_id":     float64(7),
		"fulltext":    "text",
		"decide_date": "2019-01-01",
		"court":       "supreme",
		"year":        float64(2019),
	}, envelope.Doc)
}

func TestNewIndexDocumentStringID(t *testing.T) {
	rec, err := caseloader.ParseCaseRecord([]byte(`{"case_id": "c-7", "paragraphs": "text", "decide_date": "2019-01-01"}`))
	require.NoError(t, err)
	doc, err := caseloader.NewIndexDocument(rec)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"c-7"`), doc.ID())
}

func TestNewIndexDocumentMissingFields(t *testing.T) {
	rec, err := caseloader.ParseCaseRecord([]byte(`{"paragraphs": "text", "decide_date": "2019-01-01"}`))
	require.NoError(t, err)
	_, err = caseloader.NewIndexDocument(rec)
	assert.EqualError(t, err, "case record missing case_id")

	rec, err = caseloader.ParseCaseRecord([]byte(`{"case_id": 7, "decide_date": "2019-01-01"}`))
	require.NoError(t, err)
	_, err = caseloader.NewIndexDocument(rec)
	assert.EqualError(t, err, "case record missing paragraphs")
}

func TestIndexName(t *testing.T) {
	for _, tc := range []struct {
		path  string
		index string
	}{
		{"/data/xcases/2019-01-25/xcases_41_0.txt", "xcases_41_0"},
		{"/data/xcases/2019-01-25/a.b.c.txt", "a"},
		{"plain", "plain"},
		{"/data/in/.hidden", ""},
	} {
		assert.Equal(t, tc.index, caseloader.IndexName(tc.path), "path %q", tc.path)
	}
}
