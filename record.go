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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"go.elastic.co/fastjson"
)

const (
	fieldCaseID     = "case_id"
	fieldParagraphs = "paragraphs"
	fieldFulltext   = "fulltext"
	fieldDecideDate = "decide_date"
)

var (
	errMissingCaseID     = errors.New("case record missing case_id")
	errMissingParagraphs = errors.New("case record missing paragraphs")
)

var jsonstd = jsoniter.ConfigCompatibleWithStandardLibrary

// CaseRecord is one parsed JSON line of an input file. Values are kept in
// their raw encoding so that fields the loader does not know about pass
// through to the index unchanged.
type CaseRecord map[string]json.RawMessage

// ParseCaseRecord parses a single input line. A line that is not a JSON
// object is an error; the caller aborts the file on the first one.
func ParseCaseRecord(line []byte) (CaseRecord, error) {
	var rec CaseRecord
	if err := jsonstd.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("invalid case record: %w", err)
	}
	if rec == nil {
		return nil, errors.New("invalid case record: not a JSON object")
	}
	return rec, nil
}

// Decided reports whether the record carries a truthy decide_date. Records
// without one are excluded from indexing; this is an intentional skip, not
// an error.
func (r CaseRecord) Decided() bool {
	raw, ok := r[fieldDecideDate]
	if !ok {
		return false
	}
	return truthy(raw)
}

// truthy reports whether a raw JSON value is truthy: null, false, numeric
// zero, and empty strings, arrays and objects all gate a record out.
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false":
		return false
	case "true":
		return true
	}
	switch v[0] {
	case '"':
		return len(v) > 2
	case '[', '{':
		inner := bytes.TrimSpace(v[1 : len(v)-1])
		return len(inner) > 0
	default:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return true
		}
		return f != 0
	}
}

// IndexDocument is the reshaped record sent to the search backend: the
// original fields with paragraphs renamed to fulltext, keyed by case_id.
type IndexDocument struct {
	id     json.RawMessage
	fields CaseRecord
	keys   []string
}

// NewIndexDocument reshapes rec in place: fulltext is set to the paragraphs
// value and the paragraphs key is dropped. All other fields are untouched.
// It fails if rec lacks a case_id or a paragraphs field.
func NewIndexDocument(rec CaseRecord) (*IndexDocument, error) {
	id, ok := rec[fieldCaseID]
	if !ok {
		return nil, errMissingCaseID
	}
	text, ok := rec[fieldParagraphs]
	if !ok {
		return nil, errMissingParagraphs
	}
	rec[fieldFulltext] = text
	delete(rec, fieldParagraphs)

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &IndexDocument{id: id, fields: rec, keys: keys}, nil
}

// ID returns the raw case_id value. It is embedded verbatim in the bulk
// action metadata, so a numeric id stays numeric and a string id stays a
// string.
func (d *IndexDocument) ID() json.RawMessage { return d.id }

// WriteTo writes the bulk update envelope, {"doc":{...}}, for the document.
func (d *IndexDocument) WriteTo(w io.Writer) (int64, error) {
	var jw fastjson.Writer
	jw.RawString(`{"doc":{`)
	for i, k := range d.keys {
		if i > 0 {
			jw.RawByte(',')
		}
		jw.String(k)
		jw.RawByte(':')
		jw.RawBytes(d.fields[k])
	}
	jw.RawString(`}}`)
	n, err := w.Write(jw.Bytes())
	return int64(n), err
}
