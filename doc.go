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

// Package caseloader bulk-loads line-delimited JSON case records into
// Elasticsearch.
//
// Each input file under a root directory holds one JSON case record per
// line. A file is ingested independently: records are reshaped (the
// "paragraphs" field becomes "fulltext"), wrapped in bulk update actions
// keyed by their "case_id", and streamed to the _bulk API. The target index
// for a file is the file's base name up to the first '.'.
//
// Files are processed by a bounded pool of workers sharing one Elasticsearch
// client. A failure in one file is reported in that file's result and does
// not affect sibling files.
package caseloader
