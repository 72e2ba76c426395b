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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Elasticsearch.Addresses)
	assert.Equal(t, "/data/xcases/2019-01-25", cfg.Loader.RootDir)
	assert.Equal(t, "true", cfg.Loader.Refresh)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Encoding)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caseloader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
elasticsearch:
  addresses:
    - http://es1:9200
    - http://es2:9200
  username: loader
  password: hunter2
  compressionLevel: 9
loader:
  rootDir: /srv/cases
  concurrency: 4
  flushBytes: 5242880
  flushTimeout: 30s
  maxLineBytes: 20971520
  refresh: wait_for
logging:
  level: debug
  encoding: console
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Elasticsearch.Addresses)
	assert.Equal(t, "loader", cfg.Elasticsearch.Username)
	assert.Equal(t, "hunter2", cfg.Elasticsearch.Password)
	assert.Equal(t, 9, cfg.Elasticsearch.CompressionLevel)
	assert.Equal(t, "/srv/cases", cfg.Loader.RootDir)
	assert.Equal(t, 4, cfg.Loader.Concurrency)
	assert.Equal(t, 5242880, cfg.Loader.FlushBytes)
	assert.Equal(t, Duration(30*time.Second), cfg.Loader.FlushTimeout)
	assert.Equal(t, 20971520, cfg.Loader.MaxLineBytes)
	assert.Equal(t, "wait_for", cfg.Loader.Refresh)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Encoding)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caseloader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
loader:
  rootDir: /srv/cases
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/cases", cfg.Loader.RootDir)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Elasticsearch.Addresses)
	assert.Equal(t, "true", cfg.Loader.Refresh)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CASELOADER_ES_ADDRESSES", "http://es1:9200,http://es2:9200")
	t.Setenv("CASELOADER_ES_USERNAME", "loader")
	t.Setenv("CASELOADER_ROOT_DIR", "/srv/override")
	t.Setenv("CASELOADER_CONCURRENCY", "8")
	t.Setenv("CASELOADER_FLUSH_BYTES", "1024")
	t.Setenv("CASELOADER_REFRESH", "false")
	t.Setenv("CASELOADER_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Elasticsearch.Addresses)
	assert.Equal(t, "loader", cfg.Elasticsearch.Username)
	assert.Equal(t, "/srv/override", cfg.Loader.RootDir)
	assert.Equal(t, 8, cfg.Loader.Concurrency)
	assert.Equal(t, 1024, cfg.Loader.FlushBytes)
	assert.Equal(t, "false", cfg.Loader.Refresh)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caseloader.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loader: [not a mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}
