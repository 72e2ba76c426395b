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

// Package config loads caseloader configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Loader        LoaderConfig        `yaml:"loader"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ElasticsearchConfig holds connection parameters for the search backend.
type ElasticsearchConfig struct {
	Addresses        []string `yaml:"addresses"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	CompressionLevel int      `yaml:"compressionLevel"`
}

// LoaderConfig controls which directory is ingested and how.
type LoaderConfig struct {
	RootDir      string   `yaml:"rootDir"`
	Concurrency  int      `yaml:"concurrency"`
	FlushBytes   int      `yaml:"flushBytes"`
	FlushTimeout Duration `yaml:"flushTimeout"`
	MaxLineBytes int      `yaml:"maxLineBytes"`
	Refresh      string   `yaml:"refresh"`
}

// Duration wraps time.Duration so YAML values can be written as "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// LoggingConfig controls structured logging level and encoding.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Elasticsearch: ElasticsearchConfig{
			Addresses: []string{"http://localhost:9200"},
		},
		Loader: LoaderConfig{
			RootDir: "/data/xcases/2019-01-25",
			Refresh: "true",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// applyEnvOverrides reads CASELOADER_* environment variables and overrides
// the corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CASELOADER_ES_ADDRESSES"); v != "" {
		cfg.Elasticsearch.Addresses = strings.Split(v, ",")
	}
	if v := os.Getenv("CASELOADER_ES_USERNAME"); v != "" {
		cfg.Elasticsearch.Username = v
	}
	if v := os.Getenv("CASELOADER_ES_PASSWORD"); v != "" {
		cfg.Elasticsearch.Password = v
	}
	if v := os.Getenv("CASELOADER_ROOT_DIR"); v != "" {
		cfg.Loader.RootDir = v
	}
	if v := os.Getenv("CASELOADER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Loader.Concurrency = n
		}
	}
	if v := os.Getenv("CASELOADER_FLUSH_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Loader.FlushBytes = n
		}
	}
	if v := os.Getenv("CASELOADER_REFRESH"); v != "" {
		cfg.Loader.Refresh = v
	}
	if v := os.Getenv("CASELOADER_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CASELOADER_LOGGING_ENCODING"); v != "" {
		cfg.Logging.Encoding = v
	}
}
