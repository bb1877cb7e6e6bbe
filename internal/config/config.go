// Package config defines the serializable configuration of a catalog sync job.
// A job file names the feed to read, how its tables are keyed, which database
// receives them and where metrics go.
//
// Files ending in .yaml or .yml are decoded with gopkg.in/yaml.v3; anything
// else is decoded as JSON. Field names are the same in both formats.
//
// Example (YAML):
//
//	job: shop-feed
//	source:
//	  kind: http
//	  http: { url: "https://example.com/feed.xml", timeout_seconds: 60 }
//	document: { root_tag: shop }
//	schema: { keyed_table: offers, vendor_code_key: vendorCode }
//	storage:
//	  kind: postgres
//	  db: { dsn: "${CATALOG_DSN}" }
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pipeline is the top-level job configuration.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job      string   `json:"job" yaml:"job"`
	Source   Source   `json:"source" yaml:"source"`
	Document Document `json:"document" yaml:"document"`
	Schema   Schema   `json:"schema" yaml:"schema"`
	Storage  Storage  `json:"storage" yaml:"storage"`
	Metrics  Metrics  `json:"metrics" yaml:"metrics"`
}

// Source identifies where the feed document comes from.
type Source struct {
	// Kind is "file" or "http".
	Kind string     `json:"kind" yaml:"kind"`
	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL                string            `json:"url" yaml:"url"`
	TimeoutSeconds     int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries         int               `json:"max_retries" yaml:"max_retries"`
	Headers            map[string]string `json:"headers" yaml:"headers"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Document configures how tables are located inside the feed.
type Document struct {
	// RootTag names the element whose children are the collections.
	RootTag string `json:"root_tag" yaml:"root_tag"`
}

// Schema configures natural-key selection.
type Schema struct {
	KeyedTable      string `json:"keyed_table" yaml:"keyed_table"`
	VendorCodeKey   string `json:"vendor_code_key" yaml:"vendor_code_key"`
	IDColumn        string `json:"id_column" yaml:"id_column"`
	VendorCodeMatch string `json:"vendor_code_match" yaml:"vendor_code_match"`
}

// Storage selects the database receiving the tables.
type Storage struct {
	// Kind is one of postgres, mssql, mysql, sqlite (aliases accepted).
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the driver connection string. ${VAR} references are expanded
	// from the environment by Load.
	DSN string `json:"dsn" yaml:"dsn"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	// Backend is "", "none", "prometheus" (Pushgateway) or "datadog".
	Backend        string   `json:"backend" yaml:"backend"`
	PushgatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr" yaml:"datadog_addr"`
	Namespace      string   `json:"namespace" yaml:"namespace"`
	Tags           []string `json:"tags" yaml:"tags"`
}

// Default values filled in by Defaults.
const (
	DefaultJob            = "tablesync"
	DefaultRootTag        = "shop"
	DefaultTimeoutSeconds = 60
	DefaultMaxRetries     = 3
)

// Defaults returns a copy of p with zero values replaced by defaults.
func Defaults(p Pipeline) Pipeline {
	if strings.TrimSpace(p.Job) == "" {
		p.Job = DefaultJob
	}
	if p.Document.RootTag == "" {
		p.Document.RootTag = DefaultRootTag
	}
	if p.Source.Kind == "http" {
		if p.Source.HTTP.TimeoutSeconds == 0 {
			p.Source.HTTP.TimeoutSeconds = DefaultTimeoutSeconds
		}
		if p.Source.HTTP.MaxRetries == 0 {
			p.Source.HTTP.MaxRetries = DefaultMaxRetries
		}
	}
	return p
}

// Load reads and decodes the job file at path, expands environment variables
// in the DSN and applies Defaults. It does not validate; see ValidatePipeline.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config %s: %w", path, err)
	}
	p, err := Decode(b, filepath.Ext(path))
	if err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// Decode decodes b according to ext (".yaml", ".yml" or anything else for
// JSON). Unknown fields are rejected in both formats.
func Decode(b []byte, ext string) (Pipeline, error) {
	var p Pipeline
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	}
	p.Storage.DB.DSN = os.ExpandEnv(p.Storage.DB.DSN)
	return Defaults(p), nil
}
