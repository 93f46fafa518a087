package pdfword

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/pdfword/layout"
	"github.com/brunobiangulo/pdfword/store"
	"github.com/brunobiangulo/pdfword/structure"
)

// Config holds all configuration for the converter and the server.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `json:"addr" yaml:"addr"`

	// APIKey enables bearer authentication on the server when set.
	APIKey string `json:"api_key" yaml:"api_key"`

	// CORSOrigins lists allowed origins. Empty disables CORS headers.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`

	MaxUploadMB    int      `json:"max_upload_mb" yaml:"max_upload_mb"`
	ConvertTimeout Duration `json:"convert_timeout" yaml:"convert_timeout"`

	// Alignment is none, positional (default) or matched.
	Alignment string `json:"alignment" yaml:"alignment"`

	// DuplicateHeadings is reset (default), merge or number.
	DuplicateHeadings string `json:"duplicate_headings" yaml:"duplicate_headings"`

	// Fallback enables the pdftotext reading-order backend for documents
	// whose text still carries glyph escapes.
	Fallback bool `json:"fallback" yaml:"fallback"`

	Storage store.Config `json:"storage" yaml:"storage"`
}

// Duration is a time.Duration written as a Go duration string ("2m").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		MaxUploadMB:       50,
		ConvertTimeout:    Duration(2 * time.Minute),
		Alignment:         string(layout.Positional),
		DuplicateHeadings: "reset",
		Fallback:          true,
		Storage: store.Config{
			Backend:    store.BackendFS,
			Dir:        "data",
			SQLitePath: filepath.Join("data", "pdfword.db"),
		},
	}
}

// LoadConfigFile reads YAML or JSON over DefaultConfig. The extension picks
// the format; anything else is tried as YAML then JSON.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			if jerr := json.Unmarshal(b, &cfg); jerr != nil {
				return cfg, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return cfg, nil
}

// ApplyEnv loads an optional .env file and overlays PDFWORD_* variables.
// Variables already set in the environment win over .env entries.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	strs := map[string]*string{
		"PDFWORD_ADDR":               &c.Addr,
		"PDFWORD_API_KEY":            &c.APIKey,
		"PDFWORD_ALIGNMENT":          &c.Alignment,
		"PDFWORD_DUPLICATE_HEADINGS": &c.DuplicateHeadings,
		"PDFWORD_STORAGE_BACKEND":    &c.Storage.Backend,
		"PDFWORD_STORAGE_DIR":        &c.Storage.Dir,
		"PDFWORD_SQLITE_PATH":        &c.Storage.SQLitePath,
		"PDFWORD_S3_BUCKET":          &c.Storage.S3.Bucket,
		"PDFWORD_S3_REGION":          &c.Storage.S3.Region,
		"PDFWORD_S3_PREFIX":          &c.Storage.S3.Prefix,
		"PDFWORD_S3_ENDPOINT":        &c.Storage.S3.Endpoint,
		"PDFWORD_S3_ACCESS_KEY":      &c.Storage.S3.AccessKey,
		"PDFWORD_S3_SECRET_KEY":      &c.Storage.S3.SecretKey,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("PDFWORD_CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("PDFWORD_MAX_UPLOAD_MB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PDFWORD_MAX_UPLOAD_MB=%q", ErrInvalidConfig, v)
		}
		c.MaxUploadMB = n
	}
	if v, ok := os.LookupEnv("PDFWORD_CONVERT_TIMEOUT"); ok {
		if err := c.ConvertTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: PDFWORD_CONVERT_TIMEOUT=%q", ErrInvalidConfig, v)
		}
	}
	if v, ok := os.LookupEnv("PDFWORD_FALLBACK"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: PDFWORD_FALLBACK=%q", ErrInvalidConfig, v)
		}
		c.Fallback = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks enumerations and limits.
func (c *Config) Validate() error {
	if _, err := layout.ParseMode(c.Alignment); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := structure.ParseDuplicatePolicy(c.DuplicateHeadings); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: max_upload_mb must be positive", ErrInvalidConfig)
	}
	if c.ConvertTimeout <= 0 {
		return fmt.Errorf("%w: convert_timeout must be positive", ErrInvalidConfig)
	}
	switch c.Storage.Backend {
	case "", store.BackendFS, store.BackendSQLite:
	case store.BackendS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("%w: storage.s3.bucket is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	return nil
}
