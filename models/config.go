// Package models defines shared data structures for configuration, documents and errors.
package models

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkerCount     = 1
	DefaultDocumentTimeout = 2 * time.Minute
	DefaultMaxFileSize     = int64(200 * 1024 * 1024)
)

// RunConfig holds runtime configuration for a counting run.
// Values come from defaults, an optional YAML file, environment and CLI flags,
// in increasing priority.
type RunConfig struct {
	Vocabulary      string        `yaml:"vocabulary"`
	Documents       string        `yaml:"documents"`
	Output          string        `yaml:"output"`
	Format          string        `yaml:"format,omitempty"`
	Manifest        string        `yaml:"manifest,omitempty"`
	NoManifest      bool          `yaml:"no_manifest"`
	Extensions      []string      `yaml:"extensions,omitempty"`
	WorkerCount     int           `yaml:"workers"`
	DocumentTimeout time.Duration `yaml:"document_timeout"`
	MaxFileSize     int64         `yaml:"max_file_size"`
	MeanStrategy    MeanStrategy  `yaml:"mean_strategy"`
	SortByTotal     bool          `yaml:"sort_by_total"`
	KeepMetadata    bool          `yaml:"keep_columns"`
	DetectLanguage  bool          `yaml:"detect_language"`
	Languages       []string      `yaml:"languages,omitempty"`
	DBPath          string        `yaml:"db,omitempty"`
	NoHistory       bool          `yaml:"no_history"`
}

// DefaultRunConfig returns a config with every optional knob set.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Extensions:      []string{".pdf"},
		WorkerCount:     DefaultWorkerCount,
		DocumentTimeout: DefaultDocumentTimeout,
		MaxFileSize:     DefaultMaxFileSize,
		MeanStrategy:    MeanPooled,
	}
}

// LoadConfig reads a YAML config file on top of DefaultRunConfig.
func LoadConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: reading config %s: %v", ErrConfiguration, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing config %s: %v", ErrConfiguration, path, err)
	}

	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c RunConfig) Validate() error {
	if strings.TrimSpace(c.Vocabulary) == "" {
		return fmt.Errorf("%w: no vocabulary file given", ErrConfiguration)
	}
	if strings.TrimSpace(c.Documents) == "" {
		return fmt.Errorf("%w: no document folder given", ErrConfiguration)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: no output file given", ErrConfiguration)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrConfiguration, c.WorkerCount)
	}
	if c.DocumentTimeout <= 0 {
		return fmt.Errorf("%w: document timeout must be positive", ErrConfiguration)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: no document extensions given", ErrConfiguration)
	}
	if _, err := ParseMeanStrategy(string(c.MeanStrategy)); err != nil {
		return err
	}
	return nil
}

// NormalizedExtensions returns the configured extensions lower-cased with a leading dot.
func (c RunConfig) NormalizedExtensions() []string {
	exts := make([]string, 0, len(c.Extensions))
	for _, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}
