// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for network translation backends.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trackport/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds the backoff loop on rate-limited responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// TranslatorBackend identifies the translation service.
type TranslatorBackend string

const (
	BackendGoogle TranslatorBackend = "google"
	BackendLLM    TranslatorBackend = "llm"
)

// TranslatorConfig holds settings for the translation adapter.
type TranslatorConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects the service: google or llm.
	Backend TranslatorBackend `json:"backend" yaml:"backend"`

	// SourceLang and TargetLang are BCP 47 tags (e.g. "en", "zh-CN").
	SourceLang string `json:"source_lang" yaml:"source_lang"`
	TargetLang string `json:"target_lang" yaml:"target_lang"`

	// Endpoint overrides the google backend's URL.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Model, BaseURL and APIKey configure the llm backend.
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// CacheConfig holds settings for the SQLite translation cache and run history.
type CacheConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// ApplyConfig holds settings for the apply stage.
type ApplyConfig struct {
	// MinSimilarity rejects paragraph matches scoring below it. Zero
	// accepts any match with a positive ratio.
	MinSimilarity float64 `json:"min_similarity" yaml:"min_similarity"`

	// Author is recorded on every tracked revision written to the target.
	Author string `json:"author" yaml:"author"`

	// OutputSuffix is inserted before the target's extension to form the
	// output filename (default "_with_tracked_changes").
	OutputSuffix string `json:"output_suffix" yaml:"output_suffix"`

	// Verbose prints a word diff of every mutated paragraph.
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// Config groups every stage configuration for a run.
type Config struct {
	Translator TranslatorConfig `json:"translator" yaml:"translator"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Apply      ApplyConfig      `json:"apply" yaml:"apply"`
	LogLevel   string           `json:"log_level" yaml:"log_level"`
}
