package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	databaseName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	langCode     = regexp.MustCompile(`^[a-z]{2,3}([-_][A-Za-z0-9]+)*$`)

	// knownCriticalFields lists the sense fields that can be carried forward
	// by a form merge.
	knownCriticalFields = []string{
		"definition", "gloss", "grammatical_info", "examples", "notes", "semantic_domains", "traits",
	}
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if err := c.BaseX.validate(); err != nil {
		return fmt.Errorf("basex: %w", err)
	}
	if err := c.Dictionary.validate(); err != nil {
		return fmt.Errorf("dictionary: %w", err)
	}
	if c.Corpus.Workers <= 0 || c.Corpus.BatchSize <= 0 || c.Corpus.CacheSize <= 0 {
		return fmt.Errorf("corpus: workers, batch_size and cache_size must be > 0")
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be >= 0 (got %v)", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst must be > 0 when limiting is enabled")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if !slices.Contains([]string{"json", "text"}, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format %q is not one of json, text", c.Log.Format)
	}
	return nil
}

func (b *BaseXConfig) validate() error {
	if b.Host == "" {
		return fmt.Errorf("host is required")
	}
	if b.Port <= 0 || b.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535 (got %d)", b.Port)
	}
	if !databaseName.MatchString(b.EffectiveDatabase()) {
		return fmt.Errorf("database name %q must match %s", b.EffectiveDatabase(), databaseName)
	}
	if b.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0 (got %d)", b.MaxRetries)
	}
	return nil
}

func (d *DictionaryConfig) validate() error {
	if d.DefaultPageSize <= 0 || d.MaxPageSize < d.DefaultPageSize {
		return fmt.Errorf("page sizes must satisfy 0 < default_page_size <= max_page_size (got %d, %d)",
			d.DefaultPageSize, d.MaxPageSize)
	}
	if d.ImportChunkSize <= 0 {
		return fmt.Errorf("import_chunk_size must be > 0 (got %d)", d.ImportChunkSize)
	}
	for _, lang := range []string{d.AnalysisLang, d.VernacularLang} {
		if !langCode.MatchString(lang) {
			return fmt.Errorf("language code %q is invalid", lang)
		}
	}

	fields, err := ParseCriticalFields(d.CriticalFieldsRaw)
	if err != nil {
		return fmt.Errorf("critical_fields: %w", err)
	}
	d.CriticalFields = fields
	return nil
}

// ParseCriticalFields parses a comma-separated list of sense field names.
// An empty string returns a nil slice.
func ParseCriticalFields(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !slices.Contains(knownCriticalFields, p) {
			return nil, fmt.Errorf("unknown field %q", p)
		}
		if !slices.Contains(fields, p) {
			fields = append(fields, p)
		}
	}
	return fields, nil
}
