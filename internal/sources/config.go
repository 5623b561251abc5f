package sources

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/normalize"
)

// Source keys used in sources.yaml.
const (
	KeyAdzuna    = "adzuna"
	KeyRemoteOK  = "remoteok"
	KeyRemotive  = "remotive"
	KeyArbeitnow = "arbeitnow"
	KeyJobicy    = "jobicy"
	KeyTheMuse   = "themuse"
	KeyHimalayas = "himalayas"
	KeyReliefWeb = "reliefweb"
)

// Order is the fixed adapter order. Earlier sources win deduplication.
var Order = []string{
	KeyAdzuna,
	KeyRemoteOK,
	KeyRemotive,
	KeyArbeitnow,
	KeyJobicy,
	KeyTheMuse,
	KeyHimalayas,
	KeyReliefWeb,
}

// Settings is the per-source block of sources.yaml. Zero values inherit
// the built-in defaults; booleans are pointers for the same reason.
type Settings struct {
	Enabled         *bool            `yaml:"enabled"`
	BaseURL         string           `yaml:"base_url"`
	Keywords        []string         `yaml:"keywords"`
	Countries       []string         `yaml:"countries"`
	Categories      []string         `yaml:"categories"`
	MaxResults      int              `yaml:"max_results"`
	PageSize        int              `yaml:"page_size"`
	RelevanceFilter *bool            `yaml:"relevance_filter"`
	LanguageFilter  *bool            `yaml:"language_filter"`
	DefaultLocation string           `yaml:"default_location"`
	CategoryRules   []normalize.Rule `yaml:"category_rules"`

	// Credentials. Usually injected from the environment rather than
	// written in the file.
	AppID   string `yaml:"app_id"`
	AppKey  string `yaml:"app_key"`
	AppName string `yaml:"app_name"`
}

// Config is the root of sources.yaml.
type Config struct {
	RelevanceKeywords []string            `yaml:"relevance_keywords"`
	Stopwords         []string            `yaml:"stopwords"`
	StopwordThreshold int                 `yaml:"stopword_threshold"`
	DefaultCategory   string              `yaml:"default_category"`
	Sources           map[string]Settings `yaml:"sources"`
}

func on(b *bool) bool { return b != nil && *b }

func ptr(b bool) *bool { return &b }

// Defaults is the configuration used when no file is present. Every
// source is listed so that a file only needs to carry overrides.
func Defaults() Config {
	return Config{
		RelevanceKeywords: normalize.DefaultRelevanceKeywords,
		Stopwords:         normalize.GermanStopwords,
		StopwordThreshold: normalize.DefaultForeignThreshold,
		DefaultCategory:   domain.DefaultCategory,
		Sources: map[string]Settings{
			KeyAdzuna: {
				Enabled:         ptr(true),
				BaseURL:         "https://api.adzuna.com/v1/api/jobs",
				Keywords:        []string{"project manager", "programme manager", "consultant", "project coordinator"},
				Countries:       []string{"gb", "us", "ca", "au", "de", "za"},
				MaxResults:      80,
				PageSize:        20,
				RelevanceFilter: ptr(true),
				LanguageFilter:  ptr(false),
				DefaultLocation: domain.LocationUnknown,
			},
			KeyRemoteOK: {
				Enabled:         ptr(true),
				BaseURL:         "https://remoteok.com/api",
				MaxResults:      30,
				RelevanceFilter: ptr(true),
				LanguageFilter:  ptr(false),
				DefaultLocation: domain.LocationRemote,
			},
			KeyRemotive: {
				Enabled:         ptr(true),
				BaseURL:         "https://remotive.com/api/remote-jobs",
				Categories:      []string{"project-management", "business", "product"},
				MaxResults:      30,
				PageSize:        50,
				RelevanceFilter: ptr(true),
				LanguageFilter:  ptr(false),
				DefaultLocation: domain.LocationRemote,
			},
			KeyArbeitnow: {
				Enabled:         ptr(true),
				BaseURL:         "https://www.arbeitnow.com/api/job-board-api",
				MaxResults:      30,
				RelevanceFilter: ptr(true),
				LanguageFilter:  ptr(true),
				DefaultLocation: domain.LocationRemote,
			},
			KeyJobicy: {
				Enabled:         ptr(true),
				BaseURL:         "https://jobicy.com/api/v2/remote-jobs",
				Keywords:        []string{"project manager", "program manager", "consultant"},
				MaxResults:      30,
				PageSize:        50,
				RelevanceFilter: ptr(true),
				LanguageFilter:  ptr(false),
				DefaultLocation: domain.LocationRemote,
			},
			KeyTheMuse: {
				Enabled:         ptr(true),
				BaseURL:         "https://www.themuse.com/api/public/jobs",
				Categories:      []string{"Project Management", "Management", "Consulting"},
				MaxResults:      30,
				RelevanceFilter: ptr(false),
				LanguageFilter:  ptr(false),
				DefaultLocation: domain.LocationRemote,
			},
			KeyHimalayas: {
				Enabled:         ptr(true),
				BaseURL:         "https://himalayas.app/jobs/api",
				MaxResults:      30,
				PageSize:        50,
				RelevanceFilter: ptr(true),
				LanguageFilter:  ptr(false),
				DefaultLocation: domain.LocationRemote,
			},
			KeyReliefWeb: {
				Enabled:         ptr(true),
				BaseURL:         "https://api.reliefweb.int/v1/jobs",
				MaxResults:      100,
				PageSize:        100,
				RelevanceFilter: ptr(false),
				LanguageFilter:  ptr(false),
				DefaultLocation: domain.LocationGlobal,
				AppName:         "opphub",
			},
		},
	}
}

// templateVar matches {{NAME}} placeholders that are resolved from the
// environment before parsing, so secrets can stay out of the file.
var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

func expandTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := templateVar.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// LoadConfig reads path and merges it over Defaults. A missing file is not
// an error: the defaults are returned as-is.
func LoadConfig(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(expandTemplateVariables(data), &file); err != nil {
		return cfg, fmt.Errorf("failed to parse sources yaml: %w", err)
	}

	return cfg.Merge(file), nil
}

// Merge overlays every non-zero field of other onto c.
func (c Config) Merge(other Config) Config {
	if len(other.RelevanceKeywords) > 0 {
		c.RelevanceKeywords = other.RelevanceKeywords
	}
	if len(other.Stopwords) > 0 {
		c.Stopwords = other.Stopwords
	}
	if other.StopwordThreshold > 0 {
		c.StopwordThreshold = other.StopwordThreshold
	}
	if other.DefaultCategory != "" {
		c.DefaultCategory = other.DefaultCategory
	}

	merged := make(map[string]Settings, len(c.Sources))
	for k, v := range c.Sources {
		merged[k] = v
	}
	for k, v := range other.Sources {
		k = strings.ToLower(strings.TrimSpace(k))
		merged[k] = merged[k].merge(v)
	}
	c.Sources = merged
	return c
}

func (s Settings) merge(o Settings) Settings {
	if o.Enabled != nil {
		s.Enabled = o.Enabled
	}
	if o.BaseURL != "" {
		s.BaseURL = strings.TrimRight(o.BaseURL, "/")
	}
	if len(o.Keywords) > 0 {
		s.Keywords = o.Keywords
	}
	if len(o.Countries) > 0 {
		s.Countries = o.Countries
	}
	if len(o.Categories) > 0 {
		s.Categories = o.Categories
	}
	if o.MaxResults > 0 {
		s.MaxResults = o.MaxResults
	}
	if o.PageSize > 0 {
		s.PageSize = o.PageSize
	}
	if o.RelevanceFilter != nil {
		s.RelevanceFilter = o.RelevanceFilter
	}
	if o.LanguageFilter != nil {
		s.LanguageFilter = o.LanguageFilter
	}
	if o.DefaultLocation != "" {
		s.DefaultLocation = o.DefaultLocation
	}
	if len(o.CategoryRules) > 0 {
		s.CategoryRules = o.CategoryRules
	}
	if o.AppID != "" {
		s.AppID = o.AppID
	}
	if o.AppKey != "" {
		s.AppKey = o.AppKey
	}
	if o.AppName != "" {
		s.AppName = o.AppName
	}
	return s
}
