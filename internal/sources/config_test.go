package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Len(t, cfg.Sources, len(Order))
}

func TestDefaultsCoverEverySource(t *testing.T) {
	cfg := Defaults()
	for _, key := range Order {
		s, ok := cfg.Sources[key]
		require.True(t, ok, key)
		assert.True(t, on(s.Enabled), key)
		assert.NotEmpty(t, s.BaseURL, key)
		assert.Positive(t, s.MaxResults, key)
		assert.NotEmpty(t, s.DefaultLocation, key)
	}

	assert.Equal(t, 80, cfg.Sources[KeyAdzuna].MaxResults)
	assert.Equal(t, 100, cfg.Sources[KeyReliefWeb].MaxResults)
	assert.Equal(t, domain.LocationGlobal, cfg.Sources[KeyReliefWeb].DefaultLocation)
	assert.True(t, on(cfg.Sources[KeyArbeitnow].LanguageFilter))
	assert.False(t, on(cfg.Sources[KeyTheMuse].RelevanceFilter))
}

func TestLoadConfigMergesOverrides(t *testing.T) {
	t.Setenv("TEST_ADZUNA_ID", "app-id")
	t.Setenv("TEST_ADZUNA_KEY", "app-key")

	path := filepath.Join(t.TempDir(), "sources.yaml")
	yamlContent := `---
relevance_keywords: [grant, fellowship]
stopword_threshold: 5
sources:
  adzuna:
    app_id: "{{TEST_ADZUNA_ID}}"
    app_key: "{{ TEST_ADZUNA_KEY }}"
    max_results: 10
  RemoteOK:
    enabled: false
  himalayas:
    base_url: https://mirror.example/api/
    category_rules:
      - match: [analyst]
        category: Research
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"grant", "fellowship"}, cfg.RelevanceKeywords)
	assert.Equal(t, 5, cfg.StopwordThreshold)

	adzuna := cfg.Sources[KeyAdzuna]
	assert.Equal(t, "app-id", adzuna.AppID)
	assert.Equal(t, "app-key", adzuna.AppKey)
	assert.Equal(t, 10, adzuna.MaxResults)
	assert.Equal(t, Defaults().Sources[KeyAdzuna].Countries, adzuna.Countries)

	assert.False(t, on(cfg.Sources[KeyRemoteOK].Enabled))
	assert.Equal(t, "https://mirror.example/api", cfg.Sources[KeyHimalayas].BaseURL)
	require.Len(t, cfg.Sources[KeyHimalayas].CategoryRules, 1)
	assert.Equal(t, "Research", cfg.Sources[KeyHimalayas].CategoryRules[0].Category)

	assert.Equal(t, Defaults().Sources[KeyRemotive], cfg.Sources[KeyRemotive])
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
