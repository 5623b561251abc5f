package sources

import (
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/normalize"
)

type constructor func(Settings, Deps) Adapter

var constructors = map[string]constructor{
	KeyAdzuna:    func(s Settings, d Deps) Adapter { return NewAdzuna(s, d) },
	KeyRemoteOK:  func(s Settings, d Deps) Adapter { return NewRemoteOK(s, d) },
	KeyRemotive:  func(s Settings, d Deps) Adapter { return NewRemotive(s, d) },
	KeyArbeitnow: func(s Settings, d Deps) Adapter { return NewArbeitnow(s, d) },
	KeyJobicy:    func(s Settings, d Deps) Adapter { return NewJobicy(s, d) },
	KeyTheMuse:   func(s Settings, d Deps) Adapter { return NewTheMuse(s, d) },
	KeyHimalayas: func(s Settings, d Deps) Adapter { return NewHimalayas(s, d) },
	KeyReliefWeb: func(s Settings, d Deps) Adapter { return NewReliefWeb(s, d) },
}

type enabler interface {
	Enabled() bool
}

// Build instantiates every enabled adapter in Order. Disabled adapters
// (switched off, or missing credentials) are logged once and left out.
func Build(cfg Config, d Deps) []Adapter {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Relevance == nil {
		d.Relevance = normalize.NewKeywordFilter(cfg.RelevanceKeywords)
	}
	if d.Language == nil {
		d.Language = normalize.NewLanguageDetector(cfg.Stopwords, cfg.StopwordThreshold)
	}
	if d.DefaultCategory == "" {
		d.DefaultCategory = cfg.DefaultCategory
	}

	adapters := make([]Adapter, 0, len(Order))
	for _, key := range Order {
		settings, ok := cfg.Sources[key]
		if !ok {
			continue
		}
		a := constructors[key](settings, d)
		if e, ok := a.(enabler); ok && !e.Enabled() {
			d.Log.Info("source adapter disabled", logger.String("source", a.Name()))
			continue
		}
		adapters = append(adapters, a)
	}

	d.Log.Info("source adapters ready", logger.Int("count", len(adapters)))
	return adapters
}
