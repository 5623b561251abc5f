package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// TheMuse is curated by category, so relevance filtering is off by default.
type TheMuse struct {
	base
}

type museResponse struct {
	Results []museJob `json:"results"`
}

type museJob struct {
	Name       string  `json:"name"`
	Contents   string  `json:"contents"`
	Company    named   `json:"company"`
	Locations  []named `json:"locations"`
	Categories []named `json:"categories"`
	Refs       struct {
		LandingPage string `json:"landing_page"`
	} `json:"refs"`
}

// NewTheMuse creates The Muse adapter
func NewTheMuse(s Settings, d Deps) *TheMuse {
	return &TheMuse{base: newBase("The Muse", s, d)}
}

func (m *TheMuse) Fetch(ctx context.Context) []domain.Opportunity {
	return m.run(ctx, m.fetch)
}

func (m *TheMuse) fetch(ctx context.Context) ([]domain.Opportunity, error) {
	categories := m.settings.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}
	return collect(ctx, &m.base, categories, m.category)
}

func (m *TheMuse) category(ctx context.Context, category string) ([]domain.Opportunity, error) {
	params := url.Values{}
	params.Set("page", "1")
	if category != "" {
		params.Set("category", category)
	}

	var resp museResponse
	if err := m.getJSON(ctx, withQuery(m.settings.BaseURL, params), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Opportunity, 0, len(resp.Results))
	for _, job := range resp.Results {
		categories := names(job.Categories)
		if !m.keep(job.Name, strings.Join(categories, " "), job.Contents) {
			continue
		}
		opp, ok := m.opportunity(listing{
			Title:        job.Name,
			Organization: job.Company.Name,
			Location:     strings.Join(names(job.Locations), ", "),
			Link:         job.Refs.LandingPage,
			Description:  job.Contents,
			Tags:         categories,
		})
		if ok {
			out = append(out, opp)
		}
	}
	return out, nil
}
