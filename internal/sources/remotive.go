package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// Remotive issues one request per category slug.
type Remotive struct {
	base
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	Title                     string   `json:"title"`
	CompanyName               string   `json:"company_name"`
	Category                  string   `json:"category"`
	CandidateRequiredLocation string   `json:"candidate_required_location"`
	URL                       string   `json:"url"`
	Description               string   `json:"description"`
	Tags                      []string `json:"tags"`
}

// NewRemotive creates the Remotive adapter, one request per category slug
func NewRemotive(s Settings, d Deps) *Remotive {
	return &Remotive{base: newBase("Remotive", s, d)}
}

func (r *Remotive) Fetch(ctx context.Context) []domain.Opportunity {
	return r.run(ctx, r.fetch)
}

func (r *Remotive) fetch(ctx context.Context) ([]domain.Opportunity, error) {
	categories := r.settings.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}
	return collect(ctx, &r.base, categories, r.category)
}

func (r *Remotive) category(ctx context.Context, slug string) ([]domain.Opportunity, error) {
	params := url.Values{}
	if slug != "" {
		params.Set("category", slug)
	}
	if r.settings.PageSize > 0 {
		params.Set("limit", strconv.Itoa(r.settings.PageSize))
	}

	var resp remotiveResponse
	if err := r.getJSON(ctx, withQuery(r.settings.BaseURL, params), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Opportunity, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		if !r.keep(j.Title, j.Category, j.Description) {
			continue
		}
		opp, ok := r.opportunity(listing{
			Title:        j.Title,
			Organization: j.CompanyName,
			Location:     j.CandidateRequiredLocation,
			Link:         j.URL,
			Description:  j.Description,
			Tags:         j.Tags,
			Hints:        []string{j.Category},
		})
		if ok {
			out = append(out, opp)
		}
	}
	return out, nil
}

func withQuery(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}
