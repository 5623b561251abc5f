package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// ReliefWeb is the humanitarian jobs registry. Listings carry a closing
// date, which becomes the deadline. Curated, so no relevance filter.
type ReliefWeb struct {
	base
}

type reliefWebResponse struct {
	Data []struct {
		Fields reliefWebField `json:"fields"`
	} `json:"data"`
}

type reliefWebField struct {
	Title            string  `json:"title"`
	URL              string  `json:"url"`
	URLAlias         string  `json:"url_alias"`
	Body             string  `json:"body"`
	Source           []named `json:"source"`
	Country          []named `json:"country"`
	CareerCategories []named `json:"career_categories"`
	Theme            []named `json:"theme"`
	Date             struct {
		Closing flexTime `json:"closing"`
	} `json:"date"`
}

// NewReliefWeb creates the ReliefWeb jobs adapter
func NewReliefWeb(s Settings, d Deps) *ReliefWeb {
	return &ReliefWeb{base: newBase("ReliefWeb", s, d)}
}

func (r *ReliefWeb) Fetch(ctx context.Context) []domain.Opportunity {
	return r.run(ctx, r.fetch)
}

func (r *ReliefWeb) fetch(ctx context.Context) ([]domain.Opportunity, error) {
	params := url.Values{}
	params.Set("appname", r.settings.AppName)
	params.Set("profile", "full")
	params.Set("preset", "latest")
	if r.settings.PageSize > 0 {
		params.Set("limit", strconv.Itoa(r.settings.PageSize))
	}

	var resp reliefWebResponse
	if err := r.getJSON(ctx, withQuery(r.settings.BaseURL, params), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Opportunity, 0, len(resp.Data))
	for _, item := range resp.Data {
		if r.full(len(out)) {
			break
		}
		f := item.Fields
		categories := append(names(f.CareerCategories), names(f.Theme)...)
		if !r.keep(f.Title, f.Body) {
			continue
		}

		link := f.URLAlias
		if link == "" {
			link = f.URL
		}
		opp, ok := r.opportunity(listing{
			Title:        f.Title,
			Organization: firstName(f.Source),
			Location:     firstName(f.Country),
			Link:         link,
			Description:  f.Body,
			Deadline:     f.Date.Closing.Ptr(),
			Tags:         categories,
			Hints:        []string{"humanitarian"},
		})
		if ok {
			out = append(out, opp)
		}
	}
	return out, nil
}
