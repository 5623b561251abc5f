package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

var errMissingCredentials = errors.New("credentials not configured")

// Adzuna queries the Adzuna search API once per keyword and country.
// It needs an app id and key; without them it is disabled.
type Adzuna struct {
	base
}

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
}

type adzunaResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RedirectURL string `json:"redirect_url"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Category struct {
		Label string `json:"label"`
	} `json:"category"`
}

type adzunaQuery struct {
	Country string
	Keyword string
}

func (q adzunaQuery) String() string { return q.Country + ":" + q.Keyword }

// NewAdzuna creates the Adzuna adapter; it stays disabled without app credentials
func NewAdzuna(s Settings, d Deps) *Adzuna {
	return &Adzuna{base: newBase("Adzuna", s, d)}
}

func (a *Adzuna) Enabled() bool {
	return a.base.Enabled() && a.settings.AppID != "" && a.settings.AppKey != ""
}

func (a *Adzuna) Fetch(ctx context.Context) []domain.Opportunity {
	return a.run(ctx, a.fetch)
}

func (a *Adzuna) fetch(ctx context.Context) ([]domain.Opportunity, error) {
	if a.settings.AppID == "" || a.settings.AppKey == "" {
		return nil, errMissingCredentials
	}

	queries := make([]adzunaQuery, 0, len(a.settings.Countries)*len(a.settings.Keywords))
	for _, country := range a.settings.Countries {
		for _, kw := range a.settings.Keywords {
			queries = append(queries, adzunaQuery{Country: country, Keyword: kw})
		}
	}

	return collect(ctx, &a.base, queries, a.search)
}

func (a *Adzuna) search(ctx context.Context, q adzunaQuery) ([]domain.Opportunity, error) {
	params := url.Values{}
	params.Set("app_id", a.settings.AppID)
	params.Set("app_key", a.settings.AppKey)
	params.Set("what", q.Keyword)
	params.Set("sort_by", "date")
	params.Set("content-type", "application/json")
	if a.settings.PageSize > 0 {
		params.Set("results_per_page", strconv.Itoa(a.settings.PageSize))
	}
	endpoint := fmt.Sprintf("%s/%s/search/1?%s", a.settings.BaseURL, url.PathEscape(q.Country), params.Encode())

	var resp adzunaResponse
	if err := a.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Opportunity, 0, len(resp.Results))
	for _, r := range resp.Results {
		if !a.keep(r.Title, r.Description, r.Category.Label) {
			continue
		}
		opp, ok := a.opportunity(listing{
			Title:        r.Title,
			Organization: r.Company.DisplayName,
			Location:     r.Location.DisplayName,
			Link:         r.RedirectURL,
			Description:  r.Description,
			Hints:        []string{r.Category.Label},
		})
		if ok {
			out = append(out, opp)
		}
	}
	return out, nil
}
