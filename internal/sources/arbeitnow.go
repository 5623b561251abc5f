package sources

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// Arbeitnow is a European board with many German postings, so it is the
// one source that runs the stopword language filter by default.
type Arbeitnow struct {
	base
}

type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
}

// NewArbeitnow creates the Arbeitnow adapter
func NewArbeitnow(s Settings, d Deps) *Arbeitnow {
	return &Arbeitnow{base: newBase("Arbeitnow", s, d)}
}

func (a *Arbeitnow) Fetch(ctx context.Context) []domain.Opportunity {
	return a.run(ctx, a.fetch)
}

func (a *Arbeitnow) fetch(ctx context.Context) ([]domain.Opportunity, error) {
	var resp arbeitnowResponse
	if err := a.getJSON(ctx, a.settings.BaseURL, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Opportunity, 0, len(resp.Data))
	for _, j := range resp.Data {
		if a.full(len(out)) {
			break
		}
		if !a.keep(j.Title, j.Description, strings.Join(j.Tags, " ")) {
			continue
		}

		location := j.Location
		if j.Remote {
			location = domain.LocationRemote
		}
		opp, ok := a.opportunity(listing{
			Title:        j.Title,
			Organization: j.CompanyName,
			Location:     location,
			Link:         j.URL,
			Description:  j.Description,
			Tags:         j.Tags,
			Hints:        j.JobTypes,
		})
		if ok {
			out = append(out, opp)
		}
	}
	return out, nil
}
