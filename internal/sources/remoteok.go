package sources

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// RemoteOK reads the public feed in a single request. The first element
// of the array is a legal notice, not a job.
type RemoteOK struct {
	base
}

type remoteOKJob struct {
	Legal       string   `json:"legal"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	URL         string   `json:"url"`
	ApplyURL    string   `json:"apply_url"`
}

// NewRemoteOK creates the RemoteOK adapter
func NewRemoteOK(s Settings, d Deps) *RemoteOK {
	return &RemoteOK{base: newBase("RemoteOK", s, d)}
}

func (r *RemoteOK) Fetch(ctx context.Context) []domain.Opportunity {
	return r.run(ctx, r.fetch)
}

func (r *RemoteOK) fetch(ctx context.Context) ([]domain.Opportunity, error) {
	var feed []remoteOKJob
	if err := r.getJSON(ctx, r.settings.BaseURL, &feed); err != nil {
		return nil, err
	}

	out := make([]domain.Opportunity, 0, len(feed))
	for _, j := range feed {
		if r.full(len(out)) {
			break
		}
		if j.Legal != "" || j.Position == "" {
			continue
		}
		if !r.keep(j.Position, strings.Join(j.Tags, " "), j.Description) {
			continue
		}

		link := j.URL
		if link == "" {
			link = j.ApplyURL
		}
		opp, ok := r.opportunity(listing{
			Title:        j.Position,
			Organization: j.Company,
			Location:     j.Location,
			Link:         link,
			Description:  j.Description,
			Tags:         j.Tags,
		})
		if ok {
			out = append(out, opp)
		}
	}
	return out, nil
}
