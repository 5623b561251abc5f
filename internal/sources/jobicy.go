package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// Jobicy issues one request per tag (the configured keywords).
type Jobicy struct {
	base
}

type jobicyResponse struct {
	Jobs []jobicyJob `json:"jobs"`
}

type jobicyJob struct {
	URL            string   `json:"url"`
	JobTitle       string   `json:"jobTitle"`
	CompanyName    string   `json:"companyName"`
	JobIndustry    []string `json:"jobIndustry"`
	JobType        []string `json:"jobType"`
	JobGeo         string   `json:"jobGeo"`
	JobExcerpt     string   `json:"jobExcerpt"`
	JobDescription string   `json:"jobDescription"`
}

// NewJobicy creates the Jobicy adapter, one request per configured tag
func NewJobicy(s Settings, d Deps) *Jobicy {
	return &Jobicy{base: newBase("Jobicy", s, d)}
}

func (j *Jobicy) Fetch(ctx context.Context) []domain.Opportunity {
	return j.run(ctx, j.fetch)
}

func (j *Jobicy) fetch(ctx context.Context) ([]domain.Opportunity, error) {
	tags := j.settings.Keywords
	if len(tags) == 0 {
		tags = []string{""}
	}
	return collect(ctx, &j.base, tags, j.tag)
}

func (j *Jobicy) tag(ctx context.Context, tag string) ([]domain.Opportunity, error) {
	params := url.Values{}
	if tag != "" {
		params.Set("tag", tag)
	}
	if j.settings.PageSize > 0 {
		params.Set("count", strconv.Itoa(j.settings.PageSize))
	}

	var resp jobicyResponse
	if err := j.getJSON(ctx, withQuery(j.settings.BaseURL, params), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Opportunity, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		description := job.JobExcerpt
		if description == "" {
			description = job.JobDescription
		}
		if !j.keep(job.JobTitle, description) {
			continue
		}
		opp, ok := j.opportunity(listing{
			Title:        job.JobTitle,
			Organization: job.CompanyName,
			Location:     job.JobGeo,
			Link:         job.URL,
			Description:  description,
			Tags:         job.JobIndustry,
			Hints:        job.JobType,
		})
		if ok {
			out = append(out, opp)
		}
	}
	return out, nil
}
