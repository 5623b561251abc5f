package sources

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// Himalayas is the only remote board that publishes an expiry date; it is
// used as the deadline.
type Himalayas struct {
	base
}

type himalayasResponse struct {
	Jobs []himalayasJob `json:"jobs"`
}

type himalayasJob struct {
	Title                string   `json:"title"`
	CompanyName          string   `json:"companyName"`
	Categories           []string `json:"categories"`
	LocationRestrictions []string `json:"locationRestrictions"`
	ApplicationLink      string   `json:"applicationLink"`
	GUID                 string   `json:"guid"`
	Excerpt              string   `json:"excerpt"`
	Description          string   `json:"description"`
	ExpiryDate           flexTime `json:"expiryDate"`
}

// NewHimalayas creates the Himalayas adapter
func NewHimalayas(s Settings, d Deps) *Himalayas {
	return &Himalayas{base: newBase("Himalayas", s, d)}
}

func (h *Himalayas) Fetch(ctx context.Context) []domain.Opportunity {
	return h.run(ctx, h.fetch)
}

func (h *Himalayas) fetch(ctx context.Context) ([]domain.Opportunity, error) {
	params := url.Values{}
	if h.settings.PageSize > 0 {
		params.Set("limit", strconv.Itoa(h.settings.PageSize))
	}

	var resp himalayasResponse
	if err := h.getJSON(ctx, withQuery(h.settings.BaseURL, params), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.Opportunity, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		if h.full(len(out)) {
			break
		}
		description := j.Excerpt
		if description == "" {
			description = j.Description
		}
		if !h.keep(j.Title, strings.Join(j.Categories, " "), description) {
			continue
		}

		link := j.ApplicationLink
		if link == "" {
			link = j.GUID
		}
		opp, ok := h.opportunity(listing{
			Title:        j.Title,
			Organization: j.CompanyName,
			Location:     strings.Join(j.LocationRestrictions, ", "),
			Link:         link,
			Description:  description,
			Deadline:     j.ExpiryDate.Ptr(),
			Tags:         j.Categories,
		})
		if ok {
			out = append(out, opp)
		}
	}
	return out, nil
}
