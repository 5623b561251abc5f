package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

func TestCategorize(t *testing.T) {
	c := NewCategorizer(nil, "")

	tests := []struct {
		name  string
		title string
		hints []string
		want  string
	}{
		{"title rule", "Senior Project Manager", nil, "Project Management"},
		{"title beats hint", "Senior Project Manager", []string{"management"}, "Project Management"},
		{"earlier rule wins", "Climate Policy Fellow", []string{"consulting"}, "Sustainability"},
		{"hint when title is silent", "Operations Officer", []string{"Leadership"}, "Leadership"},
		{"case insensitive", "SOFTWARE ENGINEER", nil, "Development"},
		{"fallback", "Operations Officer", nil, domain.DefaultCategory},
		{"empty title and hints", "", []string{"", ""}, domain.DefaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.title, tt.hints...))
		})
	}
}

func TestCategorizerOverrides(t *testing.T) {
	c := NewCategorizer([]Rule{
		{Keywords: []string{"  Engineer "}, Category: "Tech"},
		{Keywords: []string{"ignored"}},
		{Category: "No keywords"},
	}, "Other")

	assert.Equal(t, "Tech", c.Categorize("Software Engineer"))
	assert.Equal(t, "Consulting", c.Categorize("Strategy Consultant"))
	assert.Equal(t, "Other", c.Categorize("Barista"))
}
