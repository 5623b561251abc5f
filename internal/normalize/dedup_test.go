package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupKey(t *testing.T) {
	tests := []struct {
		name      string
		a, b      [3]string
		wantEqual bool
	}{
		{
			name:      "case and whitespace",
			a:         [3]string{"Project Manager", "Acme", "https://a/1"},
			b:         [3]string{"project  manager", "ACME", "https://b/2"},
			wantEqual: true,
		},
		{
			name:      "punctuation",
			a:         [3]string{"Program Lead - EMEA", "Acme, Inc.", "https://a/1"},
			b:         [3]string{"Program Lead (EMEA)", "Acme Inc", "https://b/2"},
			wantEqual: true,
		},
		{
			name:      "accents",
			a:         [3]string{"Chef de projet", "Société Générale", "https://a/1"},
			b:         [3]string{"Chef de Projet", "Societe Generale", "https://b/2"},
			wantEqual: true,
		},
		{
			name:      "empty title and organization fall back to link",
			a:         [3]string{"", "", "https://a/1"},
			b:         [3]string{"", "", "https://b/2"},
			wantEqual: false,
		},
		{
			name:      "short key falls back to link",
			a:         [3]string{"AB", "C", "https://a/1"},
			b:         [3]string{"ab", "c", "https://b/2"},
			wantEqual: false,
		},
		{
			name:      "different titles",
			a:         [3]string{"Project Manager", "Acme", "https://a/1"},
			b:         [3]string{"Product Manager", "Acme", "https://a/1"},
			wantEqual: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := DedupKey(tt.a[0], tt.a[1], tt.a[2])
			kb := DedupKey(tt.b[0], tt.b[1], tt.b[2])
			assert.Equal(t, tt.wantEqual, ka == kb, "%q vs %q", ka, kb)
		})
	}
}

func TestDedupKeyValues(t *testing.T) {
	assert.Equal(t, "projectmanageracme", DedupKey("Project Manager", "Acme", ""))
	assert.Equal(t, "httpsexamplecomjobs1", DedupKey("", "", "https://Example.com/jobs/1"))
	assert.Equal(t, "", DedupKey("", "", ""))
}
