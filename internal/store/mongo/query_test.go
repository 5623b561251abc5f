package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

func TestNaturalKeyFilterTruncatesDeadline(t *testing.T) {
	d := time.Date(2026, 5, 1, 17, 30, 0, 0, time.FixedZone("X", 3600))
	f := naturalKeyFilter(domain.NaturalKey{Title: "Lead", Organization: "UNDP", Deadline: &d})

	require.Len(t, f, 3)
	got, ok := f[2].Value.(*time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), *got)

	f = naturalKeyFilter(domain.NaturalKey{Title: "Lead", Organization: "UNDP"})
	assert.Nil(t, f[2].Value.(*time.Time))
}

func TestListFilter(t *testing.T) {
	f := listFilter(store.Query{Search: "c++ (senior)", Category: "Project Management", Location: "remote"}.Normalize())
	m := f.Map()

	or, ok := m["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, or, len(searchFields))
	first := or[0].(bson.D).Map()["title"].(bson.D).Map()
	assert.Equal(t, `c\+\+ \(senior\)`, first["$regex"])
	assert.Equal(t, "i", first["$options"])

	assert.Equal(t, "^Project Management$", m["category"].(bson.D).Map()["$regex"])
	assert.Equal(t, "remote", m["location"].(bson.D).Map()["$regex"])

	assert.Empty(t, listFilter(store.Query{Category: "all"}.Normalize()))
}

func TestListPipeline(t *testing.T) {
	q := store.Query{Page: 3, Limit: 20, SortBy: store.SortTitle, SortOrder: "asc"}.Normalize()
	p := listPipeline(q)

	require.Len(t, p, 5)
	sort := p[1].(bson.D).Map()["$sort"].(bson.D)
	assert.Equal(t, bson.E{Key: "title", Value: 1}, sort[0])
	assert.Equal(t, int64(40), p[2].(bson.D).Map()["$skip"])
	assert.Equal(t, int64(20), p[3].(bson.D).Map()["$limit"])

	p = listPipeline(store.Query{SortBy: store.SortDeadline}.Normalize())
	require.Len(t, p, 6)
	sort = p[2].(bson.D).Map()["$sort"].(bson.D)
	assert.Equal(t, "_noDeadline", sort[0].Key)
	assert.Equal(t, bson.E{Key: "deadline", Value: -1}, sort[1])
}

func TestDocumentRoundTrip(t *testing.T) {
	d := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	o := domain.Opportunity{
		ID:        "65f0c0ffee0000000000abcd",
		Title:     "Lead",
		Deadline:  &d,
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	doc, err := toDocument(o)
	require.NoError(t, err)
	back := doc.toDomain()

	assert.Equal(t, o.ID, back.ID)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), *back.Deadline)

	_, err = toDocument(domain.Opportunity{ID: "not-hex"})
	assert.Error(t, err)
}
