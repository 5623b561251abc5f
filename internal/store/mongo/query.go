package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

// searchFields are matched by the free-text search.
var searchFields = []string{"title", "organization", "description", "category"}

// naturalKeyFilter matches the (title, organization, deadline) tuple.
// A nil deadline matches both null and missing.
func naturalKeyFilter(k domain.NaturalKey) bson.D {
	return bson.D{
		{Key: "title", Value: k.Title},
		{Key: "organization", Value: k.Organization},
		{Key: "deadline", Value: dateOnly(k.Deadline)},
	}
}

func caseInsensitive(pattern string) bson.D {
	return bson.D{{Key: "$regex", Value: pattern}, {Key: "$options", Value: "i"}}
}

// listFilter translates a normalized query into a document filter.
func listFilter(q store.Query) bson.D {
	filter := bson.D{}

	if q.Search != "" {
		pattern := regexp.QuoteMeta(q.Search)
		or := bson.A{}
		for _, field := range searchFields {
			or = append(or, bson.D{{Key: field, Value: caseInsensitive(pattern)}})
		}
		filter = append(filter, bson.E{Key: "$or", Value: or})
	}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: caseInsensitive("^" + regexp.QuoteMeta(q.Category) + "$")})
	}
	if q.Location != "" {
		filter = append(filter, bson.E{Key: "location", Value: caseInsensitive(regexp.QuoteMeta(q.Location))})
	}
	return filter
}

// listPipeline filters, sorts and pages. Records without a deadline sort
// last whatever the direction, matching the in-memory store.
func listPipeline(q store.Query) bson.A {
	dir := -1
	if q.Ascending() {
		dir = 1
	}

	sort := bson.D{}
	pipeline := bson.A{bson.D{{Key: "$match", Value: listFilter(q)}}}
	if q.SortBy == store.SortDeadline {
		pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "_noDeadline", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$deadline", nil}}}, nil}}},
				1, 0,
			}}}},
		}}})
		sort = append(sort, bson.E{Key: "_noDeadline", Value: 1})
	}
	sort = append(sort,
		bson.E{Key: q.SortBy, Value: dir},
		bson.E{Key: "_id", Value: dir},
	)

	return append(pipeline,
		bson.D{{Key: "$sort", Value: sort}},
		bson.D{{Key: "$skip", Value: int64(q.Skip())}},
		bson.D{{Key: "$limit", Value: int64(q.Limit)}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "_noDeadline", Value: 0}}}},
	)
}
