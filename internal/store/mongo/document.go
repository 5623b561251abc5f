package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MrSnakeDoc/opphub/internal/domain"
)

// document is the stored shape of an opportunity.
type document struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Organization string             `bson:"organization"`
	Deadline     *time.Time         `bson:"deadline"`
	Category     string             `bson:"category"`
	Location     string             `bson:"location"`
	Link         string             `bson:"link"`
	Description  string             `bson:"description"`
	Tags         []string           `bson:"tags,omitempty"`
	SourceName   string             `bson:"sourceName"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func toDocument(o domain.Opportunity) (document, error) {
	d := document{
		Title:        o.Title,
		Organization: o.Organization,
		Deadline:     dateOnly(o.Deadline),
		Category:     o.Category,
		Location:     o.Location,
		Link:         o.Link,
		Description:  o.Description,
		Tags:         o.Tags,
		SourceName:   o.SourceName,
		CreatedAt:    o.CreatedAt.UTC(),
		UpdatedAt:    o.UpdatedAt.UTC(),
	}
	if o.ID != "" {
		id, err := primitive.ObjectIDFromHex(o.ID)
		if err != nil {
			return document{}, err
		}
		d.ID = id
	}
	return d, nil
}

func (d document) toDomain() domain.Opportunity {
	return domain.Opportunity{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Organization: d.Organization,
		Deadline:     dateOnly(d.Deadline),
		Category:     d.Category,
		Location:     d.Location,
		Link:         d.Link,
		Description:  d.Description,
		Tags:         d.Tags,
		SourceName:   d.SourceName,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// dateOnly keeps the natural key comparable by value in queries.
func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return domain.DateOnly(*t)
}
