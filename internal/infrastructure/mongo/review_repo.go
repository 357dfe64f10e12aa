package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

type reviewDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Rating    int           `bson:"rating"`
	Text      string        `bson:"text"`
	Owner     bson.ObjectID `bson:"owner"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`

	// filled by the $lookup stage of ListAll
	OwnerDocs []ownerDoc `bson:"ownerDocs,omitempty"`
}

func (d *reviewDoc) toDomain() *domain.Review {
	r := &domain.Review{
		ID:        d.ID.Hex(),
		Rating:    d.Rating,
		Text:      d.Text,
		OwnerID:   d.Owner.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.OwnerDocs) > 0 {
		o := d.OwnerDocs[0]
		r.Owner = &domain.Owner{ID: o.ID.Hex(), Username: o.Username, Avatar: o.Avatar}
	}
	return r
}

type ReviewRepository struct {
	coll *mongo.Collection
}

func NewReviewRepository(s *Store) *ReviewRepository {
	return &ReviewRepository{coll: s.db.Collection(reviewsCollection)}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	owner, ok := objectID(review.OwnerID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	now := time.Now().UTC()
	doc := reviewDoc{
		ID:        bson.NewObjectID(),
		Rating:    review.Rating,
		Text:      review.Text,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrReviewExists
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ReviewRepository) ListAll(ctx context.Context) ([]*domain.Review, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "owner"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "ownerDocs"},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$project", Value: bson.D{{Key: "username", Value: 1}, {Key: "avatar", Value: 1}}}},
			}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	reviews := make([]*domain.Review, 0, len(docs))
	for i := range docs {
		reviews = append(reviews, docs[i].toDomain())
	}
	return reviews, nil
}

func (r *ReviewRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.Review, error) {
	owner, ok := objectID(ownerID)
	if !ok {
		return nil, domain.ErrReviewNotFound
	}

	var doc reviewDoc
	if err := r.coll.FindOne(ctx, bson.M{"owner": owner}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ReviewRepository) UpdateByOwner(ctx context.Context, ownerID string, rating int, text string) (*domain.Review, error) {
	owner, ok := objectID(ownerID)
	if !ok {
		return nil, domain.ErrReviewNotFound
	}

	var doc reviewDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"owner": owner},
		bson.M{"$set": bson.M{"rating": rating, "text": text, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ReviewRepository) DeleteByOwner(ctx context.Context, ownerID string) (*domain.Review, error) {
	owner, ok := objectID(ownerID)
	if !ok {
		return nil, domain.ErrReviewNotFound
	}

	var doc reviewDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"owner": owner}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("delete review: %w", err)
	}
	return doc.toDomain(), nil
}
