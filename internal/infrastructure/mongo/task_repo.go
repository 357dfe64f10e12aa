package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/goosetrack/goosetrack-api/internal/domain"
)

type taskDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Title     string        `bson:"title"`
	Start     string        `bson:"start"`
	End       string        `bson:"end"`
	Priority  string        `bson:"priority"`
	Date      string        `bson:"date"`
	Category  string        `bson:"category"`
	Owner     bson.ObjectID `bson:"owner"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d *taskDoc) toDomain() *domain.Task {
	return &domain.Task{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Start:     d.Start,
		End:       d.End,
		Priority:  domain.Priority(d.Priority),
		Date:      d.Date,
		Category:  domain.Category(d.Category),
		OwnerID:   d.Owner.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type TaskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(s *Store) *TaskRepository {
	return &TaskRepository{coll: s.db.Collection(tasksCollection)}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	owner, ok := objectID(task.OwnerID)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	now := time.Now().UTC()
	doc := taskDoc{
		ID:        bson.NewObjectID(),
		Title:     task.Title,
		Start:     task.Start,
		End:       task.End,
		Priority:  string(task.Priority),
		Date:      task.Date,
		Category:  string(task.Category),
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) ListByDatePrefix(ctx context.Context, ownerID, prefix string) ([]*domain.Task, error) {
	owner, ok := objectID(ownerID)
	if !ok {
		return []*domain.Task{}, nil
	}

	filter := bson.M{
		"owner": owner,
		"date":  bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)},
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, docs[i].toDomain())
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	id, ok := objectID(task.ID)
	owner, ownerOK := objectID(task.OwnerID)
	if !ok || !ownerOK {
		return nil, domain.ErrTaskNotAllowed
	}

	var doc taskDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner": owner},
		bson.M{"$set": bson.M{
			"title":     task.Title,
			"start":     task.Start,
			"end":       task.End,
			"priority":  string(task.Priority),
			"date":      task.Date,
			"category":  string(task.Category),
			"updatedAt": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotAllowed
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) Delete(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	oid, ok := objectID(id)
	owner, ownerOK := objectID(ownerID)
	if !ok || !ownerOK {
		return nil, domain.ErrTaskNotAllowed
	}

	var doc taskDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid, "owner": owner}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotAllowed
		}
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	owner, ok := objectID(ownerID)
	if !ok {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"owner": owner})
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return int(res.DeletedCount), nil
}
