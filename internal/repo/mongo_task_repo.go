package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dom "studytodo/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tasksCollection = "tasks"

// taskDoc is the stored shape of a task. The ObjectID never leaves this file
// except as its hex string.
type taskDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Course    string             `bson:"course"`
	Type      string             `bson:"type"`
	Due       *time.Time         `bson:"due"`
	Done      bool               `bson:"done"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d taskDoc) toDomain() dom.Task {
	return dom.Task{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Course:    d.Course,
		Type:      dom.TaskType(d.Type),
		Due:       d.Due,
		Done:      d.Done,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoTaskRepo implements TaskRepo on a MongoDB collection.
type MongoTaskRepo struct {
	coll *mongo.Collection
}

// NewMongoTaskRepo returns a repository over the "tasks" collection of db.
func NewMongoTaskRepo(db *mongo.Database) *MongoTaskRepo {
	return &MongoTaskRepo{coll: db.Collection(tasksCollection)}
}

// EnsureIndexes creates the compound index backing the list order.
func (r *MongoTaskRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "done", Value: 1}, {Key: "due", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

// List sorts server-side. A plain sort on "due" puts nulls first, so the
// pipeline sorts on a computed noDue flag before the date.
func (r *MongoTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$addFields", Value: bson.D{
			{Key: "noDue", Value: bson.D{{Key: "$eq", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$due", nil}}}, nil,
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "done", Value: 1},
			{Key: "noDue", Value: 1},
			{Key: "due", Value: 1},
			{Key: "createdAt", Value: -1},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "noDue", Value: 0}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	list := make([]dom.Task, len(docs))
	for i := range docs {
		list[i] = docs[i].toDomain()
	}
	return list, nil
}

func (r *MongoTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return dom.Task{}, err
	}
	var doc taskDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return dom.Task{}, ErrNotFound
	}
	if err != nil {
		return dom.Task{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	// BSON dates carry milliseconds; truncate so the returned record matches what is stored.
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDoc{
		ID:        primitive.NewObjectID(),
		Title:     t.Title,
		Course:    t.Course,
		Type:      string(t.Type),
		Due:       t.Due,
		Done:      t.Done,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return dom.Task{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoTaskRepo) Update(ctx context.Context, id string, patch dom.TaskPatch) (dom.Task, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return dom.Task{}, err
	}

	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Course != nil {
		set = append(set, bson.E{Key: "course", Value: *patch.Course})
	}
	if patch.Type != nil {
		set = append(set, bson.E{Key: "type", Value: string(*patch.Type)})
	}
	if patch.Done != nil {
		set = append(set, bson.E{Key: "done", Value: *patch.Done})
	}
	if patch.DueSet {
		set = append(set, bson.E{Key: "due", Value: patch.Due})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return dom.Task{}, ErrNotFound
	}
	if err != nil {
		return dom.Task{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoTaskRepo) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepo) DeleteDone(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"done": true})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}
