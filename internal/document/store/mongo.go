package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/docserve/docserve/internal/document"
)

// MongoStore keeps whole documents (content inline) in a MongoDB
// collection, keyed by the "id" field.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore wraps col and ensures the unique index on "id".
func NewMongoStore(col *mongo.Collection) *MongoStore {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoStore{col: col}
}

func (m *MongoStore) Put(ctx context.Context, doc *document.Document) error {
	filter := bson.M{"id": doc.ID}
	update := bson.M{"$set": bson.M{"content": doc.Content, "storedAt": doc.StoredAt}}
	opts := options.Update().SetUpsert(true)
	if _, err := m.col.UpdateOne(ctx, filter, update, opts); err != nil {
		return classifyMongo("mongo put", err)
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, document.ErrNotFound
		}
		return nil, classifyMongo("mongo get", err)
	}
	return &d, nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.col.Database().Client().Ping(ctx, readpref.Primary())
}

// Mongo server error codes for credential problems.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

func classifyMongo(op string, err error) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == codeUnauthorized || cmdErr.Code == codeAuthenticationFailed {
			return document.E(document.KindPermission, op, err)
		}
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == codeUnauthorized || we.Code == codeAuthenticationFailed {
				return document.E(document.KindPermission, op, err)
			}
		}
	}
	// timeouts, topology and network failures are all retryable
	return document.E(document.KindTransient, op, err)
}
