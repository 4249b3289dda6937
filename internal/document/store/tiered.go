package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/docserve/docserve/internal/document"
)

// TieredStore splits a document between two durable tiers: metadata in a
// MongoDB collection and content blobs in MinIO. Both sit behind the one
// Store capability; a Put is acknowledged only after both tiers are.
//
// Write order is blob first, metadata second, so a metadata record always
// points at a durable blob. A blob orphaned by a failed metadata write is
// harmless: it is invisible to Get and overwritten by the next Put.
type TieredStore struct {
	meta  *mongo.Collection
	blobs *BlobStore
}

// docMeta is the metadata record kept in MongoDB for tiered documents.
type docMeta struct {
	ID       string    `bson:"id"`
	BlobKey  string    `bson:"blobKey"`
	Size     int       `bson:"size"`
	StoredAt time.Time `bson:"storedAt"`
}

// NewTieredStore wires the metadata collection and blob tier together and
// ensures the unique index on "id".
func NewTieredStore(meta *mongo.Collection, blobs *BlobStore) *TieredStore {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	meta.Indexes().CreateOne(context.Background(), idx)
	return &TieredStore{meta: meta, blobs: blobs}
}

func blobKey(id string) string {
	return "documents/" + id
}

func (t *TieredStore) Put(ctx context.Context, doc *document.Document) error {
	key := blobKey(doc.ID)
	if err := t.blobs.PutBlob(ctx, key, doc.Content); err != nil {
		return err
	}
	filter := bson.M{"id": doc.ID}
	update := bson.M{"$set": bson.M{
		"blobKey":  key,
		"size":     len(doc.Content),
		"storedAt": doc.StoredAt,
	}}
	if _, err := t.meta.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return classifyMongo("tiered put meta", err)
	}
	return nil
}

func (t *TieredStore) Get(ctx context.Context, id string) (*document.Document, error) {
	var m docMeta
	err := t.meta.FindOne(ctx, bson.M{"id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, document.ErrNotFound
		}
		return nil, classifyMongo("tiered get meta", err)
	}
	content, err := t.blobs.GetBlob(ctx, m.BlobKey)
	if err != nil {
		return nil, err
	}
	return &document.Document{ID: id, Content: content, StoredAt: m.StoredAt}, nil
}

// Ping requires both tiers: losing either compromises durability.
func (t *TieredStore) Ping(ctx context.Context) error {
	if err := t.meta.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	return t.blobs.Ping(ctx)
}
