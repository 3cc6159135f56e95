package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"liveclass-admin/internal/domain"
)

// DocumentStore maps each collection onto a MongoDB collection of
// {_id, seq, data} records. seq is an ObjectID taken on first insert and
// orders List; overwrites replace data only.
type DocumentStore struct {
	db *mongo.Database
}

type record struct {
	ID   string             `bson:"_id"`
	Seq  primitive.ObjectID `bson:"seq"`
	Data bson.Raw           `bson:"data"`
}

func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{db: db}
}

// Connect opens a client for uri and returns the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

func (s *DocumentStore) Get(ctx context.Context, collection, key string) (domain.Document, bool, error) {
	var rec record
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("find document: %w", err)
	}
	doc, err := toDocument(rec)
	if err != nil {
		return domain.Document{}, false, err
	}
	return doc, true, nil
}

func (s *DocumentStore) Set(ctx context.Context, collection, key string, data []byte) error {
	body, err := fromJSON(data)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set":         bson.M{"data": body},
		"$setOnInsert": bson.M{"seq": primitive.NewObjectID()},
	}
	_, err = s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (s *DocumentStore) Append(ctx context.Context, collection string, data []byte) (string, error) {
	body, err := fromJSON(data)
	if err != nil {
		return "", err
	}
	seq := primitive.NewObjectID()
	id := seq.Hex()
	_, err = s.db.Collection(collection).InsertOne(ctx, bson.M{"_id": id, "seq": seq, "data": body})
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]domain.Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	var recs []record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(recs))
	for _, rec := range recs {
		doc, err := toDocument(rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func fromJSON(data []byte) (bson.D, error) {
	var body bson.D
	if err := bson.UnmarshalExtJSON(data, false, &body); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return body, nil
}

func toDocument(rec record) (domain.Document, error) {
	data, err := bson.MarshalExtJSON(rec.Data, false, false)
	if err != nil {
		return domain.Document{}, fmt.Errorf("decode document %s: %w", rec.ID, err)
	}
	return domain.Document{ID: rec.ID, Data: data}, nil
}
