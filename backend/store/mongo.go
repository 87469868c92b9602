package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnhub/backend/apperr"
)

type mongoDoc struct {
	ID      string `bson:"_id"`
	Version int64  `bson:"version"`
	Data    bson.M `bson:"data"`
}

// MongoStore maps every logical collection onto a Mongo collection of the
// same name. The document body lives under "data" so merges are plain $set
// operations on dotted paths.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var raw mongoDoc
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw.document()
}

func (s *MongoStore) SetFields(ctx context.Context, collection, id string, fields Fields) error {
	update, err := mergeUpdate(fields)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields Fields) error {
	update, err := mergeUpdate(fields)
	if err != nil {
		return err
	}

	coll := s.db.Collection(collection)
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id, "version": version}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return apperr.ErrConflict
}

func (s *MongoStore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	clean, err := normalize(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.Collection(collection).InsertOne(ctx, bson.M{
		"_id":     id,
		"version": int64(1),
		"data":    map[string]any(clean),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *MongoStore) Insert(ctx context.Context, collection, id string, fields Fields) error {
	clean, err := normalize(fields)
	if err != nil {
		return err
	}
	_, err = s.db.Collection(collection).InsertOne(ctx, bson.M{
		"_id":     id,
		"version": int64(1),
		"data":    map[string]any(clean),
	})
	if mongo.IsDuplicateKeyError(err) {
		return apperr.ErrConflict
	}
	return err
}

func (s *MongoStore) List(ctx context.Context, collection string, opts ListOptions) ([]*Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []*Document
	for cur.Next(ctx) {
		var raw mongoDoc
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		doc, err := raw.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return applyListOptions(docs, opts), nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func mergeUpdate(fields Fields) (bson.M, error) {
	clean, err := normalize(fields)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	for k, v := range clean {
		set["data."+k] = v
	}
	update := bson.M{"$inc": bson.M{"version": int64(1)}}
	if len(set) > 0 {
		update["$set"] = set
	}
	return update, nil
}

// document converts the BSON body back into JSON-shaped fields through
// relaxed extended JSON, so numbers decode as float64 like every other store.
func (d *mongoDoc) document() (*Document, error) {
	fields := Fields{}
	if len(d.Data) > 0 {
		raw, err := bson.MarshalExtJSON(d.Data, false, false)
		if err != nil {
			return nil, fmt.Errorf("encode document %s: %w", d.ID, err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", d.ID, err)
		}
	}
	return &Document{ID: d.ID, Version: d.Version, Fields: fields}, nil
}
