package mongodb

import (
	"context"
	"fmt"

	"buildmarket/internal/gateway/domain/model"
	"buildmarket/internal/gateway/domain/repository"
	apperrors "buildmarket/internal/shared/errors"
	"buildmarket/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoEntityStore implements repository.EntityStore over a MongoDB
// database. One collection per kind, flat documents, the document key
// carried out-of-band as the entity id.
type MongoEntityStore struct {
	db  *mongo.Database
	log logger.Logger
}

// NewMongoEntityStore creates a new entity store.
func NewMongoEntityStore(db *mongo.Database, log logger.Logger) *MongoEntityStore {
	return &MongoEntityStore{
		db:  db,
		log: log.WithComponent("entity_store"),
	}
}

func (s *MongoEntityStore) collection(kind model.Kind) *mongo.Collection {
	return s.db.Collection(kind.Collection())
}

// Find executes an equality query against the kind's collection.
func (s *MongoEntityStore) Find(ctx context.Context, kind model.Kind, q model.Query) ([]model.Entity, error) {
	q = q.Normalized()

	cur, err := s.collection(kind).Find(ctx, buildFilter(q.Criteria), buildFindOptions(q))
	if err != nil {
		return nil, classifyQueryError(err)
	}
	defer cur.Close(ctx)

	var entities []model.Entity
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			s.log.Errorf("Failed to decode %s document: %v", kind.Collection(), err)
			continue
		}
		entities = append(entities, decodeEntity(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, classifyQueryError(err)
	}
	return entities, nil
}

// Get returns one record by id.
func (s *MongoEntityStore) Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error) {
	var raw bson.M
	err := s.collection(kind).FindOne(ctx, idFilter(id)).Decode(&raw)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s %q: %w", kind, id, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return decodeEntity(raw), nil
}

// Insert stores a new record and returns the store-assigned id.
func (s *MongoEntityStore) Insert(ctx context.Context, kind model.Kind, fields model.Entity) (string, error) {
	doc := toDocument(fields)

	result, err := s.collection(kind).InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return oid.Hex(), nil
}

// InsertWithID stores a new record under a caller-chosen document key.
func (s *MongoEntityStore) InsertWithID(ctx context.Context, kind model.Kind, id string, fields model.Entity) error {
	doc := toDocument(fields)
	doc["_id"] = id

	_, err := s.collection(kind).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s %q already exists: %w", kind, id, apperrors.ErrInvalidInput)
	}
	return err
}

// Update merges fields into an existing record.
func (s *MongoEntityStore) Update(ctx context.Context, kind model.Kind, id string, fields model.Entity) error {
	result, err := s.collection(kind).UpdateOne(ctx, idFilter(id), bson.M{"$set": toDocument(fields)})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, apperrors.ErrNotFound)
	}
	return nil
}

// Delete removes a record. The store reports a miss, so repeated deletes of
// the same id fail with not-found here.
func (s *MongoEntityStore) Delete(ctx context.Context, kind model.Kind, id string) error {
	result, err := s.collection(kind).DeleteOne(ctx, idFilter(id))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, apperrors.ErrNotFound)
	}
	return nil
}

// toDocument strips the out-of-band id field before writing; it lives in the
// document key, never inside the document.
func toDocument(fields model.Entity) bson.M {
	doc := make(bson.M, len(fields))
	for key, value := range fields {
		if key == model.FieldID {
			continue
		}
		doc[key] = value
	}
	return doc
}

var _ repository.EntityStore = (*MongoEntityStore)(nil)
