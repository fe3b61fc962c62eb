package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/model"
)

// MongoStore keeps contacts as documents of one MongoDB collection, keyed by
// the contact id in _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to the MongoDB deployment at uri and uses the given
// database and collection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	return NewMongoStore(client.Database(database).Collection(collection)), nil
}

// NewMongoStore wraps an existing collection handle.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: coll.Database().Client(), coll: coll}
}

func (s *MongoStore) FindAll(ctx context.Context) ([]model.Contact, error) {
	return s.find(ctx, bson.D{})
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (model.Contact, error) {
	var contact model.Contact
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&contact)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Contact{}, ErrNotFound
	}
	if err != nil {
		return model.Contact{}, err
	}
	return contact, nil
}

func (s *MongoStore) Search(ctx context.Context, filter model.SearchFilter) ([]model.Contact, error) {
	return s.find(ctx, mongoFilter(filter))
}

func (s *MongoStore) Insert(ctx context.Context, contact model.Contact) error {
	_, err := s.coll.InsertOne(ctx, contact)
	return err
}

func (s *MongoStore) Update(ctx context.Context, id string, changes model.ContactInput) (model.Contact, error) {
	set := mongoSet(changes)
	if len(set) == 0 {
		// MongoDB rejects an empty $set.
		return s.FindByID(ctx, id)
	}
	var contact model.Contact
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&contact)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Contact{}, ErrNotFound
	}
	if err != nil {
		return model.Contact{}, err
	}
	return contact, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates secondary indexes on the searchable fields.
func (s *MongoStore) EnsureIndexes(ctx context.Context) ([]string, error) {
	return s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "surname", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "age", Value: 1}}},
	})
}

func (s *MongoStore) find(ctx context.Context, filter bson.D) ([]model.Contact, error) {
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	contacts := make([]model.Contact, 0)
	if err := cur.All(ctx, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// mongoFilter translates a search filter into a query document. Name and
// surname become case-insensitive regular expressions on the quoted input.
func mongoFilter(f model.SearchFilter) bson.D {
	filter := bson.D{}
	if f.Name != "" {
		filter = append(filter, bson.E{Key: "name", Value: containsRegex(f.Name)})
	}
	if f.Surname != "" {
		filter = append(filter, bson.E{Key: "surname", Value: containsRegex(f.Surname)})
	}
	if f.Role != "" {
		filter = append(filter, bson.E{Key: "role", Value: f.Role})
	}
	if f.Age != nil {
		filter = append(filter, bson.E{Key: "age", Value: *f.Age})
	}
	return filter
}

func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// mongoSet lists the supplied fields of an update.
func mongoSet(in model.ContactInput) bson.D {
	set := bson.D{}
	if in.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *in.Name})
	}
	if in.Surname != nil {
		set = append(set, bson.E{Key: "surname", Value: *in.Surname})
	}
	if in.Age != nil {
		set = append(set, bson.E{Key: "age", Value: *in.Age})
	}
	if in.Role != nil {
		set = append(set, bson.E{Key: "role", Value: *in.Role})
	}
	return set
}
