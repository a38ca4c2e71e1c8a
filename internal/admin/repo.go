package admin

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateUsername is returned when registering an existing username.
var ErrDuplicateUsername = errors.New("username already exists")

// Repository is the admin storage contract.
type Repository interface {
	Insert(ctx context.Context, a Admin) (Admin, error)
	ByID(ctx context.Context, id string) (*Admin, error)
	ByUsername(ctx context.Context, username string) (*Admin, error)
	ByContact(ctx context.Context, contact string) (*Admin, error)
	Save(ctx context.Context, a Admin) error
}

// MongoRepository persists admins in the admins collection.
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a repo over db's admins collection.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection("admins")}
}

func (r *MongoRepository) Insert(ctx context.Context, a Admin) (Admin, error) {
	a.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Admin{}, ErrDuplicateUsername
		}
		return Admin{}, err
	}
	return a, nil
}

func (r *MongoRepository) ByID(ctx context.Context, id string) (*Admin, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository) ByUsername(ctx context.Context, username string) (*Admin, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoRepository) ByContact(ctx context.Context, contact string) (*Admin, error) {
	return r.findOne(ctx, bson.M{"contact": contact})
}

func (r *MongoRepository) Save(ctx context.Context, a Admin) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	return err
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*Admin, error) {
	var a Admin
	if err := r.col.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// MemoryRepository is a map-backed admin store for dev and tests.
type MemoryRepository struct {
	admins map[string]Admin
}

// NewMemoryRepository creates an empty in-memory admin store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{admins: make(map[string]Admin)}
}

func (r *MemoryRepository) Insert(_ context.Context, a Admin) (Admin, error) {
	for _, existing := range r.admins {
		if existing.Username == a.Username {
			return Admin{}, ErrDuplicateUsername
		}
	}
	a.ID = primitive.NewObjectID()
	r.admins[a.ID.Hex()] = a
	return a, nil
}

func (r *MemoryRepository) ByID(_ context.Context, id string) (*Admin, error) {
	a, ok := r.admins[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *MemoryRepository) ByUsername(_ context.Context, username string) (*Admin, error) {
	for _, a := range r.admins {
		if a.Username == username {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ByContact(_ context.Context, contact string) (*Admin, error) {
	for _, a := range r.admins {
		if a.Contact == contact {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Save(_ context.Context, a Admin) error {
	r.admins[a.ID.Hex()] = a
	return nil
}
