package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aeristo/airlog/schema"
)

const (
	userCollectionName = "users"
	idxUniqueUsername  = "UniqueUsername"
)

// ErrUsernameTaken translates the store's duplicate-key rejection.
// Username uniqueness is enforced by the unique index, not by the
// application layer.
var ErrUsernameTaken = errors.New("username already taken")

// UserIndexes hold the unique username constraint.
var UserIndexes = map[string][]mongo.IndexModel{
	userCollectionName: {
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(idxUniqueUsername).SetUnique(true),
		},
	},
}

// UserMongoRepository persists users in the users collection. Users are
// created by registration and immutable thereafter.
type UserMongoRepository struct {
	*DatabaseAdapter
}

func NewUserMongoRepository(adapter *DatabaseAdapter) *UserMongoRepository {
	return &UserMongoRepository{DatabaseAdapter: adapter}
}

func userCollection(r *UserMongoRepository) *mongo.Collection {
	return r.Collection(userCollectionName)
}

// Insert stores a new user and returns it with the assigned id.
func (r *UserMongoRepository) Insert(ctx context.Context, u *schema.User) (*schema.User, error) {
	opCtx, cancel := r.OpContext(ctx)
	defer cancel()

	u.ID = primitive.NewObjectID()
	if _, err := userCollection(r).InsertOne(opCtx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// FindByUsername returns nil, nil when no user carries that name.
func (r *UserMongoRepository) FindByUsername(ctx context.Context, username string) (*schema.User, error) {
	opCtx, cancel := r.OpContext(ctx)
	defer cancel()

	var user schema.User
	err := userCollection(r).FindOne(opCtx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return &user, nil
}

// List returns every stored user.
func (r *UserMongoRepository) List(ctx context.Context) ([]schema.User, error) {
	opCtx, cancel := r.OpContext(ctx)
	defer cancel()

	cursor, err := userCollection(r).Find(opCtx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(opCtx)

	users := []schema.User{}
	if err := cursor.All(opCtx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}
