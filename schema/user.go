package schema

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account in the users collection. Users are
// immutable once created; uniqueness of the username is enforced by a
// unique index, not by the application layer.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	PasswordHash string             `json:"passwordHash" bson:"passwordHash"`
}
