package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// User represents a document in the `users` collection.  Lodgings holds
// the ids of the lodgings this user owns; it is only ever appended to.
type User struct {
    ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
    UserID   string             `bson:"userID" json:"userID"`
    Name     string             `bson:"name" json:"name"`
    Email    string             `bson:"email" json:"email"`
    Lodgings []int64            `bson:"lodgings" json:"lodgings"`
}

// UserInput is the request body accepted by POST /users.
type UserInput struct {
    UserID string `json:"userID" validate:"required"`
    Name   string `json:"name" validate:"required"`
    Email  string `json:"email" validate:"required"`
}

// UserQuery selects a single user either by its native ObjectID or by
// the externally supplied userID.  Exactly one form is set: Native
// reports which.
type UserQuery struct {
    Native   bool
    ObjectID primitive.ObjectID
    UserID   string
}

// String returns the identifier the query was built from.
func (q UserQuery) String() string {
    if q.Native {
        return q.ObjectID.Hex()
    }
    return q.UserID
}
