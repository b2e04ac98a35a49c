package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions describes the document store connection.  Credentials are
// optional; when User is empty the URI carries none.
type MongoOptions struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// URI renders mongodb://[user:pass@]host:port/name.
func (o MongoOptions) URI() string {
	auth := ""
	if o.User != "" {
		auth = url.UserPassword(o.User, o.Password).String() + "@"
	}
	return fmt.Sprintf("mongodb://%s%s:%s/%s", auth, o.Host, o.Port, o.Name)
}

// OpenMongo connects to MongoDB, pings it and returns the client together
// with the configured database handle.
func OpenMongo(o MongoOptions) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(o.URI()))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, client.Database(o.Name), nil
}
