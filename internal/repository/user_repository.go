package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/OSU-CS493-Sp18/mongodb/internal/model"
)

const usersCollection = "users"

// UserRepo wraps the users collection.  Every call goes through a circuit
// breaker so a failing MongoDB is reported quickly instead of tying up
// request goroutines until the driver times out.
type UserRepo struct {
	users  *mongo.Collection
	cb     *gobreaker.CircuitBreaker
	tracer trace.Tracer
}

// BreakerSettings tunes the circuit breaker guarding the collection.
type BreakerSettings struct {
	MaxFailures int
	Timeout     time.Duration
}

// NewUserRepo constructs a UserRepo on the users collection of db.
func NewUserRepo(db *mongo.Database, bs BreakerSettings, tracer trace.Tracer, logger *logrus.Logger) *UserRepo {
	return &UserRepo{
		users:  db.Collection(usersCollection),
		cb:     newBreaker("users", bs, logger),
		tracer: tracer,
	}
}

func newBreaker(name string, bs BreakerSettings, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	maxFailures := uint32(3)
	if bs.MaxFailures > 0 {
		maxFailures = uint32(bs.MaxFailures)
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker changed state")
		},
		// a missing document is an answer, not a store failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, mongo.ErrNoDocuments)
		},
	})
}

// userFilter turns a UserQuery into a MongoDB filter on exactly one key.
func userFilter(q model.UserQuery) bson.M {
	if q.Native {
		return bson.M{"_id": q.ObjectID}
	}
	return bson.M{"userID": q.UserID}
}

// Create inserts the user and returns the generated ObjectID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (primitive.ObjectID, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepo.Create")
	defer span.End()

	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.users.InsertOne(ctx, u)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return primitive.NilObjectID, err
	}
	id, ok := res.(*mongo.InsertOneResult).InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	u.ID = id
	return id, nil
}

// FindOne returns the first user matching q, or ErrUserNotFound.
func (r *UserRepo) FindOne(ctx context.Context, q model.UserQuery) (*model.User, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepo.FindOne")
	defer span.End()

	res, err := r.cb.Execute(func() (interface{}, error) {
		var u model.User
		if err := r.users.FindOne(ctx, userFilter(q)).Decode(&u); err != nil {
			return nil, err
		}
		return &u, nil
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res.(*model.User), nil
}

// AppendLodging pushes lodgingID onto the lodgings array of the user
// matching q.  The boolean reports whether any document matched; no match
// is not an error.
func (r *UserRepo) AppendLodging(ctx context.Context, q model.UserQuery, lodgingID int64) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepo.AppendLodging")
	defer span.End()

	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.users.UpdateOne(ctx, userFilter(q), bson.M{"$push": bson.M{"lodgings": lodgingID}})
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return res.(*mongo.UpdateResult).MatchedCount > 0, nil
}
