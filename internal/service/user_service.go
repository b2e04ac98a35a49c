package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/OSU-CS493-Sp18/mongodb/internal/model"
	"github.com/OSU-CS493-Sp18/mongodb/internal/repository"
)

// UserStore is the document store gateway used by UserService.
type UserStore interface {
	Create(ctx context.Context, u *model.User) (primitive.ObjectID, error)
	FindOne(ctx context.Context, q model.UserQuery) (*model.User, error)
	AppendLodging(ctx context.Context, q model.UserQuery, lodgingID int64) (bool, error)
}

// OwnerScanner lists lodgings by owner from the relational store.
type OwnerScanner interface {
	ListByOwner(ctx context.Context, ownerID string) ([]model.Lodging, error)
}

type UserService struct {
	users    UserStore
	lodgings OwnerScanner
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewUserService(users UserStore, lodgings OwnerScanner, tracer trace.Tracer, logger *logrus.Logger) *UserService {
	return &UserService{
		users:    users,
		lodgings: lodgings,
		tracer:   tracer,
		logger:   logger,
	}
}

// ResolveIDQuery decides how identifier addresses a user: a well-formed
// ObjectID hex string is looked up by _id, anything else by userID.
func (s *UserService) ResolveIDQuery(identifier string) model.UserQuery {
	if oid, err := primitive.ObjectIDFromHex(identifier); err == nil {
		return model.UserQuery{Native: true, ObjectID: oid}
	}
	return model.UserQuery{UserID: identifier}
}

// Create validates the payload and inserts a user with no lodgings.
func (s *UserService) Create(ctx context.Context, in model.UserInput) (primitive.ObjectID, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Create")
	defer span.End()

	if err := check(in); err != nil {
		return primitive.NilObjectID, err
	}
	u := &model.User{
		UserID:   in.UserID,
		Name:     in.Name,
		Email:    in.Email,
		Lodgings: []int64{},
	}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return primitive.NilObjectID, storeErr(err)
	}
	return id, nil
}

// GetByID returns the user addressed by identifier (see ResolveIDQuery).
func (s *UserService) GetByID(ctx context.Context, identifier string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetByID")
	defer span.End()

	u, err := s.users.FindOne(ctx, s.ResolveIDQuery(identifier))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr(err)
	}
	if u.Lodgings == nil {
		u.Lodgings = []int64{}
	}
	return u, nil
}

// AppendLodging adds lodgingID to the lodgings of the user addressed by
// ownerIdentifier.  The boolean reports whether a user matched; when none
// does nothing is written and no error is returned.
func (s *UserService) AppendLodging(ctx context.Context, lodgingID int64, ownerIdentifier string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.AppendLodging")
	defer span.End()

	matched, err := s.users.AppendLodging(ctx, s.ResolveIDQuery(ownerIdentifier), lodgingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, storeErr(err)
	}
	return matched, nil
}

// ListLodgingsByOwner scans the lodgings table for rows owned by ownerID.
// It reads the relational side of the relationship, not User.Lodgings.
func (s *UserService) ListLodgingsByOwner(ctx context.Context, ownerID string) ([]model.Lodging, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.ListLodgingsByOwner")
	defer span.End()

	out, err := s.lodgings.ListByOwner(ctx, ownerID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr(err)
	}
	return out, nil
}
