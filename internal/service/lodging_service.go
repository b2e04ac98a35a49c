package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/OSU-CS493-Sp18/mongodb/internal/model"
	"github.com/OSU-CS493-Sp18/mongodb/internal/queue"
	"github.com/OSU-CS493-Sp18/mongodb/internal/repository"
)

// PageSize is the number of lodgings per listing page.
const PageSize = 10

// LodgingStore is the relational store gateway used by LodgingService.
type LodgingStore interface {
	Count(ctx context.Context) (int, error)
	ListPage(ctx context.Context, offset, limit int) ([]model.Lodging, error)
	Create(ctx context.Context, in model.LodgingInput) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Lodging, error)
	Update(ctx context.Context, id int64, in model.LodgingInput) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// EventPublisher delivers lodging events to the message broker.
type EventPublisher interface {
	PublishLodgingCreated(ctx context.Context, ev queue.LodgingCreatedEvent) error
}

type LodgingService struct {
	lodgings  LodgingStore
	users     *UserService
	publisher EventPublisher
	tracer    trace.Tracer
	logger    *logrus.Logger
}

func NewLodgingService(lodgings LodgingStore, users *UserService, publisher EventPublisher, tracer trace.Tracer, logger *logrus.Logger) *LodgingService {
	return &LodgingService{
		lodgings:  lodgings,
		users:     users,
		publisher: publisher,
		tracer:    tracer,
		logger:    logger,
	}
}

// List returns the requested page of lodgings.  page is clamped into
// [1, totalPages]; an empty table yields page 1 of 0 with no rows.
func (s *LodgingService) List(ctx context.Context, page int) (*model.LodgingPage, error) {
	ctx, span := s.tracer.Start(ctx, "LodgingService.List")
	defer span.End()

	total, err := s.lodgings.Count(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr(err)
	}

	lastPage := (total + PageSize - 1) / PageSize
	if page > lastPage {
		page = lastPage
	}
	if page < 1 {
		page = 1
	}

	out := &model.LodgingPage{
		Lodgings:   []model.Lodging{},
		PageNumber: page,
		TotalPages: lastPage,
		PageSize:   PageSize,
		TotalCount: total,
		Links:      pageLinks(page, lastPage),
	}
	if total == 0 {
		return out, nil
	}

	rows, err := s.lodgings.ListPage(ctx, (page-1)*PageSize, PageSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr(err)
	}
	out.Lodgings = rows
	return out, nil
}

func pageLinks(page, lastPage int) map[string]string {
	links := map[string]string{}
	if page < lastPage {
		links["nextPage"] = fmt.Sprintf("/lodgings?page=%d", page+1)
		links["lastPage"] = fmt.Sprintf("/lodgings?page=%d", lastPage)
	}
	if page > 1 {
		links["prevPage"] = fmt.Sprintf("/lodgings?page=%d", page-1)
		links["firstPage"] = "/lodgings?page=1"
	}
	return links
}

// Create validates the payload, checks that the owner exists, inserts the
// lodging and appends its id to the owner's lodgings.  The steps run in
// that order and each waits for the previous one.  If the append fails the
// inserted row stays in place and the store error is returned.
func (s *LodgingService) Create(ctx context.Context, in model.LodgingInput) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "LodgingService.Create")
	defer span.End()

	if err := check(in); err != nil {
		return 0, err
	}

	if _, err := s.users.GetByID(ctx, in.OwnerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, &InvalidOwnerError{OwnerID: in.OwnerID}
		}
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	id, err := s.lodgings.Create(ctx, in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, storeErr(err)
	}
	span.SetAttributes(attribute.Int64("lodging.id", id))

	linked, err := s.users.AppendLodging(ctx, id, in.OwnerID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.WithError(err).WithFields(logrus.Fields{"lodging_id": id, "owner_id": in.OwnerID}).
			Error("lodging inserted but not linked to owner")
		s.publish(ctx, id, in.OwnerID, false)
		return id, err
	}
	if !linked {
		s.logger.WithFields(logrus.Fields{"lodging_id": id, "owner_id": in.OwnerID}).
			Warn("owner matched no user document; lodging left unlinked")
	}
	s.publish(ctx, id, in.OwnerID, linked)
	return id, nil
}

// publish sends the lodging.created event.  Failures are logged only.
func (s *LodgingService) publish(ctx context.Context, id int64, ownerID string, linked bool) {
	if s.publisher == nil {
		return
	}
	ev := queue.LodgingCreatedEvent{
		LodgingID: id,
		OwnerID:   ownerID,
		Linked:    linked,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishLodgingCreated(ctx, ev); err != nil {
		s.logger.WithError(err).WithField("lodging_id", id).Warn("publish lodging.created failed")
	}
}

// GetByID returns the lodging or ErrNotFound.
func (s *LodgingService) GetByID(ctx context.Context, id int64) (*model.Lodging, error) {
	ctx, span := s.tracer.Start(ctx, "LodgingService.GetByID")
	defer span.End()

	l, err := s.lodgings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLodgingNotFound) {
			return nil, ErrNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr(err)
	}
	return l, nil
}

// Update validates the payload and overwrites the lodging.  The boolean
// is false when no lodging has that id.  The owner is not re-checked.
func (s *LodgingService) Update(ctx context.Context, id int64, in model.LodgingInput) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "LodgingService.Update")
	defer span.End()

	if err := check(in); err != nil {
		return false, err
	}
	ok, err := s.lodgings.Update(ctx, id, in)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, storeErr(err)
	}
	return ok, nil
}

// Delete removes the lodging.  The boolean is false when no lodging has
// that id.  The owner's lodgings array is left untouched.
func (s *LodgingService) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "LodgingService.Delete")
	defer span.End()

	ok, err := s.lodgings.Delete(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, storeErr(err)
	}
	return ok, nil
}
