package service

import (
	"context"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/OSU-CS493-Sp18/mongodb/internal/model"
	"github.com/OSU-CS493-Sp18/mongodb/internal/queue"
	"github.com/OSU-CS493-Sp18/mongodb/internal/repository"
)

// fakeLodgingStore keeps rows in memory and records which calls were made.
type fakeLodgingStore struct {
	rows   map[int64]model.Lodging
	nextID int64

	countErr  error
	createErr error

	creates   int
	pageCalls [][2]int
}

func newFakeLodgingStore() *fakeLodgingStore {
	return &fakeLodgingStore{rows: map[int64]model.Lodging{}, nextID: 1}
}

func (f *fakeLodgingStore) seed(n int) {
	for i := 0; i < n; i++ {
		f.rows[f.nextID] = model.Lodging{ID: f.nextID, Name: "seed", OwnerID: "seed"}
		f.nextID++
	}
}

func (f *fakeLodgingStore) sorted() []model.Lodging {
	out := make([]model.Lodging, 0, len(f.rows))
	for _, l := range f.rows {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeLodgingStore) Count(context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.rows), nil
}

func (f *fakeLodgingStore) ListPage(_ context.Context, offset, limit int) ([]model.Lodging, error) {
	f.pageCalls = append(f.pageCalls, [2]int{offset, limit})
	all := f.sorted()
	if offset >= len(all) {
		return []model.Lodging{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeLodgingStore) Create(_ context.Context, in model.LodgingInput) (int64, error) {
	f.creates++
	if f.createErr != nil {
		return 0, f.createErr
	}
	id := f.nextID
	f.nextID++
	f.rows[id] = toLodging(id, in)
	return id, nil
}

func (f *fakeLodgingStore) GetByID(_ context.Context, id int64) (*model.Lodging, error) {
	l, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrLodgingNotFound
	}
	return &l, nil
}

func (f *fakeLodgingStore) Update(_ context.Context, id int64, in model.LodgingInput) (bool, error) {
	if _, ok := f.rows[id]; !ok {
		return false, nil
	}
	f.rows[id] = toLodging(id, in)
	return true, nil
}

func (f *fakeLodgingStore) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := f.rows[id]; !ok {
		return false, nil
	}
	delete(f.rows, id)
	return true, nil
}

func (f *fakeLodgingStore) ListByOwner(_ context.Context, ownerID string) ([]model.Lodging, error) {
	out := []model.Lodging{}
	for _, l := range f.sorted() {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func toLodging(id int64, in model.LodgingInput) model.Lodging {
	return model.Lodging{
		ID: id, Name: in.Name, Description: in.Description, Street: in.Street, City: in.City,
		State: in.State, Zip: in.Zip, Price: in.Price, OwnerID: in.OwnerID,
	}
}

// fakeUserStore matches queries the same way the Mongo filter does.
type fakeUserStore struct {
	users     []*model.User
	findErr   error
	appendErr error

	vanishOnAppend bool

	finds   []model.UserQuery
	appends []model.UserQuery
}

func (f *fakeUserStore) match(q model.UserQuery) *model.User {
	for _, u := range f.users {
		if q.Native && u.ID == q.ObjectID || !q.Native && u.UserID == q.UserID {
			return u
		}
	}
	return nil
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) (primitive.ObjectID, error) {
	u.ID = primitive.NewObjectID()
	f.users = append(f.users, u)
	return u.ID, nil
}

func (f *fakeUserStore) FindOne(_ context.Context, q model.UserQuery) (*model.User, error) {
	f.finds = append(f.finds, q)
	if f.findErr != nil {
		return nil, f.findErr
	}
	u := f.match(q)
	if u == nil {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) AppendLodging(_ context.Context, q model.UserQuery, id int64) (bool, error) {
	f.appends = append(f.appends, q)
	if f.appendErr != nil {
		return false, f.appendErr
	}
	u := f.match(q)
	if u == nil || f.vanishOnAppend {
		return false, nil
	}
	u.Lodgings = append(u.Lodgings, id)
	return true, nil
}

type recordingPublisher struct {
	events []queue.LodgingCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishLodgingCreated(_ context.Context, ev queue.LodgingCreatedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

type fixture struct {
	lodgings  *fakeLodgingStore
	users     *fakeUserStore
	publisher *recordingPublisher
	userSvc   *UserService
	svc       *LodgingService
}

func newFixture() *fixture {
	f := &fixture{
		lodgings:  newFakeLodgingStore(),
		users:     &fakeUserStore{},
		publisher: &recordingPublisher{},
	}
	f.userSvc = NewUserService(f.users, f.lodgings, testTracer(), testLogger())
	f.svc = NewLodgingService(f.lodgings, f.userSvc, f.publisher, testTracer(), testLogger())
	return f
}
