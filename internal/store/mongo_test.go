package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habit_tracker_bot/internal/domain"
)

var mongoTestNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestMongoUpsertUserUsesSetOnInsert(t *testing.T) {
	users := &fakeUserCollection{upserted: 1}
	s := newTestMongoStore(users, &fakeHabitCollection{}, &fakeCheckinCollection{}, newFakeCounterCollection())

	created, err := s.UpsertUser(context.Background(), domain.User{UserID: 42, Username: "ann", FirstName: "Ann"})
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, users.filters, 1)
	assert.Equal(t, bson.M{"user_id": int64(42)}, users.filters[0])

	update := users.updates[0]
	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "ann", set["username"])
	assert.Equal(t, "Ann", set["first_name"])
	assert.NotContains(t, set, "created_at")

	onInsert, ok := update["$setOnInsert"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, mongoTestNow, onInsert["created_at"])
	assert.Equal(t, "UTC", onInsert["timezone"])

	require.Len(t, users.opts, 1)
	require.NotNil(t, users.opts[0].Upsert)
	assert.True(t, *users.opts[0].Upsert)

	users.upserted = 0
	created, err = s.UpsertUser(context.Background(), domain.User{UserID: 42})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMongoUpsertUserValidatesInput(t *testing.T) {
	s := newTestMongoStore(&fakeUserCollection{}, &fakeHabitCollection{}, &fakeCheckinCollection{}, newFakeCounterCollection())

	_, err := s.UpsertUser(context.Background(), domain.User{})
	require.Error(t, err)

	var nilStore *MongoStore
	_, err = nilStore.UpsertUser(context.Background(), domain.User{UserID: 1})
	require.Error(t, err)
}

func TestMongoUpsertUserWrapsDriverErrors(t *testing.T) {
	users := &fakeUserCollection{err: errors.New("connection reset")}
	s := newTestMongoStore(users, &fakeHabitCollection{}, &fakeCheckinCollection{}, newFakeCounterCollection())

	_, err := s.UpsertUser(context.Background(), domain.User{UserID: 1})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestMongoCreateHabitRequiresRegisteredUser(t *testing.T) {
	habits := &fakeHabitCollection{}
	s := newTestMongoStore(&fakeUserCollection{count: 0}, habits, &fakeCheckinCollection{}, newFakeCounterCollection())

	_, err := s.CreateHabit(context.Background(), 7, "Read", "")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Empty(t, habits.inserted)
}

func TestMongoCreateHabitAssignsSequentialIDs(t *testing.T) {
	habits := &fakeHabitCollection{}
	counters := newFakeCounterCollection()
	s := newTestMongoStore(&fakeUserCollection{count: 1}, habits, &fakeCheckinCollection{}, counters)

	first, err := s.CreateHabit(context.Background(), 7, "Read", "")
	require.NoError(t, err)
	second, err := s.CreateHabit(context.Background(), 7, "Run", "06:30")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(2), counters.seq[CollectionHabits])

	require.Len(t, habits.inserted, 2)
	inserted := habits.inserted[1]
	assert.Equal(t, int64(7), inserted.UserID)
	assert.Equal(t, "Run", inserted.Name)
	assert.Equal(t, "06:30", inserted.ReminderTime)
	assert.Equal(t, mongoTestNow, inserted.CreatedAt)
}

func TestMongoCreateHabitWrapsCounterFailure(t *testing.T) {
	counters := newFakeCounterCollection()
	counters.err = errors.New("timeout")
	s := newTestMongoStore(&fakeUserCollection{count: 1}, &fakeHabitCollection{}, &fakeCheckinCollection{}, counters)

	_, err := s.CreateHabit(context.Background(), 7, "Read", "")
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestMongoListHabitsSortsNewestFirst(t *testing.T) {
	habits := &fakeHabitCollection{docs: []domain.Habit{
		{ID: 1, UserID: 7, Name: "Old", CreatedAt: mongoTestNow.Add(-time.Hour)},
		{ID: 2, UserID: 7, Name: "New", CreatedAt: mongoTestNow},
	}}
	s := newTestMongoStore(&fakeUserCollection{}, habits, &fakeCheckinCollection{}, newFakeCounterCollection())

	list, err := s.ListHabits(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "New", list[0].Name)
	assert.Equal(t, "Old", list[1].Name)

	assert.Equal(t, bson.M{"user_id": int64(7)}, habits.findFilter)
}

func TestMongoListHabitsWithTodayStatusOrdering(t *testing.T) {
	habits := &fakeHabitCollection{docs: []domain.Habit{
		{ID: 1, UserID: 7, Name: "A", CreatedAt: mongoTestNow},
		{ID: 2, UserID: 7, Name: "B", ReminderTime: "09:00", CreatedAt: mongoTestNow},
		{ID: 3, UserID: 7, Name: "C", CreatedAt: mongoTestNow},
		{ID: 4, UserID: 7, Name: "D", ReminderTime: "08:00", CreatedAt: mongoTestNow},
	}}
	checkins := &fakeCheckinCollection{docs: []domain.Checkin{
		{ID: 10, HabitID: 1, CheckDate: "2026-03-14", Completed: true},
		{ID: 11, HabitID: 4, CheckDate: "2026-03-14", Completed: true},
	}}
	s := newTestMongoStore(&fakeUserCollection{}, habits, checkins, newFakeCounterCollection())

	statuses, err := s.ListHabitsWithTodayStatus(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "C", "D", "A"}, statusNames(statuses))
	assert.Equal(t, []bool{false, false, true, true}, statusFlags(statuses))

	filter, ok := checkins.findFilter.(bson.M)
	require.True(t, ok)
	assert.Equal(t, "2026-03-14", filter["check_date"])
}

func TestMongoListHabitsWithTodayStatusSkipsCheckinsWhenEmpty(t *testing.T) {
	checkins := &fakeCheckinCollection{}
	s := newTestMongoStore(&fakeUserCollection{}, &fakeHabitCollection{}, checkins, newFakeCounterCollection())

	statuses, err := s.ListHabitsWithTodayStatus(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, statuses)
	assert.Nil(t, checkins.findFilter)
}

func TestMongoListHabitsWrapsFindErrors(t *testing.T) {
	habits := &fakeHabitCollection{findErr: errors.New("no reachable servers")}
	s := newTestMongoStore(&fakeUserCollection{}, habits, &fakeCheckinCollection{}, newFakeCounterCollection())

	_, err := s.ListHabits(context.Background(), 7)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)

	_, err = s.ListHabitsWithTodayStatus(context.Background(), 7)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestMongoMarkCompleted(t *testing.T) {
	checkins := &fakeCheckinCollection{}
	s := newTestMongoStore(&fakeUserCollection{}, &fakeHabitCollection{count: 1}, checkins, newFakeCounterCollection())

	created, err := s.MarkCompleted(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, checkins.inserted, 1)
	assert.Equal(t, int64(5), checkins.inserted[0].HabitID)
	assert.Equal(t, "2026-03-14", checkins.inserted[0].CheckDate)
	assert.True(t, checkins.inserted[0].Completed)
}

func TestMongoMarkCompletedDuplicateReturnsFalse(t *testing.T) {
	checkins := &fakeCheckinCollection{insertErr: mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	}}
	s := newTestMongoStore(&fakeUserCollection{}, &fakeHabitCollection{count: 1}, checkins, newFakeCounterCollection())

	created, err := s.MarkCompleted(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMongoMarkCompletedErrors(t *testing.T) {
	s := newTestMongoStore(&fakeUserCollection{}, &fakeHabitCollection{count: 0}, &fakeCheckinCollection{}, newFakeCounterCollection())

	_, err := s.MarkCompleted(context.Background(), 5)
	require.ErrorIs(t, err, domain.ErrHabitNotFound)

	failing := &fakeCheckinCollection{insertErr: errors.New("socket closed")}
	s = newTestMongoStore(&fakeUserCollection{}, &fakeHabitCollection{count: 1}, failing, newFakeCounterCollection())

	_, err = s.MarkCompleted(context.Background(), 5)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestMongoUnmarkToday(t *testing.T) {
	checkins := &fakeCheckinCollection{deleted: 1}
	s := newTestMongoStore(&fakeUserCollection{}, &fakeHabitCollection{}, checkins, newFakeCounterCollection())

	removed, err := s.UnmarkToday(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, bson.M{"habit_id": int64(5), "check_date": "2026-03-14"}, checkins.deleteFilter)

	checkins.deleted = 0
	removed, err = s.UnmarkToday(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMongoStoreStats(t *testing.T) {
	checkins := &fakeCheckinCollection{count: 3}
	s := newTestMongoStore(&fakeUserCollection{count: 2}, &fakeHabitCollection{count: 5}, checkins, newFakeCounterCollection())

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Users: 2, Habits: 5, CheckinsToday: 3}, stats)
	assert.Equal(t, bson.M{"check_date": "2026-03-14"}, checkins.countFilter)
}

func newTestMongoStore(users *fakeUserCollection, habits *fakeHabitCollection, checkins *fakeCheckinCollection, counters *fakeCounterCollection) *MongoStore {
	opts := []Option{
		WithClock(func() time.Time { return mongoTestNow }),
		WithLocation(time.UTC),
	}

	return &MongoStore{
		users:    users,
		habits:   habits,
		checkins: checkins,
		counters: counters,
		stats:    NewStatsProvider(users, habits, checkins, opts...),
		clock:    newClock(opts),
	}
}

type fakeUserCollection struct {
	filters  []interface{}
	updates  []bson.M
	opts     []*options.UpdateOptions
	upserted int64
	count    int64
	err      error
}

func (f *fakeUserCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.filters = append(f.filters, filter)
	if doc, ok := update.(bson.M); ok {
		f.updates = append(f.updates, doc)
	}
	f.opts = append(f.opts, opts...)
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.UpdateResult{UpsertedCount: f.upserted}, nil
}

func (f *fakeUserCollection) CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error) {
	return f.count, f.err
}

type fakeHabitCollection struct {
	docs       []domain.Habit
	inserted   []domain.Habit
	findFilter interface{}
	findErr    error
	count      int64
}

func (f *fakeHabitCollection) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if habit, ok := document.(domain.Habit); ok {
		f.inserted = append(f.inserted, habit)
	}
	return &mongo.InsertOneResult{}, nil
}

func (f *fakeHabitCollection) Find(_ context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	f.findFilter = filter
	if f.findErr != nil {
		return nil, f.findErr
	}

	docs := make([]interface{}, 0, len(f.docs))
	for _, h := range f.docs {
		docs = append(docs, h)
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (f *fakeHabitCollection) CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error) {
	return f.count, nil
}

type fakeCheckinCollection struct {
	docs         []domain.Checkin
	inserted     []domain.Checkin
	insertErr    error
	findFilter   interface{}
	deleteFilter interface{}
	deleted      int64
	countFilter  interface{}
	count        int64
}

func (f *fakeCheckinCollection) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if checkin, ok := document.(domain.Checkin); ok {
		f.inserted = append(f.inserted, checkin)
	}
	return &mongo.InsertOneResult{}, nil
}

func (f *fakeCheckinCollection) Find(_ context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	f.findFilter = filter

	docs := make([]interface{}, 0, len(f.docs))
	for _, c := range f.docs {
		docs = append(docs, c)
	}
	return mongo.NewCursorFromDocuments(docs, nil, nil)
}

func (f *fakeCheckinCollection) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	f.deleteFilter = filter
	return &mongo.DeleteResult{DeletedCount: f.deleted}, nil
}

func (f *fakeCheckinCollection) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	f.countFilter = filter
	return f.count, nil
}

type fakeCounterCollection struct {
	seq map[string]int64
	err error
}

func newFakeCounterCollection() *fakeCounterCollection {
	return &fakeCounterCollection{seq: make(map[string]int64)}
}

func (f *fakeCounterCollection) FindOneAndUpdate(_ context.Context, filter interface{}, _ interface{}, _ ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	if f.err != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, f.err, nil)
	}

	name, _ := filter.(bson.M)["_id"].(string)
	f.seq[name]++
	return mongo.NewSingleResultFromDocument(counterDoc{Seq: f.seq[name]}, nil, nil)
}
