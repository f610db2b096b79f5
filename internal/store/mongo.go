package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habit_tracker_bot/internal/domain"
)

type userCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type habitCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type checkinCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type counterCollection interface {
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
}

// MongoStore implements the habit store on MongoDB. Ids are drawn from a
// counters collection so habits keep the monotonic integer ids of the SQL backend.
type MongoStore struct {
	manager  *Manager
	users    userCollection
	habits   habitCollection
	checkins checkinCollection
	counters counterCollection
	stats    *StatsProvider
	clock    clock
}

// NewMongoStore constructs a MongoStore over the manager's collections.
func NewMongoStore(manager *Manager, opts ...Option) *MongoStore {
	users, habits, checkins := manager.Users(), manager.Habits(), manager.Checkins()

	return &MongoStore{
		manager:  manager,
		users:    users,
		habits:   habits,
		checkins: checkins,
		counters: manager.Counters(),
		stats:    NewStatsProvider(users, habits, checkins, opts...),
		clock:    newClock(opts),
	}
}

// Driver names the backend.
func (s *MongoStore) Driver() string {
	return "mongo"
}

// Ping checks connectivity against the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	if s.manager == nil {
		return errors.New("mongo store has no manager")
	}
	if err := s.manager.Ping(ctx); err != nil {
		return unavailable("ping mongo", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.manager.Close(ctx)
}

// Stats returns collection counts.
func (s *MongoStore) Stats(ctx context.Context) (domain.Stats, error) {
	return s.stats.Stats(ctx)
}

// UpsertUser sets profile fields on every call and created_at/timezone only on insert.
func (s *MongoStore) UpsertUser(ctx context.Context, user domain.User) (bool, error) {
	if s == nil || s.users == nil {
		return false, errors.New("mongo store is not initialized")
	}
	if user.UserID == 0 {
		return false, errors.New("user_id is required")
	}

	now := s.clock.timestamp().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
		"$setOnInsert": bson.M{
			"user_id":    user.UserID,
			"created_at": now,
			"timezone":   s.clock.tz,
		},
	}

	result, err := s.users.UpdateOne(ctx,
		bson.M{"user_id": user.UserID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, unavailable("upsert user", err)
	}

	return result != nil && result.UpsertedCount > 0, nil
}

// CreateHabit inserts a habit for an existing user and returns its id.
func (s *MongoStore) CreateHabit(ctx context.Context, userID int64, name, reminderTime string) (int64, error) {
	count, err := s.users.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, unavailable("find habit owner", err)
	}
	if count == 0 {
		return 0, fmt.Errorf("create habit for user %d: %w", userID, domain.ErrUserNotFound)
	}

	id, err := s.nextID(ctx, CollectionHabits)
	if err != nil {
		return 0, err
	}

	habit := domain.Habit{
		ID:           id,
		UserID:       userID,
		Name:         name,
		ReminderTime: reminderTime,
		CreatedAt:    s.clock.timestamp().Truncate(time.Millisecond),
	}
	if _, err := s.habits.InsertOne(ctx, habit); err != nil {
		return 0, unavailable("insert habit", err)
	}

	return id, nil
}

// ListHabits returns the user's habits, newest first.
func (s *MongoStore) ListHabits(ctx context.Context, userID int64) ([]domain.Habit, error) {
	cursor, err := s.habits.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{
			{Key: "created_at", Value: -1},
			{Key: "id", Value: -1},
		}),
	)
	if err != nil {
		return nil, unavailable("find habits", err)
	}

	habits := make([]domain.Habit, 0)
	if err := cursor.All(ctx, &habits); err != nil {
		return nil, unavailable("decode habits", err)
	}

	domain.SortNewestFirst(habits)
	return habits, nil
}

// ListHabitsWithTodayStatus joins the user's habits with today's checkins and
// orders them like the SQL backend does.
func (s *MongoStore) ListHabitsWithTodayStatus(ctx context.Context, userID int64) ([]domain.HabitStatus, error) {
	habits, err := s.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return []domain.HabitStatus{}, nil
	}

	ids := make([]int64, 0, len(habits))
	for _, h := range habits {
		ids = append(ids, h.ID)
	}

	cursor, err := s.checkins.Find(ctx, bson.M{
		"habit_id":   bson.M{"$in": ids},
		"check_date": s.clock.today(),
	})
	if err != nil {
		return nil, unavailable("find checkins", err)
	}

	var checkins []domain.Checkin
	if err := cursor.All(ctx, &checkins); err != nil {
		return nil, unavailable("decode checkins", err)
	}

	done := make(map[int64]bool, len(checkins))
	for _, c := range checkins {
		done[c.HabitID] = true
	}

	statuses := make([]domain.HabitStatus, 0, len(habits))
	for _, h := range habits {
		statuses = append(statuses, domain.HabitStatus{Habit: h, CompletedToday: done[h.ID]})
	}

	domain.SortTodayStatus(statuses)
	return statuses, nil
}

// MarkCompleted inserts today's checkin. The unique (habit_id, check_date)
// index turns duplicates into a false result.
func (s *MongoStore) MarkCompleted(ctx context.Context, habitID int64) (bool, error) {
	count, err := s.habits.CountDocuments(ctx, bson.M{"id": habitID})
	if err != nil {
		return false, unavailable("find habit", err)
	}
	if count == 0 {
		return false, fmt.Errorf("mark habit %d: %w", habitID, domain.ErrHabitNotFound)
	}

	id, err := s.nextID(ctx, CollectionCheckins)
	if err != nil {
		return false, err
	}

	checkin := domain.Checkin{
		ID:        id,
		HabitID:   habitID,
		CheckDate: s.clock.today(),
		Completed: true,
		CreatedAt: s.clock.timestamp().Truncate(time.Millisecond),
	}
	if _, err := s.checkins.InsertOne(ctx, checkin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, unavailable("insert checkin", err)
	}

	return true, nil
}

// UnmarkToday deletes today's checkin and reports whether one existed.
func (s *MongoStore) UnmarkToday(ctx context.Context, habitID int64) (bool, error) {
	result, err := s.checkins.DeleteOne(ctx, bson.M{
		"habit_id":   habitID,
		"check_date": s.clock.today(),
	})
	if err != nil {
		return false, unavailable("delete checkin", err)
	}

	return result != nil && result.DeletedCount > 0, nil
}

type counterDoc struct {
	Seq int64 `bson:"seq"`
}

// nextID atomically increments and returns the named sequence.
func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	result := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	)
	if result == nil {
		return 0, unavailable("next "+name+" id", errors.New("no result"))
	}

	var doc counterDoc
	if err := result.Decode(&doc); err != nil {
		return 0, unavailable("next "+name+" id", err)
	}

	return doc.Seq, nil
}
