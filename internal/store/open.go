package store

import (
	"context"
	"errors"
	"fmt"

	"habit_tracker_bot/internal/config"
	"habit_tracker_bot/internal/domain"
)

// Backend is the full habit store API implemented by every driver.
type Backend interface {
	Driver() string
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (domain.Stats, error)
	Close(ctx context.Context) error

	UpsertUser(ctx context.Context, user domain.User) (bool, error)
	CreateHabit(ctx context.Context, userID int64, name, reminderTime string) (int64, error)
	ListHabits(ctx context.Context, userID int64) ([]domain.Habit, error)
	ListHabitsWithTodayStatus(ctx context.Context, userID int64) ([]domain.HabitStatus, error)
	MarkCompleted(ctx context.Context, habitID int64) (bool, error)
	UnmarkToday(ctx context.Context, habitID int64) (bool, error)
}

var (
	_ Backend = (*SQLStore)(nil)
	_ Backend = (*MongoStore)(nil)
)

// Open connects to the backend selected by cfg.StoreDriver. Checkin dates follow
// cfg's timezone unless opts override it.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (Backend, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	opts = append([]Option{WithLocation(cfg.Location())}, opts...)

	switch cfg.StoreDriver {
	case config.DriverSQLite, "":
		path := cfg.SQLitePath
		if path == "" {
			path = config.DefaultSQLitePath
		}
		return OpenSQLite(ctx, path, opts...)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN, opts...)
	case config.DriverMongo:
		manager, err := NewManager(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := manager.EnsureBaseIndexes(ctx); err != nil {
			_ = manager.Close(ctx)
			return nil, err
		}
		return NewMongoStore(manager, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
