package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habit_tracker_bot/internal/domain"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// StatsProvider counts documents in the Mongo collections for diagnostics
// without leaking MongoDB internals to callers.
type StatsProvider struct {
	users    countCollection
	habits   countCollection
	checkins countCollection
	clock    clock
}

// NewStatsProvider constructs a StatsProvider backed by the provided collections.
func NewStatsProvider(users, habits, checkins countCollection, opts ...Option) *StatsProvider {
	return &StatsProvider{
		users:    users,
		habits:   habits,
		checkins: checkins,
		clock:    newClock(opts),
	}
}

// Stats returns the number of users, habits and checkins recorded today.
func (p *StatsProvider) Stats(ctx context.Context) (domain.Stats, error) {
	if ctx == nil {
		return domain.Stats{}, errors.New("context is required")
	}
	if p == nil || p.users == nil || p.habits == nil || p.checkins == nil {
		return domain.Stats{}, errors.New("stats provider is not initialized")
	}

	var (
		stats domain.Stats
		err   error
	)

	if stats.Users, err = p.users.CountDocuments(ctx, bson.D{}); err != nil {
		return domain.Stats{}, unavailable("count users", err)
	}
	if stats.Habits, err = p.habits.CountDocuments(ctx, bson.D{}); err != nil {
		return domain.Stats{}, unavailable("count habits", err)
	}
	if stats.CheckinsToday, err = p.checkins.CountDocuments(ctx, bson.M{"check_date": p.clock.today()}); err != nil {
		return domain.Stats{}, unavailable("count checkins", err)
	}

	return stats, nil
}

// Stats returns the number of users, habits and checkins recorded today.
func (s *SQLStore) Stats(ctx context.Context) (domain.Stats, error) {
	if ctx == nil {
		return domain.Stats{}, errors.New("context is required")
	}

	var stats domain.Stats
	query := s.dialect.rebind(`
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM habits),
			(SELECT count(*) FROM checkins WHERE check_date = ?)`)

	err := s.db.QueryRowContext(ctx, query, s.clock.today()).
		Scan(&stats.Users, &stats.Habits, &stats.CheckinsToday)
	if err != nil {
		return domain.Stats{}, unavailable("count rows", err)
	}

	return stats, nil
}
