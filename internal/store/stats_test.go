package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habit_tracker_bot/internal/domain"
)

func TestStatsProviderCountsCollections(t *testing.T) {
	users := &stubCountCollection{count: 12}
	habits := &stubCountCollection{count: 30}
	checkins := &stubCountCollection{count: 5}

	loc := time.FixedZone("UTC+3", 3*60*60)
	provider := NewStatsProvider(users, habits, checkins,
		WithClock(func() time.Time { return time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC) }),
		WithLocation(loc),
	)

	stats, err := provider.Stats(context.Background())
	if err != nil {
		t.Fatalf("expected stats to succeed, got error: %v", err)
	}

	want := domain.Stats{Users: 12, Habits: 30, CheckinsToday: 5}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}

	for name, coll := range map[string]*stubCountCollection{"users": users, "habits": habits, "checkins": checkins} {
		if coll.calls != 1 {
			t.Fatalf("expected %s count to be called once, got %d", name, coll.calls)
		}
	}

	filter, ok := checkins.lastFilter.(bson.M)
	if !ok || filter["check_date"] != "2026-03-15" {
		t.Fatalf("expected checkins filtered by local date, got %v", checkins.lastFilter)
	}
}

func TestStatsProviderRequiresContext(t *testing.T) {
	provider := NewStatsProvider(&stubCountCollection{}, &stubCountCollection{}, &stubCountCollection{})

	if _, err := provider.Stats(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestStatsProviderRequiresInitialization(t *testing.T) {
	var provider *StatsProvider

	if _, err := provider.Stats(context.Background()); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}

func TestStatsProviderPropagatesErrors(t *testing.T) {
	expectedErr := errors.New("count failed")
	provider := NewStatsProvider(
		&stubCountCollection{},
		&stubCountCollection{err: expectedErr},
		&stubCountCollection{},
	)

	_, err := provider.Stats(context.Background())
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected wrapped count error, got %v", err)
	}
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
}

func TestSQLStoreStats(t *testing.T) {
	s, clk := setupSQLiteStore(t)
	ctx := context.Background()
	registerUser(t, s, 1)
	registerUser(t, s, 2)

	first, err := s.CreateHabit(ctx, 1, "Read", "")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, err := s.CreateHabit(ctx, 2, "Swim", "18:00"); err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, err := s.MarkCompleted(ctx, first); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("expected stats to succeed, got error: %v", err)
	}
	if want := (domain.Stats{Users: 2, Habits: 2, CheckinsToday: 1}); stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}

	clk.Advance(24 * time.Hour)

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("expected stats to succeed, got error: %v", err)
	}
	if stats.CheckinsToday != 0 {
		t.Fatalf("expected no checkins on the next day, got %d", stats.CheckinsToday)
	}
}

type stubCountCollection struct {
	count      int64
	err        error
	calls      int
	lastFilter interface{}
}

func (s *stubCountCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	s.calls++
	s.lastFilter = filter
	return s.count, s.err
}
