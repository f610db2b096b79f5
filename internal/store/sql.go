package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"habit_tracker_bot/internal/domain"
)

// SQLStore implements the habit store on top of database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	clock   clock
}

// OpenSQLite opens (creating if needed) a SQLite database file and applies the schema.
// Foreign keys are enforced and the pool is limited to one connection, which
// serializes writers without SQLITE_BUSY errors.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(sqliteDialect.driver, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return newSQLStore(ctx, db, sqliteDialect, opts)
}

// OpenPostgres connects to PostgreSQL through the pgx stdlib driver and applies the schema.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*SQLStore, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	return newSQLStore(ctx, db, postgresDialect, opts)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, opts []Option) (*SQLStore, error) {
	s := &SQLStore{
		db:      db,
		dialect: d,
		clock:   newClock(opts),
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}

	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Driver names the SQL dialect in use.
func (s *SQLStore) Driver() string {
	return s.dialect.name
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping "+s.dialect.name, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLStore) Close(context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertUser inserts the user or refreshes its profile fields. created_at and
// timezone are kept from the first registration. It reports whether a new row
// was inserted.
func (s *SQLStore) UpsertUser(ctx context.Context, user domain.User) (bool, error) {
	if user.UserID == 0 {
		return false, errors.New("user_id is required")
	}

	insert := s.dialect.rebind(`
		INSERT INTO users (user_id, username, first_name, last_name, created_at, timezone)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`)

	res, err := s.db.ExecContext(ctx, insert,
		user.UserID,
		nullString(user.Username),
		nullString(user.FirstName),
		nullString(user.LastName),
		s.dialect.timeArg(s.clock.timestamp()),
		s.clock.tz,
	)
	if err != nil {
		return false, unavailable("insert user", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("insert user", err)
	}
	if inserted == 1 {
		return true, nil
	}

	update := s.dialect.rebind(`
		UPDATE users SET username = ?, first_name = ?, last_name = ?
		WHERE user_id = ?`)

	if _, err := s.db.ExecContext(ctx, update,
		nullString(user.Username),
		nullString(user.FirstName),
		nullString(user.LastName),
		user.UserID,
	); err != nil {
		return false, unavailable("update user", err)
	}

	return false, nil
}

// CreateHabit inserts a habit and returns its id. An empty reminderTime stores NULL.
func (s *SQLStore) CreateHabit(ctx context.Context, userID int64, name, reminderTime string) (int64, error) {
	query := s.dialect.rebind(`
		INSERT INTO habits (user_id, name, created_at, reminder_time)
		VALUES (?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		userID,
		name,
		s.dialect.timeArg(s.clock.timestamp()),
		nullString(reminderTime),
	).Scan(&id)
	if err != nil {
		if s.dialect.isForeignKeyViolation(err) {
			return 0, fmt.Errorf("create habit for user %d: %w", userID, domain.ErrUserNotFound)
		}
		return 0, unavailable("insert habit", err)
	}

	return id, nil
}

// ListHabits returns the user's habits, newest first.
func (s *SQLStore) ListHabits(ctx context.Context, userID int64) ([]domain.Habit, error) {
	query := s.dialect.rebind(`
		SELECT id, user_id, name, reminder_time, created_at
		FROM habits
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, unavailable("list habits", err)
	}
	defer rows.Close()

	habits := make([]domain.Habit, 0)
	for rows.Next() {
		var (
			h         domain.Habit
			reminder  sql.NullString
			createdAt dbTime
		)
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &reminder, &createdAt); err != nil {
			return nil, unavailable("scan habit", err)
		}
		h.ReminderTime = reminder.String
		h.CreatedAt = createdAt.Time
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list habits", err)
	}

	return habits, nil
}

// ListHabitsWithTodayStatus returns the user's habits joined with today's checkins:
// pending first, then habits with a reminder, then by reminder time.
func (s *SQLStore) ListHabitsWithTodayStatus(ctx context.Context, userID int64) ([]domain.HabitStatus, error) {
	query := s.dialect.rebind(`
		SELECT
			h.id,
			h.user_id,
			h.name,
			h.reminder_time,
			h.created_at,
			CASE WHEN c.id IS NOT NULL THEN 1 ELSE 0 END AS completed_today
		FROM habits h
		LEFT JOIN checkins c ON c.habit_id = h.id AND c.check_date = ?
		WHERE h.user_id = ?
		ORDER BY
			completed_today ASC,
			CASE WHEN h.reminder_time IS NULL THEN 1 ELSE 0 END ASC,
			h.reminder_time ASC,
			h.id ASC`)

	rows, err := s.db.QueryContext(ctx, query, s.clock.today(), userID)
	if err != nil {
		return nil, unavailable("list today status", err)
	}
	defer rows.Close()

	statuses := make([]domain.HabitStatus, 0)
	for rows.Next() {
		var (
			st        domain.HabitStatus
			reminder  sql.NullString
			createdAt dbTime
			completed int64
		)
		if err := rows.Scan(&st.Habit.ID, &st.Habit.UserID, &st.Habit.Name, &reminder, &createdAt, &completed); err != nil {
			return nil, unavailable("scan today status", err)
		}
		st.Habit.ReminderTime = reminder.String
		st.Habit.CreatedAt = createdAt.Time
		st.CompletedToday = completed == 1
		statuses = append(statuses, st)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list today status", err)
	}

	return statuses, nil
}

// MarkCompleted records today's checkin. It returns false when one already
// exists; the unique (habit_id, check_date) constraint decides, so concurrent
// callers see exactly one true.
func (s *SQLStore) MarkCompleted(ctx context.Context, habitID int64) (bool, error) {
	query := s.dialect.rebind(`
		INSERT INTO checkins (habit_id, check_date, completed, created_at)
		VALUES (?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		habitID,
		s.clock.today(),
		true,
		s.dialect.timeArg(s.clock.timestamp()),
	)
	if err != nil {
		switch {
		case s.dialect.isUniqueViolation(err):
			return false, nil
		case s.dialect.isForeignKeyViolation(err):
			return false, fmt.Errorf("mark habit %d: %w", habitID, domain.ErrHabitNotFound)
		}
		return false, unavailable("insert checkin", err)
	}

	return true, nil
}

// UnmarkToday removes today's checkin and reports whether one existed.
func (s *SQLStore) UnmarkToday(ctx context.Context, habitID int64) (bool, error) {
	query := s.dialect.rebind(`DELETE FROM checkins WHERE habit_id = ? AND check_date = ?`)

	res, err := s.db.ExecContext(ctx, query, habitID, s.clock.today())
	if err != nil {
		return false, unavailable("delete checkin", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("delete checkin", err)
	}

	return affected > 0, nil
}

// dbTime scans timestamps stored either natively or as text.
type dbTime struct {
	Time time.Time
}

var timeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *dbTime) parse(value string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", value)
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// rebindDollar rewrites ? placeholders into PostgreSQL's $n form.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
