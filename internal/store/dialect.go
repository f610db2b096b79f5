package store

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteTimeLayout is fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// dialect captures what differs between the SQL engines the store supports.
type dialect struct {
	name                  string
	driver                string
	schema                []string
	rebind                func(string) string
	timeArg               func(time.Time) any
	isUniqueViolation     func(error) bool
	isForeignKeyViolation func(error) bool
}

var sqliteDialect = dialect{
	name:   "sqlite",
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			created_at TEXT NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'Europe/Moscow'
		)`,
		`CREATE TABLE IF NOT EXISTS habits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users (user_id),
			name TEXT NOT NULL CHECK (length(name) <= 100),
			created_at TEXT NOT NULL,
			reminder_time TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_habits_user_id ON habits (user_id)`,
		`CREATE TABLE IF NOT EXISTS checkins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			habit_id INTEGER NOT NULL REFERENCES habits (id) ON DELETE CASCADE,
			check_date TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			UNIQUE (habit_id, check_date)
		)`,
	},
	rebind: func(query string) string { return query },
	timeArg: func(t time.Time) any {
		return t.UTC().Format(sqliteTimeLayout)
	},
	isUniqueViolation: func(err error) bool {
		return sqliteConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE") ||
			sqliteConstraint(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, "PRIMARY KEY")
	},
	isForeignKeyViolation: func(err error) bool {
		return sqliteConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
	},
}

var postgresDialect = dialect{
	name:   "postgres",
	driver: "pgx",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			timezone TEXT NOT NULL DEFAULT 'Europe/Moscow'
		)`,
		`CREATE TABLE IF NOT EXISTS habits (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (user_id),
			name VARCHAR(100) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			reminder_time TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_habits_user_id ON habits (user_id)`,
		`CREATE TABLE IF NOT EXISTS checkins (
			id BIGSERIAL PRIMARY KEY,
			habit_id BIGINT NOT NULL REFERENCES habits (id) ON DELETE CASCADE,
			check_date DATE NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (habit_id, check_date)
		)`,
	},
	rebind: rebindDollar,
	timeArg: func(t time.Time) any {
		return t
	},
	isUniqueViolation: func(err error) bool {
		return pgCode(err) == pgUniqueViolation
	},
	isForeignKeyViolation: func(err error) bool {
		return pgCode(err) == pgForeignKeyViolation
	},
}

func sqliteDSN(path string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// sqliteConstraint matches the extended result code, falling back to the
// message when only the primary SQLITE_CONSTRAINT code is reported.
func sqliteConstraint(err error, extended int, marker string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}

	code := se.Code()
	if code == extended {
		return true
	}

	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), marker)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	return pgErr.Code
}
