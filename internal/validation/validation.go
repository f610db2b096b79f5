// Package validation holds the pure input checks used by the habit creation flow.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MinHabitNameLength is the shortest accepted habit name, in characters.
	MinHabitNameLength = 3
	// MaxHabitNameLength is the longest accepted habit name, in characters.
	MaxHabitNameLength = 100

	timeSeparator = ":"
)

var (
	ErrNameTooShort = errors.New("habit name is too short")
	ErrNameTooLong  = errors.New("habit name is too long")

	ErrMissingSeparator = errors.New("reminder time has no separator")
	ErrWrongPartCount   = errors.New("reminder time must have exactly two parts")
	ErrNonNumeric       = errors.New("reminder time parts must be numbers")
	ErrHourOutOfRange   = errors.New("hour must be between 0 and 23")
	ErrMinuteOutOfRange = errors.New("minute must be between 0 and 59")
)

// ReminderTime is a validated time of day.
type ReminderTime struct {
	Hour   int
	Minute int
}

// String renders the time as zero-padded HH:MM.
func (t ReminderTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ValidateHabitName trims the input and checks its length in characters.
// It returns the trimmed name on success.
func ValidateHabitName(text string) (string, error) {
	name := strings.TrimSpace(text)
	length := utf8.RuneCountInString(name)

	switch {
	case length > MaxHabitNameLength:
		return "", ErrNameTooLong
	case length < MinHabitNameLength:
		return "", ErrNameTooShort
	}

	return name, nil
}

// ParseReminderTime parses an H:M or HH:MM 24-hour time of day.
func ParseReminderTime(text string) (ReminderTime, error) {
	raw := strings.TrimSpace(text)
	if !strings.Contains(raw, timeSeparator) {
		return ReminderTime{}, ErrMissingSeparator
	}

	parts := strings.Split(raw, timeSeparator)
	if len(parts) != 2 {
		return ReminderTime{}, ErrWrongPartCount
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ReminderTime{}, ErrNonNumeric
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return ReminderTime{}, ErrNonNumeric
	}

	if hour < 0 || hour > 23 {
		return ReminderTime{}, ErrHourOutOfRange
	}
	if minute < 0 || minute > 59 {
		return ReminderTime{}, ErrMinuteOutOfRange
	}

	return ReminderTime{Hour: hour, Minute: minute}, nil
}
