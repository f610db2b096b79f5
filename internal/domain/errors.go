package domain

import "errors"

var (
	// ErrStorageUnavailable marks I/O or connectivity failures of the backing store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUserNotFound is returned when a habit references a user that was never registered.
	ErrUserNotFound = errors.New("user not found")
	// ErrHabitNotFound is returned when a checkin references an unknown habit.
	ErrHabitNotFound = errors.New("habit not found")
)
