// Package user provides helpers for user registration and lifecycle updates.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"habit_tracker_bot/internal/domain"
	"habit_tracker_bot/internal/logging"
)

type userUpserter interface {
	UpsertUser(ctx context.Context, user domain.User) (bool, error)
}

// Registrar ensures users are present in the store and keeps their profile
// fields current on every /start.
type Registrar struct {
	users  userUpserter
	logger *logrus.Entry
}

// NewRegistrar constructs a Registrar for the provided user store.
func NewRegistrar(users userUpserter, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		users:  users,
		logger: logger,
	}
}

// EnsureUser upserts the user's profile. The first registration time is kept
// by the store. It reports whether the user was newly created.
func (r *Registrar) EnsureUser(ctx context.Context, profile domain.User) (bool, error) {
	if r == nil || r.users == nil {
		return false, errors.New("user registrar is not initialized")
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if profile.UserID == 0 {
		return false, errors.New("user id is required")
	}

	profile.Username = strings.TrimSpace(profile.Username)
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)

	created, err := r.users.UpsertUser(ctx, profile)
	if err != nil {
		return false, fmt.Errorf("ensure user: %w", err)
	}

	if created {
		r.logger.WithFields(logging.Fields{
			"event":   "user_registered",
			"user_id": profile.UserID,
		}).Info("registered new user")
		return true, nil
	}

	r.logger.WithFields(logging.Fields{
		"event":   "user_seen",
		"user_id": profile.UserID,
	}).Debug("refreshed user profile")

	return false, nil
}
