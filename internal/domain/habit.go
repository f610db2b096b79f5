package domain

import "time"

// Habit is a behavior a user tracks daily.
type Habit struct {
	ID     int64  `bson:"id" json:"id"`
	UserID int64  `bson:"user_id" json:"user_id"`
	Name   string `bson:"name" json:"name"`
	// ReminderTime is a zero-padded HH:MM string, empty when no reminder is set.
	ReminderTime string    `bson:"reminder_time,omitempty" json:"reminder_time,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// HasReminder reports whether the habit carries a reminder time.
func (h Habit) HasReminder() bool {
	return h.ReminderTime != ""
}

// Checkin records that a habit was completed on a calendar date.
type Checkin struct {
	ID        int64     `bson:"id" json:"id"`
	HabitID   int64     `bson:"habit_id" json:"habit_id"`
	CheckDate string    `bson:"check_date" json:"check_date"`
	Completed bool      `bson:"completed" json:"completed"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// HabitStatus joins a habit with whether it has a checkin for today.
type HabitStatus struct {
	Habit          Habit `json:"habit"`
	CompletedToday bool  `json:"completed_today"`
}
