// Package domain defines the habit tracker's data model and shared rules.
package domain

import "sort"

// DateLayout is the calendar date format used for checkins.
const DateLayout = "2006-01-02"

// LessTodayStatus orders pending habits before completed ones, habits with a
// reminder before those without, earlier reminders first, then by id.
func LessTodayStatus(a, b HabitStatus) bool {
	if a.CompletedToday != b.CompletedToday {
		return !a.CompletedToday
	}
	if a.Habit.HasReminder() != b.Habit.HasReminder() {
		return a.Habit.HasReminder()
	}
	if a.Habit.ReminderTime != b.Habit.ReminderTime {
		return a.Habit.ReminderTime < b.Habit.ReminderTime
	}
	return a.Habit.ID < b.Habit.ID
}

// SortTodayStatus sorts statuses in place using LessTodayStatus.
func SortTodayStatus(statuses []HabitStatus) {
	sort.SliceStable(statuses, func(i, j int) bool {
		return LessTodayStatus(statuses[i], statuses[j])
	})
}

// SortNewestFirst orders habits by creation time descending, newest id first on ties.
func SortNewestFirst(habits []Habit) {
	sort.SliceStable(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.After(habits[j].CreatedAt)
		}
		return habits[i].ID > habits[j].ID
	})
}
