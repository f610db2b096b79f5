package tracker

import (
	"fmt"
	"strconv"
	"strings"

	"habit_tracker_bot/internal/domain"
	"habit_tracker_bot/internal/reply"
)

// renderToday lists today's habits in store order with one toggle button each.
func renderToday(statuses []domain.HabitStatus) reply.Response {
	if len(statuses) == 0 {
		return reply.Text(msgNoHabits)
	}

	var b strings.Builder
	b.WriteString(msgTodayHeader)
	b.WriteString("\n\n")

	done := 0
	buttons := make([][]reply.Button, 0, len(statuses))
	for _, st := range statuses {
		id := strconv.FormatInt(st.Habit.ID, 10)

		if st.CompletedToday {
			done++
			b.WriteString("✅ ")
			buttons = append(buttons, reply.Row(reply.Button{
				Text: "↩️ " + st.Habit.Name,
				Data: reply.ButtonUndoPrefix + id,
			}))
		} else {
			b.WriteString("⬜ ")
			buttons = append(buttons, reply.Row(reply.Button{
				Text: "✅ " + st.Habit.Name,
				Data: reply.ButtonDonePrefix + id,
			}))
		}

		b.WriteString(habitLine(st.Habit))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if done == len(statuses) {
		b.WriteString(msgAllDone)
	} else {
		fmt.Fprintf(&b, msgTodayProgress, done, len(statuses))
	}

	return reply.Response{Text: b.String(), Buttons: buttons}
}

func renderHabits(habits []domain.Habit) reply.Response {
	if len(habits) == 0 {
		return reply.Text(msgNoHabits)
	}

	var b strings.Builder
	b.WriteString(msgHabitsHeader)
	b.WriteString("\n\n")

	for i, h := range habits {
		fmt.Fprintf(&b, "%d. %s\n", i+1, habitLine(h))
	}

	return reply.Text(strings.TrimRight(b.String(), "\n"))
}

func habitLine(h domain.Habit) string {
	if !h.HasReminder() {
		return h.Name
	}
	return fmt.Sprintf("%s (🕒 %s)", h.Name, h.ReminderTime)
}
