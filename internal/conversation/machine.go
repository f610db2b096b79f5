package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"habit_tracker_bot/internal/domain"
	"habit_tracker_bot/internal/logging"
	"habit_tracker_bot/internal/reply"
	"habit_tracker_bot/internal/validation"
)

const commandPrefix = "/"

// HabitCreator persists a habit once the dialogue completes.
type HabitCreator interface {
	CreateHabit(ctx context.Context, userID int64, name, reminderTime string) (int64, error)
}

// Outcome is the result of feeding an event to the Machine.
type Outcome struct {
	Response reply.Response
	// Handled is false when the event does not belong to the dialogue.
	Handled bool
	// HabitID is set when the event committed a new habit.
	HabitID int64
}

// Machine implements the habit creation dialogue:
//
//	Idle -add-> AwaitingName -name-> AwaitingTime -no_reminder|HH:MM-> Idle
//
// cancel returns any state to Idle.
type Machine struct {
	states *StateStore
	habits HabitCreator
	logger *logrus.Entry
}

// NewMachine constructs a Machine over the provided state store and habit creator.
func NewMachine(states *StateStore, habits HabitCreator, logger *logrus.Entry) *Machine {
	if states == nil {
		states = NewStateStore()
	}
	if logger == nil {
		logger = logging.Logger()
	}

	return &Machine{
		states: states,
		habits: habits,
		logger: logger,
	}
}

// Active reports whether the user is mid-dialogue.
func (m *Machine) Active(userID int64) bool {
	_, ok := m.states.Get(userID)
	return ok
}

// StartAdd moves the user to AwaitingName, discarding any dialogue in progress.
func (m *Machine) StartAdd(userID int64) reply.Response {
	m.states.Set(userID, AwaitingName{})
	m.transition(userID, "awaiting_name")

	return reply.Text(msgPromptName)
}

// Cancel returns the user to Idle.
func (m *Machine) Cancel(userID int64) reply.Response {
	if !m.states.Clear(userID) {
		return reply.Text(msgNothingToCancel)
	}

	m.transition(userID, "idle")
	return reply.Text(msgCancelled)
}

// HandleText feeds free text to the dialogue. Text starting with the command
// prefix, or arriving while Idle, is left unhandled.
func (m *Machine) HandleText(ctx context.Context, userID int64, text string) (Outcome, error) {
	if strings.HasPrefix(strings.TrimSpace(text), commandPrefix) {
		return Outcome{}, nil
	}

	st, ok := m.states.Get(userID)
	if !ok {
		return Outcome{}, nil
	}

	switch st := st.(type) {
	case AwaitingName:
		return m.acceptName(userID, text), nil
	case AwaitingTime:
		return m.acceptTime(ctx, userID, st, text)
	default:
		return Outcome{}, fmt.Errorf("unknown conversation state %T", st)
	}
}

// HandleButton feeds an inline button press to the dialogue. Presses outside
// AwaitingTime are answered with an expiry notice.
func (m *Machine) HandleButton(ctx context.Context, userID int64, data string) (Outcome, error) {
	st, ok := m.states.Get(userID)
	awaiting, isAwaitingTime := st.(AwaitingTime)
	if !ok || !isAwaitingTime {
		return Outcome{Response: reply.Notice(msgExpiredChoice), Handled: true}, nil
	}

	switch data {
	case reply.ButtonNoReminder:
		out, err := m.commit(ctx, userID, awaiting.HabitName, "")
		if err != nil {
			return Outcome{}, err
		}
		if out.HabitID != 0 {
			out.Response = reply.Edited(fmt.Sprintf(msgCreatedNoReminder, awaiting.HabitName))
		}
		return out, nil
	case reply.ButtonCustomTime:
		return Outcome{Response: reply.Edited(msgPromptTime), Handled: true}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown dialogue button %q", data)
	}
}

func (m *Machine) acceptName(userID int64, text string) Outcome {
	name, err := validation.ValidateHabitName(text)
	if err != nil {
		return Outcome{Response: reply.Text(nameRejection(err)), Handled: true}
	}

	m.states.Set(userID, AwaitingTime{HabitName: name})
	m.transition(userID, "awaiting_time")

	return Outcome{
		Response: reply.Response{
			Text: fmt.Sprintf(msgAskTimeFormat, name),
			Buttons: [][]reply.Button{
				reply.Row(reply.Button{Text: buttonNoReminder, Data: reply.ButtonNoReminder}),
				reply.Row(reply.Button{Text: buttonCustomTime, Data: reply.ButtonCustomTime}),
			},
		},
		Handled: true,
	}
}

func (m *Machine) acceptTime(ctx context.Context, userID int64, st AwaitingTime, text string) (Outcome, error) {
	reminder, err := validation.ParseReminderTime(text)
	if err != nil {
		return Outcome{Response: reply.Text(timeRejection(err)), Handled: true}, nil
	}

	out, err := m.commit(ctx, userID, st.HabitName, reminder.String())
	if err != nil {
		return Outcome{}, err
	}
	if out.HabitID != 0 {
		out.Response = reply.Text(fmt.Sprintf(msgCreatedWithReminder, st.HabitName, reminder.String()))
	}
	return out, nil
}

// commit persists the habit and clears the dialogue. Storage failures keep the
// state so the user can retry the same step.
func (m *Machine) commit(ctx context.Context, userID int64, name, reminderTime string) (Outcome, error) {
	if m.habits == nil {
		return Outcome{}, errors.New("habit creator is not configured")
	}

	id, err := m.habits.CreateHabit(ctx, userID, name, reminderTime)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			m.states.Clear(userID)
			m.transition(userID, "idle")
			return Outcome{Response: reply.Text(msgUnknownUser), Handled: true}, nil
		}
		return Outcome{}, fmt.Errorf("create habit: %w", err)
	}

	m.states.Clear(userID)
	m.transition(userID, "idle")

	return Outcome{Handled: true, HabitID: id}, nil
}

func (m *Machine) transition(userID int64, to string) {
	m.logger.WithFields(logging.Fields{
		"event":   "conversation_transition",
		"user_id": userID,
		"state":   to,
	}).Debug("conversation state changed")
}

func nameRejection(err error) string {
	if errors.Is(err, validation.ErrNameTooLong) {
		return msgNameTooLong
	}
	return msgNameTooShort
}

func timeRejection(err error) string {
	switch {
	case errors.Is(err, validation.ErrMissingSeparator):
		return msgMissingSeparator
	case errors.Is(err, validation.ErrWrongPartCount):
		return msgWrongPartCount
	case errors.Is(err, validation.ErrNonNumeric):
		return msgNonNumeric
	case errors.Is(err, validation.ErrHourOutOfRange):
		return msgHourOutOfRange
	default:
		return msgMinuteOutOfRange
	}
}
