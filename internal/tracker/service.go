// Package tracker routes normalized chat events to the habit creation dialogue,
// the user registrar and the habit store, and renders their responses.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"habit_tracker_bot/internal/conversation"
	"habit_tracker_bot/internal/domain"
	"habit_tracker_bot/internal/logging"
	"habit_tracker_bot/internal/metrics"
	"habit_tracker_bot/internal/reply"
)

// Command names understood by the service.
const (
	CommandStart  = "start"
	CommandAdd    = "add"
	CommandToday  = "today"
	CommandHabits = "habits"
	CommandHelp   = "help"
	CommandCancel = "cancel"
)

// Store is the subset of the habit store the service reads and toggles.
type Store interface {
	ListHabits(ctx context.Context, userID int64) ([]domain.Habit, error)
	ListHabitsWithTodayStatus(ctx context.Context, userID int64) ([]domain.HabitStatus, error)
	MarkCompleted(ctx context.Context, habitID int64) (bool, error)
	UnmarkToday(ctx context.Context, habitID int64) (bool, error)
}

// Registrar records users on /start.
type Registrar interface {
	EnsureUser(ctx context.Context, profile domain.User) (bool, error)
}

// MenuCommand describes a command for the chat client's command menu.
type MenuCommand struct {
	Name        string
	Description string
}

// Menu lists the commands advertised to users.
var Menu = []MenuCommand{
	{Name: CommandStart, Description: "Start the bot"},
	{Name: CommandAdd, Description: "Add a new habit"},
	{Name: CommandToday, Description: "Today's habits"},
	{Name: CommandHabits, Description: "All habits"},
	{Name: CommandCancel, Description: "Cancel the current action"},
	{Name: CommandHelp, Description: "Help"},
}

// Service handles chat events for all users.
type Service struct {
	store     Store
	machine   *conversation.Machine
	registrar Registrar
	recorder  metrics.Recorder
	logger    *logrus.Entry
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, machine *conversation.Machine, registrar Registrar, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if machine == nil {
		return nil, errors.New("conversation machine is required")
	}
	if registrar == nil {
		return nil, errors.New("user registrar is required")
	}

	s := &Service{
		store:     store,
		machine:   machine,
		registrar: registrar,
		recorder:  metrics.NoopRecorder{},
		logger:    logging.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start registers the user and greets them.
func (s *Service) Start(ctx context.Context, profile domain.User) reply.Response {
	s.recorder.IncEvent("start")

	if _, err := s.registrar.EnsureUser(ctx, profile); err != nil {
		return s.failure(err, "register_user", profile.UserID)
	}

	name := strings.TrimSpace(profile.FirstName)
	if name == "" {
		name = "there"
	}

	return reply.Text(fmt.Sprintf(msgGreetingFormat, name) + msgHelp)
}

// Command handles a slash command other than /start. Unknown commands get the help text.
func (s *Service) Command(ctx context.Context, userID int64, name, remainder string) reply.Response {
	s.recorder.IncEvent("command")

	name = strings.ToLower(strings.TrimSpace(name))
	s.logger.WithFields(logging.Context{
		UserID:  userID,
		Command: name,
		Event:   "command_received",
	}.Fields()).Debug("handling command")

	switch name {
	case CommandAdd:
		return s.machine.StartAdd(userID)
	case CommandCancel:
		return s.machine.Cancel(userID)
	case CommandToday:
		return s.today(ctx, userID)
	case CommandHabits:
		return s.habits(ctx, userID)
	default:
		return reply.Text(msgHelp)
	}
}

// Text handles free text. It yields an empty response when no dialogue is active.
func (s *Service) Text(ctx context.Context, userID int64, text string) reply.Response {
	s.recorder.IncEvent("text")

	out, err := s.machine.HandleText(ctx, userID, text)
	if err != nil {
		return s.failure(err, "create_habit", userID)
	}
	if !out.Handled {
		return reply.Response{}
	}

	s.habitCreated(userID, out.HabitID)
	return out.Response
}

// Button handles an inline button press.
func (s *Service) Button(ctx context.Context, userID int64, data string) reply.Response {
	s.recorder.IncEvent("button")

	switch {
	case data == reply.ButtonNoReminder || data == reply.ButtonCustomTime:
		out, err := s.machine.HandleButton(ctx, userID, data)
		if err != nil {
			resp := s.failure(err, "create_habit", userID)
			resp.Notice = msgFailureNotice
			return resp
		}
		s.habitCreated(userID, out.HabitID)
		return out.Response
	case strings.HasPrefix(data, reply.ButtonDonePrefix):
		return s.toggle(ctx, userID, strings.TrimPrefix(data, reply.ButtonDonePrefix), true)
	case strings.HasPrefix(data, reply.ButtonUndoPrefix):
		return s.toggle(ctx, userID, strings.TrimPrefix(data, reply.ButtonUndoPrefix), false)
	default:
		return reply.Notice(msgUnknownButton)
	}
}

func (s *Service) today(ctx context.Context, userID int64) reply.Response {
	statuses, err := s.store.ListHabitsWithTodayStatus(ctx, userID)
	if err != nil {
		return s.failure(err, "list_today", userID)
	}

	return renderToday(statuses)
}

func (s *Service) habits(ctx context.Context, userID int64) reply.Response {
	habits, err := s.store.ListHabits(ctx, userID)
	if err != nil {
		return s.failure(err, "list_habits", userID)
	}

	return renderHabits(habits)
}

// toggle marks or unmarks today's checkin for a habit the user owns and
// re-renders the today view in place.
func (s *Service) toggle(ctx context.Context, userID int64, rawID string, mark bool) reply.Response {
	habitID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || habitID <= 0 {
		return reply.Notice(msgUnknownButton)
	}

	statuses, err := s.store.ListHabitsWithTodayStatus(ctx, userID)
	if err != nil {
		return s.buttonFailure(err, "list_today", userID)
	}
	if !owns(statuses, habitID) {
		return reply.Notice(msgHabitMissing)
	}

	var (
		changed bool
		notice  string
		result  metrics.CheckinResult
		op      string
	)
	if mark {
		op = "mark_completed"
		changed, err = s.store.MarkCompleted(ctx, habitID)
		notice, result = msgAlreadyMarked, metrics.CheckinDuplicate
		if changed {
			notice, result = msgMarked, metrics.CheckinMarked
		}
	} else {
		op = "unmark_today"
		changed, err = s.store.UnmarkToday(ctx, habitID)
		notice, result = msgNotMarked, metrics.CheckinMissing
		if changed {
			notice, result = msgUnmarked, metrics.CheckinUnmarked
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrHabitNotFound) {
			return reply.Notice(msgHabitMissing)
		}
		return s.buttonFailure(err, op, userID)
	}

	s.recorder.IncCheckin(result)
	s.logger.WithFields(logging.Context{
		UserID:  userID,
		HabitID: habitID,
		Event:   "checkin_toggled",
	}.Fields()).WithField("result", string(result)).Info("toggled checkin")

	statuses, err = s.store.ListHabitsWithTodayStatus(ctx, userID)
	if err != nil {
		return s.buttonFailure(err, "list_today", userID)
	}

	resp := renderToday(statuses)
	resp.Edit = true
	resp.Notice = notice
	return resp
}

func (s *Service) habitCreated(userID, habitID int64) {
	if habitID == 0 {
		return
	}

	s.recorder.IncHabitCreated()
	s.logger.WithFields(logging.Fields{
		"event":    "habit_created",
		"user_id":  userID,
		"habit_id": habitID,
	}).Info("created habit")
}

// failure logs err and returns the generic failure reply. Storage outages are
// counted separately from other errors.
func (s *Service) failure(err error, op string, userID int64) reply.Response {
	entry := s.logger.WithFields(logging.Fields{
		"user_id": userID,
		"op":      op,
	}).WithError(err)

	if errors.Is(err, domain.ErrStorageUnavailable) {
		s.recorder.IncStorageError(op)
		entry.WithField("event", "storage_unavailable").Warn("store is unavailable")
	} else {
		entry.WithField("event", "handler_failed").Error("failed to handle event")
	}

	return reply.Text(msgFailure)
}

func (s *Service) buttonFailure(err error, op string, userID int64) reply.Response {
	s.failure(err, op, userID)
	return reply.Notice(msgFailureNotice)
}

func owns(statuses []domain.HabitStatus, habitID int64) bool {
	for _, st := range statuses {
		if st.Habit.ID == habitID {
			return true
		}
	}
	return false
}
