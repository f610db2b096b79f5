package tracker

const (
	msgGreetingFormat = "👋 Hi, %s!\n\n" +
		"I am a habit tracker bot. I will help you build useful habits and keep an eye on your progress.\n\n"

	msgHelp = "Here is what I can do:\n" +
		"/add - add a new habit\n" +
		"/today - today's habits and checkins\n" +
		"/habits - all your habits\n" +
		"/cancel - cancel the current action\n" +
		"/help - show this message"

	msgNoHabits      = "📭 You have no habits yet. Add one with /add"
	msgTodayHeader   = "📅 Today's habits:"
	msgTodayProgress = "Done: %d/%d"
	msgAllDone       = "🎉 Everything is done for today!"
	msgHabitsHeader  = "📋 Your habits:"

	msgFailure       = "⚠️ Something went wrong. Please try again in a moment."
	msgFailureNotice = "Something went wrong"

	msgMarked        = "✅ Marked as done"
	msgAlreadyMarked = "Already done today"
	msgUnmarked      = "↩️ Checkin removed"
	msgNotMarked     = "Nothing to undo today"
	msgHabitMissing  = "This habit no longer exists."
	msgUnknownButton = "This choice has expired."
)
