package conversation

const (
	msgPromptName = "📝 Let's add a new habit!\n\n" +
		"Send me its name. For example:\n" +
		"▪ Drink a glass of water\n" +
		"▪ Do morning exercises\n" +
		"▪ Read for 10 minutes"

	msgNameTooLong  = "❌ Let's keep the name a bit shorter (100 characters at most)."
	msgNameTooShort = "❌ Let's make the name a bit longer (at least 3 characters)."

	msgAskTimeFormat = "Great! Habit: \"%s\"\n\n🕒 When should I remind you?"

	msgCreatedNoReminder = "✅ Habit \"%s\" added!\n\n" +
		"No reminders will be sent. Use /today to mark it done."
	msgCreatedWithReminder = "✅ Habit \"%s\" added!\n\n" +
		"🕒 Reminder every day at %s\n\n" +
		"Use /today to mark it done."

	msgPromptTime = "⌚ Send the time as HH:MM (for example 09:00 or 21:00)\n\n" +
		"I will remind you every day at that time."

	msgMissingSeparator = "❌ Put a colon between hours and minutes. Example: 09:30"
	msgWrongPartCount   = "❌ The time must have two parts: hours and minutes. Example: 09:30"
	msgNonNumeric       = "❌ Hours and minutes must be numbers. Example: 09:30"
	msgHourOutOfRange   = "❌ Hours must be between 0 and 23"
	msgMinuteOutOfRange = "❌ Minutes must be between 0 and 59"

	msgNothingToCancel = "🤷 There is nothing to cancel."
	msgCancelled       = "✅ Cancelled. You can start again with /add"

	msgExpiredChoice = "This choice has expired."
	msgUnknownUser   = "⚠️ I don't know you yet. Send /start, then /add again."

	buttonNoReminder = "⏰ No reminder"
	buttonCustomTime = "🎯 Set my own time"
)
