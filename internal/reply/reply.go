// Package reply defines the transport-neutral responses the bot produces.
package reply

// Callback identifiers carried by inline buttons.
const (
	ButtonNoReminder = "no_reminder"
	ButtonCustomTime = "custom_time"
	// ButtonDonePrefix and ButtonUndoPrefix are followed by a habit id.
	ButtonDonePrefix = "done:"
	ButtonUndoPrefix = "undo:"
)

// Button is a single inline button.
type Button struct {
	Text string
	Data string
}

// Response is what a handler asks the transport to deliver.
type Response struct {
	// Text is the message body. An empty Text with no Notice means nothing is sent.
	Text string
	// Buttons are rendered as an inline keyboard, one slice per row.
	Buttons [][]Button
	// Edit replaces the message that carried the pressed button instead of sending a new one.
	Edit bool
	// Notice is a short toast shown when answering a button press.
	Notice string
}

// Text builds a plain message response.
func Text(text string) Response {
	return Response{Text: text}
}

// Edited builds a response that rewrites the originating message.
func Edited(text string) Response {
	return Response{Text: text, Edit: true}
}

// Notice builds a response that only answers a button press.
func Notice(text string) Response {
	return Response{Notice: text}
}

// Row is a shorthand for one keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// Empty reports whether there is nothing to deliver.
func (r Response) Empty() bool {
	return r.Text == "" && r.Notice == ""
}
