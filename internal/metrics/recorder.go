// Package metrics counts bot activity. Components take a Recorder; NoopRecorder
// is used when metrics are not wired and PrometheusRecorder in production.
package metrics

// CheckinResult labels the outcome of a checkin toggle.
type CheckinResult string

const (
	CheckinMarked    CheckinResult = "marked"
	CheckinDuplicate CheckinResult = "duplicate"
	CheckinUnmarked  CheckinResult = "unmarked"
	CheckinMissing   CheckinResult = "missing"
)

// Recorder defines the counters the tracker updates.
type Recorder interface {
	IncEvent(kind string)
	IncHabitCreated()
	IncCheckin(result CheckinResult)
	IncStorageError(op string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncEvent(string)          {}
func (NoopRecorder) IncHabitCreated()         {}
func (NoopRecorder) IncCheckin(CheckinResult) {}
func (NoopRecorder) IncStorageError(string)   {}
