package domain

// Signal context lifecycle signal
type Signal string

const (
	// SignalMount context started
	SignalMount Signal = "mount"
	// SignalFocus context regained focus
	SignalFocus Signal = "focus"
	// SignalBlur context lost focus
	SignalBlur Signal = "blur"
	// SignalUnmount context torn down
	SignalUnmount Signal = "unmount"
)

// Online presence implied by the signal
func (s Signal) Online() bool {
	return s == SignalMount || s == SignalFocus
}

// TriggerSource what woke the merge loop
type TriggerSource string

const (
	// TriggerEvent cross-context change event
	TriggerEvent TriggerSource = "event"
	// TriggerPoll polling timer
	TriggerPoll TriggerSource = "poll"
)

// Trigger one unit of work for the merge loop
type Trigger struct {
	Source TriggerSource
	Change *ChangeEvent
}
