package domain

// State is the phase of a session's scheduler.
type State string

const (
	StateIdle        State = "idle"        // waiting for input
	StateSuppressing State = "suppressing" // input is drained and discarded
	StateProcessing  State = "processing"  // one input is being handled, source paused
	StateClosed      State = "closed"      // terminal
)

// Snapshot is a serializable view of a session.
type Snapshot struct {
	ID                 string `json:"id"`
	State              State  `json:"state"`
	Started            bool   `json:"started"`
	Closed             bool   `json:"closed"`
	Suppressing        bool   `json:"suppressing"`
	CustomErrorHandler bool   `json:"custom_error_handler"`
	HistoryLen         int    `json:"history_len"`
	// Watermark is the locked history length, or -1.
	Watermark int `json:"watermark"`
}
