package generation

// LineKind classifies a progress log line for display.
type LineKind string

const (
	LineInfo    LineKind = "info"
	LineError   LineKind = "error"
	LineSuccess LineKind = "success"
)

// LogLine is one entry of the append-only progress log. Lines are appended
// in event arrival order and the log is only ever cleared at the start of a
// new session.
type LogLine struct {
	Kind LineKind
	Text string
}
