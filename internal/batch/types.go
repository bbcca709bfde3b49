package batch

import "time"

// Stage describes a phase of checking one file.
type Stage string

const (
	// StageLoad reads the file from disk.
	StageLoad Stage = "load"
	// StageAnalyze runs the analyzer and builds decorations.
	StageAnalyze Stage = "analyze"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusSkipped marks a file whose checks are disabled.
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File     string
	Stage    Stage
	Status   Status
	Findings int
	Err      error
	Elapsed  time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (fn SinkFunc) OnEvent(evt Event) { fn(evt) }

// Default file selection for directory arguments.
var (
	DefaultInclude = []string{"**/*.md", "**/*.markdown", "**/*.txt"}
	DefaultExclude = []string{"**/.git/**", "**/node_modules/**", "**/vendor/**"}
)
