// Package report writes a JSONL audit log of import pipeline events.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventScan    EventType = "scan"
	EventResolve EventType = "resolve"
	EventImport  EventType = "import"
	EventSkip    EventType = "skip"
	EventUpdate  EventType = "update"
	EventRemove  EventType = "remove"
	EventArt     EventType = "art"
	EventError   EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the import pipeline
type Event struct {
	Timestamp time.Time  `json:"ts"`
	Level     EventLevel `json:"level"`
	Event     EventType  `json:"event"`
	Path      string     `json:"path,omitempty"`
	Artist    string     `json:"artist,omitempty"`
	Album     string     `json:"album,omitempty"`
	Title     string     `json:"title,omitempty"`
	MBID      string     `json:"mbid,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Error     string     `json:"error,omitempty"`
	Duration  int64      `json:"duration_ms,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger writing to a timestamped file
// under outputDir. Events below minLevel are dropped.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(outputDir, fmt.Sprintf("import-%s.jsonl", timestamp))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// NullLogger returns a logger that discards all events
func NullLogger() *EventLogger {
	return &EventLogger{}
}

// Path returns the log file path, empty for a null logger
func (l *EventLogger) Path() string {
	return l.path
}

// Log writes an event, stamping it with the current time
func (l *EventLogger) Log(e Event) {
	if l.file == nil {
		return
	}
	if levelPriority[e.Level] < levelPriority[l.minLevel] {
		return
	}

	e.Timestamp = time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.encoder.Encode(e)
}

// LogImport records a successful item import
func (l *EventLogger) LogImport(path, artist, album, title string) {
	l.Log(Event{Level: LevelInfo, Event: EventImport, Path: path, Artist: artist, Album: album, Title: title})
}

// LogSkip records a file that was skipped with a reason
func (l *EventLogger) LogSkip(path, reason string) {
	l.Log(Event{Level: LevelDebug, Event: EventSkip, Path: path, Reason: reason})
}

// LogResolve records a catalog match for an album candidate
func (l *EventLogger) LogResolve(artist, album, mbid string) {
	l.Log(Event{Level: LevelInfo, Event: EventResolve, Artist: artist, Album: album, MBID: mbid})
}

// LogError records a per-file failure
func (l *EventLogger) LogError(event EventType, path string, err error) {
	l.Log(Event{Level: LevelError, Event: event, Path: path, Error: err.Error()})
}

// Close flushes and closes the log file
func (l *EventLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
