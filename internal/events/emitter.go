// Package events serializes the run's externally visible output: an ordered
// stream of newline-delimited JSON messages on a single writer, one message
// per emission, flushed immediately.
package events

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"thermaldetect/internal/models"
)

// Level is the severity of a log event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type logEvent struct {
	Type      string  `json:"type"`
	Level     Level   `json:"level"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

type detectionResultEvent struct {
	Type      string                `json:"type"`
	Timestamp float64               `json:"timestamp"`
	Results   models.DetectionBatch `json:"results"`
}

type annotatedImageEvent struct {
	Type      string  `json:"type"`
	Path      string  `json:"path"`
	Timestamp float64 `json:"timestamp"`
}

type flusher interface {
	Flush() error
}

// Emitter writes events to a single output channel. Each call produces
// exactly one self-contained line; a mutex keeps lines from interleaving.
type Emitter struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewEmitter creates an Emitter over the given writer, stdout in production.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w, now: time.Now}
}

// Log emits a log event at the given level.
func (e *Emitter) Log(level Level, message string) {
	e.emit(logEvent{
		Type:      "log",
		Level:     level,
		Message:   message,
		Timestamp: e.wallClock(),
	})
}

// DetectionResult emits the detection batch for one processed image or frame.
// The timestamp is the capture time: frame index over fps for video, zero for
// a still image.
func (e *Emitter) DetectionResult(timestamp float64, batch models.DetectionBatch) {
	e.emit(detectionResultEvent{
		Type:      "detection_result",
		Timestamp: timestamp,
		Results:   batch,
	})
}

// AnnotatedImage announces the path of a persisted annotated image.
func (e *Emitter) AnnotatedImage(path string) {
	e.emit(annotatedImageEvent{
		Type:      "annotated_image",
		Path:      path,
		Timestamp: e.wallClock(),
	})
}

// wallClock returns the current emission timestamp in seconds.
func (e *Emitter) wallClock() float64 {
	return float64(e.now().UnixNano()) / 1e9
}

func (e *Emitter) emit(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		// Events are built from plain structs; a marshal failure would be a
		// programming error. Drop the event rather than corrupt the stream.
		return
	}
	data = append(data, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.w.Write(data); err != nil {
		return
	}
	if f, ok := e.w.(flusher); ok {
		_ = f.Flush()
	}
}
