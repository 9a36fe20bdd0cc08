package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"thermaldetect/internal/models"
)

func newTestEmitter(buf *bytes.Buffer) *Emitter {
	e := NewEmitter(buf)
	base := time.Unix(1700000000, 0)
	calls := 0
	e.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Millisecond)
	}
	return e
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var events []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var event map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %q is not valid JSON: %v", scanner.Text(), err)
		}
		events = append(events, event)
	}
	return events
}

func TestLog_Fields(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.Log(LevelInfo, "Processing image: a.jpg")

	events := decodeLines(t, &buf)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event["type"] != "log" {
		t.Errorf("type = %v, expected log", event["type"])
	}
	if event["level"] != "info" {
		t.Errorf("level = %v, expected info", event["level"])
	}
	if event["message"] != "Processing image: a.jpg" {
		t.Errorf("message = %v", event["message"])
	}
	if _, ok := event["timestamp"].(float64); !ok {
		t.Error("timestamp must be a number")
	}
}

func TestDetectionResult_Shape(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	shape := models.ImageShape{Height: 480, Width: 640, Channels: 3}
	e.DetectionResult(1.25, models.DetectionBatch{
		Detections: []models.Detection{
			{X: 80, Y: 60, Width: 40, Height: 80, Confidence: 0.9, Class: "person", ClassID: 0, CenterX: 100, CenterY: 100},
		},
		ImageShape: &shape,
		Timestamp:  1700000000.5,
	})

	events := decodeLines(t, &buf)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event["type"] != "detection_result" {
		t.Errorf("type = %v", event["type"])
	}
	if event["timestamp"] != 1.25 {
		t.Errorf("timestamp = %v, expected 1.25", event["timestamp"])
	}

	results := event["results"].(map[string]interface{})
	imageShape, ok := results["image_shape"].([]interface{})
	if !ok || len(imageShape) != 3 {
		t.Fatalf("image_shape = %v, expected [h,w,c] array", results["image_shape"])
	}
	if imageShape[0] != float64(480) || imageShape[1] != float64(640) || imageShape[2] != float64(3) {
		t.Errorf("image_shape = %v, expected [480,640,3]", imageShape)
	}
	if _, present := results["error"]; present {
		t.Error("error must be absent on success")
	}

	detections := results["detections"].([]interface{})
	det := detections[0].(map[string]interface{})
	for _, field := range []string{"x", "y", "width", "height", "confidence", "class", "class_id", "center_x", "center_y"} {
		if _, present := det[field]; !present {
			t.Errorf("detection record missing field %q", field)
		}
	}
}

func TestDetectionResult_ErrorOmitsShape(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.DetectionResult(0, models.DetectionBatch{
		Detections: []models.Detection{},
		Error:      "detector unavailable",
	})

	results := decodeLines(t, &buf)[0]["results"].(map[string]interface{})
	if _, present := results["image_shape"]; present {
		t.Error("image_shape must be omitted on error")
	}
	if results["error"] != "detector unavailable" {
		t.Errorf("error = %v", results["error"])
	}
	detections, ok := results["detections"].([]interface{})
	if !ok || len(detections) != 0 {
		t.Errorf("detections = %v, expected empty array", results["detections"])
	}
}

func TestAnnotatedImage(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.AnnotatedImage("output/a_detected.jpg")

	event := decodeLines(t, &buf)[0]
	if event["type"] != "annotated_image" {
		t.Errorf("type = %v", event["type"])
	}
	if event["path"] != "output/a_detected.jpg" {
		t.Errorf("path = %v", event["path"])
	}
}

func TestEmit_OneLinePerEventInOrder(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.Log(LevelInfo, "first")
	e.DetectionResult(0, models.DetectionBatch{Detections: []models.Detection{}})
	e.Log(LevelError, "second")
	e.AnnotatedImage("x.jpg")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}

	types := []string{"log", "detection_result", "log", "annotated_image"}
	for i, line := range lines {
		var event map[string]interface{}
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line %d not independently parseable: %v", i, err)
		}
		if event["type"] != types[i] {
			t.Errorf("line %d type = %v, expected %v", i, event["type"], types[i])
		}
	}
}

func TestEmit_TimestampsNonDecreasing(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	for i := 0; i < 5; i++ {
		e.Log(LevelInfo, "tick")
	}

	last := float64(0)
	for i, event := range decodeLines(t, &buf) {
		ts := event["timestamp"].(float64)
		if ts < last {
			t.Errorf("event %d timestamp %v decreased below %v", i, ts, last)
		}
		last = ts
	}
}
