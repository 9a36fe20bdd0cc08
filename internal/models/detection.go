package models

import "fmt"

// RawDetection is a single object as reported by the detector, before any
// normalization: box geometry in center/width/height form, in pixel units of
// the source image, with the detector's native class id.
type RawDetection struct {
	CenterX    float64
	CenterY    float64
	Width      float64
	Height     float64
	ClassID    int
	Confidence float64
}

// Detection represents a normalized detected object in an image.
type Detection struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
	ClassID    int     `json:"class_id"`
	CenterX    int     `json:"center_x"`
	CenterY    int     `json:"center_y"`
}

// ImageShape holds the dimensions of a decoded image. It serializes as the
// [height, width, channels] triple consumers expect.
type ImageShape struct {
	Height   int
	Width    int
	Channels int
}

// MarshalJSON renders the shape as a three-element array.
func (s ImageShape) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%d,%d,%d]", s.Height, s.Width, s.Channels)), nil
}

// DetectionBatch is the result of running detection over one image or frame.
// Either ImageShape and Timestamp are set (successful run, possibly with zero
// detections) or Error is set and the batch is empty.
type DetectionBatch struct {
	Detections []Detection `json:"detections"`
	ImageShape *ImageShape `json:"image_shape,omitempty"`
	Timestamp  float64     `json:"timestamp,omitempty"`
	Error      string      `json:"error,omitempty"`
}
