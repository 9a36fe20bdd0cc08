// Package media classifies input paths and opens image and video sources.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

var (
	// ErrNotFound marks a media path that does not exist on disk.
	ErrNotFound = errors.New("media file not found")
	// ErrUnsupportedFormat marks an extension outside the supported sets.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrOpen marks a media file that exists but cannot be opened or decoded.
	ErrOpen = errors.New("failed to open media")
)

// Route is the handling path for a media item.
type Route int

const (
	RouteUnsupported Route = iota
	RouteImage
	RouteVideo
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
}

var videoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
}

// Classify routes a path by its extension, case-insensitively. It does not
// touch the filesystem.
func Classify(path string) Route {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return RouteImage
	case videoExtensions[ext]:
		return RouteVideo
	default:
		return RouteUnsupported
	}
}

// Dispatch verifies the file exists and classifies it. A stat failure other
// than non-existence (permissions, a file used as a directory) is reported as
// an open failure, not as a missing file.
func Dispatch(path string) (Route, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return RouteUnsupported, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return RouteUnsupported, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	route := Classify(path)
	if route == RouteUnsupported {
		return route, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return route, nil
}

// ReadImage decodes a still image from disk.
func ReadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("%w: %s", ErrOpen, path)
	}
	return img, nil
}

// FrameSource yields video frames until end of stream. The reported frame
// count comes from the container and can be approximate; callers must stop on
// Read returning false, not on the count.
type FrameSource interface {
	// Read returns the next frame. The caller owns the returned Mat. The
	// second value is false at end of stream.
	Read() (gocv.Mat, bool)
	FPS() float64
	FrameCount() int
	Close() error
}

// VideoSource is a FrameSource over a video file.
type VideoSource struct {
	capture *gocv.VideoCapture
}

// OpenVideo opens a video file for sequential frame reads.
func OpenVideo(path string) (FrameSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpen, path)
	}
	return &VideoSource{capture: capture}, nil
}

// Read returns the next decoded frame, or false at end of stream.
func (v *VideoSource) Read() (gocv.Mat, bool) {
	frame := gocv.NewMat()
	if ok := v.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, false
	}
	return frame, true
}

// FPS returns the container-reported frame rate.
func (v *VideoSource) FPS() float64 {
	return v.capture.Get(gocv.VideoCaptureFPS)
}

// FrameCount returns the container-reported total frame count.
func (v *VideoSource) FrameCount() int {
	return int(v.capture.Get(gocv.VideoCaptureFrameCount))
}

// Close releases the underlying capture.
func (v *VideoSource) Close() error {
	return v.capture.Close()
}
