// Package scheduler decides which video frames are submitted for detection
// and paces the drive loop.
package scheduler

import (
	"context"
	"errors"
	"math"

	"golang.org/x/time/rate"
)

// ErrInvalidFrameRate is returned when a video reports a frame rate that
// cannot produce timestamps.
var ErrInvalidFrameRate = errors.New("invalid video frame rate")

// Scheduler samples every Nth frame and owns the inter-frame pacing policy.
// Sampling and pacing are independent: the limiter slows the drive loop, the
// interval bounds detector invocations.
type Scheduler struct {
	interval int
	limiter  *rate.Limiter
}

// New creates a Scheduler. A non-positive interval falls back to processing
// every frame; a nil limiter disables pacing.
func New(interval int, limiter *rate.Limiter) *Scheduler {
	if interval <= 0 {
		interval = 1
	}
	return &Scheduler{
		interval: interval,
		limiter:  limiter,
	}
}

// ShouldProcess reports whether the frame at the given index is submitted to
// the detector.
func (s *Scheduler) ShouldProcess(frameIndex int) bool {
	return frameIndex%s.interval == 0
}

// TimestampOf computes the capture timestamp of a frame in seconds. A zero,
// negative, or NaN fps is an explicit error, never a silent division.
func (s *Scheduler) TimestampOf(frameIndex int, fps float64) (float64, error) {
	if fps <= 0 || math.IsNaN(fps) {
		return 0, ErrInvalidFrameRate
	}
	return float64(frameIndex) / fps, nil
}

// Progress returns the advisory fraction of frames consumed so far. Container
// frame counts can be approximate, so this is logging-only and clamped.
func (s *Scheduler) Progress(framesRead, totalFrames int) float64 {
	if totalFrames <= 0 {
		return 0
	}
	progress := float64(framesRead) / float64(totalFrames)
	if progress > 1 {
		return 1
	}
	return progress
}

// Pace blocks until the pacing policy admits the next frame.
func (s *Scheduler) Pace(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
