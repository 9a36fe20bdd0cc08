package app

import (
	"context"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/time/rate"

	"thermaldetect/internal/config"
	"thermaldetect/internal/events"
	"thermaldetect/internal/logger"
	"thermaldetect/internal/models"
	"thermaldetect/internal/services/ai"
	"thermaldetect/internal/services/annotate"
	"thermaldetect/internal/services/detection"
	"thermaldetect/internal/services/media"
	"thermaldetect/internal/services/scheduler"
	"thermaldetect/internal/taxonomy"
)

// App wires one run: dispatch the media item, drive detection over it, and
// emit the event stream. A single App serves a single run and is never used
// concurrently.
type App struct {
	opts       *config.RunOptions
	settings   *config.Settings
	detector   ai.Detector
	normalizer *detection.Normalizer
	annotator  *annotate.Annotator
	scheduler  *scheduler.Scheduler
	emitter    *events.Emitter
	logger     *logger.Logger

	// Media openers are injectable so the pipeline can run against fakes.
	readImage func(string) (gocv.Mat, error)
	openVideo func(string) (media.FrameSource, error)
}

// NewApp builds the run pipeline around an already-loaded detector.
func NewApp(opts *config.RunOptions, settings *config.Settings, detector ai.Detector, emitter *events.Emitter, log *logger.Logger) *App {
	tax := taxonomy.Default()
	limiter := rate.NewLimiter(rate.Limit(settings.PacingRate), 1)

	return &App{
		opts:       opts,
		settings:   settings,
		detector:   detector,
		normalizer: detection.NewNormalizer(tax, opts),
		annotator:  annotate.New(tax, log),
		scheduler:  scheduler.New(settings.SamplingInterval, limiter),
		emitter:    emitter,
		logger:     log,
		readImage:  media.ReadImage,
		openVideo:  media.OpenVideo,
	}
}

// Run processes the configured media item to completion. Failures local to
// the item are reported as error log events, not returned; the process only
// exits non-zero for setup failures, which happen before Run.
func (a *App) Run() error {
	route, err := media.Dispatch(a.opts.MediaPath)
	if err != nil {
		a.logger.Error("Cannot process media: %v", err)
		return nil
	}

	switch route {
	case media.RouteImage:
		a.processImage(a.opts.MediaPath)
	case media.RouteVideo:
		a.processVideo(a.opts.MediaPath)
	}
	return nil
}

// processImage runs the still-image path: detect, emit the result batch,
// then annotate a copy and announce the written file. The detection result
// always precedes the annotated-image announcement.
func (a *App) processImage(path string) {
	a.logger.Info("Processing image: %s", filepath.Base(path))

	img, err := a.readImage(path)
	if err != nil {
		a.logger.Error("Failed to load image: %v", err)
		return
	}
	defer img.Close()

	shape := shapeOf(img)
	a.logger.Info("Image loaded successfully: [%d %d %d]", shape.Height, shape.Width, shape.Channels)

	batch := a.detectBatch(img)
	a.emitter.DetectionResult(0, batch)

	annotated := a.annotator.Annotate(img, batch.Detections)
	defer annotated.Close()

	outputPath, err := a.annotator.Save(annotated, path, a.settings.OutputDirectory)
	if err != nil {
		a.logger.Error("Failed to save annotated image: %v", err)
	} else {
		a.logger.Info("Annotated image saved: %s", outputPath)
		a.emitter.AnnotatedImage(outputPath)
	}

	a.logger.Info("Image processing completed")
}

// processVideo drives the sampled-frame path: every Nth frame is detected
// and emitted at its capture timestamp; the loop runs until the source
// signals end of stream. Annotated frames are not persisted for video.
func (a *App) processVideo(path string) {
	a.logger.Info("Processing video: %s", filepath.Base(path))

	source, err := a.openVideo(path)
	if err != nil {
		a.logger.Error("Failed to open video: %v", err)
		return
	}
	defer source.Close()

	totalFrames := source.FrameCount()
	fps := source.FPS()
	ctx := context.Background()

	frameIndex := 0
	for {
		frame, ok := source.Read()
		if !ok {
			break
		}

		if a.scheduler.ShouldProcess(frameIndex) {
			timestamp, err := a.scheduler.TimestampOf(frameIndex, fps)
			if err != nil {
				a.logger.Error("Cannot timestamp frames: %v", err)
				frame.Close()
				return
			}
			batch := a.detectBatch(frame)
			a.emitter.DetectionResult(timestamp, batch)
		}
		frame.Close()

		frameIndex++
		progress := a.scheduler.Progress(frameIndex, totalFrames)
		a.logger.Info("Progress: %.1f%% (%d/%d)", progress*100, frameIndex, totalFrames)

		if err := a.scheduler.Pace(ctx); err != nil {
			a.logger.Warning("Pacing interrupted: %v", err)
		}
	}

	a.logger.Info("Video processing completed")
}

// detectBatch runs detection over one image and normalizes the output. A
// detector failure degrades to an empty batch carrying the error; it never
// aborts the run.
func (a *App) detectBatch(img gocv.Mat) models.DetectionBatch {
	raws, err := a.detector.Detect(img)
	if err != nil {
		a.logger.Error("Detection error: %v", err)
		return a.normalizer.ErrorBatch(err)
	}
	return a.normalizer.BatchFor(a.normalizer.Normalize(raws), shapeOf(img), time.Now())
}

func shapeOf(img gocv.Mat) models.ImageShape {
	return models.ImageShape{
		Height:   img.Rows(),
		Width:    img.Cols(),
		Channels: img.Channels(),
	}
}
