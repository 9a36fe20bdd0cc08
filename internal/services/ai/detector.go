package ai

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"thermaldetect/internal/config"
	"thermaldetect/internal/logger"
	"thermaldetect/internal/models"
)

// ErrModelLoad marks a failure to load the detection model. It is fatal for
// the run.
var ErrModelLoad = errors.New("failed to load model")

// CustomModelFile is the conventional filename of a custom thermal weights
// export. When present in the model directory it takes precedence over the
// pretrained model named by the run options.
const CustomModelFile = "thermal_model.onnx"

const nmsThreshold = 0.45

// Detector is the external detection capability: an image in, raw boxes with
// native class ids and confidences out.
type Detector interface {
	Detect(img gocv.Mat) ([]models.RawDetection, error)
	// NativeClassName resolves a detector-native class id to its native name.
	NativeClassName(classID int) string
	Close() error
}

// YOLODetector runs a YOLOv8 ONNX export through the OpenCV DNN backend.
type YOLODetector struct {
	net        gocv.Net
	inputSize  int
	confidence float64
	logger     *logger.Logger
}

// ResolveModelPath picks the model file to load: the conventional custom
// weights file if it exists, otherwise the pretrained model for the
// configured model type. The second return reports whether the custom file
// was chosen.
func ResolveModelPath(modelDir, modelType string) (string, bool) {
	custom := filepath.Join(modelDir, CustomModelFile)
	if _, err := os.Stat(custom); err == nil {
		return custom, true
	}
	return filepath.Join(modelDir, modelType+".onnx"), false
}

// NewYOLODetector loads the model and prepares the network for inference.
func NewYOLODetector(opts *config.RunOptions, settings *config.Settings, log *logger.Logger) (*YOLODetector, error) {
	modelPath, custom := ResolveModelPath(settings.ModelDirectory, opts.ModelType)

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: model file not found: %s", ErrModelLoad, modelPath)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: failed to read network from %s", ErrModelLoad, modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("%w: failed to set preferable backend or target", ErrModelLoad)
	}

	if custom {
		log.Info("Loaded custom thermal model: %s", modelPath)
	} else {
		log.Info("Loaded pre-trained model: %s", opts.ModelType)
	}

	return &YOLODetector{
		net:        net,
		inputSize:  opts.ImageSize,
		confidence: opts.Confidence,
		logger:     log,
	}, nil
}

// Detect runs one inference pass over the image and returns the surviving
// raw detections in model output order, with box geometry scaled back to the
// source image's pixel units.
func (d *YOLODetector) Detect(img gocv.Mat) ([]models.RawDetection, error) {
	if d.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}
	if img.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}

	// Pad to a square so the blob resize keeps the aspect ratio.
	height, width := img.Rows(), img.Cols()
	maxDim := height
	if width > maxDim {
		maxDim = width
	}
	square := gocv.NewMatWithSize(maxDim, maxDim, gocv.MatTypeCV8UC3)
	defer square.Close()
	roi := square.Region(image.Rect(0, 0, width, height))
	img.CopyTo(&roi)
	roi.Close()

	scale := float64(maxDim) / float64(d.inputSize)

	blob := gocv.BlobFromImage(square, 1.0/255.0, image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	return d.decodeOutput(output, scale)
}

// decodeOutput walks the [1, 4+classes, anchors] output tensor, keeps anchors
// whose best class score clears the confidence threshold, and suppresses
// overlapping boxes. Survivors keep their anchor order.
func (d *YOLODetector) decodeOutput(output gocv.Mat, scale float64) ([]models.RawDetection, error) {
	dims := output.Size()
	if len(dims) != 3 || dims[1] < 5 {
		return nil, fmt.Errorf("unexpected model output shape %v", dims)
	}
	numClasses := dims[1] - 4
	anchors := dims[2]

	var candidates []models.RawDetection
	var boxes []image.Rectangle
	var scores []float32

	for a := 0; a < anchors; a++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < numClasses; c++ {
			score := output.GetFloatAt3(0, 4+c, a)
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if float64(bestScore) < d.confidence {
			continue
		}

		cx := float64(output.GetFloatAt3(0, 0, a)) * scale
		cy := float64(output.GetFloatAt3(0, 1, a)) * scale
		w := float64(output.GetFloatAt3(0, 2, a)) * scale
		h := float64(output.GetFloatAt3(0, 3, a)) * scale

		candidates = append(candidates, models.RawDetection{
			CenterX:    cx,
			CenterY:    cy,
			Width:      w,
			Height:     h,
			ClassID:    bestClass,
			Confidence: float64(bestScore),
		})
		boxes = append(boxes, image.Rect(
			int(cx-w/2), int(cy-h/2),
			int(cx+w/2), int(cy+h/2),
		))
		scores = append(scores, bestScore)
	}

	if len(candidates) == 0 {
		return []models.RawDetection{}, nil
	}

	kept := make(map[int]bool, len(candidates))
	for _, idx := range gocv.NMSBoxes(boxes, scores, float32(d.confidence), nmsThreshold) {
		kept[idx] = true
	}

	detections := make([]models.RawDetection, 0, len(kept))
	for i, candidate := range candidates {
		if kept[i] {
			detections = append(detections, candidate)
		}
	}
	return detections, nil
}

// NativeClassName resolves a class id against the model's native vocabulary.
func (d *YOLODetector) NativeClassName(classID int) string {
	if classID >= 0 && classID < len(cocoClassNames) {
		return cocoClassNames[classID]
	}
	return fmt.Sprintf("unknown_%d", classID)
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	return d.net.Close()
}
