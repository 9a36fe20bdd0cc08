// Package annotate renders detection boxes and labels onto images for visual
// verification.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"thermaldetect/internal/logger"
	"thermaldetect/internal/models"
	"thermaldetect/internal/taxonomy"
)

const (
	boxThickness   = 3
	labelFontScale = 0.6
	labelThickness = 2
)

// Annotator draws detection boxes with class-colored labels.
type Annotator struct {
	taxonomy *taxonomy.Taxonomy
	logger   *logger.Logger
}

// New creates an Annotator using the given taxonomy's color table.
func New(tax *taxonomy.Taxonomy, log *logger.Logger) *Annotator {
	return &Annotator{
		taxonomy: tax,
		logger:   log,
	}
}

// LabelFor formats the label text drawn above a detection box.
func LabelFor(det models.Detection) string {
	return fmt.Sprintf("%s %.1f%%", strings.ToUpper(det.Class), det.Confidence*100)
}

// Annotate returns a new image with all detections drawn onto it, in list
// order. The source image is never written to; callers get a clone even when
// there is nothing to draw.
func (a *Annotator) Annotate(img gocv.Mat, detections []models.Detection) gocv.Mat {
	a.logger.Info("Drawing %d detection boxes on image", len(detections))

	annotated := img.Clone()
	black := color.RGBA{}

	for i, det := range detections {
		x1, y1 := det.X, det.Y
		x2, y2 := det.X+det.Width, det.Y+det.Height
		boxColor := a.taxonomy.Color(taxonomy.Class(det.Class))

		a.logger.Info("Detection %d: %s at (%d,%d) to (%d,%d) conf=%.2f",
			i+1, det.Class, x1, y1, x2, y2, det.Confidence)

		if err := gocv.Rectangle(&annotated, image.Rect(x1, y1, x2, y2), boxColor, boxThickness); err != nil {
			a.logger.Error("Failed to draw rectangle: %v", err)
			continue
		}

		label := LabelFor(det)
		textSize := gocv.GetTextSize(label, gocv.FontHersheySimplex, labelFontScale, labelThickness)

		background := image.Rect(x1, y1-textSize.Y-10, x1+textSize.X, y1)
		if err := gocv.Rectangle(&annotated, background, black, -1); err != nil {
			a.logger.Error("Failed to draw label background: %v", err)
		}
		if err := gocv.PutText(&annotated, label, image.Pt(x1, y1-5),
			gocv.FontHersheySimplex, labelFontScale, boxColor, labelThickness); err != nil {
			a.logger.Error("Failed to draw label text: %v", err)
		}
	}

	a.logger.Info("Detection boxes drawn successfully")
	return annotated
}

// Save persists an annotated image under the output directory as
// <original-stem>_detected.jpg and returns the written path. The write goes
// through a temp file so a consumer never sees a partial image.
func (a *Annotator) Save(annotated gocv.Mat, originalPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(originalPath), filepath.Ext(originalPath))
	outputPath := filepath.Join(outputDir, stem+"_detected.jpg")

	// The temp name keeps the .jpg extension so the encoder picks the format.
	tmpPath := filepath.Join(outputDir, stem+"_detected.tmp-"+uuid.NewString()+".jpg")
	if ok := gocv.IMWrite(tmpPath, annotated); !ok {
		return "", fmt.Errorf("failed to encode image to %s", tmpPath)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move annotated image into place: %w", err)
	}

	return outputPath, nil
}
