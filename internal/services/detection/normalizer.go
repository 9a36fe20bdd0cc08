// Package detection converts raw detector output into the domain's
// normalized, class-filtered detection records.
package detection

import (
	"time"

	"thermaldetect/internal/config"
	"thermaldetect/internal/models"
	"thermaldetect/internal/taxonomy"
)

// Normalizer turns RawDetections into Detections: corner geometry, domain
// class names, per-class enablement filtering.
type Normalizer struct {
	taxonomy *taxonomy.Taxonomy
	opts     *config.RunOptions
}

// NewNormalizer creates a Normalizer bound to one run's options.
func NewNormalizer(tax *taxonomy.Taxonomy, opts *config.RunOptions) *Normalizer {
	return &Normalizer{
		taxonomy: tax,
		opts:     opts,
	}
}

// Normalize converts each raw detection to corner coordinates, resolves its
// domain class, and drops anything unknown or disabled. Output order follows
// the detector's emission order. Conversion truncates toward zero, so corners
// are int(center ± extent/2).
func (n *Normalizer) Normalize(raws []models.RawDetection) []models.Detection {
	detections := make([]models.Detection, 0, len(raws))

	for _, raw := range raws {
		class := n.taxonomy.MapClass(raw.ClassID)
		if class == taxonomy.ClassUnknown || !n.taxonomy.Enabled(class, n.opts) {
			continue
		}

		x1 := int(raw.CenterX - raw.Width/2)
		y1 := int(raw.CenterY - raw.Height/2)
		x2 := int(raw.CenterX + raw.Width/2)
		y2 := int(raw.CenterY + raw.Height/2)

		detections = append(detections, models.Detection{
			X:          x1,
			Y:          y1,
			Width:      x2 - x1,
			Height:     y2 - y1,
			Confidence: raw.Confidence,
			Class:      string(class),
			ClassID:    raw.ClassID,
			CenterX:    int(raw.CenterX),
			CenterY:    int(raw.CenterY),
		})
	}

	return detections
}

// BatchFor assembles a successful detection batch.
func (n *Normalizer) BatchFor(detections []models.Detection, shape models.ImageShape, now time.Time) models.DetectionBatch {
	return models.DetectionBatch{
		Detections: detections,
		ImageShape: &shape,
		Timestamp:  float64(now.UnixNano()) / 1e9,
	}
}

// ErrorBatch assembles the degraded batch for a frame whose detection failed.
// The run continues; the error travels with the batch.
func (n *Normalizer) ErrorBatch(err error) models.DetectionBatch {
	return models.DetectionBatch{
		Detections: []models.Detection{},
		Error:      err.Error(),
	}
}
