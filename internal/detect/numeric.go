package detect

import (
	"context"
	"fmt"

	"redactshot/internal/logger"
	"redactshot/internal/opencv/conversion"
	"redactshot/internal/opencv/safe"
)

// pageSegSingleBlock treats the page as one uniform block of text, the
// assumption that fits tabular and form screenshots.
const pageSegSingleBlock = "6"

// NumericDetector finds tokens recognized as pure digit sequences. It reads
// the bitmap, never mutates it.
type NumericDetector struct {
	engine    *LazyEngine
	threshold float64
	log       logger.Logger
}

// NewNumericDetector builds a detector keeping tokens at or above threshold
// on this detector's own confidence scale.
func NewNumericDetector(engine *LazyEngine, threshold float64, log logger.Logger) *NumericDetector {
	if log == nil {
		log = logger.Nop()
	}
	return &NumericDetector{engine: engine, threshold: threshold, log: log}
}

// Detect returns one TextDetection per confidently recognized digit-only
// token. Tokens with partial digit content are left for the classifier
// working over the general detector's output. An empty image yields an empty
// list, not an error.
func (d *NumericDetector) Detect(ctx context.Context, bitmap *safe.Mat) ([]TextDetection, error) {
	engine, err := d.engine.Get()
	if err != nil {
		return nil, fmt.Errorf("numeric detector: %w", err)
	}

	png, err := conversion.EncodePNG(bitmap)
	if err != nil {
		return nil, fmt.Errorf("numeric detector: encode bitmap: %w", err)
	}

	words, err := engine.Words(ctx, png, LevelWord, map[string]string{
		"tessedit_pageseg_mode": pageSegSingleBlock,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("numeric detector: %w: %v", ErrEngineUnavailable, err)
	}

	var detections []TextDetection
	for _, w := range words {
		if w.Confidence < d.threshold {
			continue
		}
		if !IsDigits(w.Text) {
			continue
		}

		box := BoxFromRect(w.Bounds)
		if !box.Valid() {
			continue
		}

		d.log.Debug("detect", "numeric token found", map[string]interface{}{
			"text":       w.Text,
			"confidence": w.Confidence,
		})
		detections = append(detections, TextDetection{
			Box:        box,
			Text:       w.Text,
			Confidence: w.Confidence,
		})
	}

	return detections, nil
}
