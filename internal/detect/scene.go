package detect

import (
	"context"
	"fmt"
	"strings"

	"redactshot/internal/logger"
	"redactshot/internal/opencv/conversion"
	"redactshot/internal/opencv/safe"
)

// pageSegAuto lets the engine segment the full page; combined with line
// granularity it yields per-line runs without paragraph merging.
const pageSegAuto = "3"

// SceneTextDetector performs general line-level text detection over the full
// image. Thresholding is deferred to the classifier, so every recognized run
// is returned with its confidence.
type SceneTextDetector struct {
	engine *LazyEngine
	log    logger.Logger
}

// NewSceneTextDetector builds the general text detector. The engine handle
// is lazy: the expensive warm-up happens on the first Detect call of the
// process, and a failed warm-up leaves just this detector unavailable.
func NewSceneTextDetector(engine *LazyEngine, log logger.Logger) *SceneTextDetector {
	if log == nil {
		log = logger.Nop()
	}
	return &SceneTextDetector{engine: engine, log: log}
}

// Detect returns every detected text run, one per line.
func (d *SceneTextDetector) Detect(ctx context.Context, bitmap *safe.Mat) ([]TextDetection, error) {
	engine, err := d.engine.Get()
	if err != nil {
		return nil, fmt.Errorf("scene text detector: %w", err)
	}

	png, err := conversion.EncodePNG(bitmap)
	if err != nil {
		return nil, fmt.Errorf("scene text detector: encode bitmap: %w", err)
	}

	runs, err := engine.Words(ctx, png, LevelLine, map[string]string{
		"tessedit_pageseg_mode": pageSegAuto,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("scene text detector: %w: %v", ErrEngineUnavailable, err)
	}

	detections := make([]TextDetection, 0, len(runs))
	for _, run := range runs {
		text := strings.TrimSpace(run.Text)
		if text == "" {
			continue
		}

		box := BoxFromRect(run.Bounds)
		if !box.Valid() {
			continue
		}

		detections = append(detections, TextDetection{
			Box:        box,
			Text:       text,
			Confidence: run.Confidence,
		})
	}

	d.log.Debug("detect", "scene text runs detected", map[string]interface{}{
		"runs": len(detections),
	})
	return detections, nil
}
