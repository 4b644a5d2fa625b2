// Package redact implements the sensitive-region detection and redaction
// pipeline: independent OCR detectors locate candidate regions, an ordered
// rule table flags the sensitive ones, and a Gaussian blur destroys their
// content in place.
package redact

import (
	"context"
	"errors"
	"time"

	"redactshot/internal/config"
	"redactshot/internal/detect"
	"redactshot/internal/logger"
	"redactshot/internal/ner"
	"redactshot/internal/opencv/safe"

	"golang.org/x/sync/errgroup"
)

// Stats reports what one redaction call did, for audit logging.
type Stats struct {
	NumericRegions    int
	ClassifiedRegions int
	Blurred           int
	Elapsed           time.Duration
}

// Redactor is the pipeline entry point the surrounding application calls
// after every capture. It owns the lazily-initialized engine handles, so one
// Redactor per process gives the heavy warm-up at-most-once semantics.
type Redactor struct {
	numeric    *detect.NumericDetector
	scene      *detect.SceneTextDetector
	classifier *Classifier
	blurCfg    config.BlurConfig
	enabled    bool
	log        logger.Logger
}

// Option overrides Redactor construction, mainly so tests can substitute
// fake engines.
type Option func(*builder)

type builder struct {
	numericEngine *detect.LazyEngine
	sceneEngine   *detect.LazyEngine
	entitySource  EntitySource
}

// WithNumericEngine replaces the numeric-sequence detector's engine handle.
func WithNumericEngine(engine *detect.LazyEngine) Option {
	return func(b *builder) { b.numericEngine = engine }
}

// WithSceneEngine replaces the general text detector's engine handle.
func WithSceneEngine(engine *detect.LazyEngine) Option {
	return func(b *builder) { b.sceneEngine = engine }
}

// WithEntitySource replaces the optional NLP entity source.
func WithEntitySource(source EntitySource) Option {
	return func(b *builder) { b.entitySource = source }
}

// New assembles a Redactor from configuration. By default both detectors run
// on lazily-initialized Tesseract engines and the entity rule is enabled
// only when a sidecar URL is configured.
func New(cfg *config.Store, log logger.Logger, opts ...Option) *Redactor {
	if log == nil {
		log = logger.Nop()
	}

	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	if b.numericEngine == nil {
		b.numericEngine = detect.NewLazyEngine(tesseractFactory)
	}
	if b.sceneEngine == nil {
		b.sceneEngine = detect.NewLazyEngine(tesseractFactory)
	}
	if b.entitySource == nil {
		if baseURL := cfg.NERBaseURL(); baseURL != "" {
			b.entitySource = ner.New(baseURL, log)
		}
	}

	var classifierOpts []ClassifierOption
	if b.entitySource != nil {
		classifierOpts = append(classifierOpts, WithEntityRule(b.entitySource))
	}

	return &Redactor{
		numeric:    detect.NewNumericDetector(b.numericEngine, cfg.NumericConfidence(), log),
		scene:      detect.NewSceneTextDetector(b.sceneEngine, log),
		classifier: NewClassifier(cfg.Labels(), cfg.ClassifierNumericConfidence(), log, classifierOpts...),
		blurCfg:    cfg.BlurSettings(),
		enabled:    cfg.Enabled(),
		log:        log,
	}
}

func tesseractFactory() (detect.Engine, error) {
	engine := detect.NewTesseractEngine()
	if err := engine.Probe(); err != nil {
		return nil, err
	}
	return engine, nil
}

// Redact locates and blurs sensitive regions of the bitmap and returns the
// redacted copy. The caller's bitmap is never mutated. When redaction is
// disabled the input is returned unchanged. A detector whose engine is
// unavailable degrades to zero detections; only when every detector is down
// does Redact return a *RedactionError, in which case the caller must keep
// the unredacted original and surface a warning.
func (r *Redactor) Redact(ctx context.Context, bitmap *safe.Mat) (*safe.Mat, *Stats, error) {
	if !r.enabled {
		return bitmap, &Stats{}, nil
	}

	if err := safe.ValidateMatForOperation(bitmap, "redaction"); err != nil {
		return nil, nil, err
	}

	start := time.Now()

	// Both detectors are read-only and independent, so they fan out; blur
	// passes mutate the working copy and stay serialized below.
	var (
		numericDets []detect.TextDetection
		sceneDets   []detect.TextDetection
		numericErr  error
		sceneErr    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		numericDets, numericErr = r.numeric.Detect(gctx, bitmap)
		return nil
	})
	g.Go(func() error {
		sceneDets, sceneErr = r.scene.Detect(gctx, bitmap)
		return nil
	})
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	numericCause, err := r.downgrade("numeric-sequence detector", numericErr)
	if err != nil {
		return nil, nil, err
	}
	if numericCause != nil {
		numericDets = nil
	}

	sceneCause, err := r.downgrade("general text detector", sceneErr)
	if err != nil {
		return nil, nil, err
	}
	if sceneCause != nil {
		sceneDets = nil
	}

	if numericCause != nil && sceneCause != nil {
		return nil, nil, &RedactionError{NumericErr: numericCause, SceneErr: sceneCause}
	}

	boxes := make([]detect.Box, 0, len(numericDets))
	for _, det := range numericDets {
		boxes = append(boxes, det.Box)
	}
	classified := r.classifier.Classify(sceneDets)
	// Flagged boxes are unioned without overlap deduplication: re-blurring
	// an already-blurred region is harmless, so the passes commute.
	boxes = append(boxes, classified...)

	work, err := bitmap.Clone()
	if err != nil {
		return nil, nil, err
	}

	for _, box := range boxes {
		if err := BlurRegion(work, box, r.blurCfg); err != nil {
			work.Close()
			return nil, nil, err
		}
	}

	stats := &Stats{
		NumericRegions:    len(numericDets),
		ClassifiedRegions: len(classified),
		Blurred:           len(boxes),
		Elapsed:           time.Since(start),
	}
	r.log.Info("redact", "redaction complete", map[string]interface{}{
		"numeric_regions":    stats.NumericRegions,
		"classified_regions": stats.ClassifiedRegions,
		"blurred":            stats.Blurred,
		"elapsed_ms":         stats.Elapsed.Milliseconds(),
	})

	return work, stats, nil
}

// downgrade absorbs engine unavailability as "zero detections from this
// detector", logging a warning and returning the cause for later
// aggregation. Any other detector error passes through unchanged.
func (r *Redactor) downgrade(name string, err error) (cause, fatal error) {
	if err == nil {
		return nil, nil
	}
	if errors.Is(err, detect.ErrEngineUnavailable) {
		r.log.Warning("redact", "detector unavailable, continuing with reduced coverage", map[string]interface{}{
			"detector": name,
			"error":    err.Error(),
		})
		return err, nil
	}
	return nil, err
}
