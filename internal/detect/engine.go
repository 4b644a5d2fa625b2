package detect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
)

// ErrEngineUnavailable marks a detector whose underlying recognition engine
// could not be used. The orchestrator downgrades it to "zero detections from
// this detector" and proceeds with the rest of the pipeline.
var ErrEngineUnavailable = errors.New("recognition engine unavailable")

// Level selects the granularity of returned tokens.
type Level int

const (
	// LevelWord yields one token per recognized word.
	LevelWord Level = iota
	// LevelLine yields one token per text line, without paragraph merging.
	LevelLine
)

// Word is a single recognized token with its location and the engine's
// confidence already normalized to [0,1].
type Word struct {
	Text       string
	Bounds     image.Rectangle
	Confidence float64
}

// Engine is the OCR provider contract: one encoded image in, located tokens
// out. Variables carry engine-specific knobs (e.g. the page segmentation
// mode for Tesseract) without widening the API surface.
type Engine interface {
	Name() string
	Words(ctx context.Context, image []byte, level Level, variables map[string]string) ([]Word, error)
}

// LazyEngine defers expensive engine construction to first use and performs
// it exactly once per process. The first-use check is mutex-guarded so
// concurrent redaction calls cannot double-initialize, and an initialization
// failure is cached: this detector stays unavailable for the process
// lifetime.
type LazyEngine struct {
	factory func() (Engine, error)

	mu     sync.Mutex
	done   bool
	engine Engine
	err    error
}

// NewLazyEngine wraps a factory. The factory runs on the first Get call.
func NewLazyEngine(factory func() (Engine, error)) *LazyEngine {
	return &LazyEngine{factory: factory}
}

// Get returns the initialized engine, invoking the factory on first use.
func (l *LazyEngine) Get() (Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.done {
		l.engine, l.err = l.factory()
		if l.err != nil {
			l.err = fmt.Errorf("%w: %v", ErrEngineUnavailable, l.err)
			l.engine = nil
		}
		l.done = true
	}

	return l.engine, l.err
}
