package detect

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine on top of the gosseract client. A fresh
// client is created per call; the heavy per-process cost lives in the shared
// Tesseract runtime, not the client handle.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
	languages     []string
}

// NewTesseractEngine constructs a Tesseract-backed engine for the given
// languages (defaults to English).
func NewTesseractEngine(languages ...string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{
		clientFactory: gosseract.NewClient,
		languages:     languages,
	}
}

// Probe verifies the Tesseract runtime and language data are usable. It is
// called once from the lazy initializer so a missing installation surfaces
// as engine unavailability instead of failing every recognition call.
func (e *TesseractEngine) Probe() error {
	c := e.clientFactory()
	defer c.Close()

	if _, err := c.GetAvailableLanguages(); err != nil {
		return fmt.Errorf("tesseract runtime probe: %w", err)
	}
	if err := c.SetLanguage(e.languages...); err != nil {
		return fmt.Errorf("tesseract language data: %w", err)
	}
	return nil
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Words recognizes tokens at the requested granularity.
func (e *TesseractEngine) Words(ctx context.Context, img []byte, level Level, variables map[string]string) ([]Word, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	for k, v := range variables {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return nil, fmt.Errorf("set variable %s: %w", k, err)
		}
	}

	boxes, err := c.GetBoundingBoxes(iteratorLevel(level))
	if err != nil {
		return nil, fmt.Errorf("get bounding boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:       b.Word,
			Bounds:     b.Box,
			Confidence: b.Confidence / 100.0,
		})
	}
	return words, nil
}

func iteratorLevel(level Level) gosseract.PageIteratorLevel {
	if level == LevelLine {
		return gosseract.RIL_TEXTLINE
	}
	return gosseract.RIL_WORD
}
