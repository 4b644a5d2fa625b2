package redact

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"redactshot/internal/config"
	"redactshot/internal/detect"
	"redactshot/internal/opencv/conversion"
	"redactshot/internal/opencv/safe"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type stubEngine struct {
	words []detect.Word
	err   error
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Words(ctx context.Context, img []byte, level detect.Level, vars map[string]string) ([]detect.Word, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.words, nil
}

func lazyStub(e detect.Engine) *detect.LazyEngine {
	return detect.NewLazyEngine(func() (detect.Engine, error) { return e, nil })
}

func lazyBroken(msg string) *detect.LazyEngine {
	return detect.NewLazyEngine(func() (detect.Engine, error) { return nil, errors.New(msg) })
}

func storeWith(t *testing.T, content string) *config.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redactshot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	store, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return store
}

// enabledStore turns redaction on with a narrow vocabulary; the default set
// includes "cc", which substring-matches inside "account" and would drag
// unrelated label text into the keyword rule during these scenarios.
func enabledStore(t *testing.T) *config.Store {
	return storeWith(t, "blur:\n  enable_blurring: true\n  sensitive_labels: \"ssn,dob,card\"\n")
}

// renderLabeledValue rasterizes "Account: 12345678" onto a white canvas and
// returns the bitmap together with the pixel rectangles of the label and the
// digits.
func renderLabeledValue(t *testing.T) (*safe.Mat, image.Rectangle, image.Rectangle) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(20, 100),
	}
	drawer.DrawString("Account: 12345678")

	// Face7x13 advances 7px per glyph with a 13px line height.
	labelRect := image.Rect(20, 100-face.Ascent, 20+9*7, 100+face.Descent)
	digitsRect := image.Rect(20+9*7, 100-face.Ascent, 20+17*7, 100+face.Descent)

	mat, err := conversion.ImageToMat(img)
	if err != nil {
		t.Fatalf("build bitmap: %v", err)
	}
	t.Cleanup(mat.Close)
	return mat, labelRect, digitsRect
}

// grayVariance measures pixel intensity variance over rect; blurred text has
// a sharply lower variance than crisp glyphs on white.
func grayVariance(img *image.RGBA, rect image.Rectangle) float64 {
	var sum, sumSq float64
	var n float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := img.RGBAAt(x, y)
			v := (float64(c.R) + float64(c.G) + float64(c.B)) / 3
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / n
	return sumSq/n - mean*mean
}

func TestRedactDisabledPassThrough(t *testing.T) {
	store := storeWith(t, "blur:\n  enable_blurring: false\n")
	mat, _, _ := renderLabeledValue(t)
	before := snapshot(t, mat)

	r := New(store, nil,
		WithNumericEngine(lazyStub(&stubEngine{})),
		WithSceneEngine(lazyStub(&stubEngine{})),
	)

	out, stats, err := r.Redact(context.Background(), mat)
	if err != nil {
		t.Fatalf("Redact() error = %v", err)
	}
	if out.ID() != mat.ID() {
		t.Error("disabled redaction must return the input bitmap itself")
	}
	if stats.Blurred != 0 {
		t.Errorf("disabled redaction reported %d blurred regions", stats.Blurred)
	}

	after := snapshot(t, out)
	if diff := diffRegion(before, after, before.Bounds()); diff != 0 {
		t.Errorf("disabled redaction changed %d pixels, want byte-for-byte identity", diff)
	}
}

func TestRedactEndToEnd(t *testing.T) {
	mat, labelRect, digitsRect := renderLabeledValue(t)
	before := snapshot(t, mat)

	numericEngine := &stubEngine{words: []detect.Word{
		{Text: "12345678", Bounds: digitsRect, Confidence: 0.90},
	}}
	sceneEngine := &stubEngine{words: []detect.Word{
		{Text: "Account: 12345678", Bounds: labelRect.Union(digitsRect), Confidence: 0.10},
	}}

	r := New(enabledStore(t), nil,
		WithNumericEngine(lazyStub(numericEngine)),
		WithSceneEngine(lazyStub(sceneEngine)),
	)

	out, stats, err := r.Redact(context.Background(), mat)
	if err != nil {
		t.Fatalf("Redact() error = %v", err)
	}
	defer out.Close()

	if stats.NumericRegions != 1 {
		t.Errorf("stats.NumericRegions = %d, want 1", stats.NumericRegions)
	}
	if stats.Blurred != 1 {
		t.Errorf("stats.Blurred = %d, want 1 (scene run matches no rule)", stats.Blurred)
	}

	after := snapshot(t, out)

	varBefore := grayVariance(before, digitsRect)
	varAfter := grayVariance(after, digitsRect)
	if varAfter >= varBefore/2 {
		t.Errorf("digit region variance did not drop enough: before %.1f, after %.1f", varBefore, varAfter)
	}

	if diff := diffRegion(before, after, labelRect); diff != 0 {
		t.Errorf("label region changed by %d pixels, want 0", diff)
	}

	// The caller's bitmap stays untouched.
	original := snapshot(t, mat)
	if diff := diffRegion(before, original, before.Bounds()); diff != 0 {
		t.Errorf("input bitmap mutated: %d pixels changed", diff)
	}
}

func TestRedactKeywordFlagsSceneRun(t *testing.T) {
	mat, labelRect, digitsRect := renderLabeledValue(t)
	before := snapshot(t, mat)

	sceneEngine := &stubEngine{words: []detect.Word{
		{Text: "DOB: 1990-01-01", Bounds: labelRect, Confidence: 0.40},
	}}

	r := New(enabledStore(t), nil,
		WithNumericEngine(lazyStub(&stubEngine{})),
		WithSceneEngine(lazyStub(sceneEngine)),
	)

	out, stats, err := r.Redact(context.Background(), mat)
	if err != nil {
		t.Fatalf("Redact() error = %v", err)
	}
	defer out.Close()

	if stats.ClassifiedRegions != 1 {
		t.Fatalf("stats.ClassifiedRegions = %d, want 1", stats.ClassifiedRegions)
	}

	after := snapshot(t, out)
	if diff := diffRegion(before, after, labelRect); diff == 0 {
		t.Error("keyword-flagged region was not blurred")
	}
	if diff := diffRegion(before, after, digitsRect.Add(image.Pt(0, 50))); diff != 0 {
		t.Error("pixels far from the flagged region changed")
	}
}

func TestRedactSceneEngineDownPartialCoverage(t *testing.T) {
	mat, _, digitsRect := renderLabeledValue(t)
	before := snapshot(t, mat)

	numericEngine := &stubEngine{words: []detect.Word{
		{Text: "12345678", Bounds: digitsRect, Confidence: 0.90},
	}}

	r := New(enabledStore(t), nil,
		WithNumericEngine(lazyStub(numericEngine)),
		WithSceneEngine(lazyBroken("warm-up failed")),
	)

	out, stats, err := r.Redact(context.Background(), mat)
	if err != nil {
		t.Fatalf("Redact() with one engine down error = %v, want partial coverage", err)
	}
	defer out.Close()

	if stats.Blurred != 1 {
		t.Errorf("stats.Blurred = %d, want 1", stats.Blurred)
	}

	after := snapshot(t, out)
	if diff := diffRegion(before, after, digitsRect); diff == 0 {
		t.Error("numeric region was not blurred despite numeric engine being up")
	}
}

func TestRedactNumericEngineDownPartialCoverage(t *testing.T) {
	mat, labelRect, _ := renderLabeledValue(t)

	sceneEngine := &stubEngine{words: []detect.Word{
		{Text: "ssn 123-45-6789", Bounds: labelRect, Confidence: 0.80},
	}}

	r := New(enabledStore(t), nil,
		WithNumericEngine(lazyBroken("tesseract missing")),
		WithSceneEngine(lazyStub(sceneEngine)),
	)

	out, stats, err := r.Redact(context.Background(), mat)
	if err != nil {
		t.Fatalf("Redact() with numeric engine down error = %v", err)
	}
	defer out.Close()

	if stats.ClassifiedRegions != 1 || stats.Blurred != 1 {
		t.Errorf("unexpected stats with numeric engine down: %+v", stats)
	}
}

func TestRedactBothEnginesDown(t *testing.T) {
	mat, _, _ := renderLabeledValue(t)
	before := snapshot(t, mat)

	r := New(enabledStore(t), nil,
		WithNumericEngine(lazyBroken("tesseract missing")),
		WithSceneEngine(lazyBroken("warm-up failed")),
	)

	_, _, err := r.Redact(context.Background(), mat)
	var pipelineErr *RedactionError
	if !errors.As(err, &pipelineErr) {
		t.Fatalf("Redact() error = %v, want *RedactionError", err)
	}
	if !errors.Is(err, detect.ErrEngineUnavailable) {
		t.Error("RedactionError should unwrap to ErrEngineUnavailable")
	}
	if pipelineErr.NumericErr == nil || pipelineErr.SceneErr == nil {
		t.Errorf("RedactionError missing causes: %+v", pipelineErr)
	}

	// Contract: the failure is returned instead of a wrong bitmap, and the
	// input is left intact for the caller's keep-the-original fallback.
	after := snapshot(t, mat)
	if diff := diffRegion(before, after, before.Bounds()); diff != 0 {
		t.Errorf("failed redaction mutated the input by %d pixels", diff)
	}
}

func TestRedactIdempotent(t *testing.T) {
	mat, _, digitsRect := renderLabeledValue(t)

	numericEngine := &stubEngine{words: []detect.Word{
		{Text: "12345678", Bounds: digitsRect, Confidence: 0.90},
	}}

	r := New(enabledStore(t), nil,
		WithNumericEngine(lazyStub(numericEngine)),
		WithSceneEngine(lazyStub(&stubEngine{})),
	)

	first, _, err := r.Redact(context.Background(), mat)
	if err != nil {
		t.Fatalf("first Redact() error = %v", err)
	}
	defer first.Close()
	firstSnap := snapshot(t, first)

	// Second pass over the already-redacted bitmap: re-blurring the same
	// region is harmless and nothing outside it may change.
	second, _, err := r.Redact(context.Background(), first)
	if err != nil {
		t.Fatalf("second Redact() error = %v", err)
	}
	defer second.Close()
	secondSnap := snapshot(t, second)

	total := diffRegion(firstSnap, secondSnap, firstSnap.Bounds())
	inBox := diffRegion(firstSnap, secondSnap, digitsRect)
	if total != inBox {
		t.Errorf("re-redaction changed %d pixels outside previously blurred regions", total-inBox)
	}
}
