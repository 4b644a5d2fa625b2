package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"

	"redactshot/internal/capture"
	"redactshot/internal/config"
	"redactshot/internal/logger"
	"redactshot/internal/opencv/conversion"
	"redactshot/internal/opencv/safe"
	"redactshot/internal/redact"

	"github.com/rs/zerolog"
)

func main() {
	var (
		inPath     = flag.String("in", "", "input image file (PNG or JPEG); mutually exclusive with -capture")
		outPath    = flag.String("out", "redacted.png", "output PNG file")
		doCapture  = flag.Bool("capture", false, "capture the screen instead of reading a file")
		display    = flag.Int("display", 0, "display index to capture")
		configPath = flag.String("config", "redactshot.yaml", "configuration file")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logger.NewConsoleLogger(level)

	if err := run(*inPath, *outPath, *doCapture, *display, *configPath, log); err != nil {
		log.Error("main", err, nil)
		os.Exit(1)
	}
}

func run(inPath, outPath string, doCapture bool, display int, configPath string, log logger.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	bitmap, err := loadBitmap(inPath, doCapture, display)
	if err != nil {
		return err
	}
	defer bitmap.Close()

	redactor := redact.New(cfg, log)

	redacted, stats, err := redactor.Redact(context.Background(), bitmap)
	if err != nil {
		var pipelineErr *redact.RedactionError
		if errors.As(err, &pipelineErr) {
			// Required fallback: keep the unredacted capture and make the
			// lack of redaction visible, never discard it.
			log.Warning("main", "redaction unavailable, writing UNREDACTED image", map[string]interface{}{
				"error": pipelineErr.Error(),
			})
			return writeBitmap(bitmap, outPath)
		}
		return err
	}
	if redacted.ID() != bitmap.ID() {
		defer redacted.Close()
	}

	log.Info("main", "done", map[string]interface{}{
		"blurred_regions": stats.Blurred,
		"output":          outPath,
	})
	return writeBitmap(redacted, outPath)
}

func loadBitmap(inPath string, doCapture bool, display int) (*safe.Mat, error) {
	if doCapture {
		return capture.CaptureDisplay(display)
	}
	if inPath == "" {
		return nil, fmt.Errorf("either -in or -capture is required")
	}

	f, err := os.Open(inPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return conversion.ImageToMat(img)
}

func writeBitmap(bitmap *safe.Mat, outPath string) error {
	img, err := conversion.MatToImage(bitmap)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
