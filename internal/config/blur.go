package config

import (
	"strconv"
	"strings"
)

// BlurConfig carries the smoothing parameters read by every blur invocation.
// Kernel dimensions are always odd; Intensity is the Gaussian standard
// deviation proxy.
type BlurConfig struct {
	KernelWidth  int
	KernelHeight int
	Intensity    float64
}

const (
	defaultKernelWidth  = 15
	defaultKernelHeight = 15
	defaultIntensity    = 35
)

// DefaultBlurConfig returns the documented fallback: kernel (15,15),
// intensity 35.
func DefaultBlurConfig() BlurConfig {
	return BlurConfig{
		KernelWidth:  defaultKernelWidth,
		KernelHeight: defaultKernelHeight,
		Intensity:    defaultIntensity,
	}
}

// BlurSettings parses blur.kernel ("15,15") and blur.intensity. Invalid
// values fall back to the default. Even kernel dimensions are forced odd
// because the smoothing convolution requires odd extents.
func (s *Store) BlurSettings() BlurConfig {
	cfg := DefaultBlurConfig()

	kernelStr := s.GetString("blur", "blur_kernel", "15,15")
	if kw, kh, ok := parseKernel(kernelStr); ok {
		cfg.KernelWidth = kw | 1
		cfg.KernelHeight = kh | 1
	}

	if intensity := s.GetFloat("blur", "blur_intensity", defaultIntensity); intensity > 0 {
		cfg.Intensity = intensity
	}

	return cfg
}

func parseKernel(value string) (int, int, bool) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}

	kw, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || kw <= 0 {
		return 0, 0, false
	}

	kh, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || kh <= 0 {
		return 0, 0, false
	}

	return kw, kh, true
}

// Enabled reports whether redaction is switched on. Matches the reference
// behavior of staying off unless explicitly enabled.
func (s *Store) Enabled() bool {
	return s.GetBool("blur", "enable_blurring", false)
}

// defaultLabels is the reference vocabulary of keywords that mark a text run
// as sensitive.
var defaultLabels = []string{
	"address", "cc", "credit", "card", "number",
	"zip", "postcode",
	"ssn", "social", "security",
	"passport", "driver", "license", "dl",
	"dob", "birth",
}

// Labels returns the lowercase sensitive-label vocabulary. A configured
// blur.sensitive_labels value (comma separated) replaces the default set.
func (s *Store) Labels() []string {
	raw := s.GetString("blur", "sensitive_labels", "")
	if raw == "" {
		out := make([]string, len(defaultLabels))
		copy(out, defaultLabels)
		return out
	}

	var labels []string
	for _, label := range strings.Split(raw, ",") {
		label = strings.ToLower(strings.TrimSpace(label))
		if label != "" {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		out := make([]string, len(defaultLabels))
		copy(out, defaultLabels)
		return out
	}
	return labels
}

// NumericConfidence is the numeric-sequence detector's own keep threshold,
// on that detector's confidence scale.
func (s *Store) NumericConfidence() float64 {
	return s.GetFloat("detect", "numeric_confidence", 0.50)
}

// ClassifierNumericConfidence is the pure-numeric rule threshold applied to
// the general text detector's output. Deliberately independent of
// NumericConfidence: the two detectors' confidence scales are not
// comparable.
func (s *Store) ClassifierNumericConfidence() float64 {
	return s.GetFloat("classify", "numeric_confidence", 0.60)
}

// NERBaseURL returns the entity-recognition sidecar base URL, empty when the
// entity rule is disabled.
func (s *Store) NERBaseURL() string {
	return s.GetString("ner", "base_url", "")
}
