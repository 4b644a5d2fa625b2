package redact

import (
	"strings"

	"redactshot/internal/detect"
	"redactshot/internal/logger"
	"redactshot/internal/ner"
)

// boxPadding grows every flagged box so blurred glyph edges are fully
// covered.
const boxPadding = 2

// EntitySource is the optional NLP layer consulted by the entity rule.
// Implemented by ner.Client.
type EntitySource interface {
	Classify(text string) ([]ner.Span, error)
}

// Rule decides whether a single detection must be redacted. Rules are
// evaluated in order; the first match flags the box and ends evaluation for
// that detection.
type Rule struct {
	Name  string
	Match func(det detect.TextDetection) bool
}

// Classifier flags sensitive regions among the general text detector's
// output using an ordered, data-driven rule table.
type Classifier struct {
	rules []Rule
	log   logger.Logger
}

// ClassifierOption configures optional rules.
type ClassifierOption func(*Classifier)

// WithEntityRule appends an entity-recognition rule that flags a detection
// when the NLP source reports any sensitive span in its text.
func WithEntityRule(source EntitySource) ClassifierOption {
	return func(c *Classifier) {
		if source == nil {
			return
		}
		c.rules = append(c.rules, Rule{
			Name: "entity",
			Match: func(det detect.TextDetection) bool {
				spans, err := source.Classify(det.Text)
				if err != nil {
					c.log.Warning("classify", "entity source failed", map[string]interface{}{
						"error": err.Error(),
					})
					return false
				}
				return len(spans) > 0
			},
		})
	}
}

// NewClassifier builds the rule table. numericThreshold applies to the
// pure-numeric rule on the general detector's confidence scale; it is
// distinct from the numeric-sequence detector's own threshold. Keyword
// matching is substring-based, so a keyword embedded in a longer unrelated
// word also matches ("card" flags "cardigan") — an accepted imprecision
// carried from the reference behavior.
func NewClassifier(labels []string, numericThreshold float64, log logger.Logger, opts ...ClassifierOption) *Classifier {
	if log == nil {
		log = logger.Nop()
	}

	vocabulary := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.ToLower(strings.TrimSpace(label))
		if label != "" {
			vocabulary = append(vocabulary, label)
		}
	}

	c := &Classifier{log: log}
	c.rules = []Rule{
		{
			Name: "pure-numeric",
			Match: func(det detect.TextDetection) bool {
				return detect.IsDigits(det.Text) && det.Confidence > numericThreshold
			},
		},
		{
			Name: "keyword",
			Match: func(det detect.TextDetection) bool {
				text := strings.ToLower(strings.TrimSpace(det.Text))
				for _, label := range vocabulary {
					if strings.Contains(text, label) {
						return true
					}
				}
				return false
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Classify returns the padded boxes of every detection matched by a rule.
func (c *Classifier) Classify(detections []detect.TextDetection) []detect.Box {
	var flagged []detect.Box
	for _, det := range detections {
		if !det.Box.Valid() {
			continue
		}
		for _, rule := range c.rules {
			if !rule.Match(det) {
				continue
			}
			c.log.Debug("classify", "detection flagged", map[string]interface{}{
				"rule":       rule.Name,
				"confidence": det.Confidence,
			})
			flagged = append(flagged, det.Box.Pad(boxPadding))
			break
		}
	}
	return flagged
}
