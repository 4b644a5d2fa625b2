package redact

import "fmt"

// RedactionError reports total pipeline failure: every detector was
// unusable, so no redaction could be attempted. Callers must keep the
// original unredacted bitmap and surface a warning rather than discard the
// capture.
type RedactionError struct {
	NumericErr error
	SceneErr   error
}

func (e *RedactionError) Error() string {
	return fmt.Sprintf("redaction pipeline failed: numeric detector: %v; scene text detector: %v",
		e.NumericErr, e.SceneErr)
}

// Unwrap exposes both detector causes to errors.Is/As.
func (e *RedactionError) Unwrap() []error {
	return []error{e.NumericErr, e.SceneErr}
}
