package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaMismatch marks an unrecognized or invalid manifest/plan shape.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrAssetUnreachable marks a required, non-fallback-eligible asset that
	// could not be reached.
	ErrAssetUnreachable = errors.New("asset unreachable")
	// ErrEncodeFailed marks a non-zero exit from the external encoder.
	ErrEncodeFailed = errors.New("encode failed")
	// ErrDeterminismMismatch marks a fingerprint diff between two renders.
	ErrDeterminismMismatch = errors.New("determinism mismatch")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool marks failures talking to an external binary other than
	// a non-zero encode exit (missing binary, unparsable version output).
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err must abort the current invocation. Every tagged
// condition is fatal except a determinism mismatch, which the audit engine
// escalates only in strict mode.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrDeterminismMismatch)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
