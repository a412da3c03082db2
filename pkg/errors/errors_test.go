package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := ConfigValidationError("robot", "base_radius", "must be non-negative")
	msg := err.Error()
	if !strings.Contains(msg, "CONFIG_VALIDATION") {
		t.Errorf("missing code in %q", msg)
	}
	if !strings.Contains(msg, "base_radius") {
		t.Errorf("missing option in %q", msg)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	inner := stderrors.New("boom")
	err := Wrap(inner, ErrConfigType, "parse failed")
	if !stderrors.Is(err, inner) {
		t.Error("wrapped error not reachable via errors.Is")
	}
	if err.Unwrap() != inner {
		t.Error("Unwrap did not return inner error")
	}
}

func TestIsCode(t *testing.T) {
	err := CurveDataError("duplicate flow value 10.0")
	if !Is(err, ErrCurveData) {
		t.Error("Is should match ErrCurveData")
	}
	if Is(err, ErrConfigOption) {
		t.Error("Is should not match unrelated code")
	}
	if !IsCurveData(err) {
		t.Error("IsCurveData should be true")
	}

	// Code matching should see through wrapping.
	wrapped := Wrap(err, ErrRuntime, "load failed")
	if !Is(wrapped, ErrCurveData) {
		t.Error("Is should find code in wrapped chain")
	}
}

func TestIsConfig(t *testing.T) {
	if !IsConfig(ConfigSectionError("pump")) {
		t.Error("section error should be a config error")
	}
	if IsConfig(GeometryError("a2 must be positive")) {
		t.Error("geometry error is not a config error")
	}
}
