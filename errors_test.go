package mesh

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClasses(t *testing.T) {
	classes := []error{ErrIO, ErrParse, ErrValidation, ErrArgument}
	for i, a := range classes {
		for j, b := range classes {
			if got := errors.Is(a, b); got != (i == j) {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", a, b, got, i == j)
			}
		}
	}
}

func TestErrNotFoundIsValidation(t *testing.T) {
	err := fmt.Errorf("enable %q: %w", "gl_Color", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped ErrNotFound should match ErrNotFound")
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("ErrNotFound should also classify as ErrValidation")
	}
	if errors.Is(err, ErrArgument) {
		t.Error("ErrNotFound should not classify as ErrArgument")
	}
}
