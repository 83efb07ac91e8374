package gameerr

import (
	"errors"
	"fmt"
	"testing"
)

var errNoSave = New(KindNotFound, "No save named 'x'.")

func TestIs(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", errNoSave)

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"kind sentinel matches", errNoSave, ErrNotFound, true},
		{"kind sentinel through wrap", wrapped, ErrNotFound, true},
		{"other kind", errNoSave, ErrValidation, false},
		{"identity", wrapped, errNoSave, true},
		{"distinct error same kind", New(KindNotFound, "No save named 'x'."), errNoSave, false},
		{"plain error", errors.New("boom"), ErrPersistence, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorAndMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindPersistence, "save", cause)

	if got := err.Error(); got != "save: connection refused" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable")
	}
	if got := KindOf(fmt.Errorf("outer: %w", err)); got != KindPersistence {
		t.Errorf("KindOf() = %q", got)
	}
	if got := KindOf(cause); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}

	if got := Message(fmt.Errorf("outer: %w", errNoSave)); got != "No save named 'x'." {
		t.Errorf("Message() = %q", got)
	}
	if got := Message(cause); got != "connection refused" {
		t.Errorf("Message(plain) = %q", got)
	}
}
