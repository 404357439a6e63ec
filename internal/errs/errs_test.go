package errs_test

import (
	"errors"
	"strings"
	"testing"

	"dropsort/internal/errs"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := errs.Wrap(errs.ErrIO, "executor", "move", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errs.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"executor", "move", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := errs.Wrap(nil, "journal", "append", "", errors.New("disk full"))
	if !errors.Is(err, errs.ErrIO) {
		t.Fatalf("expected nil marker to default to ErrIO, got %v", err)
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		marker error
		want   string
	}{
		{errs.ErrValidation, "validation_error"},
		{errs.ErrIO, "io_error"},
		{errs.ErrWatch, "watch_error"},
		{errs.ErrJournal, "journal_error"},
		{errs.ErrAlreadyRunning, "already_running"},
		{errs.ErrConfiguration, "config_error"},
		{errs.ErrNotFound, "not_found"},
	}
	for _, tc := range cases {
		err := errs.Wrap(tc.marker, "engine", "run", "", nil)
		if got := errs.Kind(err); got != tc.want {
			t.Errorf("Kind(%v) = %q, want %q", tc.marker, got, tc.want)
		}
	}
	if got := errs.Kind(errors.New("plain")); got != "internal_error" {
		t.Errorf("Kind(plain) = %q, want internal_error", got)
	}
}
