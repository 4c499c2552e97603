package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrValidation, "lifecycle", "select next", "job not closed upstream", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	want := "validation error: lifecycle: select next: job not closed upstream"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap(nil, "reconciler", "fetch", "", inner)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatal("expected wrapped inner error to be preserved")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrTransient, "reconciler", "fetch", "", nil), true},
		{Wrap(ErrConflict, "store", "allocate", "queue number taken", nil), true},
		{Wrap(ErrValidation, "lifecycle", "finish", "", nil), false},
		{Wrap(ErrNotFound, "store", "get", "", nil), false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrNotFound, "", "", "", nil)
	if err.Error() != "not found: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
