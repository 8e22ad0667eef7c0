package session

import (
	"testing"

	"github.com/google/uuid"
)

func TestCurrentSessionRoundtrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// Nothing set yet.
	if _, ok, err := CurrentSessionID(); err != nil || ok {
		t.Fatalf("CurrentSessionID() = ok=%v, err=%v, want no session", ok, err)
	}

	id := uuid.New()
	if err := SetCurrentSessionID(id); err != nil {
		t.Fatalf("SetCurrentSessionID() error = %v", err)
	}

	got, ok, err := CurrentSessionID()
	if err != nil {
		t.Fatalf("CurrentSessionID() error = %v", err)
	}
	if !ok || got != id {
		t.Errorf("CurrentSessionID() = %v, ok=%v, want %v", got, ok, id)
	}

	// Overwrite points at the new session.
	next := uuid.New()
	if err := SetCurrentSessionID(next); err != nil {
		t.Fatalf("SetCurrentSessionID(next) error = %v", err)
	}
	got, _, _ = CurrentSessionID()
	if got != next {
		t.Errorf("after overwrite = %v, want %v", got, next)
	}

	if err := ClearCurrentSessionID(); err != nil {
		t.Fatalf("ClearCurrentSessionID() error = %v", err)
	}
	if _, ok, _ := CurrentSessionID(); ok {
		t.Error("session still set after clear")
	}

	// Clearing again is fine.
	if err := ClearCurrentSessionID(); err != nil {
		t.Errorf("second clear error = %v", err)
	}
}
