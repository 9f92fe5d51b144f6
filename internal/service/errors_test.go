package service

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("book: %w", conflict(MsgSlotTaken))

	if !errors.Is(wrapped, ErrConflict) {
		t.Fatalf("expected wrapped conflict to match ErrConflict")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("conflict must not match ErrNotFound")
	}
	if KindOf(wrapped) != KindConflict {
		t.Fatalf("expected conflict kind, got %s", KindOf(wrapped))
	}
	if PublicMessage(wrapped) != MsgSlotTaken {
		t.Fatalf("unexpected public message %q", PublicMessage(wrapped))
	}
}

func TestFatalHidesCause(t *testing.T) {
	raw := errors.New("pq: relation \"bookings\" does not exist")

	if KindOf(raw) != KindFatal {
		t.Fatalf("plain errors are fatal")
	}
	if msg := PublicMessage(raw); msg == raw.Error() {
		t.Fatalf("raw store error must not leak: %q", msg)
	}

	nf := notFound(MsgBookingNotFound, raw)
	if !errors.Is(nf, raw) {
		t.Fatalf("cause must stay reachable through Unwrap")
	}
}
