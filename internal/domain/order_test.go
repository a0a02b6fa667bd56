package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusFromVenue(t *testing.T) {
	cases := map[string]OrderStatus{
		"Filled":        StatusCompleted,
		"PreSubmitted":  StatusPending,
		"Submitted":     StatusPending,
		"PendingSubmit": StatusPending,
		"Cancelled":     StatusCancelled,
		"Inactive":      StatusNone,
		"":              StatusNone,
	}
	for state, want := range cases {
		if got := StatusFromVenue(state); got != want {
			t.Errorf("StatusFromVenue(%q) = %v, want %v", state, got, want)
		}
	}
}

func TestErrorKindPropagatesThroughWrapping(t *testing.T) {
	base := Errorf(KindTransient, "venue.request", "connection reset")
	wrapped := fmt.Errorf("placing order: %w", base)

	if KindOf(wrapped) != KindTransient {
		t.Fatalf("kind lost through wrapping: %v", KindOf(wrapped))
	}
	if !IsTransient(wrapped) {
		t.Fatal("IsTransient should see through fmt.Errorf wrapping")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("untagged errors must report KindUnknown")
	}
}

func TestFlipDirection(t *testing.T) {
	if FlipDirection(DirectionCall) != DirectionPut {
		t.Fatal("call should flip to put")
	}
	if FlipDirection(DirectionPut) != DirectionCall {
		t.Fatal("put should flip to call")
	}
}
