package events

import (
	"context"
	"testing"
	"time"
)

func TestPublishAssignsSequence(t *testing.T) {
	hub := NewHub(8)
	hub.Publish(Event{Type: TypeRunLog, Message: "first"})
	hub.Publish(Event{Type: TypeRunLog, Message: "second"})

	got, next := hub.Tail(10)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Sequence != 1 || got[1].Sequence != 2 {
		t.Fatalf("unexpected sequences: %d, %d", got[0].Sequence, got[1].Sequence)
	}
	if next != 2 {
		t.Fatalf("next = %d, want 2", next)
	}
	if got[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp to be assigned")
	}
}

func TestBufferDropsOldest(t *testing.T) {
	hub := NewHub(3)
	for i := 0; i < 5; i++ {
		hub.Publish(Event{Type: TypeRunProgress, Moved: i})
	}

	got, _ := hub.Tail(10)
	if len(got) != 3 {
		t.Fatalf("expected capacity-bounded buffer of 3, got %d", len(got))
	}
	if got[0].Sequence != 3 {
		t.Fatalf("oldest retained sequence = %d, want 3", got[0].Sequence)
	}
}

func TestFetchSince(t *testing.T) {
	hub := NewHub(8)
	for i := 0; i < 4; i++ {
		hub.Publish(Event{Type: TypeRunLog})
	}

	got, next, err := hub.Fetch(context.Background(), 2, 0, false)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(got) != 2 || got[0].Sequence != 3 {
		t.Fatalf("unexpected page: %+v", got)
	}
	if next != 4 {
		t.Fatalf("next = %d, want 4", next)
	}

	got, _, err = hub.Fetch(context.Background(), 4, 0, false)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty page past the end, got %v events, err %v", len(got), err)
	}
}

func TestFetchWaitWakesOnPublish(t *testing.T) {
	hub := NewHub(8)

	done := make(chan []Event, 1)
	go func() {
		got, _, _ := hub.Fetch(context.Background(), 0, 0, true)
		done <- got
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Publish(Event{Type: TypeWatcherStatus, Running: true})

	select {
	case got := <-done:
		if len(got) != 1 || got[0].Type != TypeWatcherStatus {
			t.Fatalf("unexpected events: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not wake on publish")
	}
}

func TestFetchWaitHonorsContext(t *testing.T) {
	hub := NewHub(8)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, _, err := hub.Fetch(ctx, 0, 0, true)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestNilHubIsSafe(t *testing.T) {
	var hub *Hub
	hub.Publish(Event{Type: TypeRunLog})
	if got, _ := hub.Tail(5); got != nil {
		t.Fatalf("expected nil tail, got %v", got)
	}
	if got, _, err := hub.Fetch(context.Background(), 0, 0, false); got != nil || err != nil {
		t.Fatalf("expected nil fetch, got %v, %v", got, err)
	}
}
