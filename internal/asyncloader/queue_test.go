package asyncloader

import (
	"errors"
	"testing"
	"time"
)

func waitUntilDrained(t *testing.T, q *Queue, want int) []Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var collected []Result
	for time.Now().Before(deadline) {
		collected = append(collected, q.Drain()...)
		if len(collected) >= want {
			return collected
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d results, got %d", want, len(collected))
	return nil
}

func TestSubmitDrainRoundTrip(t *testing.T) {
	q := New()
	q.Submit(Task{Name: "decode-1", Run: func() (any, error) { return 42, nil }})

	results := waitUntilDrained(t, q, 1)
	if results[0].Name != "decode-1" || results[0].Value != 42 {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}

func TestDrainIsEmptyWithNoCompletedTasks(t *testing.T) {
	q := New()
	if got := q.Drain(); got != nil {
		t.Fatalf("expected nil on an empty queue, got %v", got)
	}
}

func TestDrainClearsResultsAfterReturning(t *testing.T) {
	q := New()
	q.Submit(Task{Name: "a", Run: func() (any, error) { return 1, nil }})
	waitUntilDrained(t, q, 1)

	if got := q.Drain(); got != nil {
		t.Fatalf("expected a second Drain to return nothing new, got %v", got)
	}
}

func TestTaskErrorIsPropagated(t *testing.T) {
	q := New()
	wantErr := errors.New("decode failed")
	q.Submit(Task{Name: "bad", Run: func() (any, error) { return nil, wantErr }})

	results := waitUntilDrained(t, q, 1)
	if !errors.Is(results[0].Err, wantErr) {
		t.Fatalf("expected propagated error %v, got %v", wantErr, results[0].Err)
	}
}

func TestPendingTracksInFlightTasks(t *testing.T) {
	q := New()
	block := make(chan struct{})
	q.Submit(Task{Name: "blocked", Run: func() (any, error) {
		<-block
		return nil, nil
	}})

	if q.Pending() != 1 {
		t.Fatalf("expected Pending() == 1 while task is in flight, got %d", q.Pending())
	}
	close(block)
	waitUntilDrained(t, q, 1)
	if q.Pending() != 0 {
		t.Fatalf("expected Pending() == 0 after completion, got %d", q.Pending())
	}
}
