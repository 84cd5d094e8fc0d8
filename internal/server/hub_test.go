package server

import (
	"testing"
)

func TestRunHubReplaysHistory(t *testing.T) {
	hub := NewRunHub()
	hub.Publish("run-1", "sentiment", "started")
	hub.Publish("run-1", "sentiment", "done")

	events, cancel := hub.Subscribe("run-1")
	defer cancel()

	first := <-events
	second := <-events
	if first.Stage != "sentiment" || first.Event != "started" {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if second.Event != "done" {
		t.Fatalf("unexpected second event: %+v", second)
	}

	hub.Publish("run-1", "summary", "started")
	third := <-events
	if third.Stage != "summary" {
		t.Fatalf("live event not delivered: %+v", third)
	}
}

func TestRunHubReplaysLongHistory(t *testing.T) {
	hub := NewRunHub()
	const n = 200
	for i := 0; i < n; i++ {
		hub.Publish("run-1", "sentiment", "batch")
	}

	events, cancel := hub.Subscribe("run-1")
	defer cancel()

	for i := 0; i < n; i++ {
		select {
		case <-events:
		default:
			t.Fatalf("replay stalled at event %d of %d", i, n)
		}
	}
}

func TestRunHubFinishClosesSubscribers(t *testing.T) {
	hub := NewRunHub()
	events, cancel := hub.Subscribe("run-1")
	defer cancel()

	hub.Finish("run-1", "complete")

	final := <-events
	if final.Stage != "run" || final.Event != "complete" {
		t.Fatalf("unexpected terminal event: %+v", final)
	}
	if _, open := <-events; open {
		t.Fatal("channel should be closed after Finish")
	}

	// Subscribing to a finished run yields a closed channel.
	late, lateCancel := hub.Subscribe("run-1")
	defer lateCancel()
	if _, open := <-late; open {
		t.Fatal("late subscriber should see a closed channel")
	}
}

func TestRunHubIsolatesRuns(t *testing.T) {
	hub := NewRunHub()
	a, cancelA := hub.Subscribe("run-a")
	defer cancelA()

	hub.Publish("run-b", "sentiment", "started")
	select {
	case evt := <-a:
		t.Fatalf("run-a received run-b's event: %+v", evt)
	default:
	}
}
