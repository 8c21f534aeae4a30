package main

import (
	"testing"

	"rapidphoto/internal/queue"
)

func TestParseStatuses(t *testing.T) {
	statuses, err := parseStatuses([]string{"failed", " Complete "})
	if err != nil {
		t.Fatalf("parseStatuses: %v", err)
	}
	if len(statuses) != 2 || statuses[0] != queue.StatusFailed || statuses[1] != queue.StatusComplete {
		t.Fatalf("unexpected statuses: %v", statuses)
	}

	if _, err := parseStatuses([]string{"exploded"}); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestQueueStatusOnEmptyQueue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := runCLI(t, []string{"queue", "status"})
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueListJSONOnEmptyQueue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := runCLI(t, []string{"queue", "list", "--json"})
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}
	requireContains(t, out, `"items"`)
}
