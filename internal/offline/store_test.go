package offline

import (
	"net/http"
	"testing"
)

func TestMemoryStoreCopiesEntries(t *testing.T) {
	reg := NewMemoryRegistry()
	store, err := reg.Open("castelli-weather-v1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	header := make(http.Header)
	header.Set("Content-Type", "text/html")
	body := []byte("shell")
	if err := store.Put("GET http://weather.local/", Snapshot{StatusCode: 200, Header: header, Body: body}); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Mutating the caller's copies must not touch the stored entry.
	header.Set("Content-Type", "mutated")
	body[0] = 'X'

	snap, ok := store.Get("GET http://weather.local/")
	if !ok {
		t.Fatal("entry missing")
	}
	if snap.Header.Get("Content-Type") != "text/html" {
		t.Fatalf("stored header mutated: %q", snap.Header.Get("Content-Type"))
	}
	if string(snap.Body) != "shell" {
		t.Fatalf("stored body mutated: %q", snap.Body)
	}

	// Same for the copy handed out by Get.
	snap.Body[0] = 'Y'
	again, _ := store.Get("GET http://weather.local/")
	if string(again.Body) != "shell" {
		t.Fatalf("get handed out a shared buffer: %q", again.Body)
	}
}

func TestRegistryDelete(t *testing.T) {
	reg := NewMemoryRegistry()
	if _, err := reg.Open("castelli-weather-v1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := reg.Open("castelli-weather-v2"); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := reg.Delete("castelli-weather-v1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	names, err := reg.Names()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) != 1 || names[0] != "castelli-weather-v2" {
		t.Fatalf("unexpected names after delete: %v", names)
	}

	if err := reg.Delete("castelli-weather-v1"); err == nil {
		t.Fatal("expected error deleting a missing store")
	}
}
