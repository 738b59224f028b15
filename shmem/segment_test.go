package shmem

import (
	"os"
	"testing"
)

func skipIfNoShm(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/shm"); err != nil {
		t.Skip("/dev/shm not available in this environment")
	}
}

func TestCreateOpenRoundTrip(t *testing.T) {
	skipIfNoShm(t)
	name := "/umbridge_test_segment_roundtrip"
	_ = Unlink(name)

	seg, err := Create(name, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	copy(seg.Doubles(), []float64{1, 2, 3})
	if err := seg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	defer func() { _ = Unlink(name) }()

	opened, err := Open(name, 3)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer opened.Close()

	got := opened.Doubles()
	want := []float64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Doubles()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCreateExclusiveFailsOnExisting(t *testing.T) {
	skipIfNoShm(t)
	name := "/umbridge_test_segment_exclusive"
	_ = Unlink(name)

	first, err := Create(name, 1)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	defer func() { _ = Unlink(name) }()
	defer first.Close()

	if _, err := Create(name, 1); err == nil {
		t.Fatal("expected second Create of the same name to fail")
	}
}
