package shmem

import "testing"

func TestPath(t *testing.T) {
	cases := map[string]string{
		"/umbridge_in_0_0": "/dev/shm/umbridge_in_0_0",
		"umbridge_in_0_0":  "/dev/shm/umbridge_in_0_0",
	}
	for in, want := range cases {
		if got := path(in); got != want {
			t.Errorf("path(%q) = %q, want %q", in, got, want)
		}
	}
}
