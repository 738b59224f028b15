// Package shmem implements the POSIX shared-memory fast path: named
// /dev/shm segments carrying raw float64 vectors, avoiding a JSON encode of
// the bulk payload on the hot path. Segment names and lifecycle (client
// creates, server opens, client unlinks) follow the protocol's shared-memory
// convention; golang.org/x/sys/unix is the closest ecosystem-grounded way to
// reach shm_open/mmap from Go, matching its role as an indirect dependency
// across the wider example corpus.
package shmem

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const bytesPerFloat64 = 8

// Segment is a POSIX shared-memory region mapped as a []float64. The zero
// value is not usable; construct with Create or Open.
type Segment struct {
	name string
	fd   int
	data []byte
	n    int
}

// path turns a protocol segment name (e.g. "/umbridge_in_0_0") into the
// /dev/shm path the Linux kernel actually materializes it under.
func path(name string) string {
	if len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}
	return "/dev/shm/" + name
}

// Create allocates a new segment named name holding n float64s, truncated
// to the exact byte size. Fails if a segment with that name already exists
// (O_EXCL), so a stale segment from a crashed peer is never silently reused.
func Create(name string, n int) (*Segment, error) {
	size := int64(n) * bytesPerFloat64
	fd, err := unix.Open(path(name), os.O_RDWR|os.O_CREAT|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("shmem: create %s: %w", name, err)
	}
	if err := unix.Ftruncate(fd, size); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shmem: truncate %s to %d bytes: %w", name, size, err)
	}
	return mapSegment(name, fd, n)
}

// Open maps an existing segment named name, previously sized for n
// float64s by its creator.
func Open(name string, n int) (*Segment, error) {
	fd, err := unix.Open(path(name), os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shmem: open %s: %w", name, err)
	}
	return mapSegment(name, fd, n)
}

func mapSegment(name string, fd int, n int) (*Segment, error) {
	size := n * bytesPerFloat64
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shmem: mmap %s: %w", name, err)
	}
	return &Segment{name: name, fd: fd, data: data, n: n}, nil
}

// Doubles returns a zero-copy []float64 view over the segment's bytes. The
// slice is only valid until Close is called.
func (s *Segment) Doubles() []float64 {
	if s.n == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&s.data[0])), s.n)
}

// Close unmaps the segment and closes its file descriptor. It does not
// remove the segment from /dev/shm; call Unlink for that.
func (s *Segment) Close() error {
	if s == nil || s.data == nil {
		return nil
	}
	err := unix.Munmap(s.data)
	s.data = nil
	if cerr := unix.Close(s.fd); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Unlink removes the named segment from /dev/shm. Safe to call after
// Close, or with no Segment open at all.
func Unlink(name string) error {
	if err := os.Remove(path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("shmem: unlink %s: %w", name, err)
	}
	return nil
}
