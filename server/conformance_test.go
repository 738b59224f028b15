package server

import (
	"net/http/httptest"
	"testing"

	"github.com/umbridge-go/umbridge/conformance"
)

// TestConformanceForward and TestConformanceGaussian1D drive this package's
// server purely over the wire protocol, the way an independent client
// implementation would, rather than calling the handlers directly.
func TestConformanceForward(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()
	conformance.Run(t, ts.URL, "forward")
}

func TestConformanceGaussian1D(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()
	conformance.Run(t, ts.URL, "gaussian1d")
}
