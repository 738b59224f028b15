package server

import (
	"testing"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/models"
)

func TestNewRegistryDuplicateName(t *testing.T) {
	_, err := NewRegistry(models.Forward{}, models.Forward{})
	if err == nil {
		t.Fatal("expected error for duplicate model name")
	}
}

func TestNewRegistryEmpty(t *testing.T) {
	_, err := NewRegistry()
	if err == nil {
		t.Fatal("expected error for empty model list")
	}
}

func TestRegistryGet(t *testing.T) {
	r, err := NewRegistry(models.Forward{}, models.Gaussian1D{Mu: 0, Sigma: 1})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, ok := r.Get("forward"); !ok {
		t.Fatal("expected to find forward")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("did not expect to find missing")
	}
	var _ umbridge.Model = models.Forward{}
}
