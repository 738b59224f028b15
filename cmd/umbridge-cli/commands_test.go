package main

import (
	"reflect"
	"testing"
)

func TestParseBundle(t *testing.T) {
	got, err := parseBundle("1,2;3")
	if err != nil {
		t.Fatalf("parseBundle: %v", err)
	}
	want := [][]float64{{1, 2}, {3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseBundle = %v, want %v", got, want)
	}
}

func TestParseBundleEmpty(t *testing.T) {
	got, err := parseBundle("")
	if err != nil {
		t.Fatalf("parseBundle: %v", err)
	}
	if got != nil {
		t.Fatalf("parseBundle(\"\") = %v, want nil", got)
	}
}

func TestParseVectorInvalid(t *testing.T) {
	if _, err := parseVector("1,x"); err == nil {
		t.Fatal("expected error for non-numeric component")
	}
}

func TestFormatVector(t *testing.T) {
	got := formatVector([]float64{1, 2.5})
	want := "[1, 2.5]"
	if got != want {
		t.Fatalf("formatVector = %q, want %q", got, want)
	}
}
