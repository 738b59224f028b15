package wire

import (
	"encoding/json"
	"testing"
)

func TestEvaluateShMemRequestRoundTrip(t *testing.T) {
	req := EvaluateShMemRequest{ShMemRequest: ShMemRequest{
		Name:           "forward",
		TID:            "3",
		ShMemName:      "/umbridge",
		ShMemNumInputs: 2,
		ShMemSizes:     []int{4, 1},
	}}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if m["shmem_size_0"] != float64(4) || m["shmem_size_1"] != float64(1) {
		t.Fatalf("expected flattened shmem_size_0/1 fields, got %v", m)
	}

	var got EvaluateShMemRequest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Name != req.Name || got.TID != req.TID {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, req)
	}
	if len(got.ShMemSizes) != 2 || got.ShMemSizes[0] != 4 || got.ShMemSizes[1] != 1 {
		t.Fatalf("ShMemSizes round trip mismatch: got %v", got.ShMemSizes)
	}
}

func TestSegmentNames(t *testing.T) {
	req := ShMemRequest{ShMemName: "/umbridge", TID: "0"}
	if got := req.InSegmentName(0); got != "/umbridge_in_0_0" {
		t.Fatalf("InSegmentName(0) = %q", got)
	}
	if got := req.OutSegmentName(1); got != "/umbridge_out_0_1" {
		t.Fatalf("OutSegmentName(1) = %q", got)
	}

	in, out := TestShMemSegmentNames("5")
	if in != "/umbridge_test_shmem_in_5" || out != "/umbridge_test_shmem_out_5" {
		t.Fatalf("TestShMemSegmentNames(5) = %q, %q", in, out)
	}
}

func TestCheckProtocolVersion(t *testing.T) {
	if err := CheckProtocolVersion(1.0); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckProtocolVersion(1.1); err == nil {
		t.Fatal("expected mismatch error for 1.1")
	}
}
