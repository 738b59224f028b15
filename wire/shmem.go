package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// injectShMemSizes decodes the already-marshaled JSON object in data and
// adds "shmem_size_0", "shmem_size_1", ... entries for sizes, matching the
// wire shape the Python reference client produces (dynamic field names
// instead of an array, so the object stays a flat control envelope).
func injectShMemSizes(data []byte, sizes []int) ([]byte, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for i, n := range sizes {
		b, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		m[fmt.Sprintf("shmem_size_%d", i)] = b
	}
	return json.Marshal(m)
}

// extractShMemSizes recovers ShMemSizes from the "shmem_size_<i>" fields (in
// order, 0..numInputs-1) of an already-decoded JSON object.
func extractShMemSizes(data []byte, numInputs int) ([]int, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	sizes := make([]int, numInputs)
	for i := range sizes {
		key := "shmem_size_" + strconv.Itoa(i)
		raw, ok := m[key]
		if !ok {
			return nil, fmt.Errorf("wire: missing %q field for shmem_num_inputs=%d", key, numInputs)
		}
		if err := json.Unmarshal(raw, &sizes[i]); err != nil {
			return nil, fmt.Errorf("wire: %s: %w", key, err)
		}
	}
	return sizes, nil
}

// evaluateShMemRequestAlias avoids infinite recursion when (*EvaluateShMemRequest)
// defines its own MarshalJSON/UnmarshalJSON below.
type evaluateShMemRequestAlias EvaluateShMemRequest

func (r EvaluateShMemRequest) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(evaluateShMemRequestAlias(r))
	if err != nil {
		return nil, err
	}
	return injectShMemSizes(base, r.ShMemSizes)
}

func (r *EvaluateShMemRequest) UnmarshalJSON(data []byte) error {
	var alias evaluateShMemRequestAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	sizes, err := extractShMemSizes(data, alias.ShMemNumInputs)
	if err != nil {
		return err
	}
	alias.ShMemSizes = sizes
	*r = EvaluateShMemRequest(alias)
	return nil
}

type gradientShMemRequestAlias GradientShMemRequest

func (r GradientShMemRequest) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(gradientShMemRequestAlias(r))
	if err != nil {
		return nil, err
	}
	return injectShMemSizes(base, r.ShMemSizes)
}

func (r *GradientShMemRequest) UnmarshalJSON(data []byte) error {
	var alias gradientShMemRequestAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	sizes, err := extractShMemSizes(data, alias.ShMemNumInputs)
	if err != nil {
		return err
	}
	alias.ShMemSizes = sizes
	*r = GradientShMemRequest(alias)
	return nil
}

type applyJacobianShMemRequestAlias ApplyJacobianShMemRequest

func (r ApplyJacobianShMemRequest) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(applyJacobianShMemRequestAlias(r))
	if err != nil {
		return nil, err
	}
	return injectShMemSizes(base, r.ShMemSizes)
}

func (r *ApplyJacobianShMemRequest) UnmarshalJSON(data []byte) error {
	var alias applyJacobianShMemRequestAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	sizes, err := extractShMemSizes(data, alias.ShMemNumInputs)
	if err != nil {
		return err
	}
	alias.ShMemSizes = sizes
	*r = ApplyJacobianShMemRequest(alias)
	return nil
}

type applyHessianShMemRequestAlias ApplyHessianShMemRequest

func (r ApplyHessianShMemRequest) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(applyHessianShMemRequestAlias(r))
	if err != nil {
		return nil, err
	}
	return injectShMemSizes(base, r.ShMemSizes)
}

func (r *ApplyHessianShMemRequest) UnmarshalJSON(data []byte) error {
	var alias applyHessianShMemRequestAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	sizes, err := extractShMemSizes(data, alias.ShMemNumInputs)
	if err != nil {
		return err
	}
	alias.ShMemSizes = sizes
	*r = ApplyHessianShMemRequest(alias)
	return nil
}

// InSegmentName returns the POSIX shared-memory name of the i-th input
// segment for this request, e.g. "/umbridge_in_0_0".
func (r ShMemRequest) InSegmentName(i int) string {
	return segmentName(r.ShMemName, "in", r.TID, i)
}

// OutSegmentName returns the POSIX shared-memory name of the i-th output
// segment for this request, e.g. "/umbridge_out_0_0".
func (r ShMemRequest) OutSegmentName(i int) string {
	return segmentName(r.ShMemName, "out", r.TID, i)
}

func segmentName(prefix, direction, tid string, i int) string {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return fmt.Sprintf("%s_%s_%s_%d", prefix, direction, tid, i)
}

// TestShMemSegmentNames returns the fixed segment names used by the
// /TestShMem probe for the given thread id.
func TestShMemSegmentNames(tid string) (in, out string) {
	return "/umbridge_test_shmem_in_" + tid, "/umbridge_test_shmem_out_" + tid
}
