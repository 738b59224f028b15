package models

import (
	"context"
	"encoding/json"

	"github.com/umbridge-go/umbridge"
)

// diagonalConfig is the optional Config shape Diagonal understands: a
// per-component scale factor. A request with no config (or a config that
// doesn't set "scale") gets the model's default scale.
type diagonalConfig struct {
	Scale *float64 `json:"scale"`
}

// Diagonal is a single-input, single-output linear map y = scale * x,
// applied component-wise. The vector length is fixed by Size; the request
// config only selects the scale, never the sizes.
// Its Jacobian and Hessian actions are exact, making it a good fixture for
// checking that a client's finite-difference Jacobian/Hessian checks agree
// with a model's closed-form ones.
type Diagonal struct {
	umbridge.BaseModel
	// Size is the vector length (the same for input and output).
	Size int
	// DefaultScale is used when a request carries no "scale" config.
	DefaultScale float64
}

func (Diagonal) Name() string { return "diagonal" }

// ConfigSchema declares that an optional "scale" config field, if present,
// must be a positive number — letting the server reject a malformed scale
// before Diagonal ever sees it.
func (Diagonal) ConfigSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"scale": {"type": "number", "exclusiveMinimum": 0}
		},
		"additionalProperties": false
	}`)
}

func (d Diagonal) InputSizes(umbridge.Config) ([]int, error)  { return []int{d.Size}, nil }
func (d Diagonal) OutputSizes(umbridge.Config) ([]int, error) { return []int{d.Size}, nil }

func (Diagonal) SupportsEvaluate() bool      { return true }
func (Diagonal) SupportsApplyJacobian() bool { return true }
func (Diagonal) SupportsApplyHessian() bool  { return true }

func (d Diagonal) scale(config umbridge.Config) (float64, error) {
	if config.IsEmpty() {
		return d.DefaultScale, nil
	}
	var cfg diagonalConfig
	if err := json.Unmarshal(config, &cfg); err != nil {
		return 0, umbridge.NewInvalidInputError("diagonal: invalid config: %v", err)
	}
	if cfg.Scale == nil {
		return d.DefaultScale, nil
	}
	return *cfg.Scale, nil
}

func (d Diagonal) Evaluate(_ context.Context, input [][]float64, config umbridge.Config) ([][]float64, error) {
	scale, err := d.scale(config)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(input[0]))
	for i, x := range input[0] {
		out[i] = scale * x
	}
	return [][]float64{out}, nil
}

// ApplyJacobian returns scale * vec, since d(y)/d(x) = scale * I.
func (d Diagonal) ApplyJacobian(_ context.Context, outWrt, inWrt int, _ [][]float64, vec []float64, config umbridge.Config) ([]float64, error) {
	scale, err := d.scale(config)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = scale * v
	}
	return out, nil
}

// ApplyHessian is always zero: Diagonal is linear, so its second
// derivative vanishes everywhere.
func (d Diagonal) ApplyHessian(_ context.Context, outWrt, inWrt1, inWrt2 int, _ [][]float64, sens, vec []float64, _ umbridge.Config) ([]float64, error) {
	return make([]float64, len(vec)), nil
}
