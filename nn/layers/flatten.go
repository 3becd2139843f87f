package layers

import (
	"fmt"

	"imgcls/tensor"
)

// Flatten reshapes [B, ...] to [B, F], keeping the batch axis. The output
// shares its data with the input.
type Flatten struct {
	lastShape []int
}

func NewFlatten() *Flatten { return &Flatten{} }

func (f *Flatten) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) < 2 || x.Shape[0] == 0 {
		return nil, ErrType
	}
	f.lastShape = append([]int(nil), x.Shape...)
	return x.Reshape(x.Shape[0], len(x.Data)/x.Shape[0])
}

func (f *Flatten) Backward(g *tensor.Tensor) (*tensor.Tensor, error) {
	if f.lastShape == nil {
		return nil, ErrNoForward
	}
	out, err := g.Reshape(f.lastShape...)
	if err != nil {
		return nil, fmt.Errorf("Flatten backward: %w", ErrType)
	}
	return out, nil
}

func (f *Flatten) Params() []*Param { return nil }
func (f *Flatten) Tag() string      { return "Flatten" }
