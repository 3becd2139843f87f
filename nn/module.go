package nn

import (
	"fmt"

	"imgcls/nn/layers"
	"imgcls/tensor"
)

// Module defines a single layer/unit in the network.
type Module interface {
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)
	// Backward takes the gradient of the loss with respect to the module's
	// output, records parameter gradients, and returns the gradient with
	// respect to the module's input.
	Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error)
	Params() []*layers.Param
	Tag() string
}

// Sequential chains multiple Modules in order.
type Sequential struct {
	Layers []Module
}

// Forward applies each layer in sequence.
func (s *Sequential) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	out := x
	for i, layer := range s.Layers {
		var err error
		out, err = layer.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d %s forward: %w", i, layer.Tag(), err)
		}
	}
	return out, nil
}

// Backward applies Backward in reverse order.
func (s *Sequential) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	out := grad
	for i := len(s.Layers) - 1; i >= 0; i-- {
		var err error
		out, err = s.Layers[i].Backward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d %s backward: %w", i, s.Layers[i].Tag(), err)
		}
	}
	return out, nil
}

// Params collects the parameters of all layers.
func (s *Sequential) Params() []*layers.Param {
	var ps []*layers.Param
	for _, layer := range s.Layers {
		ps = append(ps, layer.Params()...)
	}
	return ps
}

// Tag lists the layer tags.
func (s *Sequential) Tag() string {
	out := "Sequential["
	for i, l := range s.Layers {
		if i > 0 {
			out += ", "
		}
		out += l.Tag()
	}
	return out + "]"
}

// NumParams counts trainable scalars.
func (s *Sequential) NumParams() int {
	n := 0
	for _, p := range s.Params() {
		n += p.Value.Size()
	}
	return n
}
