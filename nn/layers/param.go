package layers

import (
	"errors"

	"imgcls/tensor"
)

// ErrType reports an input tensor whose rank the layer cannot handle.
var ErrType = errors.New("layers: unsupported tensor shape")

// ErrNoForward reports Backward called before any Forward.
var ErrNoForward = errors.New("layers: no cached input for backward pass")

// Param is a trainable tensor and the gradient of the last Backward call.
type Param struct {
	Name  string
	Value *tensor.Tensor
	Grad  *tensor.Tensor
}

func newParam(name string, shape ...int) *Param {
	return &Param{Name: name, Value: tensor.New(shape...), Grad: tensor.New(shape...)}
}
