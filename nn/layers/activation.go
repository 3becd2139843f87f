package layers

import "imgcls/tensor"

// ReLU applies max(0, x) element-wise.
type ReLU struct {
	lastInput *tensor.Tensor
}

func NewReLU() *ReLU { return &ReLU{} }

func (a *ReLU) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	a.lastInput = x
	y := tensor.New(x.Shape...)
	for i, v := range x.Data {
		if v > 0 {
			y.Data[i] = v
		}
	}
	return y, nil
}

func (a *ReLU) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if a.lastInput == nil {
		return nil, ErrNoForward
	}
	if len(gradOut.Data) != len(a.lastInput.Data) {
		return nil, ErrType
	}
	gradIn := tensor.New(a.lastInput.Shape...)
	for i, v := range a.lastInput.Data {
		if v > 0 {
			gradIn.Data[i] = gradOut.Data[i]
		}
	}
	return gradIn, nil
}

func (a *ReLU) Params() []*Param { return nil }
func (a *ReLU) Tag() string      { return "ReLU" }
