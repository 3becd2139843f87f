package layers

import (
	"fmt"
	"math"
	"math/rand"

	"imgcls/tensor"
)

// Linear is a fully-connected layer: y = x·Wᵀ + b over a [batch, in] input.
type Linear struct {
	W, B *Param // W: [out, in], B: [out]

	lastInput *tensor.Tensor
}

// NewLinear(inDim→outDim) with Xavier-normal weights drawn from rng and zero bias.
func NewLinear(inDim, outDim int, rng *rand.Rand) *Linear {
	l := &Linear{W: newParam("weight", outDim, inDim), B: newParam("bias", outDim)}
	scale := math.Sqrt(2.0 / float64(inDim+outDim))
	for i := range l.W.Value.Data {
		l.W.Value.Data[i] = normal(rng) * scale
	}
	return l
}

func (l *Linear) dims() (inDim, outDim int) { return l.W.Value.Shape[1], l.W.Value.Shape[0] }

// Forward accepts [batch, in] or a single [in] vector.
func (l *Linear) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	inDim, outDim := l.dims()
	if len(x.Shape) == 1 {
		x = &tensor.Tensor{Data: x.Data, Shape: []int{1, x.Shape[0]}}
	}
	if len(x.Shape) != 2 || x.Shape[1] != inDim {
		return nil, fmt.Errorf("Linear(%d→%d): unexpected input shape %v", inDim, outDim, x.Shape)
	}
	l.lastInput = x
	wT, err := tensor.Transpose(l.W.Value)
	if err != nil {
		return nil, err
	}
	y, err := tensor.MatMul(x, wT)
	if err != nil {
		return nil, err
	}
	// broadcast bias across batch
	for b := 0; b < y.Shape[0]; b++ {
		row := y.Data[b*outDim : (b+1)*outDim]
		for j := range row {
			row[j] += l.B.Value.Data[j]
		}
	}
	return y, nil
}

// Backward stores dL/dW = gᵀ·x, dL/db = Σ_batch g and returns dL/dx = g·W.
func (l *Linear) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if l.lastInput == nil {
		return nil, ErrNoForward
	}
	_, outDim := l.dims()
	batch := l.lastInput.Shape[0]
	if len(gradOut.Shape) != 2 || gradOut.Shape[0] != batch || gradOut.Shape[1] != outDim {
		return nil, fmt.Errorf("Linear: gradOut shape %v, want [%d %d]", gradOut.Shape, batch, outDim)
	}
	gT, err := tensor.Transpose(gradOut)
	if err != nil {
		return nil, err
	}
	gradW, err := tensor.MatMul(gT, l.lastInput)
	if err != nil {
		return nil, err
	}
	l.W.Grad = gradW
	gradB := tensor.New(outDim)
	for b := 0; b < batch; b++ {
		for j := 0; j < outDim; j++ {
			gradB.Data[j] += gradOut.Data[b*outDim+j]
		}
	}
	l.B.Grad = gradB
	return tensor.MatMul(gradOut, l.W.Value)
}

func (l *Linear) Params() []*Param { return []*Param{l.W, l.B} }

func (l *Linear) Tag() string {
	inDim, outDim := l.dims()
	return fmt.Sprintf("Linear(%d→%d)", inDim, outDim)
}

func normal(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.NormFloat64()
	}
	return rng.NormFloat64()
}
