package nn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcls/nn/layers"
	"imgcls/tensor"
)

// dummy layer: adds a constant
type addLayer struct{ c float64 }

func (l *addLayer) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	out := x.Clone()
	for i := range out.Data {
		out.Data[i] += l.c
	}
	return out, nil
}
func (l *addLayer) Backward(g *tensor.Tensor) (*tensor.Tensor, error) { return g, nil }
func (l *addLayer) Params() []*layers.Param                           { return nil }
func (l *addLayer) Tag() string                                       { return "add" }

// dummy layer: error on forward
type errLayer struct{}

func (l *errLayer) Forward(*tensor.Tensor) (*tensor.Tensor, error)  { return nil, errors.New("fail") }
func (l *errLayer) Backward(*tensor.Tensor) (*tensor.Tensor, error) { return nil, errors.New("fail") }
func (l *errLayer) Params() []*layers.Param                         { return nil }
func (l *errLayer) Tag() string                                     { return "err" }

func TestSequentialPlain(t *testing.T) {
	seq := &Sequential{Layers: []Module{&addLayer{1}, &addLayer{2}}}
	out, err := seq.Forward(tensor.NewWithData([]float64{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, out.Data)
	assert.Equal(t, "Sequential[add, add]", seq.Tag())
}

func TestSequentialPropagatesErrors(t *testing.T) {
	seq := &Sequential{Layers: []Module{&addLayer{1}, &errLayer{}}}
	_, err := seq.Forward(tensor.NewWithData([]float64{0}))
	require.ErrorContains(t, err, "layer 1 err forward")
	_, err = seq.Backward(tensor.NewWithData([]float64{0}))
	require.ErrorContains(t, err, "layer 1 err backward")
}

func TestSoftmaxSumsToOne(t *testing.T) {
	p := SoftmaxRows(&tensor.Tensor{Data: []float64{1, 2, 3, 1000}, Shape: []int{1, 4}})
	sum := 0.0
	for _, v := range p.Data {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 1.0, p.Data[3], 1e-12)

	rows := SoftmaxRows(&tensor.Tensor{Data: []float64{0, 0, 5, 5}, Shape: []int{2, 2}})
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5, 0.5}, rows.Data, 1e-12)
}

func TestCrossEntropyLoss(t *testing.T) {
	ce := &CrossEntropyLoss{}
	logits := &tensor.Tensor{Data: []float64{0, 0, 0, 0}, Shape: []int{2, 2}}
	loss, grad, err := ce.Forward(logits, []int{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.6931471805599453, loss, 1e-12)
	// (softmax - onehot) / batch
	assert.InDeltaSlice(t, []float64{-0.25, 0.25, 0.25, -0.25}, grad.Data, 1e-12)

	_, _, err = ce.Forward(logits, []int{0})
	require.Error(t, err)
	_, _, err = ce.Forward(logits, []int{0, 2})
	require.Error(t, err)
}

func TestAccuracy(t *testing.T) {
	logits := &tensor.Tensor{Data: []float64{2, 1, 0, 3, 5, 4}, Shape: []int{3, 2}}
	assert.Equal(t, 2, Accuracy(logits, []int{0, 1, 1}))
}
