package layers

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"imgcls/tensor"
)

type trainable interface {
	Forward(*tensor.Tensor) (*tensor.Tensor, error)
	Backward(*tensor.Tensor) (*tensor.Tensor, error)
	Params() []*Param
}

func randTensor(rng *rand.Rand, shape ...int) *tensor.Tensor {
	t := tensor.New(shape...)
	for i := range t.Data {
		t.Data[i] = rng.NormFloat64()
	}
	return t
}

// checkGradients compares Backward against central differences of
// L = Σ out ⊙ r for a fixed random r.
func checkGradients(t *testing.T, l trainable, x *tensor.Tensor) {
	t.Helper()
	rng := rand.New(rand.NewSource(99))
	out, err := l.Forward(x)
	require.NoError(t, err)
	r := randTensor(rng, out.Shape...)

	loss := func() float64 {
		o, err := l.Forward(x)
		require.NoError(t, err)
		s := 0.0
		for i := range o.Data {
			s += o.Data[i] * r.Data[i]
		}
		return s
	}

	_, err = l.Forward(x)
	require.NoError(t, err)
	gradIn, err := l.Backward(r)
	require.NoError(t, err)
	require.Equal(t, x.Shape, gradIn.Shape)

	const eps = 1e-6
	numeric := func(v []float64, i int) float64 {
		orig := v[i]
		v[i] = orig + eps
		lp := loss()
		v[i] = orig - eps
		lm := loss()
		v[i] = orig
		return (lp - lm) / (2 * eps)
	}

	for i := range x.Data {
		require.InDelta(t, numeric(x.Data, i), gradIn.Data[i], 1e-5, "input grad %d", i)
	}
	for _, p := range l.Params() {
		grad := p.Grad
		for i := range p.Value.Data {
			require.InDelta(t, numeric(p.Value.Data, i), grad.Data[i], 1e-5, "%s grad %d", p.Name, i)
		}
	}
}
