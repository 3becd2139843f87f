package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShape(t *testing.T) {
	t1 := New(2, 3)
	if len(t1.Data) != 6 {
		t.Fatalf("expected 6 elements, got %d", len(t1.Data))
	}
	if len(t1.Shape) != 2 || t1.Shape[0] != 2 || t1.Shape[1] != 3 {
		t.Fatalf("unexpected shape: %v", t1.Shape)
	}
}

func TestMatMul(t *testing.T) {
	a := &Tensor{Data: []float64{1, 2, 3, 4}, Shape: []int{2, 2}}
	b := &Tensor{Data: []float64{5, 6, 7, 8}, Shape: []int{2, 2}}
	c, err := MatMul(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{19, 22, 43, 50}
	for i := range want {
		if c.Data[i] != want[i] {
			t.Errorf("at %d, got %f, want %f", i, c.Data[i], want[i])
		}
	}
}

func TestMatMulRectangular(t *testing.T) {
	a := &Tensor{Data: []float64{1, 2, 3, 4, 5, 6}, Shape: []int{2, 3}}
	b := &Tensor{Data: []float64{1, 0, 0, 1, 1, 1}, Shape: []int{3, 2}}
	c, err := MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, c.Shape)
	assert.Equal(t, []float64{4, 5, 10, 11}, c.Data)

	_, err = MatMul(a, a)
	assert.Error(t, err)

	empty, err := MatMul(New(0, 3), b)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, empty.Shape)
}

func TestTranspose(t *testing.T) {
	a := &Tensor{Data: []float64{1, 2, 3, 4, 5, 6}, Shape: []int{2, 3}}
	tr, err := Transpose(a)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, tr.Shape)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, tr.Data)
}

func TestStackAndRow(t *testing.T) {
	a := NewWithData([]float64{1, 2})
	b := NewWithData([]float64{3, 4})
	s, err := Stack([]*Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, s.Shape)
	assert.Equal(t, []float64{1, 2, 3, 4}, s.Data)
	assert.Equal(t, []float64{3, 4}, s.Row(1).Data)

	_, err = Stack([]*Tensor{a, NewWithData([]float64{1})})
	assert.Error(t, err)
	_, err = Stack(nil)
	assert.Error(t, err)
}

func TestReshape(t *testing.T) {
	a := New(2, 3)
	r, err := a.Reshape(3, 2)
	require.NoError(t, err)
	r.Data[0] = 7
	assert.Equal(t, 7.0, a.Data[0], "reshape shares data")
	_, err = a.Reshape(4)
	assert.Error(t, err)
}

func TestArgmax(t *testing.T) {
	a := &Tensor{Data: []float64{0.1, 0.7, 0.2, 0.9, 0.05, 0.05}, Shape: []int{2, 3}}
	assert.Equal(t, []int{1, 0}, Argmax(a))
}

func TestAtSet(t *testing.T) {
	a := New(2, 3, 4)
	a.Set(5, 1, 2, 3)
	assert.Equal(t, 5.0, a.At(1, 2, 3))
	assert.Equal(t, 5.0, a.Data[len(a.Data)-1])
	assert.Panics(t, func() { a.At(2, 0, 0) })
}
