package nn

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcls/tensor"
	"imgcls/utils"
)

func randomBatch(rng *rand.Rand, shape ...int) *tensor.Tensor {
	x := tensor.New(shape...)
	for i := range x.Data {
		x.Data[i] = rng.Float64()
	}
	return x
}

func TestBuildModelShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, kind := range ModelKinds {
		t.Run(kind, func(t *testing.T) {
			m, err := BuildModel(kind, 3, 16, 16, 4, rng)
			require.NoError(t, err)
			x := randomBatch(rng, 2, 3, 16, 16)
			out, err := m.Forward(x)
			require.NoError(t, err)
			assert.Equal(t, []int{2, 4}, out.Shape)

			_, grad, err := (&CrossEntropyLoss{}).Forward(out, []int{0, 3})
			require.NoError(t, err)
			gx, err := m.Backward(grad)
			require.NoError(t, err)
			assert.Equal(t, x.Shape, gx.Shape)
			for _, p := range m.Params() {
				assert.Equal(t, p.Value.Shape, p.Grad.Shape, p.Name)
			}
			assert.Positive(t, m.NumParams())
		})
	}
}

func TestBuildModelRejects(t *testing.T) {
	_, err := BuildModel("resnet50", 3, 32, 32, 2, nil)
	require.Error(t, err)
	_, err = BuildModel(ModelCNN, 3, 8, 8, 2, nil)
	require.Error(t, err)
	_, err = BuildModel(ModelMLP, 3, 8, 8, 0, nil)
	require.Error(t, err)
}

func TestWeightsRoundTripRestoresPredictions(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m, err := BuildModel(ModelCNN, 3, 12, 12, 3, rng)
	require.NoError(t, err)
	x := randomBatch(rng, 2, 3, 12, 12)
	want, err := m.Forward(x)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ckpt.json")
	require.NoError(t, utils.SaveWeights(path, &utils.ModelWeights{
		Version:    utils.WeightsVersion,
		Model:      ModelCNN,
		InputShape: []int{3, 12, 12},
		ClassNames: []string{"a", "b", "c"},
		Layers:     ExportWeights(m),
	}))

	loaded, err := utils.LoadWeights(path)
	require.NoError(t, err)
	fresh, err := BuildModel(loaded.Model, 3, 12, 12, len(loaded.ClassNames), rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	require.NoError(t, ImportWeights(fresh, loaded.Layers))

	got, err := fresh.Forward(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Data, got.Data, 1e-9)
}

func TestImportWeightsShapeMismatch(t *testing.T) {
	small, err := BuildModel(ModelMLP, 1, 4, 4, 2, nil)
	require.NoError(t, err)
	big, err := BuildModel(ModelMLP, 1, 5, 5, 2, nil)
	require.NoError(t, err)
	require.Error(t, ImportWeights(big, ExportWeights(small)))
	require.Error(t, ImportWeights(big, nil))
}
