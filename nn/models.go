package nn

import (
	"fmt"
	"math/rand"

	"imgcls/nn/layers"
)

// Model kinds understood by BuildModel.
const (
	ModelCNN = "cnn"
	ModelMLP = "mlp"
)

// ModelKinds lists the supported architectures.
var ModelKinds = []string{ModelCNN, ModelMLP}

// BuildModel returns a classifier for [channels, height, width] inputs.
//
//	cnn: conv3x3(8) relu pool2 conv3x3(16) relu pool2 flatten linear
//	mlp: flatten linear(64) relu linear
func BuildModel(kind string, channels, height, width, numClasses int, rng *rand.Rand) (*Sequential, error) {
	if numClasses < 1 {
		return nil, fmt.Errorf("model needs at least one class, got %d", numClasses)
	}
	switch kind {
	case ModelCNN:
		h := ((height-2)/2 - 2) / 2
		w := ((width-2)/2 - 2) / 2
		if h < 1 || w < 1 {
			return nil, fmt.Errorf("cnn needs inputs of at least 10x10, got %dx%d", height, width)
		}
		return &Sequential{Layers: []Module{
			layers.NewConv2D(channels, 8, 3, 3, rng),
			layers.NewReLU(),
			layers.NewAvgPool2D(2),
			layers.NewConv2D(8, 16, 3, 3, rng),
			layers.NewReLU(),
			layers.NewAvgPool2D(2),
			layers.NewFlatten(),
			layers.NewLinear(16*h*w, numClasses, rng),
		}}, nil
	case ModelMLP:
		return &Sequential{Layers: []Module{
			layers.NewFlatten(),
			layers.NewLinear(channels*height*width, 64, rng),
			layers.NewReLU(),
			layers.NewLinear(64, numClasses, rng),
		}}, nil
	default:
		return nil, fmt.Errorf("unknown model: %s", kind)
	}
}
