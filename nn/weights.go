package nn

import (
	"fmt"

	"imgcls/tensor"
	"imgcls/utils"
)

func layerKey(i int) string { return fmt.Sprintf("layer_%d", i) }

// ExportWeights copies the parameters of every trainable layer, keyed by
// layer position.
func ExportWeights(s *Sequential) map[string]utils.LayerWeight {
	out := make(map[string]utils.LayerWeight)
	for i, l := range s.Layers {
		ps := l.Params()
		if len(ps) == 0 {
			continue
		}
		var lw utils.LayerWeight
		for _, p := range ps {
			wd := utils.TensorToWeightData(p.Name, p.Value)
			switch p.Name {
			case "weight":
				lw.Weight = wd
			case "bias":
				lw.Bias = wd
			}
		}
		out[layerKey(i)] = lw
	}
	return out
}

// ImportWeights loads weights produced by ExportWeights into a model of the
// same architecture.
func ImportWeights(s *Sequential, weights map[string]utils.LayerWeight) error {
	for i, l := range s.Layers {
		ps := l.Params()
		if len(ps) == 0 {
			continue
		}
		lw, ok := weights[layerKey(i)]
		if !ok {
			return fmt.Errorf("missing weights for %s (%s)", layerKey(i), l.Tag())
		}
		for _, p := range ps {
			var wd *utils.WeightData
			switch p.Name {
			case "weight":
				wd = lw.Weight
			case "bias":
				wd = lw.Bias
			}
			if wd == nil {
				return fmt.Errorf("missing %s for %s", p.Name, layerKey(i))
			}
			src := utils.WeightDataToTensor(wd)
			if !tensor.SameShape(src, p.Value) || len(wd.Data) != len(p.Value.Data) {
				return fmt.Errorf("%s %s: shape %v does not match model %v", layerKey(i), p.Name, wd.Shape, p.Value.Shape)
			}
			copy(p.Value.Data, src.Data)
		}
	}
	return nil
}
