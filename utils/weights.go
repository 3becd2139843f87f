package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"imgcls/tensor"
)

// WeightsVersion is written into every checkpoint.
const WeightsVersion = "1.0"

// WeightData represents serializable weight data for a layer
type WeightData struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// ModelWeights is a checkpoint: the trained parameters plus what is needed
// to rebuild the model and label its outputs.
type ModelWeights struct {
	Version    string                 `json:"version"`
	Model      string                 `json:"model"`
	InputShape []int                  `json:"input_shape"`
	ClassNames []string               `json:"class_names"`
	Epoch      int                    `json:"epoch,omitempty"`
	ValAcc     float64                `json:"val_acc,omitempty"`
	Mean       []float64              `json:"mean,omitempty"`
	Std        []float64              `json:"std,omitempty"`
	Layers     map[string]LayerWeight `json:"layers"`
}

// LayerWeight contains weights and bias for a layer
type LayerWeight struct {
	Weight *WeightData `json:"weight,omitempty"`
	Bias   *WeightData `json:"bias,omitempty"`
}

// SaveWeights saves model weights to a JSON file
func SaveWeights(filepath string, weights *ModelWeights) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write weights file: %w", err)
	}
	return nil
}

// LoadWeights loads model weights from a JSON file
func LoadWeights(filepath string) (*ModelWeights, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	if len(weights.InputShape) != 3 {
		return nil, fmt.Errorf("weights file %s: input_shape must be [C,H,W], got %v", filepath, weights.InputShape)
	}
	return &weights, nil
}

// TensorToWeightData converts a tensor to serializable weight data
func TensorToWeightData(name string, t *tensor.Tensor) *WeightData {
	return &WeightData{
		Name:  name,
		Shape: append([]int{}, t.Shape...),
		Data:  append([]float64{}, t.Data...), // copy
	}
}

// WeightDataToTensor converts weight data back to a tensor
func WeightDataToTensor(wd *WeightData) *tensor.Tensor {
	t := tensor.New(wd.Shape...)
	copy(t.Data, wd.Data)
	return t
}
