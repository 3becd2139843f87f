package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"imgcls/tensor"
	"imgcls/transform"
)

// FolderDataset serves transformed image tensors for a SampleSet.
type FolderDataset struct {
	Samples   SampleSet
	Loader    ImageLoader
	Transform transform.Pipeline
}

// NewFolderDataset checks the parallel-sequence invariant and wraps set.
func NewFolderDataset(set SampleSet, loader ImageLoader, p transform.Pipeline) (*FolderDataset, error) {
	if len(set.Paths) != len(set.Labels) {
		return nil, fmt.Errorf("sample set has %d paths but %d labels", len(set.Paths), len(set.Labels))
	}
	return &FolderDataset{Samples: set, Loader: loader, Transform: p}, nil
}

// Len returns the number of samples.
func (d *FolderDataset) Len() int { return d.Samples.Len() }

// Get loads sample i as a [C, H, W] tensor together with its label.
func (d *FolderDataset) Get(i int) (*tensor.Tensor, int, error) {
	if i < 0 || i >= d.Len() {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", i, d.Len())
	}
	img, err := d.Loader.Load(d.Samples.Paths[i])
	if err != nil {
		return nil, 0, err
	}
	t, err := d.Transform.Tensor(img)
	if err != nil {
		return nil, 0, fmt.Errorf("transforming %s: %w", d.Samples.Paths[i], err)
	}
	return t, d.Samples.Labels[i], nil
}

// Batch loads the given indices into a [B, C, H, W] tensor and their labels.
func (d *FolderDataset) Batch(indices []int) (*tensor.Tensor, []int, error) {
	if len(indices) == 0 {
		return nil, nil, ErrNoSamples
	}
	ts := make([]*tensor.Tensor, len(indices))
	labels := make([]int, len(indices))
	for i, idx := range indices {
		t, label, err := d.Get(idx)
		if err != nil {
			return nil, nil, err
		}
		ts[i], labels[i] = t, label
	}
	x, err := tensor.Stack(ts)
	if err != nil {
		return nil, nil, err
	}
	return x, labels, nil
}

// ChannelStats returns the per-channel mean and standard deviation of every
// pixel in the dataset, as produced by its transform pipeline.
func ChannelStats(d *FolderDataset) (mean, std [3]float64, err error) {
	if d.Len() == 0 {
		return mean, std, ErrNoSamples
	}
	var channels [3][]float64
	for i := 0; i < d.Len(); i++ {
		t, _, err := d.Get(i)
		if err != nil {
			return mean, std, err
		}
		if len(t.Shape) != 3 || t.Shape[0] != 3 {
			return mean, std, fmt.Errorf("expected [3,H,W] sample, got %v", t.Shape)
		}
		plane := t.Shape[1] * t.Shape[2]
		for c := 0; c < 3; c++ {
			channels[c] = append(channels[c], t.Data[c*plane:(c+1)*plane]...)
		}
	}
	for c := 0; c < 3; c++ {
		mean[c], std[c] = stat.MeanStdDev(channels[c], nil)
	}
	return mean, std, nil
}

// ClassCounts returns the number of samples per label.
func ClassCounts(set SampleSet, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, l := range set.Labels {
		if l >= 0 && l < numClasses {
			counts[l]++
		}
	}
	return counts
}
