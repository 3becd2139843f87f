// Package dataset scans folder-per-class image datasets, splits them into
// train/validation sets and batches file lists for inference.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ErrNoSamples is returned by consumers that need at least one sample.
var ErrNoSamples = errors.New("dataset: no samples")

// SampleSet holds parallel path/label sequences. Paths[i] carries Labels[i].
type SampleSet struct {
	Paths  []string
	Labels []int
}

// Len returns the number of samples.
func (s SampleSet) Len() int { return len(s.Paths) }

func (s *SampleSet) add(path string, label int) {
	s.Paths = append(s.Paths, path)
	s.Labels = append(s.Labels, label)
}

// classSamples accumulates one class directory during the scan.
type classSamples struct {
	name  string
	label int
	paths []string
}

// processSource is the default generator, seeded once per process from the
// clock so that unseeded splits differ between runs.
var processSource rand.Source = &lockedSource{src: rand.NewSource(uint64(time.Now().UnixNano()))}

type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

type splitConfig struct {
	src rand.Source
}

// SplitOption configures Split.
type SplitOption func(*splitConfig)

// WithSource makes the per-class partition draw from src instead of the
// process-level generator.
func WithSource(src rand.Source) SplitOption {
	return func(c *splitConfig) { c.src = src }
}

// Split scans rootDir, where every immediate subdirectory is a class and the
// files directly inside it are that class's samples, and partitions each class
// at random so that roughly splitRatio of its samples land in train.
//
// Labels follow directory enumeration order starting at 0; classNames[label]
// is the directory name. Empty class directories contribute nothing. A ratio
// of 0 or 1 is accepted and yields a one-sided split.
func Split(rootDir string, splitRatio float64, opts ...SplitOption) (train, val SampleSet, classNames []string, err error) {
	cfg := splitConfig{src: processSource}
	for _, o := range opts {
		o(&cfg)
	}

	classes, err := scanClasses(rootDir)
	if err != nil {
		return SampleSet{}, SampleSet{}, nil, err
	}

	classNames = make([]string, len(classes))
	for _, c := range classes {
		classNames[c.label] = c.name

		isVal := make([]bool, len(c.paths))
		for _, i := range pickValidation(len(c.paths), splitRatio, cfg.src) {
			isVal[i] = true
		}
		for i, p := range c.paths {
			if isVal[i] {
				val.add(p, c.label)
			} else {
				train.add(p, c.label)
			}
		}
	}
	return train, val, classNames, nil
}

func scanClasses(rootDir string) ([]classSamples, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset root %s: %w", rootDir, err)
	}
	var classes []classSamples
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		c := classSamples{name: e.Name(), label: len(classes)}
		dir := filepath.Join(rootDir, e.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading class directory %s: %w", dir, err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			c.paths = append(c.paths, filepath.Join(dir, f.Name()))
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// ValidationCount is the number of samples out of n held out for validation:
// ceil((1-splitRatio)*n), clamped to [0, n].
func ValidationCount(n int, splitRatio float64) int {
	if n == 0 {
		return 0
	}
	// epsilon absorbs 1-0.8 != 0.2
	k := int(math.Ceil((1-splitRatio)*float64(n) - 1e-9))
	if k < 0 {
		return 0
	}
	if k > n {
		return n
	}
	return k
}

func pickValidation(n int, splitRatio float64, src rand.Source) []int {
	k := ValidationCount(n, splitRatio)
	if k == 0 {
		return nil
	}
	idx := make([]int, k)
	sampleuv.WithoutReplacement(idx, n, src)
	return idx
}
