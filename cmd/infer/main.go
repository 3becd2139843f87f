// imgcls-infer: batched inference over image files with a saved checkpoint
//
// Usage:
//
//	imgcls-infer --weights=model_best.json [--classes=model.txt] img1.jpg img2.jpg ...
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"imgcls/dataset"
	"imgcls/nn"
	"imgcls/tensor"
	"imgcls/train"
	"imgcls/transform"
	"imgcls/utils"
)

var (
	weightsFile = flag.String("weights", "", "Weights JSON file")
	classesFile = flag.String("classes", "", "Class-name file (defaults to the names stored in the checkpoint)")
	batchSize   = flag.Int("batch", 16, "Images per inference batch")
	allowTrunc  = flag.Bool("allow-truncated", false, "Decode truncated JPEG files instead of failing")
	verbose     = flag.Bool("verbose", true, "Verbose output")
	topK        = flag.Int("topk", 3, "Top predictions to show")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose
	files := flag.Args()

	if *weightsFile == "" || len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: imgcls-infer --weights=FILE [flags] image...")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *batchSize <= 0 {
		fmt.Fprintln(os.Stderr, "Error: batch size must be positive")
		os.Exit(2)
	}

	weights, err := utils.LoadWeights(*weightsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading weights: %v\n", err)
		os.Exit(1)
	}
	classNames := weights.ClassNames
	if *classesFile != "" {
		if classNames, err = dataset.ReadClassNames(*classesFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading class names: %v\n", err)
			os.Exit(1)
		}
	}

	c, h, w := weights.InputShape[0], weights.InputShape[1], weights.InputShape[2]
	model, err := nn.BuildModel(weights.Model, c, h, w, len(classNames), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := nn.ImportWeights(model, weights.Layers); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	utils.Logf("Loaded %s (%d layers, %d classes) from %s", weights.Model, len(model.Layers), len(classNames), *weightsFile)

	pipeline := evalPipeline(weights)
	loader := dataset.ImageLoader{AllowTruncated: *allowTrunc}

	start := time.Now()
	for _, batch := range dataset.Chunk(files, *batchSize) {
		if len(batch) == 0 {
			continue
		}
		x, err := dataset.FilesToTensor(batch, loader, pipeline)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		probs, err := train.Predict(model, x)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for i, file := range batch {
			showResults(file, probs.Row(i), classNames, *topK)
		}
	}
	utils.Logf("\nTime: %.4fs for %d images", time.Since(start).Seconds(), len(files))
}

// evalPipeline resizes to the checkpoint's [C,H,W] input and normalizes with
// its stored channel statistics, falling back to ImageNet's.
func evalPipeline(weights *utils.ModelWeights) transform.Pipeline {
	mean, std := transform.ImageNetMean, transform.ImageNetStd
	if len(weights.Mean) == 3 && len(weights.Std) == 3 {
		copy(mean[:], weights.Mean)
		copy(std[:], weights.Std)
	}
	return transform.EvalPipeline(weights.InputShape[2], weights.InputShape[1], mean, std)
}

func showResults(file string, probs *tensor.Tensor, classNames []string, k int) {
	fmt.Printf("%s\n", file)
	for i, idx := range topKIndices(probs.Data, k) {
		fmt.Printf("  %d. %s: %.4f\n", i+1, classNames[idx], probs.At(idx))
	}
}

func topKIndices(vals []float64, k int) []int {
	if k > len(vals) {
		k = len(vals)
	}
	if k < 0 {
		k = 0
	}
	indices := make([]int, k)
	used := make(map[int]bool)
	for i := 0; i < k; i++ {
		maxIdx, maxVal := -1, math.Inf(-1)
		for j, v := range vals {
			if !used[j] && v > maxVal {
				maxVal, maxIdx = v, j
			}
		}
		indices[i] = maxIdx
		used[maxIdx] = true
	}
	return indices
}
