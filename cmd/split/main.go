// imgcls-split: split a folder-per-class dataset into train/val lists
//
// Usage:
//
//	imgcls-split --data=data/mushrooms --ratio=0.8 --out=lists --name=mushrooms
//
// Writes <out>/train.txt and <out>/val.txt (one "path<TAB>label" per line)
// and the class-name file <out>/<name>.txt.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	xrand "golang.org/x/exp/rand"

	"imgcls/dataset"
	"imgcls/utils"
)

var (
	dataRoot   = flag.String("data", "", "Dataset root: one subdirectory per class")
	splitRatio = flag.Float64("ratio", 0.8, "Fraction of each class used for training")
	outDir     = flag.String("out", ".", "Output directory")
	name       = flag.String("name", "classes", "Base name of the class-name file")
	seed       = flag.Uint64("seed", 0, "Random seed (0 = process default)")
	verbose    = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if *dataRoot == "" {
		fmt.Fprintln(os.Stderr, "Error: --data is required")
		os.Exit(2)
	}
	if *splitRatio < 0 || *splitRatio > 1 {
		fmt.Fprintf(os.Stderr, "Error: ratio must be in [0,1], got %g\n", *splitRatio)
		os.Exit(2)
	}

	var opts []dataset.SplitOption
	if *seed != 0 {
		opts = append(opts, dataset.WithSource(xrand.NewSource(*seed)))
	}
	trainSet, valSet, classNames, err := dataset.Split(*dataRoot, *splitRatio, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	classFile, err := dataset.WriteClassNames(classNames, *name, *outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for file, set := range map[string]dataset.SampleSet{"train.txt": trainSet, "val.txt": valSet} {
		if err := writeList(filepath.Join(*outDir, file), set); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	trainCounts := dataset.ClassCounts(trainSet, len(classNames))
	valCounts := dataset.ClassCounts(valSet, len(classNames))
	utils.Logf("%d classes, %d train, %d val", len(classNames), trainSet.Len(), valSet.Len())
	for i, n := range classNames {
		utils.Logf("  %3d %-24s train %5d  val %5d", i, n, trainCounts[i], valCounts[i])
	}
	utils.Logf("Class names written to %s", classFile)
}

func writeList(path string, set dataset.SampleSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for i, p := range set.Paths {
		fmt.Fprintf(w, "%s\t%d\n", p, set.Labels[i])
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
