// imgcls-train: train an image classifier on a folder-per-class dataset
//
// Usage:
//
//	imgcls-train --data=data/mushrooms --model=cnn --epochs=10 --batch=4 --lr=0.001
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"imgcls/dataset"
	"imgcls/nn"
	"imgcls/optim"
	"imgcls/train"
	"imgcls/utils"
)

var (
	defaults = utils.DefaultConfig()

	dataRoot      = flag.String("data", "", "Dataset root: one subdirectory per class")
	outDir        = flag.String("out", defaults.OutDir, "Directory for checkpoints and the class-name file")
	saveName      = flag.String("save", defaults.SaveName, "Base name for checkpoints and the class-name file")
	modelType     = flag.String("model", defaults.Model, "Model type: "+strings.Join(nn.ModelKinds, ", "))
	optimizer     = flag.String("optim", defaults.Optimizer, "Optimizer: "+strings.Join(optim.Names, ", "))
	learningRate  = flag.Float64("lr", defaults.LearningRate, "Learning rate")
	batchSize     = flag.Int("batch", defaults.BatchSize, "Mini-batch size")
	epochs        = flag.Int("epochs", defaults.Epochs, "Number of training epochs")
	saveEvery     = flag.Int("save-every", defaults.SaveEvery, "Save a checkpoint every N epochs")
	splitRatio    = flag.Float64("ratio", defaults.SplitRatio, "Fraction of each class used for training")
	imageSize     = flag.Int("size", defaults.ImageSize, "Images are resized to size x size")
	seed          = flag.Int64("seed", 0, "Random seed (0 = seed from the clock)")
	allowTrunc    = flag.Bool("allow-truncated", false, "Decode truncated JPEG files instead of failing")
	autoNormalize = flag.Bool("auto-normalize", false, "Normalize with the training set's channel statistics instead of ImageNet's")
	verbose       = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	cfg := utils.Config{
		DataRoot:      *dataRoot,
		OutDir:        *outDir,
		SaveName:      *saveName,
		Model:         *modelType,
		Optimizer:     *optimizer,
		LearningRate:  *learningRate,
		BatchSize:     *batchSize,
		Epochs:        *epochs,
		SaveEvery:     *saveEvery,
		SplitRatio:    *splitRatio,
		ImageSize:     *imageSize,
		Seed:          *seed,
		AllowTrunc:    *allowTrunc,
		AutoNormalize: *autoNormalize,
	}
	if err := train.ValidateConfig(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	fmt.Println("imgcls trainer")
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Data:          %s\n", cfg.DataRoot)
	fmt.Printf("  Model:         %s\n", cfg.Model)
	fmt.Printf("  Optimizer:     %s (lr %.4g)\n", cfg.Optimizer, cfg.LearningRate)
	fmt.Printf("  Epochs:        %d (save every %d)\n", cfg.Epochs, cfg.SaveEvery)
	fmt.Printf("  Batch size:    %d\n", cfg.BatchSize)
	fmt.Printf("  Split ratio:   %.2f\n", cfg.SplitRatio)
	fmt.Printf("  Image size:    %dx%d\n", cfg.ImageSize, cfg.ImageSize)
	fmt.Println()

	loop, err := train.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	trainCounts := dataset.ClassCounts(loop.TrainSet.Samples, len(loop.ClassNames))
	valCounts := dataset.ClassCounts(loop.ValSet.Samples, len(loop.ClassNames))
	fmt.Printf("Classes: %d (train %d, val %d)\n", len(loop.ClassNames), loop.TrainSet.Len(), loop.ValSet.Len())
	for i, name := range loop.ClassNames {
		fmt.Printf("  %3d %-24s train %5d  val %5d\n", i, name, trainCounts[i], valCounts[i])
	}
	fmt.Printf("Model: %s, %d parameters\n\n", loop.Model.Tag(), loop.Model.NumParams())

	history, err := loop.Train(cfg.Epochs, cfg.SaveName, cfg.SaveEvery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	best := history[0]
	for _, h := range history[1:] {
		if h.ValAcc > best.ValAcc {
			best = h
		}
	}
	fmt.Printf("\nTraining complete. Best val acc %.2f%% at epoch %d\n", best.ValAcc*100, best.Epoch)
}
