// Package train drives model training over a folder-per-class dataset.
package train

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/schollz/progressbar/v3"
	xrand "golang.org/x/exp/rand"

	"imgcls/dataset"
	"imgcls/nn"
	"imgcls/optim"
	"imgcls/tensor"
	"imgcls/transform"
	"imgcls/utils"
)

// EpochStats summarizes one epoch.
type EpochStats struct {
	Epoch     int
	TrainLoss float64
	TrainAcc  float64
	ValLoss   float64
	ValAcc    float64
	Duration  time.Duration
	Saved     string
}

// Loop owns the model, optimizer and both data splits.
type Loop struct {
	Model      *nn.Sequential
	ModelKind  string
	Loss       *nn.CrossEntropyLoss
	Optimizer  optim.Optimizer
	BatchSize  int
	TrainSet   *dataset.FolderDataset
	ValSet     *dataset.FolderDataset
	ClassNames []string
	InputShape []int
	Mean, Std  [3]float64
	OutDir     string

	// Progress receives the per-epoch progress bar; nil disables it.
	Progress io.Writer
	Stats    utils.TimingStats

	rng *rand.Rand
}

// ValidateConfig runs utils.ValidateConfig and checks the model and optimizer
// names against nn.ModelKinds and optim.Names.
func ValidateConfig(cfg *utils.Config) error {
	if err := utils.ValidateConfig(cfg); err != nil {
		return err
	}
	if !slices.Contains(nn.ModelKinds, cfg.Model) {
		return fmt.Errorf("%w: model must be one of %v, got %q", utils.ErrInvalidConfig, nn.ModelKinds, cfg.Model)
	}
	if !slices.Contains(optim.Names, cfg.Optimizer) {
		return fmt.Errorf("%w: optimizer must be one of %v, got %q", utils.ErrInvalidConfig, optim.Names, cfg.Optimizer)
	}
	return nil
}

// New splits cfg.DataRoot, writes the class-name file next to the
// checkpoints and builds the model and optimizer.
func New(cfg utils.Config) (*Loop, error) {
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	var splitOpts []dataset.SplitOption
	if seed != 0 {
		splitOpts = append(splitOpts, dataset.WithSource(xrand.NewSource(uint64(seed))))
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	start := time.Now()
	trainSet, valSet, classNames, err := dataset.Split(cfg.DataRoot, cfg.SplitRatio, splitOpts...)
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", cfg.DataRoot, err)
	}
	if trainSet.Len() == 0 {
		return nil, fmt.Errorf("%s: training split is empty: %w", cfg.DataRoot, dataset.ErrNoSamples)
	}

	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	if _, err := dataset.WriteClassNames(classNames, cfg.SaveName, cfg.OutDir); err != nil {
		return nil, err
	}

	loader := dataset.ImageLoader{AllowTruncated: cfg.AllowTrunc}
	mean, std := transform.ImageNetMean, transform.ImageNetStd
	if cfg.AutoNormalize {
		raw, err := dataset.NewFolderDataset(trainSet, loader, transform.Pipeline{
			Image: transform.Resize{W: cfg.ImageSize, H: cfg.ImageSize},
		})
		if err != nil {
			return nil, err
		}
		if mean, std, err = dataset.ChannelStats(raw); err != nil {
			return nil, fmt.Errorf("computing channel stats: %w", err)
		}
		for c := range std {
			if std[c] == 0 {
				std[c] = 1
			}
		}
	}

	trainDS, err := dataset.NewFolderDataset(trainSet, loader, transform.TrainPipeline(cfg.ImageSize, cfg.ImageSize, mean, std, rng))
	if err != nil {
		return nil, err
	}
	valDS, err := dataset.NewFolderDataset(valSet, loader, transform.EvalPipeline(cfg.ImageSize, cfg.ImageSize, mean, std))
	if err != nil {
		return nil, err
	}

	model, err := nn.BuildModel(cfg.Model, 3, cfg.ImageSize, cfg.ImageSize, len(classNames), rng)
	if err != nil {
		return nil, err
	}
	opt, err := optim.New(cfg.Optimizer, cfg.LearningRate)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		Model:      model,
		ModelKind:  cfg.Model,
		Loss:       &nn.CrossEntropyLoss{},
		Optimizer:  opt,
		BatchSize:  cfg.BatchSize,
		TrainSet:   trainDS,
		ValSet:     valDS,
		ClassNames: classNames,
		InputShape: []int{3, cfg.ImageSize, cfg.ImageSize},
		Mean:       mean,
		Std:        std,
		OutDir:     cfg.OutDir,
		rng:        rng,
	}
	if utils.Verbose {
		l.Progress = utils.Output
	}
	l.Stats.DataLoadingTime += time.Since(start)
	return l, nil
}

// Train runs epochs passes over the training split. Every saveEvery epochs a
// checkpoint <save>_epoch<N>.json is written, and <save>_best.json tracks the
// best validation accuracy seen so far.
func (l *Loop) Train(epochs int, saveName string, saveEvery int) ([]EpochStats, error) {
	if epochs <= 0 || saveEvery <= 0 {
		return nil, fmt.Errorf("epochs (%d) and save interval (%d) must be positive", epochs, saveEvery)
	}
	history := make([]EpochStats, 0, epochs)
	best := -1.0
	total := time.Now()
	steps := 0

	for epoch := 1; epoch <= epochs; epoch++ {
		start := time.Now()
		loss, acc, n, err := l.trainEpoch(epoch, epochs)
		if err != nil {
			return history, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		steps += n

		es := EpochStats{Epoch: epoch, TrainLoss: loss, TrainAcc: acc}
		valStart := time.Now()
		es.ValLoss, es.ValAcc, err = l.Evaluate(l.ValSet)
		if err != nil && !errors.Is(err, dataset.ErrNoSamples) {
			return history, fmt.Errorf("epoch %d validation: %w", epoch, err)
		}
		l.Stats.ValidationTime += time.Since(valStart)

		if epoch%saveEvery == 0 {
			es.Saved = filepath.Join(l.OutDir, fmt.Sprintf("%s_epoch%d.json", saveName, epoch))
			if err := l.Save(es.Saved, epoch, es.ValAcc); err != nil {
				return history, err
			}
		}
		if es.ValAcc > best {
			best = es.ValAcc
			if err := l.Save(filepath.Join(l.OutDir, saveName+"_best.json"), epoch, es.ValAcc); err != nil {
				return history, err
			}
		}
		es.Duration = time.Since(start)
		history = append(history, es)
		utils.Logf("Epoch %d/%d | train loss %.4f acc %.2f%% | val loss %.4f acc %.2f%% | %.2fs",
			epoch, epochs, es.TrainLoss, es.TrainAcc*100, es.ValLoss, es.ValAcc*100, es.Duration.Seconds())
	}

	l.Stats.TotalTime += time.Since(total)
	utils.PrintTimingStats(&l.Stats, steps)
	return history, nil
}

func (l *Loop) trainEpoch(epoch, epochs int) (loss, acc float64, steps int, err error) {
	order := l.rng.Perm(l.TrainSet.Len())
	batches := dataset.Chunk(order, l.BatchSize)

	var bar *progressbar.ProgressBar
	if l.Progress != nil {
		bar = progressbar.NewOptions(len(order),
			progressbar.OptionSetWriter(l.Progress),
			progressbar.OptionSetDescription(fmt.Sprintf("epoch %d/%d", epoch, epochs)),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("img"),
			progressbar.OptionClearOnFinish(),
		)
	}

	var sumLoss float64
	var correct, seen int
	for _, idx := range batches {
		if len(idx) == 0 {
			continue
		}
		batchLoss, batchCorrect, err := l.step(idx)
		if err != nil {
			return 0, 0, steps, err
		}
		steps++
		sumLoss += batchLoss * float64(len(idx))
		correct += batchCorrect
		seen += len(idx)
		if bar != nil {
			bar.Describe(fmt.Sprintf("epoch %d/%d loss %.4f", epoch, epochs, sumLoss/float64(seen)))
			_ = bar.Add(len(idx))
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if seen == 0 {
		return 0, 0, steps, dataset.ErrNoSamples
	}
	return sumLoss / float64(seen), float64(correct) / float64(seen), steps, nil
}

// step runs forward, backward and one optimizer update on a mini-batch.
func (l *Loop) step(indices []int) (float64, int, error) {
	t := time.Now()
	x, labels, err := l.TrainSet.Batch(indices)
	if err != nil {
		return 0, 0, err
	}
	l.Stats.DataLoadingTime += time.Since(t)

	t = time.Now()
	logits, err := l.Model.Forward(x)
	if err != nil {
		return 0, 0, err
	}
	loss, grad, err := l.Loss.Forward(logits, labels)
	if err != nil {
		return 0, 0, err
	}
	l.Stats.ForwardPassTime += time.Since(t)

	t = time.Now()
	if _, err := l.Model.Backward(grad); err != nil {
		return 0, 0, err
	}
	l.Stats.BackwardPassTime += time.Since(t)

	t = time.Now()
	l.Optimizer.Step(l.Model.Params())
	l.Stats.UpdateTime += time.Since(t)

	return loss, nn.Accuracy(logits, labels), nil
}

// Evaluate returns the mean loss and accuracy over ds without updating the
// model. An empty dataset yields dataset.ErrNoSamples.
func (l *Loop) Evaluate(ds *dataset.FolderDataset) (loss, acc float64, err error) {
	if ds == nil || ds.Len() == 0 {
		return 0, 0, dataset.ErrNoSamples
	}
	indices := make([]int, ds.Len())
	for i := range indices {
		indices[i] = i
	}
	var sumLoss float64
	var correct int
	for _, idx := range dataset.Chunk(indices, l.BatchSize) {
		if len(idx) == 0 {
			continue
		}
		x, labels, err := ds.Batch(idx)
		if err != nil {
			return 0, 0, err
		}
		logits, err := l.Model.Forward(x)
		if err != nil {
			return 0, 0, err
		}
		batchLoss, _, err := l.Loss.Forward(logits, labels)
		if err != nil {
			return 0, 0, err
		}
		sumLoss += batchLoss * float64(len(idx))
		correct += nn.Accuracy(logits, labels)
	}
	n := float64(ds.Len())
	return sumLoss / n, float64(correct) / n, nil
}

// Save writes the current model as a JSON checkpoint.
func (l *Loop) Save(path string, epoch int, valAcc float64) error {
	w := &utils.ModelWeights{
		Version:    utils.WeightsVersion,
		Model:      l.ModelKind,
		InputShape: l.InputShape,
		ClassNames: l.ClassNames,
		Epoch:      epoch,
		ValAcc:     valAcc,
		Mean:       l.Mean[:],
		Std:        l.Std[:],
		Layers:     nn.ExportWeights(l.Model),
	}
	if err := utils.SaveWeights(path, w); err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", path, err)
	}
	return nil
}

// Predict returns the class probabilities of a [B, C, H, W] batch.
func Predict(model *nn.Sequential, x *tensor.Tensor) (*tensor.Tensor, error) {
	logits, err := model.Forward(x)
	if err != nil {
		return nil, err
	}
	return nn.SoftmaxRows(logits), nil
}
