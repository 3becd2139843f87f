package transform

import (
	"fmt"
	"image"
	"math/rand"

	"github.com/disintegration/imaging"

	"imgcls/tensor"
)

// ImageNet channel statistics used by the default pipelines.
var (
	ImageNetMean = [3]float64{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float64{0.229, 0.224, 0.225}
)

// ToTensor converts img to a [3, H, W] tensor with values in [0, 1].
// Alpha is dropped.
func ToTensor(img image.Image) *tensor.Tensor {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	out := tensor.New(3, h, w)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+4]
			for c := 0; c < 3; c++ {
				out.Set(float64(px[c])/255, c, y, x)
			}
		}
	}
	return out
}

// Normalize standardises each channel of a [C, H, W] tensor in place.
type Normalize struct {
	Mean, Std [3]float64
}

func (n Normalize) Apply(t *tensor.Tensor) error {
	if len(t.Shape) != 3 || t.Shape[0] != 3 {
		return fmt.Errorf("Normalize expects a [3,H,W] tensor, got %v", t.Shape)
	}
	plane := t.Shape[1] * t.Shape[2]
	for c := 0; c < 3; c++ {
		std := n.Std[c]
		if std == 0 {
			std = 1
		}
		ch := t.Data[c*plane : (c+1)*plane]
		for i := range ch {
			ch[i] = (ch[i] - n.Mean[c]) / std
		}
	}
	return nil
}

// Pipeline turns a decoded image into a model input tensor.
type Pipeline struct {
	Image     Transform
	Normalize *Normalize
}

// Tensor applies the image transforms, converts and normalizes.
func (p Pipeline) Tensor(img image.Image) (*tensor.Tensor, error) {
	if p.Image != nil {
		img = p.Image.Apply(img)
	}
	t := ToTensor(img)
	if p.Normalize != nil {
		if err := p.Normalize.Apply(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// TrainPipeline resizes to width×height and augments with a random horizontal
// flip, a rotation of up to 20 degrees and a 0.1 color jitter.
func TrainPipeline(width, height int, mean, std [3]float64, rng *rand.Rand) Pipeline {
	return Pipeline{
		Image: Compose{
			Resize{W: width, H: height},
			RandomHorizontalFlip{P: 0.5, Rng: rng},
			RandomRotation{Degrees: 20, Rng: rng},
			ColorJitter{Brightness: 0.1, Contrast: 0.1, Saturation: 0.1, Hue: 0.1, Rng: rng},
		},
		Normalize: &Normalize{Mean: mean, Std: std},
	}
}

// EvalPipeline only resizes and normalizes.
func EvalPipeline(width, height int, mean, std [3]float64) Pipeline {
	return Pipeline{
		Image:     Resize{W: width, H: height},
		Normalize: &Normalize{Mean: mean, Std: std},
	}
}
