// Package transform holds the image augmentation and tensor conversion steps
// applied to samples before they reach a model.
package transform

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
)

// Transform maps one image to another.
type Transform interface {
	Apply(img image.Image) image.Image
}

// Compose applies transforms in order.
type Compose []Transform

func (c Compose) Apply(img image.Image) image.Image {
	for _, t := range c {
		img = t.Apply(img)
	}
	return img
}

// Resize scales to exactly W×H, ignoring aspect ratio.
type Resize struct {
	W, H int
}

func (r Resize) Apply(img image.Image) image.Image {
	return imaging.Resize(img, r.W, r.H, imaging.Linear)
}

// RandomHorizontalFlip mirrors the image with probability P.
type RandomHorizontalFlip struct {
	P   float64
	Rng *rand.Rand
}

func (f RandomHorizontalFlip) Apply(img image.Image) image.Image {
	if uniform(f.Rng) < f.P {
		return imaging.FlipH(img)
	}
	return img
}

// RandomRotation rotates by an angle drawn uniformly from [-Degrees, Degrees].
// The canvas keeps its size; uncovered corners are black.
type RandomRotation struct {
	Degrees float64
	Rng     *rand.Rand
}

func (r RandomRotation) Apply(img image.Image) image.Image {
	if r.Degrees == 0 {
		return img
	}
	angle := (uniform(r.Rng)*2 - 1) * r.Degrees
	b := img.Bounds()
	rotated := imaging.Rotate(img, angle, color.Black)
	return imaging.CropCenter(rotated, b.Dx(), b.Dy())
}

// ColorJitter perturbs brightness, contrast and saturation by a factor drawn
// from [1-x, 1+x], and shifts hue by a fraction of a turn drawn from [-Hue, Hue].
type ColorJitter struct {
	Brightness, Contrast, Saturation, Hue float64
	Rng                                   *rand.Rand
}

func (j ColorJitter) Apply(img image.Image) image.Image {
	if j.Brightness > 0 {
		img = imaging.AdjustBrightness(img, j.jitter(j.Brightness)*100)
	}
	if j.Contrast > 0 {
		img = imaging.AdjustContrast(img, j.jitter(j.Contrast)*100)
	}
	if j.Saturation > 0 {
		img = imaging.AdjustSaturation(img, j.jitter(j.Saturation)*100)
	}
	if j.Hue > 0 {
		shift := j.jitter(j.Hue)
		img = imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
			return shiftHue(c, shift)
		})
	}
	return img
}

// jitter returns an offset in [-x, x].
func (j ColorJitter) jitter(x float64) float64 {
	return (uniform(j.Rng)*2 - 1) * x
}

func uniform(r *rand.Rand) float64 {
	if r == nil {
		return rand.Float64()
	}
	return r.Float64()
}

func shiftHue(c color.NRGBA, shift float64) color.NRGBA {
	h, s, v := rgbToHSV(c.R, c.G, c.B)
	h = math.Mod(h+shift, 1)
	if h < 0 {
		h++
	}
	r, g, b := hsvToRGB(h, s, v)
	return color.NRGBA{R: r, G: g, B: b, A: c.A}
}

// rgbToHSV returns hue as a fraction of a turn, saturation and value in [0,1].
func rgbToHSV(r8, g8, b8 uint8) (h, s, v float64) {
	r, g, b := float64(r8)/255, float64(g8)/255, float64(b8)/255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v = max
	d := max - min
	if max == 0 || d == 0 {
		return 0, 0, v
	}
	s = d / max
	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, v
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return to8(r), to8(g), to8(b)
}

func to8(x float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, x)) * 255))
}
