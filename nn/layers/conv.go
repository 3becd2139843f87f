package layers

import (
	"fmt"
	"math"
	"math/rand"

	"imgcls/tensor"
)

// Conv2D is a stride-1, unpadded 2D convolution over [batch, inChan, H, W].
type Conv2D struct {
	inChan, outChan int // number of input/output channels
	kh, kw          int // kernel height and width

	W *Param // weights: [outChan, inChan, kh, kw]
	B *Param // bias: [outChan]

	lastInput *tensor.Tensor
}

// NewConv2D creates a Conv2D layer with He-normal weights.
func NewConv2D(inChan, outChan, kh, kw int, rng *rand.Rand) *Conv2D {
	c := &Conv2D{
		inChan: inChan, outChan: outChan, kh: kh, kw: kw,
		W: newParam("weight", outChan, inChan, kh, kw),
		B: newParam("bias", outChan),
	}
	scale := math.Sqrt(2.0 / float64(inChan*kh*kw))
	for i := range c.W.Value.Data {
		c.W.Value.Data[i] = normal(rng) * scale
	}
	return c
}

// GetOutputShape returns the spatial output size for an inH×inW input.
func (c *Conv2D) GetOutputShape(inH, inW int) (outH, outW int) {
	return inH - c.kh + 1, inW - c.kw + 1
}

func (c *Conv2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) != 4 || input.Shape[1] != c.inChan {
		return nil, fmt.Errorf("Conv2D: expected [B,%d,H,W] input, got %v", c.inChan, input.Shape)
	}
	batchSize, height, width := input.Shape[0], input.Shape[2], input.Shape[3]
	outHeight, outWidth := c.GetOutputShape(height, width)
	if outHeight <= 0 || outWidth <= 0 {
		return nil, fmt.Errorf("Conv2D: %dx%d kernel does not fit %dx%d input", c.kh, c.kw, height, width)
	}

	output := tensor.New(batchSize, c.outChan, outHeight, outWidth)
	c.lastInput = input

	w := c.W.Value.Data
	for b := 0; b < batchSize; b++ {
		for oc := 0; oc < c.outChan; oc++ {
			for y := 0; y < outHeight; y++ {
				for x := 0; x < outWidth; x++ {
					sum := c.B.Value.Data[oc]
					for ic := 0; ic < c.inChan; ic++ {
						for dy := 0; dy < c.kh; dy++ {
							for dx := 0; dx < c.kw; dx++ {
								wIdx := ((oc*c.inChan+ic)*c.kh+dy)*c.kw + dx
								inIdx := ((b*c.inChan+ic)*height+y+dy)*width + x + dx
								sum += input.Data[inIdx] * w[wIdx]
							}
						}
					}
					output.Data[((b*c.outChan+oc)*outHeight+y)*outWidth+x] = sum
				}
			}
		}
	}
	return output, nil
}

func (c *Conv2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if c.lastInput == nil {
		return nil, ErrNoForward
	}
	batchSize, inHeight, inWidth := c.lastInput.Shape[0], c.lastInput.Shape[2], c.lastInput.Shape[3]
	outHeight, outWidth := c.GetOutputShape(inHeight, inWidth)
	want := []int{batchSize, c.outChan, outHeight, outWidth}
	if !tensor.SameShape(gradOut, &tensor.Tensor{Shape: want}) || len(gradOut.Data) != batchSize*c.outChan*outHeight*outWidth {
		return nil, fmt.Errorf("Conv2D: gradOut shape %v, want %v: %w", gradOut.Shape, want, ErrType)
	}

	gradW := tensor.New(c.outChan, c.inChan, c.kh, c.kw)
	gradB := tensor.New(c.outChan)
	inputGrad := tensor.New(c.lastInput.Shape...)
	w := c.W.Value.Data

	for b := 0; b < batchSize; b++ {
		for oc := 0; oc < c.outChan; oc++ {
			for y := 0; y < outHeight; y++ {
				for x := 0; x < outWidth; x++ {
					g := gradOut.Data[((b*c.outChan+oc)*outHeight+y)*outWidth+x]
					if g == 0 {
						continue
					}
					gradB.Data[oc] += g
					for ic := 0; ic < c.inChan; ic++ {
						for dy := 0; dy < c.kh; dy++ {
							for dx := 0; dx < c.kw; dx++ {
								wIdx := ((oc*c.inChan+ic)*c.kh+dy)*c.kw + dx
								inIdx := ((b*c.inChan+ic)*inHeight+y+dy)*inWidth + x + dx
								gradW.Data[wIdx] += c.lastInput.Data[inIdx] * g
								inputGrad.Data[inIdx] += w[wIdx] * g
							}
						}
					}
				}
			}
		}
	}
	c.W.Grad, c.B.Grad = gradW, gradB
	return inputGrad, nil
}

func (c *Conv2D) Params() []*Param { return []*Param{c.W, c.B} }

func (c *Conv2D) Tag() string {
	return fmt.Sprintf("Conv2D(%d→%d, %dx%d)", c.inChan, c.outChan, c.kh, c.kw)
}
