package layers

import (
	"fmt"

	"imgcls/tensor"
)

// AvgPool2D averages non-overlapping p×p windows of a [B, C, H, W] input.
// Trailing rows/columns that do not fill a window are dropped.
type AvgPool2D struct {
	poolSize  int
	lastShape []int
}

func NewAvgPool2D(p int) *AvgPool2D {
	return &AvgPool2D{poolSize: p}
}

func (a *AvgPool2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) != 4 {
		return nil, ErrType
	}
	B, C, H, W := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	p := a.poolSize
	outH, outW := H/p, W/p
	if outH == 0 || outW == 0 {
		return nil, fmt.Errorf("AvgPool2D: %dx%d input smaller than pool size %d", H, W, p)
	}
	a.lastShape = append([]int(nil), x.Shape...)
	out := tensor.New(B, C, outH, outW)
	inv := 1.0 / float64(p*p)
	for b := 0; b < B; b++ {
		for c := 0; c < C; c++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					sum := 0.0
					for ph := 0; ph < p; ph++ {
						for pw := 0; pw < p; pw++ {
							sum += x.Data[((b*C+c)*H+oh*p+ph)*W+ow*p+pw]
						}
					}
					out.Data[((b*C+c)*outH+oh)*outW+ow] = sum * inv
				}
			}
		}
	}
	return out, nil
}

// Backward spreads each output gradient evenly over its window.
func (a *AvgPool2D) Backward(g *tensor.Tensor) (*tensor.Tensor, error) {
	if a.lastShape == nil {
		return nil, ErrNoForward
	}
	B, C, H, W := a.lastShape[0], a.lastShape[1], a.lastShape[2], a.lastShape[3]
	p := a.poolSize
	outH, outW := H/p, W/p
	if len(g.Data) != B*C*outH*outW {
		return nil, ErrType
	}
	gradIn := tensor.New(a.lastShape...)
	inv := 1.0 / float64(p*p)
	for b := 0; b < B; b++ {
		for c := 0; c < C; c++ {
			for oh := 0; oh < outH; oh++ {
				for ow := 0; ow < outW; ow++ {
					v := g.Data[((b*C+c)*outH+oh)*outW+ow] * inv
					for ph := 0; ph < p; ph++ {
						for pw := 0; pw < p; pw++ {
							gradIn.Data[((b*C+c)*H+oh*p+ph)*W+ow*p+pw] = v
						}
					}
				}
			}
		}
	}
	return gradIn, nil
}

func (a *AvgPool2D) Params() []*Param { return nil }

func (a *AvgPool2D) Tag() string { return fmt.Sprintf("AvgPool2D(%d)", a.poolSize) }
