// Package optim updates model parameters from the gradients left by the last
// backward pass.
package optim

import (
	"fmt"
	"math"

	"imgcls/nn/layers"
)

// Optimizer applies one update step to params.
type Optimizer interface {
	Step(params []*layers.Param)
	Name() string
}

// Optimizer names accepted by New.
const (
	NameSGD  = "sgd"
	NameAdam = "adam"
)

// Names lists every optimizer New can build.
var Names = []string{NameSGD, NameAdam}

// New returns the optimizer called name with learning rate lr.
func New(name string, lr float64) (Optimizer, error) {
	switch name {
	case NameSGD:
		return &SGD{LR: lr}, nil
	case NameAdam:
		return NewAdam(lr), nil
	default:
		return nil, fmt.Errorf("unknown optimizer: %s", name)
	}
}

// SGD is plain stochastic gradient descent with optional momentum.
type SGD struct {
	LR       float64
	Momentum float64

	velocity map[*layers.Param][]float64
}

func (o *SGD) Name() string { return NameSGD }

func (o *SGD) Step(params []*layers.Param) {
	for _, p := range params {
		if p.Grad == nil {
			continue
		}
		if o.Momentum == 0 {
			for i, g := range p.Grad.Data {
				p.Value.Data[i] -= o.LR * g
			}
			continue
		}
		if o.velocity == nil {
			o.velocity = make(map[*layers.Param][]float64)
		}
		v, ok := o.velocity[p]
		if !ok {
			v = make([]float64, len(p.Value.Data))
			o.velocity[p] = v
		}
		for i, g := range p.Grad.Data {
			v[i] = o.Momentum*v[i] + g
			p.Value.Data[i] -= o.LR * v[i]
		}
	}
}

// Adam keeps per-parameter first and second moment estimates.
type Adam struct {
	LR, Beta1, Beta2, Eps float64

	t     int
	state map[*layers.Param]*adamState
}

type adamState struct {
	m, v []float64
}

// NewAdam uses the usual defaults β1=0.9, β2=0.999, ε=1e-8.
func NewAdam(lr float64) *Adam {
	return &Adam{LR: lr, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
}

func (o *Adam) Name() string { return NameAdam }

func (o *Adam) Step(params []*layers.Param) {
	if o.state == nil {
		o.state = make(map[*layers.Param]*adamState)
	}
	o.t++
	c1 := 1 - math.Pow(o.Beta1, float64(o.t))
	c2 := 1 - math.Pow(o.Beta2, float64(o.t))
	for _, p := range params {
		if p.Grad == nil {
			continue
		}
		s, ok := o.state[p]
		if !ok {
			s = &adamState{m: make([]float64, len(p.Value.Data)), v: make([]float64, len(p.Value.Data))}
			o.state[p] = s
		}
		for i, g := range p.Grad.Data {
			s.m[i] = o.Beta1*s.m[i] + (1-o.Beta1)*g
			s.v[i] = o.Beta2*s.v[i] + (1-o.Beta2)*g*g
			mHat := s.m[i] / c1
			vHat := s.v[i] / c2
			p.Value.Data[i] -= o.LR * mHat / (math.Sqrt(vHat) + o.Eps)
		}
	}
}
