// Package newton finds roots of functions over exact fractions with Newton's
// method. A Method keeps its iterates between calls so that asking for more
// digits resumes the iteration instead of restarting it.
package newton

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/turbekoff/fracbot/pkg/fraction"
)

var ErrNonConvergence = errors.New("newton method is not converging")

const DefaultMaxIterations = 200

// Func is a pure mapping over fractions.
type Func func(x fraction.Fraction) fraction.Fraction

type Option func(*Method)

// WithMaxIterations bounds the total number of iterations a Method may run.
// A non-positive n removes the bound.
func WithMaxIterations(n int) Option {
	return func(m *Method) {
		m.maxIterations = n
	}
}

type Method struct {
	function   Func
	derivative Func

	y    fraction.Fraction
	yOld fraction.Fraction

	achieved uint
	needed   uint

	iterations    int
	maxIterations int
}

// New prepares a search for a root of function starting at guess.
// The derivative must not vanish at any iterate.
func New(function, derivative Func, precision uint, guess fraction.Fraction, opts ...Option) *Method {
	m := &Method{
		function:      function,
		derivative:    derivative,
		y:             guess,
		yOld:          guess,
		needed:        precision,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetNeededPrecision raises the target precision. Lower values are ignored.
func (m *Method) SetNeededPrecision(precision uint) {
	if precision > m.needed {
		m.needed = precision
	}
}

func (m *Method) NeededPrecision() uint { return m.needed }

// Precision returns the number of digits known to be correct so far.
func (m *Method) Precision() uint { return m.achieved }

func (m *Method) Iterations() int { return m.iterations }

// Estimate returns the current iterate without iterating further.
func (m *Method) Estimate() fraction.Fraction { return m.y }

// Clone returns an independent copy of the method state.
func (m *Method) Clone() *Method {
	c := *m
	return &c
}

// Value iterates until the needed precision is reached and returns the
// current iterate. Two guard digits beyond the target are required before
// stopping. On ErrNonConvergence the returned value is the best estimate.
func (m *Method) Value() (fraction.Fraction, error) {
	for m.achieved <= m.needed+1 {
		if m.maxIterations > 0 && m.iterations >= m.maxIterations {
			return m.y, fmt.Errorf("%w after %d iterations", ErrNonConvergence, m.iterations)
		}

		step, err := m.function(m.y).Quo(m.derivative(m.y))
		if err != nil {
			return m.y, fmt.Errorf("derivative vanished at %s: %w", m.y, err)
		}

		m.iterations++
		m.yOld, m.y = m.y, m.y.Sub(step)

		// a fixed point of exact iteration is an exact root
		if m.y.Equal(m.yOld) {
			m.achieved = m.needed + 2
			break
		}

		delta := m.y.Sub(m.yOld).Abs()
		residual := m.function(m.y).Abs()
		for m.achieved <= m.needed+1 {
			bound := epsilon(m.achieved + 2)
			if !delta.Less(bound) || !residual.Less(bound) {
				break
			}
			m.achieved++
		}
	}
	return m.y, nil
}

// epsilon returns 10**-n.
func epsilon(n uint) fraction.Fraction {
	den := new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(uint64(n)), nil)
	f, _ := fraction.New(big.NewInt(1), den)
	return f
}
