package calculator

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/turbekoff/fracbot/pkg/fraction"
	"github.com/turbekoff/fracbot/pkg/newton"
)

var (
	ErrDivisionByZero  = fraction.ErrDivisionByZero
	ErrInvalidArgument = fraction.ErrInvalidArgument
	ErrNonConvergence  = newton.ErrNonConvergence
	ErrDomain          = errors.New("square root of a negative number")
)

var hundred = fraction.FromInt64(100)

// sqrtGuardDigits are kept past the precision in square root results.
const sqrtGuardDigits = 2

type options struct {
	logger        *log.Logger
	maxIterations int
	precision     uint
}

type Option func(*options)

func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxIterations bounds every square root solve. See newton.WithMaxIterations.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

func WithPrecision(precision uint) Option {
	return func(o *options) {
		o.precision = precision
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:        log.New(io.Discard, "", 0),
		maxIterations: newton.DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Calculation is an append-only log of operations folded into a single
// result. The result is cached together with the number of entries it
// reflects, so appending entries only folds the new ones.
type Calculation struct {
	entries []Entry
	result  fraction.Fraction
	folded  int

	precision     uint
	maxIterations int
	logger        *log.Logger
}

func NewCalculation(opts ...Option) *Calculation {
	o := newOptions(opts)
	return &Calculation{
		precision:     o.precision,
		maxIterations: o.maxIterations,
		logger:        o.logger,
	}
}

func (c *Calculation) IsEmpty() bool { return len(c.entries) == 0 }

func (c *Calculation) Len() int { return len(c.entries) }

func (c *Calculation) Precision() uint { return c.precision }

// Operations lists the recorded operations in order.
func (c *Calculation) Operations() []Operation {
	ops := make([]Operation, len(c.entries))
	for i, e := range c.entries {
		ops[i] = e.Operation()
	}
	return ops
}

// AddOperation appends e without evaluating it. None is only accepted as
// the first entry.
func (c *Calculation) AddOperation(e Entry) {
	if e.Operation() == None && len(c.entries) != 0 {
		panic(fmt.Sprintf("calculator: none operation at index %d", len(c.entries)))
	}
	c.entries = append(c.entries, e)
}

// SetPrecision changes the precision square roots are solved to. The whole
// log is folded again on the next Result.
func (c *Calculation) SetPrecision(precision uint) {
	c.precision = precision
	c.folded = 0
	c.result = fraction.Fraction{}
}

func (c *Calculation) Clear() {
	c.entries = nil
	c.folded = 0
	c.result = fraction.Fraction{}
}

// Clone returns a deep copy sharing no mutable state with c.
func (c *Calculation) Clone() *Calculation {
	clone := *c
	clone.entries = make([]Entry, len(c.entries))
	for i, e := range c.entries {
		clone.entries[i] = e.clone()
	}
	return &clone
}

// Result folds the entries not yet reflected by the cached result. On error
// the cache and its cursor are left untouched and the last good result is
// returned with the error.
func (c *Calculation) Result() (fraction.Fraction, error) {
	if c.folded == len(c.entries) {
		return c.result, nil
	}

	acc := c.result
	if c.folded == 0 {
		acc = fraction.Fraction{}
	}

	for i := c.folded; i < len(c.entries); i++ {
		next, err := c.apply(i, acc)
		if err != nil {
			return c.result, fmt.Errorf("step %d (%s): %w", i, c.entries[i].Operation(), err)
		}
		acc = next
	}

	c.result = acc
	c.folded = len(c.entries)
	return acc, nil
}

func (c *Calculation) apply(i int, acc fraction.Fraction) (fraction.Fraction, error) {
	switch e := c.entries[i].(type) {
	case OperandEntry:
		switch e.op {
		case None:
			if i != 0 {
				panic(fmt.Sprintf("calculator: none operation at index %d", i))
			}
			return e.operand, nil
		case Add:
			return acc.Add(e.operand), nil
		case Subtract:
			return acc.Sub(e.operand), nil
		case Multiply:
			return acc.Mul(e.operand), nil
		case Divide:
			return acc.Quo(e.operand)
		}

	case *SqrtEntry:
		switch acc.Sign() {
		case 0:
			// 2x vanishes at zero, and zero is its own root
			return acc, nil
		case -1:
			return acc, ErrDomain
		}

		root, err := e.solve(acc, c.precision, c.maxIterations)
		if errors.Is(err, newton.ErrNonConvergence) {
			if c.logger != nil {
				c.logger.Printf("newton method is not converging, aborting, error: %v", err)
			}
			err = nil
		}
		if err != nil {
			return root, err
		}
		// the solver keeps its exact iterate for resuming
		return root.Round(c.precision + sqrtGuardDigits), nil

	case UnaryEntry:
		switch e.op {
		case Inverse:
			return acc.Inv()
		case Percent:
			return acc.Quo(hundred)
		case ToggleSign:
			return acc.Neg(), nil
		}
	}

	panic(fmt.Sprintf("calculator: unexpected entry %T (%s)", c.entries[i], c.entries[i].Operation()))
}
