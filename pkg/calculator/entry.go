package calculator

import (
	"fmt"

	"github.com/turbekoff/fracbot/pkg/fraction"
	"github.com/turbekoff/fracbot/pkg/newton"
)

// Entry is one step of a Calculation. Its concrete type follows from the
// operation: OperandEntry for None and the binary operations, *SqrtEntry
// for Sqrt and UnaryEntry for Inverse, Percent and ToggleSign.
type Entry interface {
	Operation() Operation
	clone() Entry
}

// NewEntry builds the entry matching op. The operand is dropped for
// operations that do not carry one.
func NewEntry(op Operation, operand fraction.Fraction) Entry {
	switch {
	case op.HasOperand():
		return NewOperand(op, operand)
	case op == Sqrt:
		return NewSqrt()
	default:
		return NewUnary(op)
	}
}

type OperandEntry struct {
	op      Operation
	operand fraction.Fraction
}

func NewOperand(op Operation, operand fraction.Fraction) OperandEntry {
	if !op.HasOperand() {
		panic(fmt.Sprintf("calculator: %s does not take an operand", op))
	}
	return OperandEntry{op: op, operand: operand}
}

func (e OperandEntry) Operation() Operation       { return e.op }
func (e OperandEntry) Operand() fraction.Fraction { return e.operand }
func (e OperandEntry) clone() Entry               { return e }

type UnaryEntry struct {
	op Operation
}

func NewUnary(op Operation) UnaryEntry {
	switch op {
	case Inverse, Percent, ToggleSign:
		return UnaryEntry{op: op}
	}
	panic(fmt.Sprintf("calculator: %s is not a unary operation", op))
}

func (e UnaryEntry) Operation() Operation { return e.op }
func (e UnaryEntry) clone() Entry         { return e }

// SqrtEntry owns the solver of its square root so that replaying it at a
// higher precision continues the earlier iteration.
type SqrtEntry struct {
	guess     *fraction.Fraction
	solver    *newton.Method
	radicand  fraction.Fraction
	precision uint
}

func NewSqrt() *SqrtEntry {
	return &SqrtEntry{}
}

// NewSqrtWithGuess seeds the solver with guess instead of the default
// starting point. The guess must be positive.
func NewSqrtWithGuess(guess fraction.Fraction) *SqrtEntry {
	return &SqrtEntry{guess: &guess}
}

func (e *SqrtEntry) Operation() Operation { return Sqrt }

// Precision returns the number of digits reached by the last solve.
func (e *SqrtEntry) Precision() uint { return e.precision }

// Solved reports whether the entry has been evaluated at least once.
func (e *SqrtEntry) Solved() bool { return e.solver != nil }

func (e *SqrtEntry) Iterations() int {
	if e.solver == nil {
		return 0
	}
	return e.solver.Iterations()
}

func (e *SqrtEntry) clone() Entry {
	c := *e
	if e.guess != nil {
		guess := *e.guess
		c.guess = &guess
	}
	if e.solver != nil {
		c.solver = e.solver.Clone()
	}
	return &c
}

// solve returns the square root of a positive radicand. A solver created
// for another radicand is replaced by one starting from its last iterate.
func (e *SqrtEntry) solve(radicand fraction.Fraction, precision uint, maxIterations int) (fraction.Fraction, error) {
	if e.solver == nil || !e.radicand.Equal(radicand) {
		guess := newton.SqrtGuess(radicand)
		switch {
		case e.solver != nil && e.solver.Estimate().Sign() > 0:
			guess = e.solver.Estimate()
		case e.guess != nil:
			guess = *e.guess
		}

		function, derivative := newton.SquareRoot(radicand)
		e.solver = newton.New(function, derivative, precision, guess,
			newton.WithMaxIterations(maxIterations))
		e.radicand = radicand
	}

	e.solver.SetNeededPrecision(precision)
	value, err := e.solver.Value()
	e.precision = e.solver.Precision()
	return value, err
}
