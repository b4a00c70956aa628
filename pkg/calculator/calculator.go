// Package calculator turns calculator key presses into an exact calculation
// log and evaluates it. Square roots are the only inexact step; they are
// solved to the configured precision and re-solved when it grows.
package calculator

import (
	"fmt"

	"github.com/turbekoff/fracbot/pkg/fraction"
)

// Calculator holds the working calculation, the memory register and the
// binary operator waiting for its second operand. It is not safe for
// concurrent use.
type Calculator struct {
	current   *Calculation
	mem       *Calculation
	operation Operation
	precision uint
	err       error
}

func New(opts ...Option) *Calculator {
	o := newOptions(opts)
	return &Calculator{
		current:   NewCalculation(opts...),
		mem:       NewCalculation(opts...),
		precision: o.precision,
	}
}

// Operate records op applied to value and returns the updated result.
// None (the equals key) and binary operators are two-step: the first call
// remembers the operator, the second one records it with its operand.
//
// Errors are sticky. Once an evaluation fails, Operate returns the same
// error without touching the log until ClearError or ClearOperation.
func (c *Calculator) Operate(op Operation, value fraction.Fraction) (fraction.Fraction, error) {
	if c.err != nil {
		return c.current.result, c.err
	}

	if c.current.IsEmpty() {
		c.current.AddOperation(NewOperand(None, value))
	}

	if op == None || op.IsBinary() {
		if c.operation == None {
			c.operation = op
		} else {
			c.current.AddOperation(NewOperand(c.operation, value))
			c.operation = None
		}
	} else {
		c.current.AddOperation(NewEntry(op, value))
	}

	return c.evaluate(c.current)
}

// OperateMemory applies a memory key and returns the memory result.
// MemSave with an empty working calculation saves value itself.
func (c *Calculator) OperateMemory(op MemoryOperation, value fraction.Fraction) (fraction.Fraction, error) {
	switch op {
	case MemClear:
		c.mem.Clear()
	case MemRecall:
		c.current = c.mem.Clone()
	case MemSave:
		if c.current.IsEmpty() {
			c.mem.Clear()
			c.mem.AddOperation(NewOperand(None, value))
			break
		}
		c.mem = c.current.Clone()
	case MemAdd:
		c.mem.AddOperation(NewOperand(Add, value))
	default:
		panic(fmt.Sprintf("calculator: unexpected memory operation %s", op))
	}

	return c.evaluate(c.mem)
}

func (c *Calculator) evaluate(calc *Calculation) (fraction.Fraction, error) {
	result, err := calc.Result()
	if err != nil {
		c.err = err
	}
	return result, err
}

// Result returns the current result without recording anything.
func (c *Calculator) Result() (fraction.Fraction, error) {
	return c.evaluate(c.current)
}

func (c *Calculator) Memory() (fraction.Fraction, error) {
	return c.evaluate(c.mem)
}

// Pending returns the operator waiting for its second operand, or None.
func (c *Calculator) Pending() Operation { return c.operation }

// IsEmpty reports whether the working calculation has no entries.
func (c *Calculator) IsEmpty() bool { return c.current.IsEmpty() }

func (c *Calculator) Precision() uint { return c.precision }

func (c *Calculator) SetPrecision(precision uint) {
	c.precision = precision
	c.current.SetPrecision(precision)
	c.mem.SetPrecision(precision)
}

func (c *Calculator) HasError() bool { return c.err != nil }

func (c *Calculator) Err() error { return c.err }

func (c *Calculator) ClearError() { c.err = nil }

// ClearOperation drops the working calculation, the pending operator and
// the error. Memory is kept.
func (c *Calculator) ClearOperation() {
	c.ClearError()
	c.current.Clear()
	c.operation = None
}
