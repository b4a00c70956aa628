package main

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/turbekoff/fracbot/pkg/calculator"
)

var (
	ErrUnsupported    = errors.New("unsupported input format")
	ErrPrecisionRange = errors.New("precision out of range")
)

var binaryOperators = map[string]calculator.Operation{
	"+": calculator.Add,
	"-": calculator.Subtract,
	"*": calculator.Multiply,
	"/": calculator.Divide,
}

var unaryOperators = map[string]calculator.Operation{
	"S": calculator.Sqrt,
	"I": calculator.Inverse,
	"%": calculator.Percent,
	"T": calculator.ToggleSign,
}

var memoryOperators = map[string]calculator.MemoryOperation{
	"MC": calculator.MemClear,
	"MR": calculator.MemRecall,
	"MS": calculator.MemSave,
	"M+": calculator.MemAdd,
}

// SessionState is what a front-end shows for a session.
type SessionState struct {
	Display   string `json:"display"`
	Precision uint   `json:"precision"`
	Pending   string `json:"pending,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Session binds a keypad to a calculator for one user. Front-ends run
// concurrently, so every method locks.
type Session struct {
	mu           sync.Mutex
	keypad       *Keypad
	calculator   *calculator.Calculator
	maxPrecision uint
}

func NewSession(precision, maxPrecision uint, logger *log.Logger) *Session {
	if precision > maxPrecision {
		precision = maxPrecision
	}
	return &Session{
		keypad: NewKeypad(precision),
		calculator: calculator.New(
			calculator.WithPrecision(precision),
			calculator.WithLogger(logger),
		),
		maxPrecision: maxPrecision,
	}
}

// Press handles a single key.
func (s *Session) Press(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.press(key)
}

// PressAll handles keys in order and stops at the first unsupported one.
func (s *Session) PressAll(keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, key := range keys {
		if err := s.press(key); err != nil {
			return fmt.Errorf("key %d: %w", i, err)
		}
	}
	return nil
}

func (s *Session) press(key string) error {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		s.processDigit(int(key[0] - '0'))
		return nil
	}
	return s.processOperator(key)
}

func (s *Session) processDigit(digit int) {
	// typing after a finished calculation starts a new one
	if s.calculator.Pending() == calculator.None && !s.calculator.IsEmpty() && !s.keypad.IsTyping() {
		s.calculator.ClearOperation()
	}

	if typed := s.keypad.TypeDigit(digit); typed > s.keypad.Precision() && typed <= s.maxPrecision {
		s.setPrecision(typed)
	}
}

func (s *Session) processOperator(key string) error {
	if op, ok := binaryOperators[key]; ok {
		s.operateBinary(op)
		return nil
	}
	if op, ok := unaryOperators[key]; ok {
		s.operate(op)
		return nil
	}
	if op, ok := memoryOperators[key]; ok {
		s.operateMemory(op)
		return nil
	}

	switch key {
	case ".":
		s.keypad.TypeDecimalPoint()
	case "<":
		s.keypad.TypeBackspace()
	case "C":
		s.keypad.SetToZero()
	case "AC":
		s.keypad.SetToZero()
		s.calculator.ClearOperation()
	case "=":
		s.operate(calculator.None)
	case "P+":
		if s.keypad.Precision() < s.maxPrecision {
			s.setPrecision(s.keypad.Precision() + 1)
		}
	case "P-":
		if s.keypad.Precision() > 0 {
			s.setPrecision(s.keypad.Precision() - 1)
		}
	default:
		return ErrUnsupported
	}
	return nil
}

func (s *Session) operate(op calculator.Operation) {
	result, _ := s.calculator.Operate(op, s.keypad.Value())
	s.keypad.SetValue(result)
}

// operateBinary chains operators: with an operator already pending, the
// typed operand completes it before op becomes pending.
func (s *Session) operateBinary(op calculator.Operation) {
	if s.calculator.Pending() != calculator.None {
		if !s.keypad.IsTyping() {
			return
		}
		s.operate(calculator.None)
		if s.calculator.HasError() {
			return
		}
	}
	s.operate(op)
}

func (s *Session) operateMemory(op calculator.MemoryOperation) {
	value := s.keypad.Value()
	result, err := s.calculator.OperateMemory(op, value)
	if op == calculator.MemRecall && err == nil {
		s.keypad.SetValue(result)
		return
	}
	// the next digit starts a new number
	s.keypad.SetValue(value)
}

func (s *Session) setPrecision(precision uint) {
	s.keypad.SetPrecision(precision)
	s.calculator.SetPrecision(precision)
	if s.keypad.IsTyping() || s.calculator.IsEmpty() {
		return
	}
	if result, err := s.calculator.Result(); err == nil {
		s.keypad.SetValue(result)
	}
}

// SetPrecision changes the display and square root precision.
func (s *Session) SetPrecision(precision uint) error {
	if precision > s.maxPrecision {
		return fmt.Errorf("%w: %d > %d", ErrPrecisionRange, precision, s.maxPrecision)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPrecision(precision)
	return nil
}

func (s *Session) Display() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display()
}

func (s *Session) display() string {
	if s.calculator.HasError() {
		return "E " + s.keypad.String()
	}
	return s.keypad.String()
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SessionState{
		Display:   s.display(),
		Precision: s.keypad.Precision(),
	}
	if op := s.calculator.Pending(); op != calculator.None {
		state.Pending = op.String()
	}
	if err := s.calculator.Err(); err != nil {
		state.Error = err.Error()
	}
	return state
}
