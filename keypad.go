package main

import (
	"math/big"
	"strings"

	"github.com/turbekoff/fracbot/pkg/fraction"
)

type keypadState int

const (
	stateExternal keypadState = iota
	stateTypingInteger
	stateTypingDecimal
)

// Keypad turns typed digits into a value. It does no arithmetic; values
// coming back from the calculator are shown rounded to the precision.
type Keypad struct {
	intValue   *big.Int
	fracValue  *big.Int
	fracLength uint

	value     fraction.Fraction
	precision uint
	state     keypadState
}

func NewKeypad(precision uint) *Keypad {
	return &Keypad{
		intValue:  new(big.Int),
		fracValue: new(big.Int),
		precision: precision,
	}
}

// TypeDigit appends d and returns the number of typed fractional digits.
func (k *Keypad) TypeDigit(d int) uint {
	digit := big.NewInt(int64(d))

	switch k.state {
	case stateExternal:
		k.state = stateTypingInteger
		k.intValue.Set(digit)
		k.fracValue.SetInt64(0)
		k.fracLength = 0
	case stateTypingInteger:
		k.intValue.Mul(k.intValue, big.NewInt(10))
		k.intValue.Add(k.intValue, digit)
	case stateTypingDecimal:
		k.fracValue.Mul(k.fracValue, big.NewInt(10))
		k.fracValue.Add(k.fracValue, digit)
		k.fracLength++
	}
	return k.fracLength
}

func (k *Keypad) TypeDecimalPoint() {
	switch k.state {
	case stateExternal:
		k.intValue.SetInt64(0)
		k.fracValue.SetInt64(0)
		k.fracLength = 0
		k.state = stateTypingDecimal
	case stateTypingInteger:
		k.state = stateTypingDecimal
	}
}

func (k *Keypad) TypeBackspace() {
	switch k.state {
	case stateExternal:
		k.SetToZero()
	case stateTypingDecimal:
		if k.fracLength > 0 {
			k.fracValue.Quo(k.fracValue, big.NewInt(10))
			k.fracLength--
			return
		}
		k.state = stateTypingInteger
	case stateTypingInteger:
		k.intValue.Quo(k.intValue, big.NewInt(10))
	}
}

// IsTyping reports whether the value comes from typed digits.
func (k *Keypad) IsTyping() bool {
	return k.state != stateExternal
}

func (k *Keypad) Value() fraction.Fraction {
	if k.state == stateExternal {
		return k.value
	}

	scale := new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(uint64(k.fracLength)), nil)
	sum := new(big.Int).Mul(k.intValue, scale)
	sum.Add(sum, k.fracValue)

	value, _ := fraction.New(sum, scale)
	return value
}

func (k *Keypad) SetValue(value fraction.Fraction) {
	k.state = stateExternal
	k.value = value
}

func (k *Keypad) SetToZero() {
	k.intValue.SetInt64(0)
	k.fracValue.SetInt64(0)
	k.fracLength = 0
	k.value = fraction.Fraction{}
	k.state = stateExternal
}

func (k *Keypad) Precision() uint { return k.precision }

func (k *Keypad) SetPrecision(precision uint) {
	k.precision = precision
}

// String echoes typed input as typed, including trailing zeros and a
// trailing decimal point, and renders other values at the precision.
func (k *Keypad) String() string {
	if k.state == stateExternal {
		return k.value.Text(k.precision)
	}

	var sb strings.Builder
	sb.WriteString(k.intValue.String())
	if k.state == stateTypingDecimal {
		sb.WriteByte('.')
		if k.fracLength > 0 {
			frac := k.fracValue.String()
			sb.WriteString(strings.Repeat("0", int(k.fracLength)-len(frac)))
			sb.WriteString(frac)
		}
	}
	return sb.String()
}
