package newton

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbekoff/fracbot/pkg/fraction"
)

func parse(t *testing.T, s string) fraction.Fraction {
	t.Helper()
	f, err := fraction.Parse(s)
	require.NoError(t, err)
	return f
}

func sqrt(n fraction.Fraction, precision uint, opts ...Option) (fraction.Fraction, error) {
	switch n.Sign() {
	case 0:
		return n, nil
	case -1:
		return fraction.Fraction{}, fmt.Errorf("square root of %s: %w", n, fraction.ErrInvalidArgument)
	}

	function, derivative := SquareRoot(n)
	return New(function, derivative, precision, SqrtGuess(n), opts...).Value()
}

func assertSquareWithin(t *testing.T, root, n fraction.Fraction, precision uint) {
	t.Helper()
	residual := root.Mul(root).Sub(n).Abs()
	assert.True(t, residual.Less(epsilon(precision)), "|%s^2 - %s| = %s", root.Text(precision+2), n, residual.Text(precision+4))
}

func TestSqrt(t *testing.T) {
	tests := []struct {
		n         string
		precision uint
		want      string
	}{
		{"2", 10, "1.4142135624"},
		{"2", 0, "1"},
		{"10", 5, "3.16228"},
		{"0.5", 8, "0.70710678"},
		{"3", 20, "1.73205080756887729353"},
		{"9", 4, "3"},
		{"0.0001", 6, "0.01"},
		{"2.25", 3, "1.5"},
	}

	for _, tt := range tests {
		n := parse(t, tt.n)
		root, err := sqrt(n, tt.precision)
		require.NoError(t, err, tt.n)
		assert.Equal(t, tt.want, root.Text(tt.precision), "sqrt(%s) at %d", tt.n, tt.precision)
		assertSquareWithin(t, root, n, tt.precision)
	}
}

func TestSqrtResidualBound(t *testing.T) {
	for _, s := range []string{"2", "7", "0.3", "12345678901234567890", "1000000.000001"} {
		n := parse(t, s)
		for p := uint(0); p <= 25; p += 5 {
			root, err := sqrt(n, p)
			require.NoError(t, err)
			assertSquareWithin(t, root, n, p)
		}
	}
}

func TestSqrtEdgeCases(t *testing.T) {
	root, err := sqrt(fraction.Fraction{}, 10)
	require.NoError(t, err)
	assert.True(t, root.IsZero())

	_, err = sqrt(fraction.FromInt64(-4), 10)
	assert.ErrorIs(t, err, fraction.ErrInvalidArgument)
}

func TestSqrtGuess(t *testing.T) {
	assert.Equal(t, "3/2", SqrtGuess(parse(t, "2.25")).String())
	assert.Equal(t, "2", SqrtGuess(fraction.FromInt64(2)).String())
	assert.True(t, SqrtGuess(fraction.FromInt64(0)).IsZero())

	huge := new(big.Int).Exp(big.NewInt(10), big.NewInt(40), nil)
	assert.Equal(t, "100000000000000000000", SqrtGuess(fraction.FromBigInt(huge)).String())

	for _, s := range []string{"2", "0.1", "99", "123456.789"} {
		n := parse(t, s)
		g := SqrtGuess(n)
		assert.False(t, g.Mul(g).Less(n), "guess for %s must not be below the root", s)
	}
}

func TestExactRootStopsImmediately(t *testing.T) {
	n := fraction.FromInt64(49)
	function, derivative := SquareRoot(n)
	m := New(function, derivative, 30, SqrtGuess(n))

	root, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "7", root.String())
	assert.Equal(t, 1, m.Iterations())
	assert.Equal(t, uint(32), m.Precision())
}

func TestResumeAfterPrecisionIncrease(t *testing.T) {
	n := fraction.FromInt64(2)
	function, derivative := SquareRoot(n)
	m := New(function, derivative, 4, SqrtGuess(n))

	low, err := m.Value()
	require.NoError(t, err)
	assertSquareWithin(t, low, n, 4)
	first := m.Iterations()
	assert.Greater(t, first, 0)

	// already satisfied: nothing more to do
	again, err := m.Value()
	require.NoError(t, err)
	assert.True(t, again.Equal(low))
	assert.Equal(t, first, m.Iterations())

	m.SetNeededPrecision(2)
	assert.Equal(t, uint(4), m.NeededPrecision())

	m.SetNeededPrecision(40)
	high, err := m.Value()
	require.NoError(t, err)
	assertSquareWithin(t, high, n, 40)
	assert.Greater(t, m.Iterations(), first)

	fresh := New(function, derivative, 40, SqrtGuess(n))
	_, err = fresh.Value()
	require.NoError(t, err)
	assert.LessOrEqual(t, m.Iterations(), fresh.Iterations()+1)
}

func TestClone(t *testing.T) {
	n := fraction.FromInt64(5)
	function, derivative := SquareRoot(n)
	m := New(function, derivative, 3, SqrtGuess(n))
	_, err := m.Value()
	require.NoError(t, err)

	c := m.Clone()
	c.SetNeededPrecision(30)
	_, err = c.Value()
	require.NoError(t, err)

	assert.Equal(t, uint(3), m.NeededPrecision())
	assert.Less(t, m.Iterations(), c.Iterations())
}

func TestDerivativeVanishes(t *testing.T) {
	function, derivative := SquareRoot(fraction.FromInt64(2))
	m := New(function, derivative, 5, fraction.Fraction{})

	_, err := m.Value()
	assert.ErrorIs(t, err, fraction.ErrDivisionByZero)
}

func TestNonConvergence(t *testing.T) {
	// x*x + 1 has no real root
	function := func(x fraction.Fraction) fraction.Fraction {
		return x.Mul(x).Add(fraction.FromInt64(1))
	}
	derivative := func(x fraction.Fraction) fraction.Fraction {
		return two.Mul(x)
	}

	m := New(function, derivative, 5, fraction.FromInt64(2), WithMaxIterations(10))
	estimate, err := m.Value()
	assert.ErrorIs(t, err, ErrNonConvergence)
	assert.Equal(t, 10, m.Iterations())
	assert.False(t, estimate.IsZero())
}
