package fraction

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, num, den int64) Fraction {
	t.Helper()
	f, err := New(big.NewInt(num), big.NewInt(den))
	require.NoError(t, err)
	return f
}

func mustParse(t *testing.T, s string) Fraction {
	t.Helper()
	f, err := Parse(s)
	require.NoError(t, err)
	return f
}

func assertReduced(t *testing.T, f Fraction) {
	t.Helper()
	den := f.Denom()
	assert.Equal(t, 1, den.Sign(), "denominator must be positive: %s", f)

	gcd := new(big.Int).GCD(nil, nil, new(big.Int).Abs(f.Num()), den)
	if f.IsZero() {
		assert.Equal(t, int64(1), den.Int64())
		return
	}
	assert.Equal(t, int64(1), gcd.Int64(), "not reduced: %s", f)
}

func TestNew(t *testing.T) {
	tests := []struct {
		num, den int64
		want     string
	}{
		{6, 4, "3/2"},
		{-6, 4, "-3/2"},
		{6, -4, "-3/2"},
		{0, 17, "0"},
		{10, 5, "2"},
		{7, 1, "7"},
	}

	for _, tt := range tests {
		f := mustNew(t, tt.num, tt.den)
		assert.Equal(t, tt.want, f.String())
		assertReduced(t, f)
	}

	_, err := New(big.NewInt(1), big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestScaledEquality(t *testing.T) {
	for _, k := range []int64{-7, -1, 2, 3, 1000} {
		for _, nd := range [][2]int64{{1, 3}, {-5, 9}, {0, 4}, {22, 7}} {
			a := mustNew(t, nd[0], nd[1])
			b := mustNew(t, k*nd[0], k*nd[1])
			assert.True(t, a.Equal(b), "%d*%v", k, nd)
		}
	}
}

func TestZeroValue(t *testing.T) {
	var z Fraction
	assert.True(t, z.IsZero())
	assert.Equal(t, "0", z.String())
	assert.Equal(t, "0", z.Text(4))
	assert.True(t, z.Equal(FromInt64(0)))
	assert.Equal(t, "5", z.Add(FromInt64(5)).String())
}

func TestArithmetic(t *testing.T) {
	a := mustNew(t, 1, 3)
	b := mustNew(t, 1, 6)

	assert.Equal(t, "1/2", a.Add(b).String())
	assert.Equal(t, "1/6", a.Sub(b).String())
	assert.Equal(t, "1/18", a.Mul(b).String())

	q, err := a.Quo(b)
	require.NoError(t, err)
	assert.Equal(t, "2", q.String())

	q, err = a.Quo(b.Neg())
	require.NoError(t, err)
	assert.Equal(t, "-2", q.String())

	q, err = a.Neg().Quo(b.Neg())
	require.NoError(t, err)
	assert.Equal(t, "2", q.String())

	_, err = a.Quo(FromInt64(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Fraction{}.Inv()
	assert.ErrorIs(t, err, ErrDivisionByZero)

	inv, err := mustNew(t, -2, 5).Inv()
	require.NoError(t, err)
	assert.Equal(t, "-5/2", inv.String())

	for _, f := range []Fraction{a, b.Neg(), FromInt64(0), mustNew(t, 123456789, 987)} {
		assert.True(t, f.Add(f.Neg()).Equal(FromInt64(0)))
		assertReduced(t, f.Mul(f))
	}
}

func TestAddDoesNotAlias(t *testing.T) {
	a := mustNew(t, 3, 4)
	sum := a.Add(FromInt64(0))
	sum = sum.Add(FromInt64(1))
	assert.Equal(t, "3/4", a.String())
	assert.Equal(t, "7/4", sum.String())
}

func TestCompare(t *testing.T) {
	a := mustNew(t, 1, 3)
	b := mustNew(t, 1, 2)

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 0, a.Cmp(mustNew(t, 2, 6)))
	assert.True(t, b.Neg().Less(a.Neg()))
	assert.Equal(t, b, b.Abs())
	assert.True(t, b.Neg().Abs().Equal(b))
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   Fraction
		prec uint
		want string
	}{
		{mustNew(t, 2, 3), 4, "6667/10000"},
		{mustNew(t, 1, 3), 2, "33/100"},
		{mustNew(t, 5, 2), 0, "3"},
		{mustNew(t, -5, 2), 0, "-3"},
		{mustNew(t, 1, 8), 2, "13/100"},
		{mustNew(t, 1, 400), 2, "0"},
		{mustNew(t, 7, 1), 3, "7"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Round(tt.prec).String(), "%s at %d", tt.in, tt.prec)
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		in   Fraction
		prec uint
		want string
	}{
		{FromInt64(0), 0, "0"},
		{FromInt64(0), 5, "0"},
		{FromInt64(42), 2, "42"},
		{FromInt64(-42), 0, "-42"},
		{mustNew(t, 1, 2), 2, "0.5"},
		{mustNew(t, 1, 2), 0, "1"},
		{mustNew(t, 2, 3), 4, "0.6667"},
		{mustNew(t, -2, 3), 4, "-0.6667"},
		{mustNew(t, 1, 1000), 3, "0.001"},
		{mustNew(t, 1, 1000), 2, "0"},
		{mustNew(t, -1, 1000), 2, "0"},
		{mustNew(t, 1, 200), 2, "0.01"},
		{mustNew(t, 123, 100), 1, "1.2"},
		{mustNew(t, 1999, 1000), 2, "2"},
		{mustNew(t, 99999, 100000), 4, "1"},
		{mustNew(t, 1, 7), 10, "0.1428571429"},
		{mustNew(t, 22, 7), 3, "3.143"},
		{mustNew(t, -1005, 100), 1, "-10.1"},
		{mustNew(t, 3, 40), 5, "0.075"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Text(tt.prec), "%s at %d", tt.in, tt.prec)
	}
}

func TestTextDigitBound(t *testing.T) {
	values := []Fraction{
		mustNew(t, 1, 3), mustNew(t, -22, 7), mustNew(t, 1, 1024), FromInt64(10),
	}
	for _, v := range values {
		for p := uint(0); p < 12; p++ {
			text := v.Round(p).Text(p)
			_, frac, _ := strings.Cut(text, ".")
			assert.LessOrEqual(t, len(frac), int(p), text)
			assert.Equal(t, v.Round(p).Sign() < 0, strings.HasPrefix(text, "-"), text)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"12", "12"},
		{"-12", "-12"},
		{"1.5", "3/2"},
		{"-1.5", "-3/2"},
		{"-0.25", "-1/4"},
		{".5", "1/2"},
		{"5.", "5"},
		{"007.100", "71/10"},
		{"123456789012345678901234567890.1", "1234567890123456789012345678901/10"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mustParse(t, tt.in).String(), tt.in)
	}

	for _, bad := range []string{"", "-", ".", "-.", "1.2.3", "1e5", "1,000", "+1", "--1", "0x10", " 1", "1_000"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument, bad)
	}
}

func TestParseTextRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "-1", "3.14159", "-0.001", "1000000.5"} {
		assert.Equal(t, s, mustParse(t, s).Text(10))
	}
}

func TestFromFloat64(t *testing.T) {
	f, err := FromFloat64(0.5)
	require.NoError(t, err)
	assert.Equal(t, "1/2", f.String())

	f, err = FromFloat64(-3.25)
	require.NoError(t, err)
	assert.Equal(t, "-13/4", f.String())

	f, err = FromFloat64(1.0 / 3.0)
	require.NoError(t, err)
	assert.Equal(t, "333333/1000000", f.String())

	assert.InDelta(t, 0.333333, f.Float64(), 1e-12)

	_, err = FromFloat64(nanValue())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestTextMarshaling(t *testing.T) {
	b, err := mustNew(t, -3, 9).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "-1/3", string(b))

	var f Fraction
	require.NoError(t, f.UnmarshalText(b))
	assert.Equal(t, "-1/3", f.String())

	require.NoError(t, f.UnmarshalText([]byte("2.75")))
	assert.Equal(t, "11/4", f.String())

	assert.Error(t, f.UnmarshalText([]byte("1/0")))
	assert.Error(t, f.UnmarshalText([]byte("a/2")))
}
