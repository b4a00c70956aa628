// Package fraction implements exact rational numbers kept in lowest terms,
// with correctly rounded decimal rendering.
package fraction

import (
	"errors"
	"math/big"
)

var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrInvalidArgument = errors.New("invalid argument")
)

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
	bigTen  = big.NewInt(10)
)

// Fraction is an immutable rational number. The denominator is always
// positive and coprime with the numerator; zero is stored as 0/1.
// The zero value is 0.
type Fraction struct {
	num *big.Int
	den *big.Int
}

// New returns num/den reduced to lowest terms.
func New(num, den *big.Int) (Fraction, error) {
	if den == nil || den.Sign() == 0 {
		return Fraction{}, ErrInvalidArgument
	}
	if num == nil {
		num = bigZero
	}
	return normalize(new(big.Int).Set(num), new(big.Int).Set(den)), nil
}

// FromInt64 returns the integer v as a fraction.
func FromInt64(v int64) Fraction {
	return Fraction{num: big.NewInt(v), den: big.NewInt(1)}
}

// FromBigInt returns the integer v as a fraction.
func FromBigInt(v *big.Int) Fraction {
	return Fraction{num: new(big.Int).Set(v), den: big.NewInt(1)}
}

// normalize takes ownership of num and den.
func normalize(num, den *big.Int) Fraction {
	if num.Sign() == 0 {
		return Fraction{num: num, den: den.SetInt64(1)}
	}
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}

	gcd := new(big.Int).GCD(nil, nil, new(big.Int).Abs(num), den)
	if gcd.Cmp(bigOne) != 0 {
		num.Quo(num, gcd)
		den.Quo(den, gcd)
	}
	return Fraction{num: num, den: den}
}

func (f Fraction) n() *big.Int {
	if f.num == nil {
		return bigZero
	}
	return f.num
}

func (f Fraction) d() *big.Int {
	if f.den == nil {
		return bigOne
	}
	return f.den
}

// Num returns a copy of the numerator.
func (f Fraction) Num() *big.Int {
	return new(big.Int).Set(f.n())
}

// Denom returns a copy of the denominator.
func (f Fraction) Denom() *big.Int {
	return new(big.Int).Set(f.d())
}

func (f Fraction) Add(g Fraction) Fraction {
	if g.IsZero() {
		return f
	}

	num := new(big.Int).Mul(f.n(), g.d())
	num.Add(num, new(big.Int).Mul(g.n(), f.d()))
	return normalize(num, new(big.Int).Mul(f.d(), g.d()))
}

func (f Fraction) Sub(g Fraction) Fraction {
	return f.Add(g.Neg())
}

func (f Fraction) Mul(g Fraction) Fraction {
	return normalize(
		new(big.Int).Mul(f.n(), g.n()),
		new(big.Int).Mul(f.d(), g.d()),
	)
}

// Quo returns f/g, or ErrDivisionByZero if g is zero.
func (f Fraction) Quo(g Fraction) (Fraction, error) {
	if g.IsZero() {
		return Fraction{}, ErrDivisionByZero
	}

	num := new(big.Int).Mul(f.n(), g.d())
	den := new(big.Int).Mul(f.d(), new(big.Int).Abs(g.n()))
	if g.n().Sign() < 0 {
		num.Neg(num)
	}
	return normalize(num, den), nil
}

// Inv returns 1/f.
func (f Fraction) Inv() (Fraction, error) {
	return FromInt64(1).Quo(f)
}

func (f Fraction) Neg() Fraction {
	return Fraction{num: new(big.Int).Neg(f.n()), den: f.Denom()}
}

func (f Fraction) Abs() Fraction {
	if f.Sign() >= 0 {
		return f
	}
	return f.Neg()
}

// Sign returns -1, 0 or +1.
func (f Fraction) Sign() int {
	return f.n().Sign()
}

func (f Fraction) IsZero() bool {
	return f.Sign() == 0
}

func (f Fraction) IsInt() bool {
	return f.d().Cmp(bigOne) == 0
}

// Cmp compares f and g by the sign of the numerator of f-g.
func (f Fraction) Cmp(g Fraction) int {
	return f.Sub(g).Sign()
}

func (f Fraction) Less(g Fraction) bool {
	return f.Cmp(g) < 0
}

// Equal reports structural equality, which is value equality because every
// fraction is kept reduced.
func (f Fraction) Equal(g Fraction) bool {
	return f.n().Cmp(g.n()) == 0 && f.d().Cmp(g.d()) == 0
}

// Float64 returns the nearest float64 value of f.
func (f Fraction) Float64() float64 {
	v, _ := new(big.Rat).SetFrac(f.n(), f.d()).Float64()
	return v
}

// String returns the exact value as "n/d", or "n" for integers.
func (f Fraction) String() string {
	if f.IsInt() {
		return f.n().String()
	}
	return f.n().String() + "/" + f.d().String()
}

// pow10 returns 10**n.
func pow10(n uint) *big.Int {
	return new(big.Int).Exp(bigTen, new(big.Int).SetUint64(uint64(n)), nil)
}
