package fraction

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// maxFloatDigits caps the fractional digits kept by FromFloat64.
const maxFloatDigits = 6

// scaled returns |f| rounded half-up to prec fractional digits and
// multiplied by 10**prec, together with the sign of f.
func (f Fraction) scaled(prec uint) (neg bool, kept *big.Int) {
	scale := pow10(prec)

	abs := new(big.Int).Abs(f.n())
	q, r := new(big.Int).QuoRem(abs, f.d(), new(big.Int))

	// one more digit than needed decides the rounding
	digits := r.Mul(r, scale)
	digits.Mul(digits, bigTen)
	digits.Quo(digits, f.d())

	last := new(big.Int)
	digits.QuoRem(digits, bigTen, last)

	kept = q.Mul(q, scale)
	kept.Add(kept, digits)
	if last.Int64() >= 5 {
		kept.Add(kept, bigOne)
	}
	return f.Sign() < 0, kept
}

// Round returns the value nearest to f whose denominator divides 10**prec.
// Halves are rounded away from zero.
func (f Fraction) Round(prec uint) Fraction {
	neg, kept := f.scaled(prec)
	if neg {
		kept.Neg(kept)
	}
	return normalize(kept, pow10(prec))
}

// Text renders f rounded to at most prec fractional digits. Trailing zeros
// of the fractional part are dropped, as is the decimal point when nothing
// remains after it.
func (f Fraction) Text(prec uint) string {
	neg, kept := f.scaled(prec)

	digits := kept.String()
	if width := int(prec) + 1; len(digits) < width {
		digits = strings.Repeat("0", width-len(digits)) + digits
	}

	split := len(digits) - int(prec)
	integer, frac := digits[:split], strings.TrimRight(digits[split:], "0")

	var sb strings.Builder
	if neg && kept.Sign() != 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(integer)
	if frac != "" {
		sb.WriteByte('.')
		sb.WriteString(frac)
	}
	return sb.String()
}

// Parse reads a decimal of the form [-]digits[.digits]. At least one digit
// is required; exponents and grouping separators are rejected.
func Parse(text string) (Fraction, error) {
	s, neg := strings.CutPrefix(text, "-")
	integer, frac, _ := strings.Cut(s, ".")

	if integer == "" && frac == "" {
		return Fraction{}, fmt.Errorf("parse %q: %w", text, ErrInvalidArgument)
	}
	if !isDigits(integer) || !isDigits(frac) {
		return Fraction{}, fmt.Errorf("parse %q: %w", text, ErrInvalidArgument)
	}

	num := new(big.Int)
	if integer+frac != "" {
		num.SetString(integer+frac, 10)
	}
	if neg {
		num.Neg(num)
	}
	return normalize(num, pow10(uint(len(frac)))), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FromFloat64 converts d keeping at most six fractional digits. It is lossy
// and meant for values that arrive as floating point from outside.
func FromFloat64(d float64) (Fraction, error) {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return Fraction{}, fmt.Errorf("from float %v: %w", d, ErrInvalidArgument)
	}
	return Parse(strconv.FormatFloat(d, 'f', maxFloatDigits, 64))
}

// MarshalText implements encoding.TextMarshaler using the exact form.
func (f Fraction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText accepts both the exact "n/d" form and decimals.
func (f *Fraction) UnmarshalText(text []byte) error {
	s := string(text)
	numText, denText, isRatio := strings.Cut(s, "/")
	if !isRatio {
		v, err := Parse(s)
		if err != nil {
			return err
		}
		*f = v
		return nil
	}

	num, ok := new(big.Int).SetString(numText, 10)
	if !ok {
		return fmt.Errorf("parse %q: %w", s, ErrInvalidArgument)
	}
	den, ok := new(big.Int).SetString(denText, 10)
	if !ok || den.Sign() <= 0 {
		return fmt.Errorf("parse %q: %w", s, ErrInvalidArgument)
	}

	v, err := New(num, den)
	if err != nil {
		return err
	}
	*f = v
	return nil
}
