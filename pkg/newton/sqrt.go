package newton

import (
	"math/big"

	"github.com/turbekoff/fracbot/pkg/fraction"
)

var two = fraction.FromInt64(2)

// SquareRoot returns the function x*x - n and its derivative 2x.
func SquareRoot(n fraction.Fraction) (function, derivative Func) {
	function = func(x fraction.Fraction) fraction.Fraction {
		return x.Mul(x).Sub(n)
	}
	derivative = func(x fraction.Fraction) fraction.Fraction {
		return two.Mul(x)
	}
	return function, derivative
}

// SqrtGuess returns a starting point for the square root of a positive n:
// the exact root when num*den is a perfect square, otherwise
// (isqrt(num*den)+1)/den, which lies above the root so that the iterates
// decrease monotonically towards it.
func SqrtGuess(n fraction.Fraction) fraction.Fraction {
	if n.Sign() <= 0 {
		return fraction.Fraction{}
	}

	den := n.Denom()
	product := new(big.Int).Mul(n.Num(), den)
	root := new(big.Int).Sqrt(product)
	if new(big.Int).Mul(root, root).Cmp(product) != 0 {
		root.Add(root, big.NewInt(1))
	}

	guess, _ := fraction.New(root, den)
	return guess
}
