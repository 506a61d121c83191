// Package rational implements the exact fraction type behind every sag number.
package rational

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

var (
	// ErrDivisionByZero is returned for any operation with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrNegativeRoot is returned for an even root of a negative number.
	ErrNegativeRoot = errors.New("even root of a negative number")
	// ErrExponentTooLarge is returned when an integer exponent exceeds MaxExponent.
	ErrExponentTooLarge = errors.New("exponent too large")
	// ErrNotFinite is returned when a float approximation overflows or is undefined.
	ErrNotFinite = errors.New("result is not a finite number")
)

// MaxExponent bounds the magnitude of integer exponents accepted by Pow.
const MaxExponent = 1 << 20

// maxExactRoot is the largest root degree attempted exactly before falling
// back to float approximation.
const maxExactRoot = 64

// Number is an immutable rational in lowest terms with a positive denominator.
// The zero value is 0.
type Number struct {
	r *big.Rat
}

var (
	zeroRat = new(big.Rat)
	bigOne  = big.NewInt(1)
)

func (n Number) rat() *big.Rat {
	if n.r == nil {
		return zeroRat
	}
	return n.r
}

func fromRat(r *big.Rat) Number {
	return Number{r: r}
}

// FromInt returns the integer i as a Number.
func FromInt(i int64) Number {
	return fromRat(new(big.Rat).SetInt64(i))
}

// New builds num/den reduced to lowest terms.
func New(num, den int64) (Number, error) {
	return FromBig(big.NewInt(num), big.NewInt(den))
}

// FromBig builds num/den reduced to lowest terms. The arguments are not modified.
func FromBig(num, den *big.Int) (Number, error) {
	n, d, err := Reduce(num, den)
	if err != nil {
		return Number{}, err
	}
	return fromRat(new(big.Rat).SetFrac(n, d)), nil
}

// Reduce normalises num/den with the Euclidean gcd so that the denominator is
// positive and coprime with the numerator.
func Reduce(num, den *big.Int) (*big.Int, *big.Int, error) {
	if den.Sign() == 0 {
		return nil, nil, ErrDivisionByZero
	}
	n := new(big.Int).Set(num)
	d := new(big.Int).Set(den)
	if d.Sign() < 0 {
		n.Neg(n)
		d.Neg(d)
	}
	if n.Sign() == 0 {
		return n, big.NewInt(1), nil
	}
	g := gcd(new(big.Int).Abs(n), d)
	if g.Cmp(bigOne) != 0 {
		n.Quo(n, g)
		d.Quo(d, g)
	}
	return n, d, nil
}

func gcd(a, b *big.Int) *big.Int {
	x := new(big.Int).Set(a)
	y := new(big.Int).Set(b)
	for y.Sign() != 0 {
		x.Mod(x, y)
		x, y = y, x
	}
	return x
}

// Parse reads a decimal literal such as "42", "3.14" or "1e-3" exactly.
func Parse(lit string) (Number, error) {
	r, ok := new(big.Rat).SetString(lit)
	if !ok {
		return Number{}, fmt.Errorf("invalid number literal %q", lit)
	}
	return fromRat(r), nil
}

// FromFloat returns the exact rational value of a finite float64.
func FromFloat(f float64) (Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}, ErrNotFinite
	}
	return fromRat(new(big.Rat).SetFloat64(f)), nil
}

// Num returns a copy of the numerator.
func (n Number) Num() *big.Int {
	return new(big.Int).Set(n.rat().Num())
}

// Den returns a copy of the (always positive) denominator.
func (n Number) Den() *big.Int {
	return new(big.Int).Set(n.rat().Denom())
}

func (n Number) Add(m Number) Number {
	return fromRat(new(big.Rat).Add(n.rat(), m.rat()))
}

func (n Number) Sub(m Number) Number {
	return fromRat(new(big.Rat).Sub(n.rat(), m.rat()))
}

func (n Number) Mul(m Number) Number {
	return fromRat(new(big.Rat).Mul(n.rat(), m.rat()))
}

func (n Number) Div(m Number) (Number, error) {
	if m.Sign() == 0 {
		return Number{}, ErrDivisionByZero
	}
	return fromRat(new(big.Rat).Quo(n.rat(), m.rat())), nil
}

// Rem returns n - m*trunc(n/m). The result takes the sign of n.
func (n Number) Rem(m Number) (Number, error) {
	if m.Sign() == 0 {
		return Number{}, ErrDivisionByZero
	}
	a, b := n.rat(), m.rat()
	// trunc((an/ad) / (bn/bd)) = trunc(an*bd / (ad*bn))
	num := new(big.Int).Mul(a.Num(), b.Denom())
	den := new(big.Int).Mul(a.Denom(), b.Num())
	q := new(big.Int).Quo(num, den)
	prod := new(big.Rat).Mul(b, new(big.Rat).SetInt(q))
	return fromRat(new(big.Rat).Sub(a, prod)), nil
}

func (n Number) Neg() Number {
	return fromRat(new(big.Rat).Neg(n.rat()))
}

func (n Number) Abs() Number {
	return fromRat(new(big.Rat).Abs(n.rat()))
}

func (n Number) Sign() int {
	return n.rat().Sign()
}

// Cmp compares exactly by cross-multiplication.
func (n Number) Cmp(m Number) int {
	return n.rat().Cmp(m.rat())
}

func (n Number) Equal(m Number) bool {
	return n.Cmp(m) == 0
}

func (n Number) IsInt() bool {
	return n.rat().IsInt()
}

// Int64 returns the value as an int64 when it is integral and fits.
func (n Number) Int64() (int64, bool) {
	if !n.IsInt() {
		return 0, false
	}
	num := n.rat().Num()
	if !num.IsInt64() {
		return 0, false
	}
	return num.Int64(), true
}

// Float64 returns the nearest float64.
func (n Number) Float64() float64 {
	f, _ := n.rat().Float64()
	return f
}

// Floor rounds toward negative infinity.
func (n Number) Floor() Number {
	r := n.rat()
	// Int.Div is Euclidean, which is floor division for a positive divisor.
	q := new(big.Int).Div(r.Num(), r.Denom())
	return fromRat(new(big.Rat).SetInt(q))
}

// Ceil rounds toward positive infinity.
func (n Number) Ceil() Number {
	return n.Neg().Floor().Neg()
}

// Round rounds half away from zero.
func (n Number) Round() Number {
	half := fromRat(big.NewRat(1, 2))
	if n.Sign() < 0 {
		return n.Neg().Add(half).Floor().Neg()
	}
	return n.Add(half).Floor()
}

// Pow raises n to exp. Integer exponents are exact. A fractional exponent p/q is
// exact when n is a perfect q-th power; otherwise the result is the exact value
// of the nearest float64.
func (n Number) Pow(exp Number) (Number, error) {
	if exp.IsInt() {
		return n.powInt(exp.rat().Num())
	}
	p := exp.rat().Num()
	q := exp.rat().Denom()
	if n.Sign() < 0 && q.Bit(0) == 0 {
		return Number{}, ErrNegativeRoot
	}
	if q.IsInt64() && q.Int64() <= maxExactRoot {
		if root, ok := n.exactRoot(int(q.Int64())); ok {
			return root.powInt(p)
		}
	}
	f := math.Pow(n.Float64(), exp.Float64())
	if n.Sign() < 0 {
		// odd root of a negative base: math.Pow returns NaN for non-integral exponents.
		f = -math.Pow(-n.Float64(), exp.Float64())
		if p.Bit(0) == 0 {
			f = -f
		}
	}
	return FromFloat(f)
}

// Sqrt is Pow(1/2).
func (n Number) Sqrt() (Number, error) {
	return n.Pow(fromRat(big.NewRat(1, 2)))
}

func (n Number) powInt(e *big.Int) (Number, error) {
	if e.CmpAbs(big.NewInt(MaxExponent)) > 0 {
		return Number{}, ErrExponentTooLarge
	}
	r := n.rat()
	abs := new(big.Int).Abs(e)
	num := new(big.Int).Exp(r.Num(), abs, nil)
	den := new(big.Int).Exp(r.Denom(), abs, nil)
	if e.Sign() < 0 {
		if num.Sign() == 0 {
			return Number{}, ErrDivisionByZero
		}
		num, den = den, num
	}
	return FromBig(num, den)
}

// exactRoot returns the q-th root of n when both numerator and denominator
// are perfect q-th powers.
func (n Number) exactRoot(q int) (Number, bool) {
	r := n.rat()
	neg := r.Sign() < 0
	num, ok := intRoot(new(big.Int).Abs(r.Num()), q)
	if !ok {
		return Number{}, false
	}
	den, ok := intRoot(r.Denom(), q)
	if !ok {
		return Number{}, false
	}
	if neg {
		num.Neg(num)
	}
	root, err := FromBig(num, den)
	if err != nil {
		return Number{}, false
	}
	return root, true
}

// intRoot finds y with y**q == x by binary search, x >= 0.
func intRoot(x *big.Int, q int) (*big.Int, bool) {
	if x.Sign() == 0 || x.Cmp(bigOne) == 0 {
		return new(big.Int).Set(x), true
	}
	bigQ := big.NewInt(int64(q))
	lo := big.NewInt(1)
	hi := new(big.Int).Lsh(bigOne, uint(x.BitLen()/q+1))
	for lo.Cmp(hi) <= 0 {
		mid := new(big.Int).Add(lo, hi)
		mid.Rsh(mid, 1)
		pow := new(big.Int).Exp(mid, bigQ, nil)
		switch pow.Cmp(x) {
		case 0:
			return mid, true
		case -1:
			lo = mid.Add(mid, bigOne)
		default:
			hi = mid.Sub(mid, bigOne)
		}
	}
	return nil, false
}

// String renders integers plainly and everything else as num/den.
func (n Number) String() string {
	return n.rat().RatString()
}
