// Copyright 2025 Certen Protocol
//
// Prime field arithmetic over a 64-bit modulus.
// Every value is carried alongside the modulus it was reduced under;
// mixing values from two different moduli is a programmer error and panics.

package field

import (
	"fmt"
	"math/bits"
)

// Element is a non-negative integer strictly less than P, reduced after
// every operation. The zero value is not usable on its own — always
// obtain Elements through New or an arithmetic method of an existing one.
type Element struct {
	v uint64
	p uint64
}

// New reduces v modulo p and returns the resulting Element.
// p must be an odd prime that fits in 64 bits; New does not primality-test p.
func New(v, p uint64) Element {
	if p < 3 {
		panic(fmt.Sprintf("field: modulus %d is not an odd prime", p))
	}
	return Element{v: v % p, p: p}
}

// Modulus returns the field's modulus.
func (e Element) Modulus() uint64 { return e.p }

// Uint64 returns the element's value as a plain uint64 in [0, p).
func (e Element) Uint64() uint64 { return e.v }

func (e Element) checkCompatible(o Element) {
	if e.p != o.p {
		panic(fmt.Sprintf("field: mixed moduli %d and %d", e.p, o.p))
	}
}

// Add returns e + o mod p.
func (e Element) Add(o Element) Element {
	e.checkCompatible(o)
	sum, carry := bits.Add64(e.v, o.v, 0)
	if carry != 0 || sum >= e.p {
		sum -= e.p
	}
	return Element{v: sum, p: e.p}
}

// Sub returns e - o mod p.
func (e Element) Sub(o Element) Element {
	e.checkCompatible(o)
	diff, borrow := bits.Sub64(e.v, o.v, 0)
	if borrow != 0 {
		diff += e.p
	}
	return Element{v: diff, p: e.p}
}

// Mul returns e * o mod p, using a 128-bit intermediate product.
func (e Element) Mul(o Element) Element {
	e.checkCompatible(o)
	hi, lo := bits.Mul64(e.v, o.v)
	_, rem := bits.Div64(hi%e.p, lo, e.p)
	return Element{v: rem, p: e.p}
}

// Neg returns -e mod p.
func (e Element) Neg() Element {
	if e.v == 0 {
		return e
	}
	return Element{v: e.p - e.v, p: e.p}
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool { return e.v == 0 }

// Equal reports whether e and o carry the same modulus and value.
func (e Element) Equal(o Element) bool {
	return e.p == o.p && e.v == o.v
}

// Pow returns e^n mod p via square-and-multiply.
func (e Element) Pow(n uint64) Element {
	result := New(1, e.p)
	base := e
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	return result
}

// Inv returns the multiplicative inverse of e via the extended Euclidean
// algorithm. Division by zero is a fatal error per the field's invariants,
// so Inv panics on a zero element rather than returning a sentinel.
func (e Element) Inv() Element {
	if e.v == 0 {
		panic("field: inverse of zero")
	}
	// Extended Euclid over (p, v), tracking the Bezout coefficient of v.
	var oldR, r = int64(e.p), int64(e.v)
	var oldS, s = int64(0), int64(1)
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldS, s = s, oldS-q*s
	}
	// oldR is gcd(p, v), which must be 1 since p is prime and v != 0 mod p.
	if oldR != 1 {
		panic("field: element is not invertible under this modulus")
	}
	inv := oldS % int64(e.p)
	if inv < 0 {
		inv += int64(e.p)
	}
	return Element{v: uint64(inv), p: e.p}
}

// Div returns e / o mod p; panics if o is zero (via Inv).
func (e Element) Div(o Element) Element {
	e.checkCompatible(o)
	return e.Mul(o.Inv())
}

// Interpolate evaluates the unique linear polynomial through (0, at0) and
// (1, at1) at point x, i.e. (1-x)*at0 + x*at1. Used by the sum-check
// verifier to fold a round's claimed sum pair against the next challenge.
func Interpolate(at0, at1, x Element) Element {
	at0.checkCompatible(at1)
	at0.checkCompatible(x)
	one := New(1, at0.p)
	oneMinusX := one.Sub(x)
	return at0.Mul(oneMinusX).Add(at1.Mul(x))
}
