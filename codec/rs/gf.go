/*
DESCRIPTION
  gf.go implements arithmetic over GF(2^8) with the data-matrix primitive
  polynomial 0x12D and generator element 2. The log and antilog tables are
  built once on first use and are immutable thereafter.

AUTHORS
  Dan Kortschak <dan@ausocean.org>
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rs implements a systematic Reed-Solomon codec over GF(2^8) with
// support for erasure positions, using the data-matrix field so codewords
// interoperate with that standard.
package rs

import "sync"

// Field parameters.
const (
	fieldSize = 256
	primPoly  = 0x12d
	generator = 2
)

var (
	tablesOnce sync.Once

	// expTable is doubled so products of logs index without a modulo.
	expTable [2 * (fieldSize - 1)]byte
	logTable [fieldSize]byte
)

func initTables() {
	tablesOnce.Do(func() {
		x := 1
		for i := 0; i < fieldSize-1; i++ {
			expTable[i] = byte(x)
			expTable[i+fieldSize-1] = byte(x)
			logTable[x] = byte(i)
			x *= generator
			if x >= fieldSize {
				x ^= primPoly
			}
		}
	})
}

// gfMul returns the field product of a and b.
func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[int(logTable[a])+int(logTable[b])]
}

// gfDiv returns a/b. b must be non-zero.
func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	return expTable[int(logTable[a])+fieldSize-1-int(logTable[b])]
}

// gfInv returns the multiplicative inverse of a. a must be non-zero.
func gfInv(a byte) byte {
	return expTable[fieldSize-1-int(logTable[a])]
}

// gfExp returns generator^n for n >= 0.
func gfExp(n int) byte {
	return expTable[n%(fieldSize-1)]
}

// Polynomials are slices of coefficients in ascending powers, so p[i] is the
// coefficient of x^i. The zero polynomial is any all-zero slice.

// polyDegree returns the degree of p, or -1 for the zero polynomial.
func polyDegree(p []byte) int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0 {
			return i
		}
	}
	return -1
}

// polyAdd returns a + b.
func polyAdd(a, b []byte) []byte {
	if len(b) > len(a) {
		a, b = b, a
	}
	out := make([]byte, len(a))
	copy(out, a)
	for i, c := range b {
		out[i] ^= c
	}
	return out
}

// polyMul returns a · b.
func polyMul(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b)-1)
	for i, ca := range a {
		if ca == 0 {
			continue
		}
		for j, cb := range b {
			out[i+j] ^= gfMul(ca, cb)
		}
	}
	return out
}

// polyScale returns p scaled by the field element s.
func polyScale(p []byte, s byte) []byte {
	out := make([]byte, len(p))
	for i, c := range p {
		out[i] = gfMul(c, s)
	}
	return out
}

// polyMod returns a mod b. b must be non-zero.
func polyMod(a, b []byte) []byte {
	db := polyDegree(b)
	rem := make([]byte, len(a))
	copy(rem, a)
	lead := gfInv(b[db])
	for d := polyDegree(rem); d >= db; d = polyDegree(rem) {
		f := gfMul(rem[d], lead)
		for i := 0; i <= db; i++ {
			rem[d-db+i] ^= gfMul(f, b[i])
		}
	}
	return rem
}

// polyDivMod returns the quotient and remainder of a / b. b must be
// non-zero.
func polyDivMod(a, b []byte) (q, r []byte) {
	db := polyDegree(b)
	rem := make([]byte, len(a))
	copy(rem, a)
	da := polyDegree(rem)
	if da < db {
		return []byte{0}, rem
	}
	quot := make([]byte, da-db+1)
	lead := gfInv(b[db])
	for d := polyDegree(rem); d >= db; d = polyDegree(rem) {
		f := gfMul(rem[d], lead)
		quot[d-db] = f
		for i := 0; i <= db; i++ {
			rem[d-db+i] ^= gfMul(f, b[i])
		}
	}
	return quot, rem
}

// polyEval evaluates p at the field element x by Horner's rule.
func polyEval(p []byte, x byte) byte {
	var y byte
	for i := len(p) - 1; i >= 0; i-- {
		y = gfMul(y, x) ^ p[i]
	}
	return y
}

// polyTrim returns p without trailing zero coefficients.
func polyTrim(p []byte) []byte {
	return p[:polyDegree(p)+1]
}
