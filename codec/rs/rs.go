/*
DESCRIPTION
  rs.go provides the systematic Reed-Solomon encoder and the error-and-
  erasure decoder. Decoding computes syndromes, folds known erasure
  positions into the locator with the extended Euclidean algorithm, finds
  the remaining error positions by Chien search and corrects magnitudes
  with Forney's formula.

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

package rs

import (
	"github.com/pkg/errors"
)

// Codec errors.
var (
	ErrCodewordLength  = errors.New("rs: codeword length out of range")
	ErrTooManyErasures = errors.New("rs: more erasures than parity symbols")
	ErrErasureRange    = errors.New("rs: erasure position out of range")
	ErrUncorrectable   = errors.New("rs: uncorrectable codeword")
)

// Codec encodes and decodes codewords with a fixed number of parity
// symbols. The generator polynomial is g(x) = Π(x - α^i) for i in
// [0, parity). A Codec is stateless after construction and safe for
// sequential reuse.
type Codec struct {
	parity int
	gen    []byte // Generator polynomial, ascending powers.
}

// NewCodec returns a codec producing and consuming the given number of
// parity symbols per codeword.
func NewCodec(parity int) *Codec {
	initTables()
	g := []byte{1}
	for i := 0; i < parity; i++ {
		g = polyMul(g, []byte{gfExp(i), 1}) // (x - α^i); minus is plus here.
	}
	return &Codec{parity: parity, gen: g}
}

// Parity returns the number of parity symbols per codeword.
func (c *Codec) Parity() int { return c.parity }

// Encode appends parity symbols to data and returns the systematic
// codeword. The combined length must not exceed 255 symbols.
func (c *Codec) Encode(data []byte) ([]byte, error) {
	n := len(data) + c.parity
	if n > fieldSize-1 || len(data) == 0 {
		return nil, errors.Wrapf(ErrCodewordLength, "%d symbols", n)
	}

	// The codeword treats the first byte as the highest power, so parity is
	// the remainder of data(x)·x^parity divided by the generator.
	poly := make([]byte, n)
	for i, d := range data {
		poly[n-1-i] = d
	}
	rem := polyMod(poly, c.gen)

	out := make([]byte, n)
	copy(out, data)
	for i := 0; i < c.parity; i++ {
		out[len(data)+i] = rem[c.parity-1-i]
	}
	return out, nil
}

// Decode corrects the codeword in place, treating the supplied positions as
// erasures, and returns the number of symbols whose value changed. It can
// repair e erasures plus up to (parity-e)/2 unknown errors. The codeword is
// left untouched when ErrUncorrectable is returned.
func (c *Codec) Decode(codeword []byte, erasures []int) (int, error) {
	initTables()
	n := len(codeword)
	if n <= c.parity || n > fieldSize-1 {
		return 0, errors.Wrapf(ErrCodewordLength, "%d symbols with %d parity", n, c.parity)
	}
	if len(erasures) > c.parity {
		return 0, errors.Wrapf(ErrTooManyErasures, "%d erasures", len(erasures))
	}
	for _, p := range erasures {
		if p < 0 || p >= n {
			return 0, errors.Wrapf(ErrErasureRange, "position %d", p)
		}
	}

	// Syndromes: the received polynomial evaluated at α^j. All zero means a
	// clean codeword.
	synd := make([]byte, c.parity)
	clean := true
	for j := range synd {
		x := gfExp(j)
		var s byte
		for _, cw := range codeword {
			s = gfMul(s, x) ^ cw
		}
		synd[j] = s
		if s != 0 {
			clean = false
		}
	}
	if clean {
		return 0, nil
	}

	// Erasure locator Γ(x) = Π(1 - X_i·x) with X_i the locator of each
	// erased position.
	gamma := []byte{1}
	for _, p := range erasures {
		gamma = polyMul(gamma, []byte{1, gfExp(n - 1 - p)})
	}

	// Modified syndromes fold the erasures into the key equation.
	xi := polyMul(synd, gamma)
	if len(xi) > c.parity {
		xi = xi[:c.parity]
	}

	lambda, omega, err := c.solveKeyEquation(xi, len(erasures))
	if err != nil {
		return 0, err
	}

	// The full locator covers erasures and located errors.
	psi := polyTrim(polyMul(lambda, gamma))
	degree := polyDegree(psi)

	// Chien search over the whole field; each root α^{-p} marks an errata
	// at power p of the codeword polynomial.
	var positions []int
	for p := 0; p < n; p++ {
		if polyEval(psi, gfInv(gfExp(p))) == 0 {
			positions = append(positions, p)
		}
	}
	if len(positions) != degree {
		return 0, errors.Wrapf(ErrUncorrectable, "locator degree %d, %d roots in range", degree, len(positions))
	}

	// Forney magnitudes: e_p = Ω(X_p^{-1}) / Π_{q≠p}(1 - X_q·X_p^{-1}).
	// Corrections land on a scratch copy so an uncorrectable codeword is
	// handed back unchanged.
	scratch := make([]byte, n)
	copy(scratch, codeword)
	corrected := 0
	for i, p := range positions {
		xpInv := gfInv(gfExp(p))
		den := byte(1)
		for j, q := range positions {
			if j == i {
				continue
			}
			den = gfMul(den, 1^gfMul(gfExp(q), xpInv))
		}
		if den == 0 {
			return 0, errors.Wrap(ErrUncorrectable, "repeated locator root")
		}
		mag := gfDiv(polyEval(omega, xpInv), den)
		if mag != 0 {
			scratch[n-1-p] ^= mag
			corrected++
		}
	}

	// A decode that leaves residual syndromes found a codeword outside the
	// code; report it rather than hand back corrupt symbols.
	for j := 0; j < c.parity; j++ {
		x := gfExp(j)
		var s byte
		for _, cw := range scratch {
			s = gfMul(s, x) ^ cw
		}
		if s != 0 {
			return 0, errors.Wrap(ErrUncorrectable, "residual syndrome after correction")
		}
	}
	copy(codeword, scratch)
	return corrected, nil
}

// solveKeyEquation runs the extended Euclidean algorithm on x^parity and the
// modified syndrome polynomial, stopping once the remainder degree drops
// below (parity+numErasures)/2. It returns the error locator Λ and the
// errata evaluator Ω, both normalized so Λ(0) = 1.
func (c *Codec) solveKeyEquation(xi []byte, numErasures int) (lambda, omega []byte, err error) {
	rPrev := make([]byte, c.parity+1)
	rPrev[c.parity] = 1
	r := polyTrim(xi)
	tPrev := []byte{0}
	t := []byte{1}

	for 2*polyDegree(r) >= c.parity+numErasures {
		q, rem := polyDivMod(rPrev, r)
		rPrev, r = r, polyTrim(rem)
		tPrev, t = t, polyAdd(polyMul(q, t), tPrev)
	}

	t0 := t[0]
	if t0 == 0 {
		return nil, nil, errors.Wrap(ErrUncorrectable, "singular locator")
	}
	inv := gfInv(t0)
	return polyScale(polyTrim(t), inv), polyScale(polyTrim(r), inv), nil
}
