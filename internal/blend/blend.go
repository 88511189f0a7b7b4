// Package blend provides the byte-exact blending math used by the host
// compositor.
//
// All helpers avoid integer division by using Alvy Ray Smith's exact
// shift formula. Exactness matters here: a coverage of zero must leave
// the destination byte untouched, bit for bit, or a perfectly flat frame
// would no longer round-trip through compositing unchanged.
//
// Reference: Alvy Ray Smith's technical memos, http://alvyray.com/Memos/
package blend

// Div255 divides x by 255 exactly without using division.
//
// Formula: ((x + 1) + ((x + 1) >> 8)) >> 8
//
// The intermediate sum is widened to 32 bits: x+1 alone wraps uint16 for
// x >= 65280. Exact for all uint16 inputs, so Lerp(d, s, 0) == d and
// Lerp(d, s, 255) == s hold as identities.
func Div255(x uint16) uint16 {
	t := uint32(x) + 1
	return uint16((t + (t >> 8)) >> 8)
}

// MulDiv255 multiplies two bytes and divides by 255 exactly.
func MulDiv255(a, b byte) byte {
	return byte(Div255(uint16(a) * uint16(b)))
}

// Lerp interpolates from d to s by coverage t (0 = d, 255 = s).
func Lerp(d, s, t byte) byte {
	return byte(Div255(uint16(d)*uint16(255-t) + uint16(s)*uint16(t)))
}

// Darken returns the per-channel minimum, the darken blend mode.
func Darken(s, d byte) byte {
	if s < d {
		return s
	}
	return d
}

// MaxDist returns the largest per-channel absolute distance between two
// RGB triples. Used as the color-key coverage for the edge map.
func MaxDist(r1, g1, b1, r2, g2, b2 byte) byte {
	d := absDiff(r1, r2)
	if v := absDiff(g1, g2); v > d {
		d = v
	}
	if v := absDiff(b1, b2); v > d {
		d = v
	}
	return d
}

func absDiff(a, b byte) byte {
	if a > b {
		return a - b
	}
	return b - a
}
