package kernel

// Luminance computes the BT.601 luma of each BGRA pixel using integer
// arithmetic: (77*R + 150*G + 29*B) >> 8. The coefficients sum to 256 so
// the result stays in [0, 255] without clamping.
func Luminance(bgra []byte, width, height int) []byte {
	lum := make([]byte, width*height)
	for i := 0; i < width*height; i++ {
		o := i * 4
		b := int(bgra[o+0])
		g := int(bgra[o+1])
		r := int(bgra[o+2])
		lum[i] = byte((77*r + 150*g + 29*b) >> 8)
	}
	return lum
}

// Identity copies BGRA input to RGBA output unchanged except for the
// channel swizzle. Alpha is forced opaque, like every kernel output.
func Identity(dst, bgra []byte, width, height int) {
	for i := 0; i < width*height; i++ {
		o := i * 4
		dst[o+0] = bgra[o+2]
		dst[o+1] = bgra[o+1]
		dst[o+2] = bgra[o+0]
		dst[o+3] = 0xFF
	}
}

// clampIdx clamps a coordinate to [0, n-1]. Border taps replicate the
// nearest edge texel instead of reading zero.
func clampIdx(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// lumAt reads a luma sample with clamped coordinates.
func lumAt(lum []byte, width, height, x, y int) int {
	return int(lum[clampIdx(y, height)*width+clampIdx(x, width)])
}

// writeMagnitude stores one edge magnitude as an opaque gray RGBA texel.
func writeMagnitude(dst []byte, i int, mag byte) {
	o := i * 4
	dst[o+0] = mag
	dst[o+1] = mag
	dst[o+2] = mag
	dst[o+3] = 0xFF
}
