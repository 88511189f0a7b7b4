package kernel

// Gradient direction classes used for non-maximum thinning. Directions are
// quantized from the raw Sobel responses with integer comparisons only, so
// the classification is exactly reproducible in shader code.
const (
	dirHorizontal = iota // gradient points left/right
	dirVertical          // gradient points up/down
	dirDiagRise          // gradient along the rising diagonal
	dirDiagFall          // gradient along the falling diagonal
)

// CannyLike runs the thinned, double-thresholded edge detector:
//
//  1. Sobel gradient over the luma, magnitude = (|gx| + |gy|) >> 3.
//  2. Non-maximum thinning along the quantized gradient direction.
//  3. Double threshold: magnitude >= high is a strong edge, magnitude in
//     [low, high) is weak and kept only when an 8-neighbor is strong.
//
// Surviving texels are written as opaque white, everything else as the
// zero texel (opaque black). Border taps are clamped throughout.
func CannyLike(dst, bgra []byte, width, height int, low, high uint8) {
	lum := Luminance(bgra, width, height)

	mag := make([]byte, width*height)
	dir := make([]byte, width*height)
	sobel(mag, dir, lum, width, height)

	thin := make([]byte, width*height)
	suppress(thin, mag, dir, width, height)

	threshold(dst, thin, width, height, low, high)
}

// sobel computes per-texel gradient magnitude and quantized direction.
func sobel(mag, dir, lum []byte, width, height int) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			tl := lumAt(lum, width, height, x-1, y-1)
			tc := lumAt(lum, width, height, x, y-1)
			tr := lumAt(lum, width, height, x+1, y-1)
			ml := lumAt(lum, width, height, x-1, y)
			mr := lumAt(lum, width, height, x+1, y)
			bl := lumAt(lum, width, height, x-1, y+1)
			bc := lumAt(lum, width, height, x, y+1)
			br := lumAt(lum, width, height, x+1, y+1)

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)

			ax, ay := gx, gy
			if ax < 0 {
				ax = -ax
			}
			if ay < 0 {
				ay = -ay
			}

			m := (ax + ay) >> 3 // max 2040 >> 3 = 255
			mag[y*width+x] = byte(m)
			dir[y*width+x] = quantize(gx, gy, ax, ay)
		}
	}
}

// quantize maps a gradient vector onto one of the four direction classes.
// A component wins outright when it is more than twice the other; anything
// in between is one of the diagonals, picked by the sign of gx*gy.
func quantize(gx, gy, ax, ay int) byte {
	switch {
	case ax > 2*ay:
		return dirHorizontal
	case ay > 2*ax:
		return dirVertical
	case (gx >= 0) == (gy >= 0):
		return dirDiagFall
	default:
		return dirDiagRise
	}
}

// suppress zeroes texels that are not a local magnitude maximum along
// their gradient direction. Ties keep the texel, so a perfectly symmetric
// two-texel ridge survives as two texels rather than vanishing.
func suppress(thin, mag, dir []byte, width, height int) {
	magAt := func(x, y int) byte {
		return mag[clampIdx(y, height)*width+clampIdx(x, width)]
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := mag[i]
			if m == 0 {
				continue
			}

			var a, b byte
			switch dir[i] {
			case dirHorizontal:
				a, b = magAt(x-1, y), magAt(x+1, y)
			case dirVertical:
				a, b = magAt(x, y-1), magAt(x, y+1)
			case dirDiagFall:
				a, b = magAt(x-1, y-1), magAt(x+1, y+1)
			default: // dirDiagRise
				a, b = magAt(x+1, y-1), magAt(x-1, y+1)
			}

			if m >= a && m >= b {
				thin[i] = m
			}
		}
	}
}

// threshold applies the double threshold and single-pass weak-edge
// promotion, writing the final binary edge map into dst as RGBA.
func threshold(dst, thin []byte, width, height int, low, high uint8) {
	strong := make([]byte, width*height)
	for i, m := range thin {
		if m >= high {
			strong[i] = 1
		}
	}

	strongAt := func(x, y int) byte {
		if x < 0 || x >= width || y < 0 || y >= height {
			return 0
		}
		return strong[y*width+x]
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := thin[i]

			keep := strong[i] == 1
			if !keep && m >= low {
				// Weak edge: kept only next to a strong one.
				for dy := -1; dy <= 1 && !keep; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if strongAt(x+dx, y+dy) == 1 {
							keep = true
							break
						}
					}
				}
			}

			if keep {
				writeMagnitude(dst, i, 0xFF)
			} else {
				writeMagnitude(dst, i, 0)
			}
		}
	}
}
