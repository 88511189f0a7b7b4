package kernel

// Laplacian runs the discrete 3x3 second-derivative convolution
//
//	 0 -1  0
//	-1  4 -1
//	 0 -1  0
//
// over the luma of a BGRA frame and writes the absolute response, clamped
// to 255, into dst as opaque gray RGBA. Border taps are clamped, so a
// uniform frame produces a uniformly zero edge map all the way to the
// edges.
func Laplacian(dst, bgra []byte, width, height int) {
	lum := Luminance(bgra, width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := lumAt(lum, width, height, x, y)
			up := lumAt(lum, width, height, x, y-1)
			down := lumAt(lum, width, height, x, y+1)
			left := lumAt(lum, width, height, x-1, y)
			right := lumAt(lum, width, height, x+1, y)

			v := 4*c - up - down - left - right
			if v < 0 {
				v = -v
			}
			if v > 255 {
				v = 255
			}
			writeMagnitude(dst, y*width+x, byte(v))
		}
	}
}
