// Package imaging implements the deterministic preprocessing pipeline that
// turns raw capture bytes into the canonical grayscale representation consumed
// by the feature extractor. Every stage is a pure function of its input, so a
// fixed capture always produces the same canonical image.
package imaging

// Size is the side length of a canonical image in pixels.
const Size = 64

// CanonicalImage is a fixed 64×64 single-channel pixel grid with values in
// [0,255]. It is immutable after creation and owned exclusively by the
// extraction call that created it.
type CanonicalImage struct {
	pix [Size * Size]float64
}

// At returns the pixel value at (x, y). Coordinates outside the grid are
// clamped to the nearest edge, matching the boundary handling of the
// convolution stages.
func (c *CanonicalImage) At(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= Size {
		x = Size - 1
	}
	if y < 0 {
		y = 0
	} else if y >= Size {
		y = Size - 1
	}
	return c.pix[y*Size+x]
}

// Pixels returns a copy of the pixel grid in row-major order.
func (c *CanonicalImage) Pixels() []float64 {
	out := make([]float64, len(c.pix))
	copy(out, c.pix[:])
	return out
}

// FromPixels builds a canonical image from a row-major slice of exactly
// Size*Size values. Used by tests and by synthetic pipelines; real captures
// go through Preprocess.
func FromPixels(pix []float64) *CanonicalImage {
	if len(pix) != Size*Size {
		return nil
	}
	c := &CanonicalImage{}
	copy(c.pix[:], pix)
	return c
}

func (c *CanonicalImage) set(x, y int, v float64) {
	c.pix[y*Size+x] = v
}
