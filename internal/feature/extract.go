package feature

import (
	"math"

	"github.com/dmitrijs2005/facelock/internal/imaging"
)

// Neighbor offsets for the texture codes, clockwise from the top-left.
// Bit k of the code corresponds to offsets[k].
var offsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{1, 0},
	{1, 1}, {0, 1}, {-1, 1},
	{-1, 0},
}

const (
	textureGrid  = 4  // 4×4 grid of 16×16-pixel cells
	textureBins  = 32 // top-5-bits quantization of the 8-bit code
	gradientGrid = 8  // 8×8 grid of 8×8-pixel cells
)

// Extract computes the 640-dimensional embedding for a canonical image:
// 512 texture histogram values followed by 128 gradient statistics, globally
// L2-normalized. The computation is deterministic and has no failure path.
func Extract(img *imaging.CanonicalImage) Embedding {
	emb := make(Embedding, 0, Dim)
	emb = append(emb, textureChannel(img)...)
	emb = append(emb, gradientChannel(img)...)
	return emb.Normalize()
}

// textureChannel builds per-cell histograms of 8-bit neighbor-comparison
// codes. For every interior pixel, bit k is set iff the neighbor at
// offsets[k] is >= the center value (ties favor "set"). Codes are bucketed
// into 32 bins per cell and each cell histogram is normalized to sum to 1.
// Cells are concatenated in row-major grid order.
func textureChannel(img *imaging.CanonicalImage) []float64 {
	const cellSize = imaging.Size / textureGrid

	hist := make([]float64, TextureDims)

	for y := 1; y < imaging.Size-1; y++ {
		for x := 1; x < imaging.Size-1; x++ {
			center := img.At(x, y)
			var code uint8
			for k, off := range offsets {
				if img.At(x+off[0], y+off[1]) >= center {
					code |= 1 << uint(k)
				}
			}

			cellX := x / cellSize
			cellY := y / cellSize
			bin := int(code) * textureBins / 256
			hist[(cellY*textureGrid+cellX)*textureBins+bin]++
		}
	}

	// Normalize each cell histogram independently; an empty cell stays
	// all-zero.
	for cell := 0; cell < textureGrid*textureGrid; cell++ {
		var sum float64
		base := cell * textureBins
		for b := 0; b < textureBins; b++ {
			sum += hist[base+b]
		}
		if sum == 0 {
			continue
		}
		for b := 0; b < textureBins; b++ {
			hist[base+b] /= sum
		}
	}

	return hist
}

// gradientChannel computes Sobel gradient magnitudes over the [0,1]-scaled
// image, normalizes them by the image-wide maximum, and reports per-cell mean
// and standard deviation over an 8×8 grid: 64 means followed by 64 standard
// deviations.
func gradientChannel(img *imaging.CanonicalImage) []float64 {
	var mag [imaging.Size][imaging.Size]float64
	var maxMag float64

	at := func(x, y int) float64 { return img.At(x, y) / 255.0 }

	for y := 1; y < imaging.Size-1; y++ {
		for x := 1; x < imaging.Size-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)

			m := math.Sqrt(gx*gx + gy*gy)
			mag[y][x] = m
			if m > maxMag {
				maxMag = m
			}
		}
	}

	if maxMag > 0 {
		for y := 1; y < imaging.Size-1; y++ {
			for x := 1; x < imaging.Size-1; x++ {
				mag[y][x] /= maxMag
			}
		}
	}

	const cellSize = imaging.Size / gradientGrid
	cells := gradientGrid * gradientGrid

	out := make([]float64, GradientDims)
	for cellY := 0; cellY < gradientGrid; cellY++ {
		for cellX := 0; cellX < gradientGrid; cellX++ {
			var sum, sumSq float64
			var count float64
			for y := cellY * cellSize; y < (cellY+1)*cellSize; y++ {
				for x := cellX * cellSize; x < (cellX+1)*cellSize; x++ {
					if x == 0 || y == 0 || x == imaging.Size-1 || y == imaging.Size-1 {
						continue // magnitude undefined on the border
					}
					sum += mag[y][x]
					sumSq += mag[y][x] * mag[y][x]
					count++
				}
			}

			idx := cellY*gradientGrid + cellX
			if count == 0 {
				continue
			}
			mean := sum / count
			variance := sumSq/count - mean*mean
			if variance < 0 {
				variance = 0 // floating round-off
			}
			out[idx] = mean
			out[cells+idx] = math.Sqrt(variance)
		}
	}

	return out
}
