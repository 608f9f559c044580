package imaging

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders. Anything else fails with ErrDecode, which then
	// means "not an image" rather than "not a format we registered".
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/dmitrijs2005/facelock/internal/common"
)

// Luminance weights for grayscale conversion (ITU-R BT.601).
const (
	weightR = 0.299
	weightG = 0.587
	weightB = 0.114
)

// denoiseKernel is the fixed 3×3 blur applied after resizing, normalized by 16.
var denoiseKernel = [3][3]float64{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

// Decode parses raw capture bytes into an image. Unparseable bytes yield an
// error matching common.ErrDecode.
func Decode(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecode, err)
	}
	return img, nil
}

// Preprocess normalizes raw image bytes into a canonical grayscale image.
// The stages run in fixed order: bilinear resize to 64×64, luminance
// grayscale, 3×3 blur denoise, then a linear contrast stretch.
func Preprocess(raw []byte) (*CanonicalImage, error) {
	img, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return PreprocessImage(img), nil
}

// PreprocessImage runs the same pipeline as Preprocess on an already decoded
// image, e.g. one cropped to a detector-provided face region.
func PreprocessImage(img image.Image) *CanonicalImage {
	resized := resizeGray(img)
	denoised := denoise(resized)
	return contrastStretch(denoised)
}

// resizeGray resizes to Size×Size with bilinear interpolation and converts to
// grayscale. Interpolation happens per color channel before the luminance
// combination so chroma edges contribute correctly.
func resizeGray(img image.Image) *CanonicalImage {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	out := &CanonicalImage{}

	// Map destination pixel centers onto the source grid. Degenerate
	// 1-pixel sources collapse to a zero scale.
	scaleX, scaleY := 0.0, 0.0
	if srcW > 1 {
		scaleX = float64(srcW-1) / float64(Size-1)
	}
	if srcH > 1 {
		scaleY = float64(srcH-1) / float64(Size-1)
	}

	for y := 0; y < Size; y++ {
		srcY := float64(y) * scaleY
		y0 := int(srcY)
		y1 := y0 + 1
		if y1 > srcH-1 {
			y1 = srcH - 1
		}
		fy := srcY - float64(y0)

		for x := 0; x < Size; x++ {
			srcX := float64(x) * scaleX
			x0 := int(srcX)
			x1 := x0 + 1
			if x1 > srcW-1 {
				x1 = srcW - 1
			}
			fx := srcX - float64(x0)

			r00, g00, b00 := rgbAt(img, bounds.Min.X+x0, bounds.Min.Y+y0)
			r10, g10, b10 := rgbAt(img, bounds.Min.X+x1, bounds.Min.Y+y0)
			r01, g01, b01 := rgbAt(img, bounds.Min.X+x0, bounds.Min.Y+y1)
			r11, g11, b11 := rgbAt(img, bounds.Min.X+x1, bounds.Min.Y+y1)

			r := lerp2(r00, r10, r01, r11, fx, fy)
			g := lerp2(g00, g10, g01, g11, fx, fy)
			b := lerp2(b00, b10, b01, b11, fx, fy)

			out.set(x, y, weightR*r+weightG*g+weightB*b)
		}
	}
	return out
}

func rgbAt(img image.Image, x, y int) (r, g, b float64) {
	ri, gi, bi, _ := img.At(x, y).RGBA()
	// RGBA returns 16-bit channels; scale back to [0,255].
	return float64(ri) / 257.0, float64(gi) / 257.0, float64(bi) / 257.0
}

func lerp2(v00, v10, v01, v11, fx, fy float64) float64 {
	top := v00 + (v10-v00)*fx
	bottom := v01 + (v11-v01)*fx
	return top + (bottom-top)*fy
}

// denoise applies the fixed 3×3 blur kernel with edge-clamped boundary
// handling, suppressing sensor noise and compression artifacts that would
// otherwise corrupt the texture codes.
func denoise(in *CanonicalImage) *CanonicalImage {
	out := &CanonicalImage{}
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			var sum float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sum += denoiseKernel[ky+1][kx+1] * in.At(x+kx, y+ky)
				}
			}
			out.set(x, y, sum/16.0)
		}
	}
	return out
}

// contrastStretch linearly remaps the observed [min,max] range to [0,255].
// A flat image (min == max) is returned unchanged rather than divided by zero.
func contrastStretch(in *CanonicalImage) *CanonicalImage {
	minV, maxV := in.pix[0], in.pix[0]
	for _, v := range in.pix {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV == minV {
		return in
	}

	out := &CanonicalImage{}
	scale := 255.0 / (maxV - minV)
	for i, v := range in.pix {
		out.pix[i] = (v - minV) * scale
	}
	return out
}
