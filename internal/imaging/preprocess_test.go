package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTestPNG renders a deterministic gradient-with-detail pattern and
// encodes it as PNG.
func makeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := uint8((x * 255) / max(w-1, 1))
			g := uint8((y * 255) / max(h-1, 1))
			b := uint8((x*y + x + 3*y) % 256)
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_InvalidBytes(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDecode)
}

func TestPreprocess_Deterministic(t *testing.T) {
	raw := makeTestPNG(t, 320, 240)

	a, err := Preprocess(raw)
	require.NoError(t, err)
	b, err := Preprocess(raw)
	require.NoError(t, err)

	assert.Equal(t, a.Pixels(), b.Pixels())
}

func TestPreprocess_OutputRange(t *testing.T) {
	raw := makeTestPNG(t, 100, 80)

	c, err := Preprocess(raw)
	require.NoError(t, err)

	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range c.Pixels() {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	// Contrast stretch maps the observed range onto [0,255].
	assert.InDelta(t, 0.0, minV, 1e-9)
	assert.InDelta(t, 255.0, maxV, 1e-9)
}

func TestContrastStretch_FlatImageUnchanged(t *testing.T) {
	pix := make([]float64, Size*Size)
	for i := range pix {
		pix[i] = 42
	}
	in := FromPixels(pix)

	out := contrastStretch(in)
	assert.Equal(t, in.Pixels(), out.Pixels())
}

func TestDenoise_PreservesFlatRegions(t *testing.T) {
	pix := make([]float64, Size*Size)
	for i := range pix {
		pix[i] = 100
	}
	out := denoise(FromPixels(pix))
	for _, v := range out.Pixels() {
		assert.InDelta(t, 100.0, v, 1e-9)
	}
}

func TestAt_ClampsOutOfBounds(t *testing.T) {
	pix := make([]float64, Size*Size)
	pix[0] = 7
	pix[Size*Size-1] = 9
	c := FromPixels(pix)

	assert.Equal(t, 7.0, c.At(-5, -5))
	assert.Equal(t, 9.0, c.At(Size+3, Size+3))
}

func TestFromPixels_WrongLength(t *testing.T) {
	assert.Nil(t, FromPixels(make([]float64, 10)))
}

func TestCropFaceRegion_PaddedAndClamped(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	box := image.Rect(40, 40, 60, 60)

	cropped := CropFaceRegion(img, box)
	// 20×20 box with 20% padding on each side -> 28×28.
	assert.Equal(t, 28, cropped.Bounds().Dx())
	assert.Equal(t, 28, cropped.Bounds().Dy())

	// A box near the corner clamps to the image bounds instead of going
	// negative.
	corner := CropFaceRegion(img, image.Rect(0, 0, 20, 20))
	assert.Equal(t, 0, corner.Bounds().Min.X)
	assert.Equal(t, 0, corner.Bounds().Min.Y)
}
