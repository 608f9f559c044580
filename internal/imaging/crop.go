package imaging

import "image"

// facePadding is the fraction of the bounding box added on every side when
// cropping a detector-provided face region.
const facePadding = 0.2

// CropFaceRegion returns the sub-image covering the given face bounding box
// plus 20% padding on each side, clamped to the image bounds. When the source
// does not support sub-imaging the pixels are copied instead.
func CropFaceRegion(img image.Image, box image.Rectangle) image.Image {
	padX := int(float64(box.Dx()) * facePadding)
	padY := int(float64(box.Dy()) * facePadding)

	padded := image.Rect(box.Min.X-padX, box.Min.Y-padY, box.Max.X+padX, box.Max.Y+padY)
	padded = padded.Intersect(img.Bounds())
	if padded.Empty() {
		return img
	}

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(padded)
	}

	out := image.NewRGBA(image.Rect(0, 0, padded.Dx(), padded.Dy()))
	for y := padded.Min.Y; y < padded.Max.Y; y++ {
		for x := padded.Min.X; x < padded.Max.X; x++ {
			out.Set(x-padded.Min.X, y-padded.Min.Y, img.At(x, y))
		}
	}
	return out
}
