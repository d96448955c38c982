package imgtensor

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	// ResizeSize is the side of the square every source image is first resized to.
	ResizeSize = 256
	// CropSize is the side of the centered square fed to the network.
	CropSize = 224
)

// ErrCropSize is returned when the center crop does not produce a CropSize square.
var ErrCropSize = errors.New("unexpected crop size")

// centerCrop cuts the centered size x size region out of img.
// The offsets are computed as floor((dim - size) / 2) and the region spans
// [off, dim - off) on both axes, so the crop is only square when the source
// has been resized to ResizeSize beforehand.
func centerCrop(img *image.NRGBA, size int) (*image.NRGBA, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	hOff := (height - size) / 2
	wOff := (width - size) / 2
	rect := image.Rect(b.Min.X+wOff, b.Min.Y+hOff, b.Max.X-wOff, b.Max.Y-hOff)

	dst := imaging.Crop(img, rect)
	if dst.Bounds().Dx() != size || dst.Bounds().Dy() != size {
		return nil, fmt.Errorf("%w: got %dx%d from a %dx%d image, expected %dx%d",
			ErrCropSize, dst.Bounds().Dx(), dst.Bounds().Dy(), width, height, size, size)
	}
	return dst, nil
}
