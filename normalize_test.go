package imgtensor

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_Values(t *testing.T) {
	img := imaging.New(2, 2, color.NRGBA{R: 255, G: 0, B: 128, A: 255})
	tensor := Normalize(img, DefaultMean, DefaultStd)
	assert.Equal(t, Shape{1, 3, 2, 2}, tensor.Shape)

	want := [3]float32{
		(255 - 123.675) / 58.395,
		(0 - 116.28) / 57.12,
		(128 - 103.53) / 57.375,
	}
	for c := 0; c < 3; c++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				assert.InDelta(t, want[c], tensor.At(0, c, y, x), 1e-5)
			}
		}
	}
}

func TestNormalize_NearMean(t *testing.T) {
	// The pixel closest to the mean normalizes to about zero.
	img := imaging.New(4, 4, color.NRGBA{R: 124, G: 116, B: 104, A: 255})
	tensor := Normalize(img, DefaultMean, DefaultStd)

	for _, v := range tensor.Data {
		assert.InDelta(t, 0, v, 0.01)
	}
}

func TestNormalize_IgnoresAlpha(t *testing.T) {
	opaque := imaging.New(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	transparent := imaging.New(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	assert.Equal(t,
		Normalize(opaque, DefaultMean, DefaultStd).Data,
		Normalize(transparent, DefaultMean, DefaultStd).Data)
}

func TestNormalize_SubImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(2, 2, color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.NRGBA)
	tensor := Normalize(sub, DefaultMean, DefaultStd)

	assert.Equal(t, Shape{1, 3, 2, 2}, tensor.Shape)
	assert.InDelta(t, (200-123.675)/58.395, tensor.At(0, 0, 0, 0), 1e-5)
	assert.InDelta(t, (0-123.675)/58.395, tensor.At(0, 0, 1, 1), 1e-5)
}
