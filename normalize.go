package imgtensor

import "image"

// Per-channel statistics of the ImageNet training set, in R, G, B order,
// expressed on the 0-255 pixel scale.
var (
	DefaultMean = [3]float32{123.675, 116.28, 103.53}
	DefaultStd  = [3]float32{58.395, 57.12, 57.375}
)

// normalize converts the RGB channels of img to float32 and applies the
// (v - mean) / std transform channel-wise. The result is an interleaved HWC buffer.
// The computation stays in float32, so the values match a float32 array processed in place.
func normalize(img *image.NRGBA, mean, std [3]float32) []float32 {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	hwc := make([]float32, width*height*3)

	j := 0
	for y := 0; y < height; y++ {
		i := img.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < width; x++ {
			for c := 0; c < 3; c++ {
				v := float32(img.Pix[i+c])
				v -= mean[c]
				v /= std[c]
				hwc[j+c] = v
			}
			i += 4
			j += 3
		}
	}
	return hwc
}

// Normalize turns an RGB image into a normalized [1, 3, H, W] tensor.
func Normalize(img *image.NRGBA, mean, std [3]float32) *Tensor {
	b := img.Bounds()
	return fromHWC(normalize(img, mean, std), b.Dy(), b.Dx(), 3)
}
