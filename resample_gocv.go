//go:build gocv

package imgtensor

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// opencvResampler resizes through OpenCV. It is only built with the gocv tag,
// since it requires the OpenCV shared libraries to be installed.
type opencvResampler struct {
	name   string
	interp gocv.InterpolationFlags
}

func (r opencvResampler) Name() string { return r.name }

func (r opencvResampler) Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("could not convert image to mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Resize(src, &dst, image.Point{X: width, Y: height}, 0, 0, r.interp)
	if dst.Empty() {
		return nil, fmt.Errorf("opencv resize returned an empty mat")
	}

	res, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("could not convert mat to image: %w", err)
	}
	return imgToNRGBA(res), nil
}

func init() {
	RegisterResampler(opencvResampler{"opencv-linear", gocv.InterpolationLinear})
	RegisterResampler(opencvResampler{"opencv-cubic", gocv.InterpolationCubic})
}
