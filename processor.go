package imgtensor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/esimov/imgtensor/logging"
)

// Processor options
type Processor struct {
	// Resampler is used for the initial resize. Nil selects DefaultResampler.
	Resampler Resampler
	// Mean and Std are the per-channel normalization values, in R, G, B order.
	Mean  [3]float32
	Std   [3]float32
	Debug bool
}

// NewProcessor returns a processor with the default resampler and the ImageNet statistics.
func NewProcessor() *Processor {
	rs, _ := LookupResampler(DefaultResampler)
	return &Processor{
		Resampler: rs,
		Mean:      DefaultMean,
		Std:       DefaultStd,
	}
}

func (p *Processor) resampler() (Resampler, error) {
	if p.Resampler != nil {
		return p.Resampler, nil
	}
	return LookupResampler(DefaultResampler)
}

// Transform is the core of the conversion: it resizes the image to ResizeSize x ResizeSize,
// cuts the centered CropSize x CropSize region, normalizes each channel
// and returns the result as a [1, 3, CropSize, CropSize] tensor.
func (p *Processor) Transform(img image.Image) (*Tensor, error) {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return nil, failAt(KindColorModel, fmt.Errorf("%w: grayscale images are not supported", ErrNotRGB))
	}

	rs, err := p.resampler()
	if err != nil {
		return nil, failAt(KindResize, err)
	}
	resized, err := rs.Resize(img, ResizeSize, ResizeSize)
	if err != nil {
		return nil, failAt(KindResize, fmt.Errorf("%s resize failed: %w", rs.Name(), err))
	}
	if dx, dy := resized.Bounds().Dx(), resized.Bounds().Dy(); dx != ResizeSize || dy != ResizeSize {
		return nil, failAt(KindResize, fmt.Errorf("%s resize produced a %dx%d image, expected %dx%d",
			rs.Name(), dx, dy, ResizeSize, ResizeSize))
	}

	cropped, err := centerCrop(resized, CropSize)
	if err != nil {
		return nil, failAt(KindCrop, err)
	}

	if p.Debug {
		logging.DebugLog("Transformed %dx%d image with %s resampler",
			img.Bounds().Dx(), img.Bounds().Dy(), rs.Name())
	}
	return Normalize(cropped, p.Mean, p.Std), nil
}

// Tensor decodes the image read from r and transforms it into a tensor.
func (p *Processor) Tensor(r io.Reader) (*Tensor, error) {
	ctype, r, err := sniff(r)
	if err != nil {
		return nil, failAt(KindOpen, fmt.Errorf("unable to read the source: %w", err))
	}

	img, err := Decode(r)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotRGB):
			return nil, failAt(KindColorModel, err)
		case !isImageType(ctype):
			return nil, failAt(KindNotImage, fmt.Errorf("%w (detected %s): %v", ErrNotImage, ctype, err))
		default:
			return nil, failAt(KindDecode, err)
		}
	}
	return p.Transform(img)
}

// Process converts the image read from r and writes the raw tensor bytes into w.
// We are using the io package, since we can provide different input and output types,
// as long as they implement the io.Reader and io.Writer interface.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	t, err := p.Tensor(r)
	if err != nil {
		return err
	}
	if _, err := t.WriteTo(w); err != nil {
		return failAt(KindWrite, fmt.Errorf("could not write the tensor: %w", err))
	}
	return nil
}

// ProcessFile converts the image found at path into a tensor file placed next to it.
// Errors are not returned but reported through the result, so that the caller can tally them.
// The tensor file is written atomically: on failure no partial output is left behind
// and a previously generated file is kept untouched.
func (p *Processor) ProcessFile(path string) Result {
	res := Result{
		Path:   path,
		Output: OutputPath(path),
		Status: StatusFailed,
	}

	src, err := os.Open(path)
	if err != nil {
		res.Kind = KindOpen
		res.Err = fmt.Errorf("unable to open the source file: %w", err)
		return res
	}
	defer src.Close()

	if err := p.writeFile(res.Output, src); err != nil {
		res.Kind = KindWrite
		var se *stageError
		if errors.As(err, &se) {
			res.Kind = se.kind
		}
		res.Err = err
		return res
	}

	res.Status = StatusOK
	return res
}

// writeFile converts the image read from r into a temporary file
// which is renamed to dst only after it has been completely written.
func (p *Processor) writeFile(dst string, r io.Reader) (err error) {
	dir, name := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return failAt(KindWrite, fmt.Errorf("unable to create the destination file: %w", err))
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = p.Process(r, tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(0644); err != nil {
		return failAt(KindWrite, err)
	}
	if err = tmp.Close(); err != nil {
		return failAt(KindWrite, fmt.Errorf("could not close the destination file: %w", err))
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return failAt(KindWrite, fmt.Errorf("could not move the tensor into place: %w", err))
	}
	return nil
}
